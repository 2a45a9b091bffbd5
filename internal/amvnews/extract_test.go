package amvnews

import (
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/amvnews/internal/domain"
)

const fileInfo = "return overlib('<b>Размер</b>: 700.5 Мб<BR><b>Кодеки</b>: XviD/MP3 128kbps<BR>" +
	"<b>Разрешение</b>: 1280x720@23.97<BR><b>Длительность</b>: 3 мин 45 сек<BR>');"

func TestDuration(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"Длительность</b>: 3 мин 45 сек", 225},
		{"Длительность</b>: 45 сек", 45},
		{"Длительность</b>: 4 мин ", 240},
		{"line1\n<b>Длительность</b>: 1 мин 5 сек<BR>\nline3", 65},
		{"Длительность</b>: ", 0},
		{"Размер</b>: 1 Мб", 0},
		{"", 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Duration(tc.in), "in=%q", tc.in)
	}
}

func TestSize(t *testing.T) {
	assert.Equal(t, int64(734527488), Size("Размер</b>: 700.5 Мб"))
	assert.Equal(t, int64(734527488), Size(fileInfo))
	assert.Equal(t, int64(1048576), Size("x\nРазмер</b>: 1 Мб\ny"))
	assert.Equal(t, int64(0), Size("Размер</b>: неизвестно"))
	assert.Equal(t, int64(0), Size("Размер</b>: 1.2.3 Мб"))
	assert.Equal(t, int64(0), Size("Кодеки</b>: a/b<BR>"))
}

func TestCodecs(t *testing.T) {
	v, a := Codecs(fileInfo)
	assert.Equal(t, "XviD", v)
	assert.Equal(t, "MP3 128kbps", a)

	v, a = Codecs("Кодеки</b>: H.264 без звука<BR>")
	assert.Empty(t, v)
	assert.Empty(t, a)
}

func TestResolution(t *testing.T) {
	w, h, aspect := Resolution("Разрешение</b>: 1280x720@23.97")
	assert.Equal(t, 1280, w)
	assert.Equal(t, 720, h)
	assert.InDelta(t, 1.7778, aspect, 0.0001)

	w, h, aspect = Resolution("Разрешение</b>: 640x0@25")
	assert.Equal(t, 640, w)
	assert.Equal(t, 0, h)
	assert.Equal(t, 0.0, aspect)

	w, h, aspect = Resolution("Разрешение</b>: 1280x720")
	assert.Zero(t, w)
	assert.Zero(t, h)
	assert.Zero(t, aspect)
}

func TestAiredAdded(t *testing.T) {
	assert.Equal(t, "2015-03-12", Aired("Автор: Nekomimi\nДата: 12.03.2015\n"))
	assert.Equal(t, "2016-01-02", Aired("01.01.2015 ... 02.01.2016"), "取最后一个日期")
	assert.Equal(t, "", Aired("без даты"))

	assert.Equal(t, "2015-03-14 18:42:00", Added("Добавил: admin\n14.03.2015 в 18:42"))
	assert.Equal(t, "", Added("14.03.2015"), "缺少时间")
	assert.Equal(t, "", Added(""))
}

func TestSubtitleLanguage(t *testing.T) {
	assert.Equal(t, domain.LanguageRussian, SubtitleLanguage("Русские субтитры"))
	assert.Equal(t, domain.LanguageRussian, SubtitleLanguage("на русском"))
	assert.Equal(t, domain.LanguageEnglish, SubtitleLanguage("Английские"))
	assert.Equal(t, domain.LanguageEnglish, SubtitleLanguage("перевод с англ."))
	assert.Equal(t, domain.LanguageUnknown, SubtitleLanguage("English"))
	assert.Equal(t, domain.LanguageUnknown, SubtitleLanguage(""))
}

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestSubtitles(t *testing.T) {
	doc := mustDoc(t, `<div id="subtitles-block">
		<a href="index.php?go=Files&amp;file=down&amp;sub=10" onmouseover="overlib('Русские')">s</a>
		<a href="index.php?go=Files&amp;file=down&amp;sub=20" title="Английские">s</a>
		<a href="index.php?go=Files&amp;file=down&amp;sub=30">Субтитры</a>
		<a href="index.php">нет</a>
	</div>`)

	got := Subtitles(doc.Find("#subtitles-block a"))
	assert.Equal(t, []domain.Subtitle{
		{Language: domain.LanguageRussian, ID: 10},
		{Language: domain.LanguageEnglish, ID: 20},
		{Language: domain.LanguageUnknown, ID: 30},
	}, got)

	empty := Subtitles(doc.Find("#missing a"))
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestImages(t *testing.T) {
	base, _ := url.Parse("http://amvnews.ru/index.php")
	doc := mustDoc(t, `
		<img itemprop="image" src="/images/a.jpg" alt="Клип">
		<img src="/images/b.jpg" alt="Клип">
		<img src="/images/a.jpg" alt="Клип">
		<img src="http://cdn.example/c.png" alt="Клип">
		<img src="/images/x.jpg" alt="Другое">`)

	assert.Equal(t, []string{
		"http://amvnews.ru/images/a.jpg",
		"http://amvnews.ru/images/b.jpg",
		"http://cdn.example/c.png",
	}, Images(doc, base))

	assert.Empty(t, Images(mustDoc(t, `<p>нет картинок</p>`), base))

	// 主图没有 alt：只返回主图。
	assert.Equal(t, []string{"http://amvnews.ru/a.jpg"},
		Images(mustDoc(t, `<img itemprop="image" src="a.jpg"><img src="b.jpg">`), base))
}
