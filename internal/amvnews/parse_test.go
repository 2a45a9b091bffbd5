package amvnews

import (
	"net/url"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/amvnews/internal/domain"
)

func fixture(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile("testdata/" + name)
	require.NoError(t, err)
	return string(b)
}

func TestParseDetail(t *testing.T) {
	base, _ := url.Parse(DefaultBaseURL)
	amv := ParseDetail(mustDoc(t, fixture(t, "detail.html")), 101, base)

	assert.Equal(t, 101, amv.ID)
	assert.Equal(t, domain.FormatVersion, amv.Format)
	assert.True(t, amv.FetchedAt.IsZero())

	assert.Equal(t, domain.Info{
		Title:       "Зимняя сказка",
		Description: "Клип о зиме.",
		Rating:      4.5,
		Votes:       12,
		Author:      "Nekomimi",
		Genre:       "Drama, Romance",
		UserRating:  4,
		Aired:       "2015-03-12",
		Added:       "2015-03-14 18:42:00",
	}, amv.Info)

	assert.Equal(t, 225, amv.Video.Duration)
	assert.Equal(t, int64(734527488), amv.Video.Size)
	assert.Equal(t, "XviD", amv.Video.VideoCodec)
	assert.Equal(t, "MP3 128kbps", amv.Video.AudioCodec)
	assert.Equal(t, 1280, amv.Video.Width)
	assert.Equal(t, 720, amv.Video.Height)
	assert.InDelta(t, 1.7778, amv.Video.Aspect, 0.0001)

	assert.Equal(t, []domain.Subtitle{
		{Language: domain.LanguageRussian, ID: 10},
		{Language: domain.LanguageEnglish, ID: 20},
		{Language: domain.LanguageUnknown, ID: 30},
	}, amv.Subtitles)

	assert.Equal(t, []string{
		"http://amvnews.ru/images/amv/101.jpg",
		"http://amvnews.ru/images/amv/101-2.jpg",
	}, amv.Images)
	assert.Equal(t, "http://amvnews.ru/images/amv/101.jpg", amv.Image())
	assert.Equal(t, "http://amvnews.ru/images/amv/101-2.jpg", amv.Fanart())
}

func TestParseDetail_EmptyPageIsZeroRecord(t *testing.T) {
	amv := ParseDetail(mustDoc(t, `<html><body><p>Файл не найден</p></body></html>`), 5, nil)

	assert.Equal(t, 5, amv.ID)
	assert.Equal(t, domain.Info{}, amv.Info)
	assert.Equal(t, domain.Video{}, amv.Video)
	assert.NotNil(t, amv.Subtitles)
	assert.Empty(t, amv.Subtitles)
	assert.NotNil(t, amv.Images)
	assert.Empty(t, amv.Images)
}

func TestParseDetail_UnratedVoteText(t *testing.T) {
	amv := ParseDetail(mustDoc(t, `<span id="vote-text"> - </span><span itemprop="ratingCount">n/a</span>`), 1, nil)
	assert.Zero(t, amv.Info.UserRating)
	assert.Zero(t, amv.Info.Votes)
}

func TestParseFeatured(t *testing.T) {
	got := ParseFeatured(mustDoc(t, fixture(t, "featured.html")))
	assert.Equal(t, []ListingRef{
		{ID: 101, Date: "14.03.2015"},
		{ID: 202, Date: "10.03.2015"},
	}, got)
}

func TestParseFileList(t *testing.T) {
	got := ParseFileList(mustDoc(t, fixture(t, "filelist.html")))
	assert.Equal(t, []ListingRef{{ID: 202}, {ID: 101}}, got)

	assert.Empty(t, ParseFileList(mustDoc(t, `<p>Список пуст</p>`)))
}
