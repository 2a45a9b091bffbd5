package amvnews

import (
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/John-Robertt/amvnews/internal/domain"
	"github.com/John-Robertt/amvnews/internal/ident"
)

// 所有规则都整段锚定（^...$）并允许跨行；匹配不到一律视为该项缺失。
var (
	reSize       = regexp.MustCompile(`(?s)^.*Размер</b>: (([\d.]+) Мб)?.*$`)
	reCodecs     = regexp.MustCompile(`(?s)^.*Кодеки</b>: (.+?)/(.+?)<BR>.*$`)
	reResolution = regexp.MustCompile(`(?s)^.*Разрешение</b>: (\d+)x(\d+)@([\d.]+).*$`)
	reDuration   = regexp.MustCompile(`(?s)^.*Длительность</b>: ((\d+) мин )?((\d+) сек)?.*$`)
	reAired      = regexp.MustCompile(`(?s)^.*(\d{2})\.(\d{2})\.(\d{4}).*$`)
	reAdded      = regexp.MustCompile(`(?s)^.*(\d{2})\.(\d{2})\.(\d{4}).*(\d{2}):(\d{2}).*$`)
)

// Duration 从下载链接的悬浮提示中解析时长（秒）：“N мин ”与“M сек”都是可选的。
func Duration(fileInfo string) int {
	m := reDuration.FindStringSubmatch(fileInfo)
	if m == nil {
		return 0
	}
	total := 0
	if m[2] != "" {
		n, _ := strconv.Atoi(m[2])
		total += n * 60
	}
	if m[4] != "" {
		n, _ := strconv.Atoi(m[4])
		total += n
	}
	return total
}

// Size 解析文件大小：十进制的兆字节数 ×1024×1024 后截断为整数字节。
func Size(fileInfo string) int64 {
	m := reSize.FindStringSubmatch(fileInfo)
	if m == nil || m[2] == "" {
		return 0
	}
	mb, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return 0
	}
	return int64(mb * 1024 * 1024)
}

// Codecs 解析“视频/音频”编码对（以 <BR> 结束）。
func Codecs(fileInfo string) (video, audio string) {
	m := reCodecs.FindStringSubmatch(fileInfo)
	if m == nil {
		return "", ""
	}
	return m[1], m[2]
}

// Resolution 解析“WxH@FPS”；FPS 不使用。高度为 0 时 aspect 为 0。
func Resolution(fileInfo string) (width, height int, aspect float64) {
	m := reResolution.FindStringSubmatch(fileInfo)
	if m == nil {
		return 0, 0, 0
	}
	width, _ = strconv.Atoi(m[1])
	height, _ = strconv.Atoi(m[2])
	if height != 0 {
		aspect = float64(width) / float64(height)
	}
	return width, height, aspect
}

// Aired 在作者信息块中找 DD.MM.YYYY（取最后一个），返回 YYYY-MM-DD。
func Aired(text string) string {
	m := reAired.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return fmt.Sprintf("%s-%s-%s", m[3], m[2], m[1])
}

// Added 在上传者信息块中找“DD.MM.YYYY ... HH:MM”，返回 YYYY-MM-DD HH:MM:00。
func Added(text string) string {
	m := reAdded.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return fmt.Sprintf("%s-%s-%s %s:%s:00", m[3], m[2], m[1], m[4], m[5])
}

// SubtitleLanguage 按提示文本中的语言名片段分类；认不出来返回 LanguageUnknown。
func SubtitleLanguage(tooltip string) domain.Language {
	switch {
	case strings.Contains(tooltip, "русск"), strings.Contains(tooltip, "Русск"):
		return domain.LanguageRussian
	case strings.Contains(tooltip, "англ"), strings.Contains(tooltip, "Англ"):
		return domain.LanguageEnglish
	default:
		return domain.LanguageUnknown
	}
}

// Subtitles 解析字幕块中的链接列表（保持页面顺序）。
// href 中取不到字幕 ID 的链接被跳过。
func Subtitles(links *goquery.Selection) []domain.Subtitle {
	out := []domain.Subtitle{}
	links.Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		id, ok := ident.SubtitleID(href)
		if !ok {
			return
		}
		out = append(out, domain.Subtitle{Language: SubtitleLanguage(tooltip(a)), ID: id})
	})
	return out
}

func tooltip(a *goquery.Selection) string {
	if s, ok := a.Attr("onmouseover"); ok && strings.TrimSpace(s) != "" {
		return s
	}
	if s, ok := a.Attr("title"); ok && strings.TrimSpace(s) != "" {
		return s
	}
	return a.Text()
}

// Images 返回图片 URL 列表：itemprop=image 的主图在前，
// 之后追加 alt 文本与主图相同的其它图片（按 URL 字符串去重）。
func Images(doc *goquery.Document, base *url.URL) []string {
	out := []string{}
	main := doc.Find("[itemprop=image]").First()
	src := resolveURL(base, main.AttrOr("src", ""))
	if src == "" {
		return out
	}
	out = append(out, src)

	alt := main.AttrOr("alt", "")
	if strings.TrimSpace(alt) == "" {
		return out
	}
	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		if img.AttrOr("alt", "") != alt {
			return
		}
		u := resolveURL(base, img.AttrOr("src", ""))
		if u == "" || slices.Contains(out, u) {
			return
		}
		out = append(out, u)
	})
	return out
}

func resolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ru, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base == nil {
		return ru.String()
	}
	return base.ResolveReference(ru).String()
}
