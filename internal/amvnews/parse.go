package amvnews

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/John-Robertt/amvnews/internal/domain"
	"github.com/John-Robertt/amvnews/internal/ident"
)

// ListingRef 是列表页中的一项：AMV id 与（精选列表才有的）发布日期文本。
type ListingRef struct {
	ID   int
	Date string
}

// ParseDetail 把详情页解析为完整记录。
//
// 约束：
// - 纯函数：只依赖 doc / id / base
// - 任一字段缺失都填零值，不返回错误
// - FetchedAt 由调用方盖章
func ParseDetail(doc *goquery.Document, id int, base *url.URL) domain.AMV {
	amv := domain.AMV{
		ID:     id,
		Format: domain.FormatVersion,
	}

	amv.Info = domain.Info{
		Title:       text(doc.Find("h1[itemprop=name]")),
		Description: text(doc.Find("[itemprop=description]")),
		Rating:      parseFloat(text(doc.Find("[itemprop=ratingValue]"))),
		Votes:       parseInt(text(doc.Find("[itemprop=ratingCount]"))),
		Author:      text(doc.Find("span[itemprop=name]")),
		Genre:       genre(doc),
		UserRating:  userRating(doc),
		Aired:       Aired(doc.Find("#author-block").First().Text()),
		Added:       Added(doc.Find("#sender-block").First().Text()),
	}

	fileInfo := doc.Find("#main-link-block a").First().AttrOr("onmouseover", "")
	v := domain.Video{
		Duration: Duration(fileInfo),
		Size:     Size(fileInfo),
	}
	v.VideoCodec, v.AudioCodec = Codecs(fileInfo)
	v.Width, v.Height, v.Aspect = Resolution(fileInfo)
	amv.Video = v

	amv.Subtitles = Subtitles(doc.Find("#subtitles-block a"))
	amv.Images = Images(doc, base)
	return amv
}

// ParseFeatured 解析精选列表页：每个 span.newstitle 所在表格的下一张表格里
// 有“详细”链接（a.more-news-simple-a），日期在标题单元格的下一个单元格。
func ParseFeatured(doc *goquery.Document) []ListingRef {
	out := []ListingRef{}
	doc.Find("span.newstitle").Each(func(_ int, title *goquery.Selection) {
		link := title.Closest("table").NextAllFiltered("table").First().
			Find("a.more-news-simple-a").First()
		id, ok := ident.AMVID(link.AttrOr("href", ""))
		if !ok {
			return
		}
		date := strings.TrimSpace(title.Closest("td").NextAllFiltered("td").First().Text())
		out = append(out, ListingRef{ID: id, Date: date})
	})
	return out
}

// ParseFileList 解析个人列表页（已评分/收藏）：所有指向详情页的链接，按出现顺序去重。
func ParseFileList(doc *goquery.Document) []ListingRef {
	out := []ListingRef{}
	seen := map[int]struct{}{}
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := a.AttrOr("href", "")
		if !strings.Contains(href, "in=view") {
			return
		}
		id, ok := ident.AMVID(href)
		if !ok {
			return
		}
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		out = append(out, ListingRef{ID: id})
	})
	return out
}

func text(s *goquery.Selection) string {
	return strings.TrimSpace(s.First().Text())
}

func genre(doc *goquery.Document) string {
	var parts []string
	doc.Find("[itemprop=genre]").Each(func(_ int, s *goquery.Selection) {
		if c, ok := s.Attr("content"); ok {
			parts = append(parts, c)
		}
	})
	return strings.Join(parts, ", ")
}

// userRating：“-” 或缺失表示未评分。
func userRating(doc *goquery.Document) float64 {
	s := text(doc.Find("#vote-text"))
	if s == "" || s == "-" {
		return 0
	}
	return parseFloat(s)
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

func parseInt(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
