package nfo

import (
	"encoding/xml"
	"strings"
	"testing"

	"github.com/John-Robertt/amvnews/internal/domain"
)

type musicVideoOut struct {
	XMLName    xml.Name `xml:"musicvideo"`
	Title      string   `xml:"title"`
	UserRating float64  `xml:"userrating"`
	Plot       string   `xml:"plot"`
	Year       int      `xml:"year"`
	DateAdded  string   `xml:"dateadded"`
	Director   string   `xml:"director"`
	PlayCount  int      `xml:"playcount"`
	Genres     []string `xml:"genre"`
}

func TestEncode_Fields(t *testing.T) {
	amv := domain.AMV{
		ID: 101,
		Info: domain.Info{
			Title:       " Зимняя сказка ",
			Description: "Клип о зиме & снеге",
			Author:      "Nekomimi",
			Genre:       "Drama, , Romance",
			UserRating:  4,
			Aired:       "2015-03-12",
			Added:       "2015-03-14 18:42:00",
		},
	}

	b, err := Encode(amv)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if !strings.HasPrefix(string(b), `<?xml version="1.0" encoding="UTF-8" standalone="yes" ?>`) {
		t.Fatalf("缺少 XML 头：%q", string(b[:40]))
	}

	var out musicVideoOut
	if err := xml.Unmarshal(b, &out); err != nil {
		t.Fatalf("xml.Unmarshal 失败：%v", err)
	}

	if out.Title != "Зимняя сказка" {
		t.Fatalf("title 不一致：%q", out.Title)
	}
	if out.UserRating != 8 {
		t.Fatalf("userrating 应为评分 ×2：%v", out.UserRating)
	}
	if out.Plot != "Клип о зиме & снеге" {
		t.Fatalf("plot 不一致：%q", out.Plot)
	}
	if out.Year != 2015 || out.DateAdded != "2015-03-14 18:42:00" {
		t.Fatalf("year/dateadded 不一致：%d %q", out.Year, out.DateAdded)
	}
	if out.Director != "Nekomimi" || out.PlayCount != 1 {
		t.Fatalf("director/playcount 不一致：%q %d", out.Director, out.PlayCount)
	}
	if len(out.Genres) != 2 || out.Genres[0] != "Drama" || out.Genres[1] != "Romance" {
		t.Fatalf("genre 不一致：%v", out.Genres)
	}
}

func TestEncode_ZeroRecordOmitsOptional(t *testing.T) {
	b, err := Encode(domain.AMV{ID: 1})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	s := string(b)
	for _, tag := range []string{"<year>", "<genre>", "<director>", "<dateadded>"} {
		if strings.Contains(s, tag) {
			t.Fatalf("零值记录不应输出 %s：%s", tag, s)
		}
	}
	for _, tag := range []string{"<title></title>", "<userrating>0</userrating>", "<playcount>1</playcount>"} {
		if !strings.Contains(s, tag) {
			t.Fatalf("期望输出 %s：%s", tag, s)
		}
	}
}
