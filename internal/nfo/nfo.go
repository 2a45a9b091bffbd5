package nfo

import (
	"encoding/xml"
	"strings"

	"github.com/John-Robertt/amvnews/internal/domain"
)

// PlayCount 固定为 1：下载过的 AMV 在媒体库里视为“已看过”。
const PlayCount = 1

type musicVideo struct {
	XMLName xml.Name `xml:"musicvideo"`

	Title      string   `xml:"title"`
	UserRating float64  `xml:"userrating"`
	Plot       string   `xml:"plot"`
	Year       int      `xml:"year,omitempty"`
	DateAdded  string   `xml:"dateadded,omitempty"`
	Director   string   `xml:"director,omitempty"`
	PlayCount  int      `xml:"playcount"`
	Genres     []string `xml:"genre,omitempty"`
}

// Encode 把 AMV 记录转成媒体库可读取的 <id>.nfo（XML）。
//
// 规则：
// - userrating 使用 10 分制（站点评分 ×2）
// - year 取自 aired；无法解析时省略
// - 每个逗号分隔的 genre 输出一个 <genre>
func Encode(amv domain.AMV) ([]byte, error) {
	m := musicVideo{
		Title:      strings.TrimSpace(amv.Info.Title),
		UserRating: amv.Info.UserRating * 2,
		Plot:       strings.TrimSpace(amv.Info.Description),
		Year:       amv.Year(),
		DateAdded:  strings.TrimSpace(amv.Info.Added),
		Director:   strings.TrimSpace(amv.Info.Author),
		PlayCount:  PlayCount,
		Genres:     amv.Genres(),
	}

	b, err := xml.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, err
	}
	const header = `<?xml version="1.0" encoding="UTF-8" standalone="yes" ?>` + "\n"
	return append([]byte(header), b...), nil
}
