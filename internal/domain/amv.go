package domain

import (
	"strconv"
	"strings"
	"time"
)

// FormatVersion 是缓存记录的结构版本。
//
// 约束：AMV 的字段（或任一字段的解析规则）发生变化时必须递增；
// 版本不一致的缓存记录一律视为失效并重新抓取，不做原地升级。
const FormatVersion = 4

// AMV 是站点详情页解析得到的完整元数据记录。
//
// 约束：
// - ID 由站点分配，永不在本地重新生成
// - 所有字段都有明确的零值（0 / "" / nil），解析缺失时填零值而不是报错
type AMV struct {
	ID int `json:"id" yaml:"id"`

	Info      Info       `json:"amv" yaml:"amv"`
	Video     Video      `json:"video" yaml:"video"`
	Subtitles []Subtitle `json:"subtitles" yaml:"subtitles"`
	Images    []string   `json:"images" yaml:"images"`

	// Format / FetchedAt 是缓存簿记字段（见 FormatVersion）。
	Format    int       `json:"format" yaml:"format"`
	FetchedAt time.Time `json:"timestamp" yaml:"timestamp"`
}

// Info 是作品本身的描述信息。
type Info struct {
	Title       string  `json:"title" yaml:"title"`
	Description string  `json:"description" yaml:"description"`
	Rating      float64 `json:"rating" yaml:"rating"` // 站点平均分（5 分制）
	Votes       int     `json:"votes" yaml:"votes"`
	Author      string  `json:"author" yaml:"author"`
	Genre       string  `json:"genre" yaml:"genre"`             // 逗号拼接，例如 "Action, Drama"
	UserRating  float64 `json:"user_rating" yaml:"user_rating"` // 0 表示未评分
	Aired       string  `json:"aired" yaml:"aired"`             // "YYYY-MM-DD" 或 ""
	Added       string  `json:"added" yaml:"added"`             // "YYYY-MM-DD HH:MM:00" 或 ""
}

// Video 是主视频文件的技术参数（来自下载链接的悬浮提示）。
type Video struct {
	Duration   int     `json:"duration" yaml:"duration"` // 秒
	Size       int64   `json:"size" yaml:"size"`         // 字节
	VideoCodec string  `json:"video_codec" yaml:"video_codec"`
	AudioCodec string  `json:"audio_codec" yaml:"audio_codec"`
	Width      int     `json:"width" yaml:"width"`
	Height     int     `json:"height" yaml:"height"`
	Aspect     float64 `json:"aspect" yaml:"aspect"` // width/height；高度未知时为 0
}

// Image 返回主图（poster）；没有图片时返回空串。
func (a AMV) Image() string {
	if len(a.Images) == 0 {
		return ""
	}
	return a.Images[0]
}

// Fanart 返回第二张图（背景图）；不足两张时返回空串。
func (a AMV) Fanart() string {
	if len(a.Images) < 2 {
		return ""
	}
	return a.Images[1]
}

// Genres 把逗号拼接的 Genre 拆成列表（去空白、去空项，保持顺序）。
func (a AMV) Genres() []string {
	if strings.TrimSpace(a.Info.Genre) == "" {
		return nil
	}
	parts := strings.Split(a.Info.Genre, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Year 从 Aired（YYYY-MM-DD）中取年份；无法解析时返回 0。
func (a AMV) Year() int {
	aired := strings.TrimSpace(a.Info.Aired)
	if len(aired) < 4 {
		return 0
	}
	y, err := strconv.Atoi(aired[:4])
	if err != nil {
		return 0
	}
	return y
}
