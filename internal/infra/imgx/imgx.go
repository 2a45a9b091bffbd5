package imgx

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ErrNotImage 表示内容不是图片（例如站点把 404 页面当作图片返回）。
var ErrNotImage = errors.New("内容不是图片")

// Ext 按内容嗅探图片格式，返回带前导 '.' 的扩展名（例如 ".jpg"）。
//
// 约束：
// - 只看内容，不信任 URL 后缀与 Content-Type
// - 非 image/* 返回 ErrNotImage
func Ext(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("图片为空")
	}
	m := mimetype.Detect(data)
	if !strings.HasPrefix(m.String(), "image/") {
		return "", fmt.Errorf("%w：%s", ErrNotImage, m.String())
	}
	ext := m.Extension()
	if ext == ".jpeg" {
		ext = ".jpg"
	}
	if ext == "" {
		return "", fmt.Errorf("%w：无法确定扩展名（%s）", ErrNotImage, m.String())
	}
	return ext, nil
}
