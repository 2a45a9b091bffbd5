package domain

import "strings"

// Language 是字幕语言。Unknown 是合法值（提示文本无法识别时），不是错误。
type Language int

const (
	LanguageUnknown Language = iota
	LanguageRussian
	LanguageEnglish
)

func (l Language) String() string {
	switch l {
	case LanguageRussian:
		return "russian"
	case LanguageEnglish:
		return "english"
	default:
		return "unknown"
	}
}

// ParseLanguage 解析配置中的语言偏好。
// 也接受数字取值："0"=俄语，"1"=英语。
func ParseLanguage(s string) Language {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "russian", "ru", "0":
		return LanguageRussian
	case "english", "en", "1":
		return LanguageEnglish
	default:
		return LanguageUnknown
	}
}

// Subtitle 是详情页字幕列表中的一项。
type Subtitle struct {
	Language Language `json:"language" yaml:"language"`
	ID       int      `json:"id" yaml:"id"`
}

// ChooseSubtitle 按偏好语言挑选字幕 ID。
//
// 规则：
// - 存在偏好语言：取第一条匹配项
// - 不存在：回退到列表第一项
// - 列表为空：ok=false
func ChooseSubtitle(subs []Subtitle, preferred Language) (id int, ok bool) {
	if len(subs) == 0 {
		return 0, false
	}
	for _, s := range subs {
		if s.Language == preferred {
			return s.ID, true
		}
	}
	return subs[0].ID, true
}
