package ident

import (
	"regexp"
	"strconv"
)

// 站点链接形如 index.php?go=Files&in=view&id=123 / index.php?go=Files&file=down&sub=45。
// 贪婪前缀 + (?s)：与整段匹配一致，多次出现时取最后一个。
var (
	idRE  = regexp.MustCompile(`(?s)^.*id=(\d+).*$`)
	subRE = regexp.MustCompile(`(?s)^.*sub=(\d+).*$`)
)

// AMVID 从链接中提取 AMV 的 id；找不到或不是正整数时 ok=false。
func AMVID(href string) (int, bool) {
	return extract(idRE, href)
}

// SubtitleID 从链接中提取字幕的 sub id；找不到或不是正整数时 ok=false。
func SubtitleID(href string) (int, bool) {
	return extract(subRE, href)
}

func extract(re *regexp.Regexp, s string) (int, bool) {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
