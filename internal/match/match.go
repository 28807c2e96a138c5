// Package match 规范化比赛标识（"Team A vs Team B"）。
package match

import (
	"regexp"
	"strings"
)

// 分隔符变体：v / vs / vs. / versus / 两侧带空格的 - 或 –（队名内部的连字符不受影响）。
var separatorRE = regexp.MustCompile(`(?i)\s+(?:v|vs\.?|versus|-|–|—)\s+`)

// 行首的列表符号与编号："- " "* " "• " "2) " "(3) "。
// "1. " 不算编号：会误伤 "1. FC Köln" 这类队名。
var bulletRE = regexp.MustCompile(`^(?:[-*•·]+\s*|\(?\d{1,2}\)\s+)`)

// Normalize 返回比赛标识的规范写法：
// - 去掉首尾空白、行首列表符号
// - 连续空白折叠为一个空格
// - 主客队分隔符统一为 " vs "（只替换第一个分隔符）
//
// 无法识别分隔符时原样保留（折叠空白后），交给模型自行理解。
func Normalize(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = bulletRE.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	loc := separatorRE.FindStringIndex(s)
	if loc == nil {
		return s
	}
	home := strings.TrimSpace(s[:loc[0]])
	away := strings.TrimSpace(s[loc[1]:])
	if home == "" || away == "" {
		return s
	}
	return home + " vs " + away
}

// Key 返回用于去重比较的键：规范化后忽略大小写。
func Key(s string) string {
	return strings.ToLower(Normalize(s))
}

// Teams 拆出主客队；不是 "A vs B" 形式时 ok=false。
func Teams(s string) (home, away string, ok bool) {
	n := Normalize(s)
	home, away, ok = strings.Cut(n, " vs ")
	if !ok || home == "" || away == "" {
		return "", "", false
	}
	return home, away, true
}

// ParseLines 把多行文本（OCR 结果或粘贴的列表）拆成比赛标识：
// 每行规范化，丢弃空行。顺序与输入一致，不去重。
func ParseLines(text string) []string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if m := Normalize(l); m != "" {
			out = append(out, m)
		}
	}
	return out
}
