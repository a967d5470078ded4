package scraper

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// 千分位分組的數字優先，其次是一般數字
var amountRe = regexp.MustCompile(`-?\d{1,3}(?:[.,\x{00a0}\x{202f}]\d{3})+(?:[.,]\d{1,2})?|-?\d+(?:[.,]\d+)?`)

// ParseAmount 取出文字中的金額，接受 1.234,56 與 1,234.56 兩種寫法
//
// 百分比與日期中的數字會被略過；帶小數或千分位的金額優先於單純的整數，
// 都沒有時取第一個整數。
func ParseAmount(text string) *decimal.Decimal {
	dates := dateRe.FindAllStringIndex(text, -1)

	var plain string
	for _, loc := range amountRe.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		if overlaps(start, end, dates) || followedByPercent(text[end:]) {
			continue
		}

		token := text[start:end]
		// 緊接在字母或數字後面的「-」是連字號，不是負號
		if token[0] == '-' && start > 0 {
			if r, _ := utf8.DecodeLastRuneInString(text[:start]); unicode.IsLetter(r) || unicode.IsDigit(r) {
				token = token[1:]
			}
		}

		if strings.ContainsAny(token, ".,\u00a0\u202f") {
			if d := parseToken(token); d != nil {
				return d
			}
			continue
		}
		if plain == "" {
			plain = token
		}
	}

	if plain == "" {
		return nil
	}
	return parseToken(plain)
}

func parseToken(token string) *decimal.Decimal {
	d, err := decimal.NewFromString(normalizeNumber(token))
	if err != nil {
		return nil
	}
	return &d
}

func overlaps(start, end int, ranges [][]int) bool {
	for _, r := range ranges {
		if start < r[1] && end > r[0] {
			return true
		}
	}
	return false
}

func followedByPercent(rest string) bool {
	return strings.HasPrefix(strings.TrimLeft(rest, " \u00a0\u202f"), "%")
}

func normalizeNumber(token string) string {
	token = strings.NewReplacer("\u00a0", "", "\u202f", "").Replace(token)

	lastDot := strings.LastIndex(token, ".")
	lastComma := strings.LastIndex(token, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		// 最後出現的符號是小數點
		if lastComma > lastDot {
			token = strings.ReplaceAll(token, ".", "")
			return strings.Replace(token, ",", ".", 1)
		}
		return strings.ReplaceAll(token, ",", "")
	case lastComma >= 0:
		return normalizeSingleSeparator(token, ",")
	case lastDot >= 0:
		return normalizeSingleSeparator(token, ".")
	default:
		return token
	}
}

// 只有一種分隔符時：出現多次，或後面剛好三位數字且整數部分不是 0，視為千分位
func normalizeSingleSeparator(token, sep string) string {
	if strings.Count(token, sep) > 1 {
		return strings.ReplaceAll(token, sep, "")
	}
	idx := strings.LastIndex(token, sep)
	intPart := strings.TrimPrefix(token[:idx], "-")
	if len(token)-idx-1 == 3 && intPart != "0" {
		return strings.ReplaceAll(token, sep, "")
	}
	return strings.Replace(token, sep, ".", 1)
}
