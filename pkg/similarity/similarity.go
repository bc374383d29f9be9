// Package similarity 计算标题、艺术家之间的相似度
//
// 所有函数都是纯函数：TextDifference 返回 [0,1]，TitleScore/ArtistScore 返回 [0,100]。
package similarity

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

var (
	// 括号内的版本说明，如 (Live)、（伴奏）、[Remix]、【官方版】
	bracketRe = regexp.MustCompile(`\s*[\(（\[【「『][^\)）\]】」』]*[\)）\]】」』]\s*`)

	// 标题中 " - " 之后的版本说明
	dashSuffixRe = regexp.MustCompile(`\s+[-－–—]\s+.*$`)

	featRe      = regexp.MustCompile(`(?i)\s*[\(（\[]?\s*(feat\.?|ft\.?|featuring)\s+[^\)）\]]*[\)）\]]?`)
	spaceRe     = regexp.MustCompile(`\s+`)
	artistSepRe = regexp.MustCompile(`\s*(?:[/、,，;；&＆×]|\s+(?i:x|and|with|feat\.?|ft\.?|vs\.?)\s+)\s*`)
)

// Normalize 统一全半角、大小写和 Unicode 兼容形式，折叠空白
func Normalize(s string) string {
	s = norm.NFKC.String(s)
	s = width.Fold.String(s)
	s = cases.Fold().String(s) // Caser 有状态，不能跨 goroutine 共享
	s = spaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// TextDifference 基于编辑距离的相似度 [0,1]，1 表示完全相同
func TextDifference(a, b string) float64 {
	if a == b {
		return 1
	}
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	maxLen := la
	if lb > maxLen {
		maxLen = lb
	}
	if maxLen == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	ratio := 1 - float64(dist)/float64(maxLen)
	if ratio < 0 {
		return 0
	}
	return ratio
}

// stripTitle 去掉括号说明、feat 和 " - xxx" 版本后缀
func stripTitle(s string) string {
	s = featRe.ReplaceAllString(s, "")
	s = bracketRe.ReplaceAllString(s, " ")
	s = dashSuffixRe.ReplaceAllString(s, "")
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// compact 去掉标点和空白，只保留字母数字
func compact(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			return r
		}
		return -1
	}, s)
}

// TitleScore 标题相似度 [0,100]
func TitleScore(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		if na == nb {
			return 100
		}
		return 0
	}

	best := TextDifference(na, nb)
	sa, sb := stripTitle(na), stripTitle(nb)
	if sa != "" && sb != "" {
		stripped := TextDifference(compact(sa), compact(sb))
		// 去掉版本说明后相同，仍略低于完全一致
		if stripped == 1 && na != nb {
			stripped = 0.95
		}
		if stripped > best {
			best = stripped
		}
	}
	if ca, cb := compact(na), compact(nb); ca != "" && ca == cb {
		best = 1
	}
	return best * 100
}

// SplitArtists 拆分 "A/B、C feat. D" 形式的艺术家字符串
func SplitArtists(s string) []string {
	var out []string
	for _, part := range artistSepRe.Split(Normalize(s), -1) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ArtistScore 艺术家相似度 [0,100]：a 中每个艺术家在 b 中找最相近的，取平均；
// 同时与整体字符串比较，取较大者
func ArtistScore(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		if na == nb {
			return 100
		}
		return 0
	}

	whole := TextDifference(compact(na), compact(nb))

	as, bs := SplitArtists(a), SplitArtists(b)
	if len(as) == 0 || len(bs) == 0 {
		return whole * 100
	}
	if len(as) > len(bs) {
		as, bs = bs, as
	}
	var sum float64
	for _, x := range as {
		var best float64
		for _, y := range bs {
			if d := TextDifference(compact(x), compact(y)); d > best {
				best = d
			}
		}
		sum += best
	}
	perArtist := sum / float64(len(as))
	// 对方多出来的艺术家轻微扣分
	if extra := len(bs) - len(as); extra > 0 {
		perArtist *= 1 - 0.05*float64(min(extra, 4))
	}
	if whole > perArtist {
		return whole * 100
	}
	return perArtist * 100
}
