package scripts

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// IsDuplicate reports whether two script texts are the same response. Texts
// match when their normalized forms are equal, when one contains the other and
// both exceed ContainmentMinLength, or when their word sets overlap by at least
// WordOverlap relative to the smaller set.
func (p Policy) IsDuplicate(a, b string) bool {
	na, nb := normalize(a), normalize(b)
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}

	la, lb := utf8.RuneCountInString(na), utf8.RuneCountInString(nb)
	if la > p.ContainmentMinLength && lb > p.ContainmentMinLength {
		if strings.Contains(na, nb) || strings.Contains(nb, na) {
			return true
		}
	}

	return overlap(words(na), words(nb)) >= p.WordOverlap
}

// FindDuplicate returns the index of the first script in existing that
// duplicates text, or -1.
func (p Policy) FindDuplicate(existing []Script, text string) int {
	for i, s := range existing {
		if p.IsDuplicate(s.Text, text) {
			return i
		}
	}
	return -1
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func words(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	}) {
		set[w] = struct{}{}
	}
	return set
}

func overlap(a, b map[string]struct{}) float64 {
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	if len(small) == 0 {
		return 0
	}

	shared := 0
	for w := range small {
		if _, ok := large[w]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(small))
}
