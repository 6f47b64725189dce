package barcode

import "strings"

// paddedLengths are the code lengths common in retail symbologies
// (EAN-8, UPC-A, EAN-13).
var paddedLengths = []int{8, 12, 13}

// Variants returns the candidate spellings of a scanned code in a fixed
// order: the trimmed input, leading zeros stripped, digits only, then the
// input left-padded with zeros to 8, 12 and 13 characters where it is
// shorter. Duplicates are dropped. Empty or blank input yields nil.
func Variants(code string) []string {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return nil
	}

	seen := make(map[string]struct{}, 6)
	out := make([]string, 0, 6)
	add := func(v string) {
		if v == "" {
			return
		}
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}

	add(trimmed)
	add(strings.TrimLeft(trimmed, "0"))
	add(DigitsOnly(trimmed))
	for _, n := range paddedLengths {
		if len(trimmed) < n {
			add(strings.Repeat("0", n-len(trimmed)) + trimmed)
		}
	}

	return out
}

// DigitsOnly removes every character that is not an ASCII digit.
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}
