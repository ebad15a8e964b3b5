package easyinfo

import (
	"strconv"
	"strings"
)

// ToInt keeps only the digits, '.' and '-' of text and parses what is left as a
// base-10 integer. It reports false when nothing is left or the salvaged text is
// not an integer ("-12.5", "1-2").
func ToInt(text string) (int, bool) {
	var b strings.Builder
	for _, r := range text {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(b.String())
	if err != nil {
		return 0, false
	}
	return n, true
}
