// Package normalize applies the corpus text normalization pass used before
// scoring and before parallel-mode substring comparison, grounded on
// original_source/tools/simpletok.py's normalize().
package normalize

import (
	"regexp"
	"strings"
)

var (
	beforePunc = regexp.MustCompile(`([¿("/])(\w)`)
	afterPunc  = regexp.MustCompile(`(\w)([;:,.!?)"/—])`)
	quot       = regexp.MustCompile("[«»`'“”„‘’‛]")
	numFix     = regexp.MustCompile(`([0-9]) ([,.:][0-9])`)
	beforeDash = regexp.MustCompile(`(\W)-(\w)`)
	afterDash  = regexp.MustCompile(`(\w)-(\W)`)
)

// Normalize lower-cases line and applies a fixed sequence of punctuation,
// quote, dash, and digit-group substitutions so that scoring and substring
// comparison are insensitive to superficial typographic variation.
func Normalize(line string) string {
	line = strings.ToLower(line)
	line = strings.ReplaceAll(line, "--", "—")
	line = strings.ReplaceAll(line, " - ", " — ")

	line = quot.ReplaceAllString(line, `"`)

	line = afterDash.ReplaceAllString(line, "$1 —$2")
	line = beforeDash.ReplaceAllString(line, "$1— $2")

	line = afterPunc.ReplaceAllString(line, "$1 $2")
	line = beforePunc.ReplaceAllString(line, "$1 $2")

	line = numFix.ReplaceAllString(line, "$1$2")

	return line
}
