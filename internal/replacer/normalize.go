package replacer

import "strings"

var typographyReplacer = strings.NewReplacer(
	"\u201C", `"`, "\u201D", `"`,
	"\u2018", "'", "\u2019", "'",
	"\u2026", "...",
	"\u2013", "-",
	"\u2014", "--",
)

// Normalize maps typographic punctuation (curly quotes, ellipsis, dashes) to plain
// ASCII. All other characters are left untouched.
func Normalize(text string) string {
	return typographyReplacer.Replace(text)
}
