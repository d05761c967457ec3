package replacer

import (
	"regexp"
	"strings"
)

// Placeholder literals substituted for masked substrings.
const (
	URLPlaceholder     = "|{|url|}|"
	MentionPlaceholder = "|{|user|}|"

	lessThanMarker    = "{LESS_THAN}"
	greaterThanMarker = "{GREATER_THAN}"
)

var (
	urlRegex     = regexp.MustCompile(`(?i)((https?://)?[\w-]+(\.[\w-]+)+\.?(:\d+)?(/\S*)?)`)
	mentionRegex = regexp.MustCompile(`<@[0-9]+>`)
	angleRegex   = regexp.MustCompile(`<(.*)>`)

	angleUnescaper = strings.NewReplacer(lessThanMarker, "<", greaterThanMarker, ">")
)

// Extraction is the result of one masking pass. Cleansed holds the input with every
// match replaced by the pass placeholder and Extracted holds the matches in order of
// appearance.
type Extraction struct {
	Cleansed    string
	Extracted   []string
	placeholder string
}

// ExtractURLs masks URL-like substrings with URLPlaceholder.
func ExtractURLs(text string) Extraction {
	return extract(text, urlRegex, URLPlaceholder)
}

// ExtractMentions masks <@id> user mentions with MentionPlaceholder.
func ExtractMentions(text string) Extraction {
	return extract(text, mentionRegex, MentionPlaceholder)
}

func extract(text string, re *regexp.Regexp, placeholder string) Extraction {
	return Extraction{
		Cleansed:    re.ReplaceAllLiteralString(text, placeholder),
		Extracted:   re.FindAllString(text, -1),
		placeholder: placeholder,
	}
}

// Restore replaces placeholder occurrences in text, left to right, with the extracted
// values in the order they were removed. Placeholders beyond the number of extracted
// values are left in place.
func (e Extraction) Restore(text string) string {
	if len(e.Extracted) == 0 || e.placeholder == "" {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))

	rest := text
	for _, value := range e.Extracted {
		idx := strings.Index(rest, e.placeholder)
		if idx < 0 {
			break
		}
		b.WriteString(rest[:idx])
		b.WriteString(value)
		rest = rest[idx+len(e.placeholder):]
	}
	b.WriteString(rest)

	return b.String()
}

// EscapeAngles rewrites the leftmost <...> span of every line (greedy, never crossing
// a newline) into {LESS_THAN}...{GREATER_THAN} so that markdown stripping does not
// drop it as HTML. Single-line text has at most one span escaped.
func EscapeAngles(text string) string {
	return angleRegex.ReplaceAllString(text, lessThanMarker+"${1}"+greaterThanMarker)
}

// UnescapeAngles reverses EscapeAngles.
func UnescapeAngles(text string) string {
	return angleUnescaper.Replace(text)
}
