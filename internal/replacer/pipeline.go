package replacer

import "fmt"

// Pipeline cleanses raw chat messages. Each stage returns the value type of the next
// one, so the order normalize → mask URLs → mask mentions → escape angles → strip
// markdown → unescape angles → restore mentions is fixed by the types.
type Pipeline struct {
	stripper Stripper
}

// NewPipeline creates a Pipeline. A nil stripper selects NewMarkdownStripper.
func NewPipeline(stripper Stripper) *Pipeline {
	if stripper == nil {
		stripper = NewMarkdownStripper()
	}
	return &Pipeline{stripper: stripper}
}

// Cleansed is a fully processed message. Its text still has URLs masked so that
// substitutions cannot corrupt them.
type Cleansed struct {
	masked string
	urls   Extraction
}

// Masked returns the cleansed text with URL placeholders in place.
func (c Cleansed) Masked() string { return c.masked }

// Plain returns the cleansed text with URLs restored.
func (c Cleansed) Plain() string { return c.urls.Restore(c.masked) }

// RestoreURLs puts the URLs removed from this message back into text, which is
// usually a transformed copy of Masked.
func (c Cleansed) RestoreURLs(text string) string { return c.urls.Restore(text) }

// Cleanse runs the full pipeline over raw. A stripper failure is returned as is and
// only affects this message.
func (p *Pipeline) Cleanse(raw string) (Cleansed, error) {
	masked := normalized(Normalize(raw)).maskURLs().maskMentions()

	plain, err := masked.strip(p.stripper)
	if err != nil {
		return Cleansed{}, err
	}

	return plain.unmask(), nil
}

type normalized string

type urlMasked struct {
	text string
	urls Extraction
}

type mentionMasked struct {
	text     string
	urls     Extraction
	mentions Extraction
}

type stripped struct {
	text     string
	urls     Extraction
	mentions Extraction
}

func (n normalized) maskURLs() urlMasked {
	urls := ExtractURLs(string(n))
	return urlMasked{text: urls.Cleansed, urls: urls}
}

func (u urlMasked) maskMentions() mentionMasked {
	mentions := ExtractMentions(u.text)
	return mentionMasked{text: mentions.Cleansed, urls: u.urls, mentions: mentions}
}

func (m mentionMasked) strip(s Stripper) (stripped, error) {
	text, err := s.Strip(EscapeAngles(m.text))
	if err != nil {
		return stripped{}, fmt.Errorf("strip markdown: %w", err)
	}
	return stripped{text: UnescapeAngles(text), urls: m.urls, mentions: m.mentions}, nil
}

func (s stripped) unmask() Cleansed {
	return Cleansed{masked: s.mentions.Restore(s.text), urls: s.urls}
}
