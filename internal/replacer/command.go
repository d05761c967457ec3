package replacer

import "strings"

// CommandPrefix introduces a replace command in chat.
const CommandPrefix = commandMarker + " "

// ReplaceCommand is a decoded "!s search/replacement" command.
type ReplaceCommand struct {
	// Search is the normalized search phrase. It may be empty.
	Search string
	// Replacement is the text inserted in place of Search. Empty means deletion.
	Replacement string
	// HasReplacement is false when the command carried no "/" at all.
	HasReplacement bool
	// IsBlockedPhrase is set when either segment hits the block-list.
	IsBlockedPhrase bool
}

// Decoder turns raw command text into a ReplaceCommand.
type Decoder struct {
	gate *Gate
}

// NewDecoder creates a Decoder that checks phrases against gate. A nil gate blocks
// nothing.
func NewDecoder(gate *Gate) *Decoder {
	return &Decoder{gate: gate}
}

// Decode strips the leading "!s " and splits the rest on the first "/". The block-list
// is checked against both raw segments before the search is normalized.
func (d *Decoder) Decode(raw string) ReplaceCommand {
	body := strings.TrimPrefix(raw, CommandPrefix)
	search, replacement, hasReplacement := strings.Cut(body, "/")

	blocked := d.gate.IsBlocked(search)
	if hasReplacement && !blocked {
		blocked = d.gate.IsBlocked(replacement)
	}

	return ReplaceCommand{
		Search:          Normalize(search),
		Replacement:     replacement,
		HasReplacement:  hasReplacement,
		IsBlockedPhrase: blocked,
	}
}
