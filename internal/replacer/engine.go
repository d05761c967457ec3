package replacer

import (
	"io"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"
)

// commandMarker marks messages that are themselves replace commands. Such messages
// are never used as replacement targets.
const commandMarker = "!s"

// Message is a chat message as observed by the engine.
type Message struct {
	AuthorID   string
	AuthorName string
	Content    string
	IsBot      bool
}

// Sender delivers a reply to the chat. Implementations must not block the caller
// for longer than it takes to enqueue the reply.
type Sender interface {
	Send(text string)
}

// ReplySender is an optional Sender extension for transports that need the matched
// author to address the reply, for example to attach a mention entity. When a Sender
// implements it the engine calls SendReply instead of Send.
type ReplySender interface {
	Sender
	SendReply(author Message, mention, body string)
}

// SenderFunc adapts a plain function to the Sender interface.
type SenderFunc func(text string)

// Send calls f(text).
func (f SenderFunc) Send(text string) { f(text) }

// MentionFunc formats a reference to the author of a message.
type MentionFunc func(msg Message) string

// DefaultMention renders the <@id> mention syntax.
func DefaultMention(msg Message) string {
	return "<@" + msg.AuthorID + ">"
}

// Matcher finds a search phrase case-insensitively. The phrase is always treated as
// a literal, never as a pattern.
type Matcher struct {
	re *regexp.Regexp
}

// NewMatcher builds a Matcher for search. An empty search, or one that cannot be
// compiled (invalid UTF-8), yields a Matcher that matches nothing.
func NewMatcher(search string) *Matcher {
	if search == "" {
		return &Matcher{}
	}
	re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(search))
	if err != nil {
		return &Matcher{}
	}
	return &Matcher{re: re}
}

// Match reports whether text contains the search phrase, ignoring case.
func (m *Matcher) Match(text string) bool {
	return m.re != nil && m.re.MatchString(text)
}

// Replace substitutes the first occurrence of the search phrase in text. A
// non-empty replacement is wrapped in ** emphasis unless it is blank; an empty
// replacement deletes the occurrence.
func (m *Matcher) Replace(text, replacement string) string {
	if m.re == nil {
		return text
	}
	loc := m.re.FindStringIndex(text)
	if loc == nil {
		return text
	}
	return splice(text, loc, replacement)
}

// ReplaceOutside is Replace restricted to occurrences that do not overlap any copy of
// protected in text. It reports false, leaving text unchanged, when every occurrence
// touches protected.
func (m *Matcher) ReplaceOutside(text, protected, replacement string) (string, bool) {
	if m.re == nil {
		return text, false
	}
	spans := literalSpans(text, protected)
	for pos := 0; pos <= len(text); {
		loc := m.re.FindStringIndex(text[pos:])
		if loc == nil {
			return text, false
		}
		loc[0] += pos
		loc[1] += pos
		if !overlapsAny(loc, spans) {
			return splice(text, loc, replacement), true
		}
		_, size := utf8.DecodeRuneInString(text[loc[0]:])
		pos = loc[0] + max(size, 1)
	}
	return text, false
}

func splice(text string, loc []int, replacement string) string {
	if replacement != "" && strings.TrimSpace(replacement) != "" {
		replacement = "**" + replacement + "**"
	}
	return text[:loc[0]] + replacement + text[loc[1]:]
}

func literalSpans(text, literal string) [][2]int {
	if literal == "" {
		return nil
	}
	var spans [][2]int
	for offset := 0; ; {
		idx := strings.Index(text[offset:], literal)
		if idx < 0 {
			return spans
		}
		start := offset + idx
		spans = append(spans, [2]int{start, start + len(literal)})
		offset = start + len(literal)
	}
}

func overlapsAny(loc []int, spans [][2]int) bool {
	for _, span := range spans {
		if loc[0] < span[1] && span[0] < loc[1] {
			return true
		}
	}
	return false
}

// BuildReplacement replaces the first case-insensitive occurrence of search in text
// with the emphasized replacement, or deletes it when replacement is empty.
func BuildReplacement(text, search, replacement string) string {
	return NewMatcher(search).Replace(text, replacement)
}

// MatchText reports whether text contains search, ignoring case.
func MatchText(text, search string) bool {
	return NewMatcher(search).Match(text)
}

// Engine scans chat history for the message a replace command refers to.
type Engine struct {
	pipeline *Pipeline
	logger   *slog.Logger
	mention  MentionFunc
	onError  func(Message, error)
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMention sets how the author of the matched message is referenced in replies.
func WithMention(fn MentionFunc) Option {
	return func(e *Engine) {
		if fn != nil {
			e.mention = fn
		}
	}
}

// WithCleanseErrorHandler registers a callback for messages whose cleansing failed.
func WithCleanseErrorHandler(fn func(Message, error)) Option {
	return func(e *Engine) {
		e.onError = fn
	}
}

// NewEngine creates an Engine. A nil pipeline selects the default markdown stripper.
func NewEngine(pipeline *Pipeline, opts ...Option) *Engine {
	if pipeline == nil {
		pipeline = NewPipeline(nil)
	}
	e := &Engine{
		pipeline: pipeline,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		mention:  DefaultMention,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "replacer")
	return e
}

// ScanAndReplaceFirst walks messages in order and answers the first one whose
// cleansed text, URLs and mentions restored, contains search. It skips bot messages
// and replace commands. The reply is "<mention> <replaced text>". The return value
// is true when nothing was handled and false once a reply has been sent.
func (e *Engine) ScanAndReplaceFirst(messages []Message, search, replacement string, sender Sender) (unhandled bool) {
	matcher := NewMatcher(search)
	if matcher.re == nil {
		e.logger.Debug("Empty search phrase, nothing to match")
		return true
	}

	for _, msg := range messages {
		if msg.IsBot || strings.Contains(msg.Content, commandMarker) {
			e.logger.Debug("Ignoring message from bot or search message", "author_id", msg.AuthorID)
			continue
		}

		cleansed, err := e.pipeline.Cleanse(msg.Content)
		if err != nil {
			e.logger.Warn("Failed to cleanse message, skipping", "author_id", msg.AuthorID, "error", err)
			if e.onError != nil {
				e.onError(msg, err)
			}
			continue
		}

		plain := cleansed.Plain()
		if !matcher.Match(plain) {
			e.logger.Debug("Message did not match search phrase", "author_id", msg.AuthorID, "search", search)
			continue
		}

		e.logger.Info("Match found", "author_id", msg.AuthorID, "search", search)
		e.reply(sender, msg, replaceProtectingURLs(matcher, cleansed, plain, replacement))
		return false
	}

	return true
}

// replaceProtectingURLs substitutes outside URLs when it can. When the only
// occurrences lie inside a URL the plain text is edited.
func replaceProtectingURLs(matcher *Matcher, cleansed Cleansed, plain, replacement string) string {
	if masked, ok := matcher.ReplaceOutside(cleansed.Masked(), URLPlaceholder, replacement); ok {
		return cleansed.RestoreURLs(masked)
	}
	return matcher.Replace(plain, replacement)
}

func (e *Engine) reply(sender Sender, msg Message, body string) {
	mention := e.mention(msg)
	if rs, ok := sender.(ReplySender); ok {
		rs.SendReply(msg, mention, body)
		return
	}
	sender.Send(mention + " " + body)
}
