package handlers

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/sedbot/internal/metrics"
	"github.com/edgard/sedbot/internal/replacer"
)

type replaceHandler struct {
	deps HandlerDeps
}

// NewReplaceHandler returns the handler for "!s search/replacement" commands.
func NewReplaceHandler(deps HandlerDeps) bot.HandlerFunc {
	return replaceHandler{deps}.Handle
}

func (h replaceHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.handle(ctx, b, update)
}

func (h replaceHandler) handle(ctx context.Context, api MessageSender, update *models.Update) string {
	log := h.deps.Logger.With("handler", "replace")

	msg := update.Message
	if msg == nil || msg.From == nil || msg.Text == "" {
		log.DebugContext(ctx, "Ignoring replace update without text or sender", "update_id", update.ID)
		return ""
	}
	chatID := msg.Chat.ID

	cmd := h.deps.Decoder.Decode(msg.Text)
	if cmd.IsBlockedPhrase {
		log.InfoContext(ctx, "Blocked phrase in replace command", "chat_id", chatID, "user_id", msg.From.ID)
		metrics.CommandsTotal.WithLabelValues(metrics.ResultBlocked).Inc()
		sendText(ctx, api, log, chatID, h.deps.Config.Messages.BlockedPhrase)
		return metrics.ResultBlocked
	}

	if cmd.Search == "" {
		log.DebugContext(ctx, "Replace command with empty search", "chat_id", chatID)
		metrics.CommandsTotal.WithLabelValues(metrics.ResultEmpty).Inc()
		sendText(ctx, api, log, chatID, h.deps.Config.Messages.NoMatch)
		return metrics.ResultEmpty
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	rows, err := h.deps.Store.GetRecentMessages(dbCtx, chatID, h.deps.Config.Replacer.HistoryLimit)
	cancel()
	if err != nil {
		log.ErrorContext(ctx, "Failed to load message history", "error", err, "chat_id", chatID)
		metrics.CommandsTotal.WithLabelValues(metrics.ResultError).Inc()
		sendText(ctx, api, log, chatID, h.deps.Config.Messages.GeneralError)
		return metrics.ResultError
	}

	start := time.Now()
	sender := &chatSender{ctx: ctx, api: api, chatID: chatID, log: log}
	unhandled := h.deps.Engine.ScanAndReplaceFirst(ToReplacerMessages(rows), cmd.Search, cmd.Replacement, sender)
	metrics.ScanDuration.Observe(time.Since(start).Seconds())

	if unhandled {
		log.InfoContext(ctx, "No message matched replace command", "chat_id", chatID, "scanned", len(rows))
		metrics.CommandsTotal.WithLabelValues(metrics.ResultNoMatch).Inc()
		sendText(ctx, api, log, chatID, h.deps.Config.Messages.NoMatch)
		return metrics.ResultNoMatch
	}

	metrics.CommandsTotal.WithLabelValues(metrics.ResultReplaced).Inc()
	return metrics.ResultReplaced
}

// chatSender is the fire-and-forget replacer.Sender for one chat. Each reply is sent
// on its own goroutine and outlives the update context.
type chatSender struct {
	ctx    context.Context
	api    MessageSender
	chatID int64
	log    *slog.Logger
}

var _ replacer.ReplySender = (*chatSender)(nil)

func (s *chatSender) Send(text string) {
	s.dispatch(&bot.SendMessageParams{ChatID: s.chatID, Text: text})
}

// SendReply addresses authors without a username through a text_mention entity, since
// a bare first name does not notify them.
func (s *chatSender) SendReply(author replacer.Message, mention, body string) {
	s.dispatch(replyParams(s.chatID, author, mention, body))
}

func (s *chatSender) dispatch(params *bot.SendMessageParams) {
	if params.Text == "" {
		return
	}
	ctx := context.WithoutCancel(s.ctx)
	go send(ctx, s.api, s.log, params)
}

func replyParams(chatID int64, author replacer.Message, mention, body string) *bot.SendMessageParams {
	params := &bot.SendMessageParams{ChatID: chatID, Text: mention + " " + body}
	if mention == "" || strings.HasPrefix(mention, "@") {
		return params
	}

	userID, err := strconv.ParseInt(author.AuthorID, 10, 64)
	if err != nil {
		return params
	}
	params.Entities = []models.MessageEntity{{
		Type:   models.MessageEntityTypeTextMention,
		Offset: 0,
		Length: len(utf16.Encode([]rune(mention))),
		User:   &models.User{ID: userID, FirstName: mention},
	}}
	return params
}
