package handlers

import (
	"context"
	"strconv"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/sedbot/internal/database"
	"github.com/edgard/sedbot/internal/metrics"
	"github.com/edgard/sedbot/internal/replacer"
)

type historyHandler struct {
	deps HandlerDeps
}

// NewHistoryHandler returns the default handler. It records every new or edited
// text message so replace commands have something to scan.
func NewHistoryHandler(deps HandlerDeps) bot.HandlerFunc {
	return historyHandler{deps}.Handle
}

func (h historyHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	h.record(ctx, update)
}

func (h historyHandler) record(ctx context.Context, update *models.Update) {
	log := h.deps.Logger.With("handler", "history")

	msg := update.Message
	if msg == nil {
		msg = update.EditedMessage
	}

	row := RecordFromMessage(msg)
	if row == nil {
		log.DebugContext(ctx, "Ignoring update without text content", "update_id", update.ID)
		return
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if err := h.deps.Store.SaveMessage(dbCtx, row); err != nil {
		log.ErrorContext(ctx, "Failed to record message", "error", err, "chat_id", row.ChatID, "message_id", row.MessageID)
		return
	}
	metrics.MessagesRecorded.Inc()
	log.DebugContext(ctx, "Recorded message", "chat_id", row.ChatID, "message_id", row.MessageID)
}

// RecordFromMessage converts a Telegram message into a history row. It returns nil
// for messages without a sender or text. Captions count as text.
func RecordFromMessage(msg *models.Message) *database.Message {
	if msg == nil || msg.From == nil {
		return nil
	}

	content := msg.Text
	if content == "" {
		content = msg.Caption
	}
	if content == "" {
		return nil
	}

	return &database.Message{
		ChatID:    msg.Chat.ID,
		MessageID: msg.ID,
		UserID:    msg.From.ID,
		Username:  DisplayHandle(msg.From),
		Content:   content,
		IsBot:     msg.From.IsBot,
		Timestamp: time.Unix(int64(msg.Date), 0).UTC(),
	}
}

// DisplayHandle is "@username" when the user has one and the first name otherwise.
func DisplayHandle(u *models.User) string {
	if u == nil {
		return ""
	}
	if u.Username != "" {
		return "@" + u.Username
	}
	return u.FirstName
}

// ToReplacerMessages converts history rows, keeping their order.
func ToReplacerMessages(rows []*database.Message) []replacer.Message {
	msgs := make([]replacer.Message, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		msgs = append(msgs, replacer.Message{
			AuthorID:   strconv.FormatInt(row.UserID, 10),
			AuthorName: row.Username,
			Content:    row.Content,
			IsBot:      row.IsBot,
		})
	}
	return msgs
}

// TelegramMention references the author by display handle, falling back to the user id.
func TelegramMention(msg replacer.Message) string {
	if msg.AuthorName != "" {
		return msg.AuthorName
	}
	return msg.AuthorID
}
