package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

type resetHandler struct {
	deps HandlerDeps
}

// NewResetHandler returns the handler for /sed_reset, which forgets a chat's history.
func NewResetHandler(deps HandlerDeps) bot.HandlerFunc {
	return resetHandler{deps}.Handle
}

func (h resetHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.handle(ctx, b, update)
}

func (h resetHandler) handle(ctx context.Context, api MessageSender, update *models.Update) {
	log := h.deps.Logger.With("handler", "reset")
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	deleted, err := h.deps.Store.DeleteChatMessages(dbCtx, chatID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to reset chat history", "error", err, "chat_id", chatID)
		sendText(ctx, api, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	log.InfoContext(ctx, "Chat history reset", "chat_id", chatID, "deleted", deleted)
	sendText(ctx, api, log, chatID, h.deps.Config.Messages.ResetDone)
}
