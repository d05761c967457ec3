package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// AdminOnly lets only the configured admin through. Everyone else gets the
// unauthorized message and the update stops here.
func AdminOnly(deps HandlerDeps) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			if !isAdmin(deps, update) {
				log := deps.Logger.With("middleware", "AdminOnly")
				if update.Message == nil {
					return
				}
				log.WarnContext(ctx, "Unauthorized access attempt", "chat_id", update.Message.Chat.ID)
				sendText(ctx, b, log, update.Message.Chat.ID, deps.Config.Messages.Unauthorized)
				return
			}
			next(ctx, b, update)
		}
	}
}

func isAdmin(deps HandlerDeps, update *models.Update) bool {
	if update.Message == nil || update.Message.From == nil {
		return false
	}
	return update.Message.From.ID == deps.Config.Telegram.AdminUserID
}
