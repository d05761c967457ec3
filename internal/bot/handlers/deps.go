// Package handlers contains the Telegram update handlers, their registration and
// middleware.
package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/sedbot/internal/config"
	"github.com/edgard/sedbot/internal/database"
	"github.com/edgard/sedbot/internal/replacer"
)

const (
	dbTimeout          = 5 * time.Second
	sendMessageTimeout = 10 * time.Second
)

// HandlerDeps provides dependencies for Telegram handlers.
type HandlerDeps struct {
	Logger  *slog.Logger
	Config  *config.Config
	Store   database.Store
	Engine  *replacer.Engine
	Decoder *replacer.Decoder
}

// MessageSender is the part of *bot.Bot the handlers use to reply.
type MessageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

func sendText(ctx context.Context, api MessageSender, log *slog.Logger, chatID int64, text string) {
	if text == "" {
		return
	}
	send(ctx, api, log, &bot.SendMessageParams{ChatID: chatID, Text: text})
}

func send(ctx context.Context, api MessageSender, log *slog.Logger, params *bot.SendMessageParams) {
	sendCtx, cancel := context.WithTimeout(ctx, sendMessageTimeout)
	defer cancel()

	if _, err := api.SendMessage(sendCtx, params); err != nil {
		log.ErrorContext(ctx, "Failed to send message", "error", err, "chat_id", params.ChatID)
	}
}
