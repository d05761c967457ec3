package handlers

import (
	"github.com/go-telegram/bot"

	"github.com/edgard/sedbot/internal/replacer"
)

// RegisteredHandler carries everything needed to register a handler with the bot.
type RegisteredHandler struct {
	HandlerType bot.HandlerType
	Pattern     string
	Handler     bot.HandlerFunc
	Middleware  []bot.Middleware
	MatchType   bot.MatchType
}

// RegisterAllCommands returns every command handler keyed by its trigger.
func RegisterAllCommands(deps HandlerDeps) map[string]RegisteredHandler {
	handlers := make(map[string]RegisteredHandler)

	handlers[replacer.CommandPrefix] = RegisteredHandler{
		HandlerType: bot.HandlerTypeMessageText,
		Pattern:     replacer.CommandPrefix,
		Handler:     NewReplaceHandler(deps),
		MatchType:   bot.MatchTypePrefix,
	}
	handlers["/start"] = RegisteredHandler{
		HandlerType: bot.HandlerTypeMessageText,
		Pattern:     "start",
		Handler:     NewStartHandler(deps),
		MatchType:   bot.MatchTypeCommandStartOnly,
	}
	handlers["/help"] = RegisteredHandler{
		HandlerType: bot.HandlerTypeMessageText,
		Pattern:     "help",
		Handler:     NewHelpHandler(deps),
		MatchType:   bot.MatchTypeCommandStartOnly,
	}
	handlers["/sed_reset"] = RegisteredHandler{
		HandlerType: bot.HandlerTypeMessageText,
		Pattern:     "sed_reset",
		Handler:     NewResetHandler(deps),
		MatchType:   bot.MatchTypeCommandStartOnly,
		Middleware:  []bot.Middleware{AdminOnly(deps)},
	}

	return handlers
}
