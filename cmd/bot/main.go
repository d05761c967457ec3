// Package main contains the entrypoint for sedbot.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"

	"github.com/edgard/sedbot/internal/bot"
	"github.com/edgard/sedbot/internal/bot/handlers"
	"github.com/edgard/sedbot/internal/bot/tasks"
	"github.com/edgard/sedbot/internal/config"
	"github.com/edgard/sedbot/internal/database"
	"github.com/edgard/sedbot/internal/logger"
	"github.com/edgard/sedbot/internal/metrics"
	"github.com/edgard/sedbot/internal/replacer"
	"github.com/edgard/sedbot/internal/telegram"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run wires every component, blocks until shutdown and returns the process exit code.
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to open history database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	if database.IsInMemory(cfg.Database.Path) {
		log.Info("History is kept in memory and is lost on restart")
	}
	store := database.NewStore(db, log)

	gate, err := replacer.NewGate(cfg.Replacer.SearchPhrasesToBlock)
	if err != nil {
		log.Error("Failed to compile blocked phrases", "error", err)
		return 1
	}
	engine := replacer.NewEngine(
		replacer.NewPipeline(nil),
		replacer.WithLogger(log),
		replacer.WithMention(handlers.TelegramMention),
		replacer.WithCleanseErrorHandler(func(replacer.Message, error) {
			metrics.CleanseErrors.Inc()
		}),
	)

	hDeps := handlers.HandlerDeps{
		Logger:  log,
		Config:  cfg,
		Store:   store,
		Engine:  engine,
		Decoder: replacer.NewDecoder(gate),
	}
	tDeps := tasks.TaskDeps{
		Logger: log,
		Store:  store,
		Config: cfg,
	}

	botOpts := []tgbot.Option{
		tgbot.WithMiddlewares(logger.Middleware(log)),
		tgbot.WithDefaultHandler(handlers.NewHistoryHandler(hDeps)),
	}
	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log, botOpts...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	cfg.Telegram.BotInfo, err = tg.GetMe(ctx)
	if err != nil {
		log.Error("Failed to get bot info", "error", err)
		return 1
	}
	log.Info("Retrieved bot info", "bot_id", cfg.Telegram.BotInfo.ID, "bot_username", cfg.Telegram.BotInfo.Username)

	if err := telegram.RegisterHandlers(tg, log, handlers.RegisterAllCommands(hDeps)); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return 1
	}

	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}
	app := bot.NewBot(log, cfg, store, tg, sched)

	log.Info("Starting bot...")
	runErr := app.Run(ctx)

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	time.Sleep(time.Second)
	return 0
}
