// Package main contains the entrypoint for the city guide server.
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

	"github.com/edgard/cityguide/internal/app"
	"github.com/edgard/cityguide/internal/app/tasks"
	"github.com/edgard/cityguide/internal/assistant"
	"github.com/edgard/cityguide/internal/config"
	"github.com/edgard/cityguide/internal/conversation"
	"github.com/edgard/cityguide/internal/database"
	"github.com/edgard/cityguide/internal/dataset"
	"github.com/edgard/cityguide/internal/gemini"
	"github.com/edgard/cityguide/internal/logger"
	"github.com/edgard/cityguide/internal/query"
	"github.com/edgard/cityguide/internal/server"
	"github.com/edgard/cityguide/internal/telegram"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run wires every component, blocks until shutdown and returns the exit code.
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	logBuffer := logger.NewBuffer(cfg.Logger.BufferCapacity)
	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON, logBuffer)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	gemClient, err := gemini.NewClient(ctx, cfg.Gemini, cfg.Assistant.City, log)
	if err != nil {
		if !errors.Is(err, gemini.ErrNotConfigured) {
			log.Error("Failed to initialize Gemini client", "error", err)
			return 1
		}
		log.Warn("Gemini API key not set, running on deterministic fallbacks. Set GOOGLE_AI_API_KEY to enable it.")
		gemClient = gemini.NewUnavailableClient(cfg.Assistant.City, log)
	}

	conversations := conversation.NewStore(cfg.Conversation.TTL, cfg.Conversation.MaxHistory, log)
	guide := assistant.New(assistant.Deps{
		Logger:        log,
		Config:        cfg.Assistant,
		Validator:     query.NewValidator(gemClient, conversations, cfg.Assistant.City, log),
		Conversations: conversations,
		Dataset:       dataset.NewReader(cfg.Dataset.Dir, log),
		Responder:     gemClient,
		Journal:       store,
	})

	var tgListener app.TelegramListener
	if cfg.Telegram.Token != "" {
		hDeps := telegram.HandlerDeps{Logger: log, Config: cfg, Executor: guide}
		tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log,
			tgbot.WithMiddlewares(telegram.Middleware(log)),
			tgbot.WithDefaultHandler(telegram.NewMessageHandler(hDeps)),
		)
		if err != nil {
			log.Error("Failed to create Telegram bot", "error", err)
			return 1
		}
		if err := telegram.RegisterHandlers(tg, log, telegram.RegisterAllCommands(hDeps)); err != nil {
			log.Error("Failed to register Telegram handlers", "error", err)
			return 1
		}
		tgListener = tg
	} else {
		log.Info("Telegram token not set, Telegram transport disabled.")
	}

	sched, err := app.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tasks.TaskDeps{
		Logger:        log,
		Conversations: conversations,
		Journal:       store,
		Config:        cfg,
	}))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	srv := server.New(cfg.Server, guide, logBuffer, store, log)
	application := app.New(log, srv, sched, tgListener)

	log.Info("Starting city guide...", "city", cfg.Assistant.City, "addr", cfg.Server.Addr)
	runErr := application.Run(ctx)
	log.Info("Run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("City guide stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}

	log.Info("City guide stopped gracefully.")
	return 0
}
