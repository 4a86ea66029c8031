package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/cityguide/internal/assistant"
	"github.com/edgard/cityguide/internal/config"
)

const (
	executeTimeout     = 2 * time.Minute
	sendMessageTimeout = 10 * time.Second

	errorReply = "An error occurred while processing your request."
)

// Executor runs user input through the assistant.
type Executor interface {
	Execute(ctx context.Context, input, userID string) (assistant.Result, error)
}

// HandlerDeps provides dependencies for Telegram handlers.
type HandlerDeps struct {
	Logger   *slog.Logger
	Config   *config.Config
	Executor Executor
}

// RegisteredHandler represents a command handler with its middleware.
type RegisteredHandler struct {
	HandlerType bot.HandlerType
	Pattern     string
	Handler     bot.HandlerFunc
	Middleware  []bot.Middleware
	MatchType   bot.MatchType
}

// RegisterAllCommands returns the bot commands. Plain text messages are
// handled by NewMessageHandler, installed as the default handler.
func RegisterAllCommands(deps HandlerDeps) map[string]RegisteredHandler {
	intro := NewIntroHandler(deps)

	return map[string]RegisteredHandler{
		"/start": {
			HandlerType: bot.HandlerTypeMessageText,
			Pattern:     "start",
			Handler:     intro,
			MatchType:   bot.MatchTypeCommandStartOnly,
		},
		"/help": {
			HandlerType: bot.HandlerTypeMessageText,
			Pattern:     "help",
			Handler:     intro,
			MatchType:   bot.MatchTypeCommandStartOnly,
		},
	}
}

// UserID maps a Telegram user to a conversation user id.
func UserID(telegramID int64) string {
	return "tg:" + strconv.FormatInt(telegramID, 10)
}

// NewIntroHandler returns a handler describing what the assistant does.
func NewIntroHandler(deps HandlerDeps) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		log := deps.Logger.With("handler", "intro")
		if update.Message == nil {
			return
		}
		text := fmt.Sprintf(deps.Config.Assistant.IntroductionMsg, deps.Config.Assistant.City)
		send(ctx, b, log, update.Message.Chat.ID, text)
	}
}

// NewMessageHandler returns a handler executing text messages as queries.
func NewMessageHandler(deps HandlerDeps) bot.HandlerFunc {
	return messageHandler{deps}.Handle
}

type messageHandler struct {
	deps HandlerDeps
}

func (h messageHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "message")

	msg := update.Message
	if msg == nil || msg.From == nil || strings.TrimSpace(msg.Text) == "" {
		log.DebugContext(ctx, "Ignoring update without text or sender", "update_id", update.ID)
		return
	}

	if _, err := b.SendChatAction(ctx, &bot.SendChatActionParams{ChatID: msg.Chat.ID, Action: models.ChatActionTyping}); err != nil {
		log.DebugContext(ctx, "Failed to send typing action", "error", err, "chat_id", msg.Chat.ID)
	}

	reply, ok := h.reply(ctx, msg.Text, UserID(msg.From.ID))
	if !ok {
		return
	}
	send(ctx, b, log, msg.Chat.ID, reply)
}

// reply runs text through the assistant and renders the result as one
// message. It reports false when there is nothing to send.
func (h messageHandler) reply(ctx context.Context, text, userID string) (string, bool) {
	execCtx, cancel := context.WithTimeout(ctx, executeTimeout)
	defer cancel()

	res, err := h.deps.Executor.Execute(execCtx, text, userID)
	if err != nil {
		h.deps.Logger.ErrorContext(ctx, "Command execution error", "user_id", userID, "error", err)
		return errorReply, true
	}
	if res.Type == assistant.TypeNone || len(res.Lines) == 0 {
		return "", false
	}
	return strings.Join(res.Lines, "\n"), true
}

func send(ctx context.Context, b *bot.Bot, log *slog.Logger, chatID int64, text string) {
	sendCtx, cancel := context.WithTimeout(ctx, sendMessageTimeout)
	defer cancel()

	if _, err := b.SendMessage(sendCtx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		log.ErrorContext(ctx, "Failed to send message", "error", err, "chat_id", chatID)
		return
	}
	log.DebugContext(ctx, "Message sent", "chat_id", chatID)
}
