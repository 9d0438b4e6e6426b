// Package bot connects the conversation engine to Telegram.
package bot

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/tengecash-bot/internal/config"
	"gitlab.com/yelinaung/tengecash-bot/internal/conversation"
	"gitlab.com/yelinaung/tengecash-bot/internal/logger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "gitlab.com/yelinaung/tengecash-bot/internal/bot"

// requestSlack lets a long poll finish before the HTTP client gives up.
const requestSlack = 10 * time.Second

// Bot wraps the Telegram bot with the conversation engine.
type Bot struct {
	bot     *bot.Bot
	cfg     *config.Config
	engine  *conversation.Engine
	tracer  trace.Tracer
	metrics *botMetrics
}

// New creates a new Bot instance.
func New(cfg *config.Config, engine *conversation.Engine) (*Bot, error) {
	b := &Bot{
		cfg:     cfg,
		engine:  engine,
		tracer:  otel.Tracer(instrumentationName),
		metrics: newBotMetrics(otel.Meter(instrumentationName)),
	}

	httpClient := &http.Client{
		Timeout:   cfg.PollTimeout + requestSlack,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	opts := []bot.Option{
		bot.WithMiddlewares(b.recoveryMiddleware, b.telemetryMiddleware, b.loggingMiddleware),
		bot.WithDefaultHandler(b.defaultHandler),
		bot.WithWorkers(cfg.BotWorkers),
		bot.WithHTTPClient(cfg.PollTimeout, httpClient),
	}

	telegramBot, err := bot.New(cfg.TelegramBotToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b.bot = telegramBot
	b.registerHandlers()

	return b, nil
}

// Start polls for updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) {
	logger.Log.Info().Int("workers", b.cfg.BotWorkers).Msg("Bot started polling")
	b.bot.Start(ctx)
	logger.Log.Info().Msg("Bot stopped polling")
}

// registerHandlers wires every engine command and callback prefix.
// Anything else, including free text, reaches defaultHandler.
func (b *Bot) registerHandlers() {
	for _, name := range conversation.Commands() {
		b.bot.RegisterHandlerMatchFunc(matchCommand(name), b.handleMessage)
	}

	for _, prefix := range conversation.CallbackPrefixes() {
		matchType := bot.MatchTypePrefix
		if prefix == conversation.CallbackCancelDelete {
			matchType = bot.MatchTypeExact
		}
		b.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, prefix, matchType, b.handleCallback)
	}
}

// matchCommand matches "/name", "/name@bot" and "/name args" but not "/namesake".
func matchCommand(name string) bot.MatchFunc {
	return func(update *tgmodels.Update) bool {
		return update.Message != nil && conversation.IsCommand(update.Message.Text, name)
	}
}

// messageFromUpdate converts a Telegram text message for the engine.
func messageFromUpdate(update *tgmodels.Update) (conversation.Message, bool) {
	m := update.Message
	if m == nil || m.Text == "" {
		return conversation.Message{}, false
	}

	msg := conversation.Message{
		ChatID:    m.Chat.ID,
		MessageID: m.ID,
		Text:      m.Text,
	}
	if m.From != nil {
		msg.FirstName = m.From.FirstName
	}
	return msg, true
}

// callbackFromUpdate converts a callback query for the engine.
func callbackFromUpdate(update *tgmodels.Update) (conversation.Callback, bool) {
	q := update.CallbackQuery
	if q == nil {
		return conversation.Callback{}, false
	}

	cb := conversation.Callback{ID: q.ID, Data: q.Data}
	switch {
	case q.Message.Message != nil:
		cb.ChatID = q.Message.Message.Chat.ID
		cb.MessageID = q.Message.Message.ID
	case q.Message.InaccessibleMessage != nil:
		cb.ChatID = q.Message.InaccessibleMessage.Chat.ID
		cb.MessageID = q.Message.InaccessibleMessage.MessageID
	default:
		cb.ChatID = q.From.ID
	}
	return cb, true
}

// chatIDOf returns the chat an update belongs to, or 0.
func chatIDOf(update *tgmodels.Update) int64 {
	if msg, ok := messageFromUpdate(update); ok {
		return msg.ChatID
	}
	if cb, ok := callbackFromUpdate(update); ok {
		return cb.ChatID
	}
	return 0
}

// updateKind names the update type for logs and metrics.
func updateKind(update *tgmodels.Update) string {
	switch {
	case update.Message != nil:
		if update.Message.Text == "" {
			return "message_other"
		}
		return "message"
	case update.CallbackQuery != nil:
		return "callback_query"
	case update.EditedMessage != nil:
		return "edited_message"
	default:
		return "other"
	}
}
