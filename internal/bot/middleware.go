package bot

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/tengecash-bot/internal/logger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

type botMetrics struct {
	updates  metric.Int64Counter
	panics   metric.Int64Counter
	duration metric.Float64Histogram
}

func newBotMetrics(meter metric.Meter) *botMetrics {
	m := &botMetrics{}
	var err error

	if m.updates, err = meter.Int64Counter("tengecash.bot.updates",
		metric.WithDescription("Telegram updates handled")); err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to create updates counter")
		m.updates = noop.Int64Counter{}
	}
	if m.panics, err = meter.Int64Counter("tengecash.bot.panics",
		metric.WithDescription("Handler panics recovered")); err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to create panics counter")
		m.panics = noop.Int64Counter{}
	}
	if m.duration, err = meter.Float64Histogram("tengecash.bot.update.duration",
		metric.WithDescription("Time spent handling one update"),
		metric.WithUnit("s")); err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to create duration histogram")
		m.duration = noop.Float64Histogram{}
	}
	return m
}

// recoveryMiddleware keeps a panicking handler from taking the process down.
func (b *Bot) recoveryMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
		defer func() {
			if r := recover(); r != nil {
				logger.Log.Error().
					Interface("panic", r).
					Int64("update_id", update.ID).
					Str("stack", string(debug.Stack())).
					Msg("Recovered from handler panic")
				b.metrics.panics.Add(ctx, 1)
			}
		}()
		next(ctx, tgBot, update)
	}
}

// telemetryMiddleware wraps each update in a span and records update metrics.
func (b *Bot) telemetryMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
		kind := updateKind(update)
		ctx, span := b.tracer.Start(ctx, "telegram.update",
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("telegram.update.kind", kind),
				attribute.Int64("telegram.update.id", update.ID),
			))
		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				span.SetStatus(codes.Error, "handler panic")
				span.End()
				panic(r)
			}
			span.End()
		}()

		next(ctx, tgBot, update)

		attrs := metric.WithAttributes(attribute.String("kind", kind))
		b.metrics.updates.Add(ctx, 1, attrs)
		b.metrics.duration.Record(ctx, time.Since(start).Seconds(), attrs)
	}
}

// loggingMiddleware logs every update with hashed ids and sanitized text.
func (b *Bot) loggingMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
		start := time.Now()
		next(ctx, tgBot, update)
		logUpdate(update, time.Since(start))
	}
}

func logUpdate(update *models.Update, elapsed time.Duration) {
	event := logger.Log.Info().
		Str("kind", updateKind(update)).
		Str("chat_hash", logger.HashChatID(chatIDOf(update))).
		Dur("elapsed", elapsed)

	switch {
	case update.Message != nil:
		event = event.Str("text", logger.SanitizeText(update.Message.Text))
	case update.CallbackQuery != nil:
		event = event.Str("data", update.CallbackQuery.Data)
	}

	event.Msg("Update handled")
}
