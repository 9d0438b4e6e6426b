package bot

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/tengecash-bot/internal/logger"
)

const msgPrivateOnly = "Я работаю только в личных сообщениях. Напиши мне напрямую."

// handleMessage handles commands and free text.
func (b *Bot) handleMessage(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleMessageCore(ctx, tgBot, update)
}

// handleMessageCore is the testable implementation of handleMessage.
func (b *Bot) handleMessageCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	msg, ok := messageFromUpdate(update)
	if !ok {
		return
	}

	// Accounts are linked per chat, so group chats would share one login.
	if update.Message.Chat.Type != "private" {
		_, err := tg.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: msg.ChatID,
			Text:   msgPrivateOnly,
		})
		if err != nil {
			logger.Log.Error().Err(err).Msg("Failed to send private-only notice")
		}
		return
	}

	b.engine.HandleMessage(ctx, messenger{tg: tg}, msg)
}

// handleCallback handles inline keyboard presses.
func (b *Bot) handleCallback(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleCallbackCore(ctx, tgBot, update)
}

// handleCallbackCore is the testable implementation of handleCallback.
func (b *Bot) handleCallbackCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	cb, ok := callbackFromUpdate(update)
	if !ok {
		return
	}
	b.engine.HandleCallback(ctx, messenger{tg: tg}, cb)
}

// defaultHandler receives free text, unknown commands and unmatched callbacks.
func (b *Bot) defaultHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.defaultHandlerCore(ctx, tgBot, update)
}

// defaultHandlerCore is the testable implementation of defaultHandler.
func (b *Bot) defaultHandlerCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallbackCore(ctx, tg, update)
	case update.Message != nil && update.Message.Text != "":
		b.handleMessageCore(ctx, tg, update)
	default:
		logger.Log.Debug().Str("kind", updateKind(update)).Msg("Ignoring update")
	}
}
