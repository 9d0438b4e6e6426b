package bot

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/tengecash-bot/internal/bot/mocks"
	"gitlab.com/yelinaung/tengecash-bot/internal/conversation"
)

// TelegramAPI is an alias to the interface defined in the mocks package.
type TelegramAPI = mocks.TelegramAPI

// Compile-time check that the real bot satisfies the interface.
var _ TelegramAPI = (*bot.Bot)(nil)

// messenger delivers conversation replies through the Telegram Bot API.
type messenger struct {
	tg TelegramAPI
}

var _ conversation.Messenger = messenger{}

func inlineKeyboard(rows [][]conversation.Button) *models.InlineKeyboardMarkup {
	keyboard := make([][]models.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]models.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			buttons = append(buttons, models.InlineKeyboardButton{Text: btn.Text, CallbackData: btn.Data})
		}
		keyboard = append(keyboard, buttons)
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: keyboard}
}

func parseMode(reply conversation.Reply) models.ParseMode {
	if reply.HTML {
		return models.ParseModeHTML
	}
	return ""
}

func (m messenger) Send(ctx context.Context, chatID int64, reply conversation.Reply) error {
	params := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      reply.Text,
		ParseMode: parseMode(reply),
	}
	if len(reply.Keyboard) > 0 {
		params.ReplyMarkup = inlineKeyboard(reply.Keyboard)
	}
	if _, err := m.tg.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

func (m messenger) Edit(ctx context.Context, chatID int64, messageID int, reply conversation.Reply) error {
	params := &bot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      reply.Text,
		ParseMode: parseMode(reply),
	}
	if len(reply.Keyboard) > 0 {
		params.ReplyMarkup = inlineKeyboard(reply.Keyboard)
	}
	if _, err := m.tg.EditMessageText(ctx, params); err != nil {
		return fmt.Errorf("failed to edit message %d: %w", messageID, err)
	}
	return nil
}

func (m messenger) Delete(ctx context.Context, chatID int64, messageID int) error {
	if _, err := m.tg.DeleteMessage(ctx, &bot.DeleteMessageParams{ChatID: chatID, MessageID: messageID}); err != nil {
		return fmt.Errorf("failed to delete message %d: %w", messageID, err)
	}
	return nil
}

func (m messenger) AnswerCallback(ctx context.Context, callbackID, text string) error {
	if _, err := m.tg.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
	}); err != nil {
		return fmt.Errorf("failed to answer callback query: %w", err)
	}
	return nil
}
