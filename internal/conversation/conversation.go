// Package conversation implements the chat flows of the tengecash bot:
// account linking, category management and expense intake.
//
// The engine knows nothing about Telegram. Inbound updates arrive as Message
// and Callback values and replies leave through a Messenger.
package conversation

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/tengecash-bot/internal/config"
	"gitlab.com/yelinaung/tengecash-bot/internal/logger"
	"gitlab.com/yelinaung/tengecash-bot/internal/models"
)

// Message is an inbound text message.
type Message struct {
	ChatID    int64
	MessageID int
	FirstName string
	Text      string
}

// Callback is an inline keyboard button press.
type Callback struct {
	ID        string
	ChatID    int64
	MessageID int
	Data      string
}

// Button is an inline keyboard button carrying a callback payload.
type Button struct {
	Text string
	Data string
}

// Reply is an outbound message, optionally with an inline keyboard.
type Reply struct {
	Text     string
	HTML     bool
	Keyboard [][]Button
}

// Messenger delivers replies to a chat.
type Messenger interface {
	Send(ctx context.Context, chatID int64, reply Reply) error
	Edit(ctx context.Context, chatID int64, messageID int, reply Reply) error
	Delete(ctx context.Context, chatID int64, messageID int) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

// AccountStore is the linked-account store.
type AccountStore interface {
	FindByChatID(ctx context.Context, chatID int64) (*models.Account, error)
	Bind(ctx context.Context, accountID, chatID int64) error
	UnbindChat(ctx context.Context, chatID int64) (bool, error)
}

// Authenticator verifies web-site credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*models.Account, error)
}

// CategoryStore is the owner-scoped category store.
type CategoryStore interface {
	ListByOwner(ctx context.Context, ownerID int64) ([]models.Category, error)
	GetForOwner(ctx context.Context, ownerID, id int64) (*models.Category, error)
	ExistsByName(ctx context.Context, ownerID int64, name string, excludeID int64) (bool, error)
	Create(ctx context.Context, ownerID int64, name string) (*models.Category, error)
	Rename(ctx context.Context, ownerID, id int64, name string) error
	DeleteCascade(ctx context.Context, ownerID, id int64) (int64, error)
}

// SectionStore reads sections.
type SectionStore interface {
	First(ctx context.Context, ownerID int64) (*models.Section, error)
	GetByID(ctx context.Context, id int64) (*models.Section, error)
}

// ExpenseStore records and reads expenses.
type ExpenseStore interface {
	Create(ctx context.Context, expense *models.Expense) error
	ListRecent(ctx context.Context, ownerID int64, limit int) ([]models.Expense, error)
	TotalBetween(ctx context.Context, ownerID int64, from, to time.Time) (decimal.Decimal, error)
}

// Stores groups the collaborators the engine talks to.
type Stores struct {
	Accounts   AccountStore
	Auth       Authenticator
	Categories CategoryStore
	Sections   SectionStore
	Expenses   ExpenseStore
}

// Engine routes messages and callbacks through the conversation flows.
type Engine struct {
	cfg    *config.Config
	stores Stores
	states *StateStore
	now    func() time.Time
}

// New creates a new Engine.
func New(cfg *config.Config, stores Stores, states *StateStore) *Engine {
	return &Engine{
		cfg:    cfg,
		stores: stores,
		states: states,
		now:    time.Now,
	}
}

// States exposes the engine's state store.
func (e *Engine) States() *StateStore {
	return e.states
}

func (e *Engine) location() *time.Location {
	if e.cfg.Location != nil {
		return e.cfg.Location
	}
	return time.UTC
}

func (e *Engine) send(ctx context.Context, out Messenger, chatID int64, reply Reply) {
	if err := out.Send(ctx, chatID, reply); err != nil {
		logger.Log.Error().Err(err).Str("chat_hash", logger.HashChatID(chatID)).Msg("Failed to send message")
	}
}

func (e *Engine) edit(ctx context.Context, out Messenger, chatID int64, messageID int, reply Reply) {
	if err := out.Edit(ctx, chatID, messageID, reply); err != nil {
		logger.Log.Error().Err(err).Str("chat_hash", logger.HashChatID(chatID)).Msg("Failed to edit message")
	}
}

func (e *Engine) answer(ctx context.Context, out Messenger, callbackID, text string) {
	if err := out.AnswerCallback(ctx, callbackID, text); err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to answer callback query")
	}
}

// storeFailure reports an unrecoverable store error and drops the chat back to Idle.
func (e *Engine) storeFailure(ctx context.Context, out Messenger, chatID int64, err error, action string) {
	logger.Log.Error().Err(err).Str("chat_hash", logger.HashChatID(chatID)).Str("action", action).Msg("Store operation failed")
	e.states.Clear(chatID)
	e.send(ctx, out, chatID, Reply{Text: msgStoreError(err)})
}
