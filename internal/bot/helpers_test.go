package bot

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/tengecash-bot/internal/auth"
	"gitlab.com/yelinaung/tengecash-bot/internal/config"
	"gitlab.com/yelinaung/tengecash-bot/internal/conversation"
	"gitlab.com/yelinaung/tengecash-bot/internal/logger"
	"gitlab.com/yelinaung/tengecash-bot/internal/models"
	"gitlab.com/yelinaung/tengecash-bot/internal/repository"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

func init() {
	logger.InitHashSaltForTesting("bot-test-salt-0123456789abcdefghij")
}

// stubStores backs the engine with a single account "aida" and one category.
type stubStores struct {
	mu       sync.Mutex
	account  models.Account
	category models.Category
	expenses []models.Expense
}

func newStubStores() *stubStores {
	return &stubStores{
		account:  models.Account{ID: 7, Username: "aida", FirstName: "Аида", IsActive: true},
		category: models.Category{ID: 3, UserID: 7, Name: "Продукты"},
	}
}

func (s *stubStores) stores() conversation.Stores {
	return conversation.Stores{Accounts: s, Auth: s, Categories: s, Sections: s, Expenses: stubExpenses{s}}
}

func (s *stubStores) FindByChatID(_ context.Context, chatID int64) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.account.TelegramID == nil || *s.account.TelegramID != chatID {
		return nil, fmt.Errorf("failed to get account: %w", repository.ErrNotFound)
	}
	acc := s.account
	return &acc, nil
}

func (s *stubStores) Bind(_ context.Context, _, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.account.TelegramID = &chatID
	return nil
}

func (s *stubStores) UnbindChat(_ context.Context, chatID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.account.TelegramID == nil || *s.account.TelegramID != chatID {
		return false, nil
	}
	s.account.TelegramID = nil
	return true, nil
}

func (s *stubStores) Authenticate(_ context.Context, username, password string) (*models.Account, error) {
	if username != s.account.Username {
		return nil, auth.ErrUnknownUser
	}
	if password != "pa55word" {
		return nil, auth.ErrInvalidPassword
	}
	acc := s.account
	return &acc, nil
}

func (s *stubStores) ListByOwner(_ context.Context, ownerID int64) ([]models.Category, error) {
	if ownerID != s.category.UserID {
		return nil, nil
	}
	return []models.Category{s.category}, nil
}

func (s *stubStores) GetForOwner(_ context.Context, ownerID, id int64) (*models.Category, error) {
	if ownerID != s.category.UserID || id != s.category.ID {
		return nil, repository.ErrNotFound
	}
	cat := s.category
	return &cat, nil
}

func (s *stubStores) ExistsByName(context.Context, int64, string, int64) (bool, error) {
	return false, nil
}

func (s *stubStores) Create(_ context.Context, ownerID int64, name string) (*models.Category, error) {
	return &models.Category{ID: 4, UserID: ownerID, Name: name}, nil
}

func (s *stubStores) Rename(context.Context, int64, int64, string) error { return nil }

func (s *stubStores) DeleteCascade(context.Context, int64, int64) (int64, error) { return 0, nil }

func (s *stubStores) First(context.Context, int64) (*models.Section, error) {
	return nil, repository.ErrNotFound
}

func (s *stubStores) GetByID(context.Context, int64) (*models.Section, error) {
	return nil, repository.ErrNotFound
}

func (s *stubStores) expenseCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.expenses)
}

// conversation.ExpenseStore.Create clashes with CategoryStore.Create, so
// expenses go through a separate view.
type stubExpenses struct{ s *stubStores }

func (e stubExpenses) Create(_ context.Context, expense *models.Expense) error {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	expense.ID = int64(len(e.s.expenses) + 1)
	e.s.expenses = append(e.s.expenses, *expense)
	return nil
}

func (e stubExpenses) ListRecent(context.Context, int64, int) ([]models.Expense, error) {
	return nil, nil
}

func (e stubExpenses) TotalBetween(context.Context, int64, time.Time, time.Time) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Currency:        "KZT",
		Timezone:        "UTC",
		Location:        time.UTC,
		ConversationTTL: time.Minute,
		BotWorkers:      1,
		PollTimeout:     time.Second,
		SectionPolicy:   config.SectionPolicyFirst,
	}
}

// newTestBot returns a Bot without a Telegram connection, for calling the
// Core handlers directly.
func newTestBot(t *testing.T) (*Bot, *stubStores) {
	t.Helper()
	store := newStubStores()
	cfg := testConfig()
	engine := conversation.New(cfg, store.stores(), conversation.NewStateStore(cfg.ConversationTTL))
	return &Bot{
		cfg:     cfg,
		engine:  engine,
		tracer:  tracenoop.NewTracerProvider().Tracer("test"),
		metrics: newBotMetrics(metricnoop.NewMeterProvider().Meter("test")),
	}, store
}
