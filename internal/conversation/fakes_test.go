package conversation

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/tengecash-bot/internal/auth"
	"gitlab.com/yelinaung/tengecash-bot/internal/config"
	"gitlab.com/yelinaung/tengecash-bot/internal/logger"
	"gitlab.com/yelinaung/tengecash-bot/internal/models"
	"gitlab.com/yelinaung/tengecash-bot/internal/repository"
)

func init() {
	logger.InitHashSaltForTesting("conversation-test-salt-0123456789abcdef")
}

type sent struct {
	ChatID int64
	Reply  Reply
}

type edited struct {
	ChatID    int64
	MessageID int
	Reply     Reply
}

type fakeMessenger struct {
	mu       sync.Mutex
	sent     []sent
	edited   []edited
	deleted  []int
	answered []string
}

func (m *fakeMessenger) Send(_ context.Context, chatID int64, reply Reply) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sent{ChatID: chatID, Reply: reply})
	return nil
}

func (m *fakeMessenger) Edit(_ context.Context, chatID int64, messageID int, reply Reply) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edited = append(m.edited, edited{ChatID: chatID, MessageID: messageID, Reply: reply})
	return nil
}

func (m *fakeMessenger) Delete(_ context.Context, _ int64, messageID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, messageID)
	return nil
}

func (m *fakeMessenger) AnswerCallback(_ context.Context, callbackID, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answered = append(m.answered, callbackID)
	return nil
}

func (m *fakeMessenger) lastSent(t *testing.T) Reply {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		t.Fatal("no message sent")
	}
	return m.sent[len(m.sent)-1].Reply
}

func (m *fakeMessenger) lastEdited(t *testing.T) Reply {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.edited) == 0 {
		t.Fatal("no message edited")
	}
	return m.edited[len(m.edited)-1].Reply
}

// memStore is an in-memory stand-in for the Postgres repositories.
type memStore struct {
	mu         sync.Mutex
	accounts   map[int64]*models.Account
	passwords  map[string]string
	categories map[int64]*models.Category
	sections   []models.Section
	expenses   []models.Expense
	nextID     int64

	failFind  error
	failWrite error
}

func newMemStore() *memStore {
	return &memStore{
		accounts:   make(map[int64]*models.Account),
		passwords:  make(map[string]string),
		categories: make(map[int64]*models.Category),
		nextID:     100,
	}
}

func (s *memStore) stores() Stores {
	return Stores{Accounts: s, Auth: memAuth{s}, Categories: memCategories{s}, Sections: memSections{s}, Expenses: memExpenses{s}}
}

func (s *memStore) addAccount(id int64, username, firstName, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[id] = &models.Account{ID: id, Username: username, FirstName: firstName, IsActive: true}
	s.passwords[username] = password
}

func (s *memStore) addCategory(ownerID int64, name string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.categories[s.nextID] = &models.Category{ID: s.nextID, UserID: ownerID, Name: name}
	return s.nextID
}

func (s *memStore) linkedTo(accountID int64) *int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accounts[accountID].TelegramID
}

func (s *memStore) FindByChatID(_ context.Context, chatID int64) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFind != nil {
		return nil, s.failFind
	}
	for _, acc := range s.accounts {
		if acc.TelegramID != nil && *acc.TelegramID == chatID {
			cp := *acc
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("failed to get account: %w", repository.ErrNotFound)
}

func (s *memStore) Bind(_ context.Context, accountID, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acc := range s.accounts {
		if acc.TelegramID != nil && *acc.TelegramID == chatID {
			acc.TelegramID = nil
		}
	}
	id := chatID
	s.accounts[accountID].TelegramID = &id
	return nil
}

func (s *memStore) UnbindChat(_ context.Context, chatID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acc := range s.accounts {
		if acc.TelegramID != nil && *acc.TelegramID == chatID {
			acc.TelegramID = nil
			return true, nil
		}
	}
	return false, nil
}

type memAuth struct{ s *memStore }

func (a memAuth) Authenticate(_ context.Context, username, password string) (*models.Account, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	want, ok := a.s.passwords[username]
	if !ok {
		return nil, auth.ErrUnknownUser
	}
	if want != password {
		return nil, auth.ErrInvalidPassword
	}
	for _, acc := range a.s.accounts {
		if acc.Username == username {
			if !acc.IsActive {
				return nil, auth.ErrInactive
			}
			cp := *acc
			return &cp, nil
		}
	}
	return nil, auth.ErrUnknownUser
}

type memCategories struct{ s *memStore }

func (c memCategories) ListByOwner(_ context.Context, ownerID int64) ([]models.Category, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	var out []models.Category
	for _, cat := range c.s.categories {
		if cat.UserID == ownerID {
			out = append(out, *cat)
		}
	}
	slices.SortFunc(out, func(a, b models.Category) int { return int(a.ID - b.ID) })
	return out, nil
}

func (c memCategories) GetForOwner(_ context.Context, ownerID, id int64) (*models.Category, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	cat, ok := c.s.categories[id]
	if !ok || cat.UserID != ownerID {
		return nil, fmt.Errorf("failed to get category: %w", repository.ErrNotFound)
	}
	cp := *cat
	return &cp, nil
}

func (c memCategories) ExistsByName(_ context.Context, ownerID int64, name string, excludeID int64) (bool, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	for _, cat := range c.s.categories {
		if cat.UserID == ownerID && cat.ID != excludeID && strings.EqualFold(cat.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (c memCategories) Create(_ context.Context, ownerID int64, name string) (*models.Category, error) {
	if c.s.failWrite != nil {
		return nil, c.s.failWrite
	}
	id := c.s.addCategory(ownerID, name)
	return &models.Category{ID: id, UserID: ownerID, Name: name}, nil
}

func (c memCategories) Rename(_ context.Context, ownerID, id int64, name string) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	cat, ok := c.s.categories[id]
	if !ok || cat.UserID != ownerID {
		return repository.ErrNotFound
	}
	cat.Name = name
	return nil
}

func (c memCategories) DeleteCascade(_ context.Context, ownerID, id int64) (int64, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	cat, ok := c.s.categories[id]
	if !ok || cat.UserID != ownerID {
		return 0, repository.ErrNotFound
	}
	delete(c.s.categories, id)
	kept := c.s.expenses[:0]
	var removed int64
	for _, exp := range c.s.expenses {
		if exp.CategoryID == id {
			removed++
			continue
		}
		kept = append(kept, exp)
	}
	c.s.expenses = kept
	return removed, nil
}

type memSections struct{ s *memStore }

func (m memSections) First(_ context.Context, _ int64) (*models.Section, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if len(m.s.sections) == 0 {
		return nil, repository.ErrNotFound
	}
	sec := m.s.sections[0]
	return &sec, nil
}

func (m memSections) GetByID(_ context.Context, id int64) (*models.Section, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, sec := range m.s.sections {
		if sec.ID == id {
			return &sec, nil
		}
	}
	return nil, repository.ErrNotFound
}

type memExpenses struct{ s *memStore }

func (m memExpenses) Create(_ context.Context, expense *models.Expense) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.failWrite != nil {
		return m.s.failWrite
	}
	m.s.nextID++
	expense.ID = m.s.nextID
	m.s.expenses = append(m.s.expenses, *expense)
	return nil
}

func (m memExpenses) ListRecent(_ context.Context, ownerID int64, limit int) ([]models.Expense, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []models.Expense
	for i := len(m.s.expenses) - 1; i >= 0 && len(out) < limit; i-- {
		exp := m.s.expenses[i]
		if exp.UserID != ownerID {
			continue
		}
		if cat, ok := m.s.categories[exp.CategoryID]; ok {
			exp.CategoryName = cat.Name
		}
		out = append(out, exp)
	}
	return out, nil
}

func (m memExpenses) TotalBetween(_ context.Context, ownerID int64, from, to time.Time) (decimal.Decimal, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	total := decimal.Zero
	for _, exp := range m.s.expenses {
		if exp.UserID == ownerID && !exp.Date.Before(from) && exp.Date.Before(to) {
			total = total.Add(exp.Amount)
		}
	}
	return total, nil
}

func (s *memStore) expensesFor(ownerID int64) []models.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Expense
	for _, exp := range s.expenses {
		if exp.UserID == ownerID {
			out = append(out, exp)
		}
	}
	return out
}

func testConfig() *config.Config {
	loc, _ := time.LoadLocation("Asia/Almaty")
	return &config.Config{
		Currency:        "KZT",
		Timezone:        "Asia/Almaty",
		Location:        loc,
		ConversationTTL: 15 * time.Minute,
		SectionPolicy:   config.SectionPolicyFirst,
	}
}

type harness struct {
	engine *Engine
	store  *memStore
	out    *fakeMessenger
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := newMemStore()
	engine := New(testConfig(), store.stores(), NewStateStore(15*time.Minute))
	return &harness{engine: engine, store: store, out: &fakeMessenger{}}
}

func (h *harness) say(chatID int64, text string) {
	h.engine.HandleMessage(context.Background(), h.out, Message{ChatID: chatID, MessageID: len(h.out.sent) + 1, Text: text})
}

func (h *harness) press(chatID int64, data string) {
	h.engine.HandleCallback(context.Background(), h.out, Callback{ID: "cb-" + data, ChatID: chatID, MessageID: 77, Data: data})
}

func (h *harness) state(chatID int64) State {
	return h.engine.States().Get(chatID)
}

// linked returns a harness with account 1 ("ruslan") bound to chat 500.
func linked(t *testing.T) *harness {
	t.Helper()
	h := newHarness(t)
	h.store.addAccount(1, "ruslan", "Руслан", "secret")
	require.NoError(t, h.store.Bind(context.Background(), 1, 500))
	return h
}
