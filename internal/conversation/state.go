package conversation

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/tengecash-bot/internal/logger"
)

// State is the per-chat position in a multi-step flow.
type State interface {
	// Name identifies the state in logs.
	Name() string
	isState()
}

// Idle means no flow is in progress.
type Idle struct{}

// AwaitingUsername waits for the web-site login.
type AwaitingUsername struct{}

// AwaitingPassword waits for the password of Username.
type AwaitingPassword struct {
	Username string
}

// AwaitingNewCategoryName waits for the name of a category to create.
type AwaitingNewCategoryName struct{}

// AwaitingRenameTarget waits for the new name of CategoryID.
type AwaitingRenameTarget struct {
	CategoryID int64
}

// AwaitingAmountCategory holds a parsed expense until a category is chosen.
type AwaitingAmountCategory struct {
	Amount      decimal.Decimal
	Description string
}

func (Idle) Name() string                    { return "idle" }
func (AwaitingUsername) Name() string        { return "awaiting_username" }
func (AwaitingPassword) Name() string        { return "awaiting_password" }
func (AwaitingNewCategoryName) Name() string { return "awaiting_new_category_name" }
func (AwaitingRenameTarget) Name() string    { return "awaiting_rename_target" }
func (AwaitingAmountCategory) Name() string  { return "awaiting_amount_category" }

func (Idle) isState()                    {}
func (AwaitingUsername) isState()        {}
func (AwaitingPassword) isState()        {}
func (AwaitingNewCategoryName) isState() {}
func (AwaitingRenameTarget) isState()    {}
func (AwaitingAmountCategory) isState()  {}

type stateEntry struct {
	state     State
	expiresAt time.Time
}

// StateStore keeps conversation state in memory, keyed by chat ID.
// Entries expire after the TTL and read as Idle. Nothing survives a restart.
type StateStore struct {
	ttl time.Duration
	now func() time.Time

	mu     sync.RWMutex
	states map[int64]stateEntry
}

// NewStateStore creates a StateStore whose entries live for ttl.
func NewStateStore(ttl time.Duration) *StateStore {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &StateStore{
		ttl:    ttl,
		now:    time.Now,
		states: make(map[int64]stateEntry),
	}
}

// Get returns the chat's current state.
func (s *StateStore) Get(chatID int64) State {
	s.mu.RLock()
	entry, ok := s.states[chatID]
	s.mu.RUnlock()

	if !ok || !s.now().Before(entry.expiresAt) {
		return Idle{}
	}
	return entry.state
}

// Set replaces the chat's state and restarts its TTL. Setting Idle clears it.
func (s *StateStore) Set(chatID int64, state State) {
	if _, idle := state.(Idle); idle || state == nil {
		s.Clear(chatID)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[chatID] = stateEntry{state: state, expiresAt: s.now().Add(s.ttl)}
}

// Clear resets the chat to Idle.
func (s *StateStore) Clear(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, chatID)
}

// Len returns the number of stored entries, expired ones included.
func (s *StateStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states)
}

// Sweep removes entries that expired at or before now and returns how many were dropped.
func (s *StateStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for chatID, entry := range s.states {
		if !now.Before(entry.expiresAt) {
			delete(s.states, chatID)
			removed++
		}
	}
	return removed
}

// Run sweeps expired entries every interval until ctx is cancelled.
func (s *StateStore) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.Sweep(s.now()); n > 0 {
				logger.Log.Debug().Int("removed", n).Msg("Expired conversation states swept")
			}
		}
	}
}
