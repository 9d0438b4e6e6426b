package conversation

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/tengecash-bot/internal/config"
	"gitlab.com/yelinaung/tengecash-bot/internal/logger"
	"gitlab.com/yelinaung/tengecash-bot/internal/models"
	"gitlab.com/yelinaung/tengecash-bot/internal/repository"
)

// recentExpensesLimit is how many expenses /list shows.
const recentExpensesLimit = 10

// ErrInvalidAmount is returned when the first token is not a usable amount.
var ErrInvalidAmount = errors.New("invalid amount")

// ErrDescriptionTooLong is returned when the description does not fit the expense column.
var ErrDescriptionTooLong = fmt.Errorf("description is longer than %d characters", models.MaxDescriptionLength)

// maxAmount is the first value that no longer fits NUMERIC(12,2).
var maxAmount = decimal.New(1, 10)

// amountRegex accepts "1000", "1000.5" and "1000,50".
var amountRegex = regexp.MustCompile(`^\d+(?:[.,]\d{1,2})?$`)

// ParsedExpense is a free-text expense before a category is chosen.
type ParsedExpense struct {
	Amount      decimal.Decimal
	Description string
}

// ParseExpense parses "1000,50 Кофе с собой" into an amount and a description.
// The description is empty when only an amount is given.
func ParseExpense(text string) (ParsedExpense, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !amountRegex.MatchString(fields[0]) {
		return ParsedExpense{}, ErrInvalidAmount
	}

	amount, err := decimal.NewFromString(strings.ReplaceAll(fields[0], ",", "."))
	if err != nil {
		return ParsedExpense{}, ErrInvalidAmount
	}
	if !amount.IsPositive() || amount.GreaterThanOrEqual(maxAmount) {
		return ParsedExpense{}, ErrInvalidAmount
	}

	description := strings.Join(fields[1:], " ")
	if utf8.RuneCountInString(description) > models.MaxDescriptionLength {
		return ParsedExpense{}, ErrDescriptionTooLong
	}

	return ParsedExpense{
		Amount:      amount,
		Description: description,
	}, nil
}

// handleExpenseText treats free text as a new expense and offers the owner's categories.
func (e *Engine) handleExpenseText(ctx context.Context, out Messenger, msg Message) {
	acc := e.boundAccount(ctx, out, msg.ChatID)
	if acc == nil {
		return
	}

	parsed, err := ParseExpense(msg.Text)
	if err != nil {
		logger.Log.Debug().Str("chat_hash", logger.HashChatID(msg.ChatID)).Str("text", logger.SanitizeText(msg.Text)).Msg("Unparseable expense")
		if errors.Is(err, ErrDescriptionTooLong) {
			e.send(ctx, out, msg.ChatID, Reply{Text: msgDescriptionTooLong()})
			return
		}
		e.send(ctx, out, msg.ChatID, Reply{Text: msgInvalidAmount})
		return
	}

	categories, ok := e.ownedCategories(ctx, out, msg.ChatID, acc)
	if !ok {
		return
	}

	e.states.Set(msg.ChatID, AwaitingAmountCategory{Amount: parsed.Amount, Description: parsed.Description})
	e.send(ctx, out, msg.ChatID, Reply{
		Text:     msgPickCategory(parsed.Amount, e.cfg.Currency),
		Keyboard: categoryKeyboard(categories, CallbackCategory),
	})
}

// handleCategoryPick finalizes the pending expense with the chosen category.
func (e *Engine) handleCategoryPick(ctx context.Context, out Messenger, cb Callback, id int64) {
	pending, ok := e.states.Get(cb.ChatID).(AwaitingAmountCategory)
	if !ok {
		e.answer(ctx, out, cb.ID, "")
		e.edit(ctx, out, cb.ChatID, cb.MessageID, Reply{Text: msgPendingExpired})
		return
	}

	acc, cat := e.ownedCategory(ctx, out, cb, id)
	if cat == nil {
		return
	}

	sectionID, err := e.resolveSection(ctx, acc.ID, cat)
	if err != nil {
		e.answer(ctx, out, cb.ID, "")
		e.storeFailure(ctx, out, cb.ChatID, err, "resolve_section")
		return
	}

	description := pending.Description
	if description == "" {
		description = cat.Name
	}

	expense := &models.Expense{
		UserID:      acc.ID,
		Amount:      pending.Amount,
		Description: description,
		CategoryID:  cat.ID,
		SectionID:   sectionID,
		Date:        e.today(),
	}
	if err := e.stores.Expenses.Create(ctx, expense); err != nil {
		e.answer(ctx, out, cb.ID, "")
		e.storeFailure(ctx, out, cb.ChatID, err, "create_expense")
		return
	}

	e.states.Clear(cb.ChatID)
	logger.Log.Info().
		Str("chat_hash", logger.HashChatID(cb.ChatID)).
		Int64("expense_id", expense.ID).
		Str("description", logger.SanitizeDescription(description)).
		Msg("Expense recorded")
	e.answer(ctx, out, cb.ID, "")
	e.edit(ctx, out, cb.ChatID, cb.MessageID, Reply{Text: msgExpenseSaved(expense.Amount, e.cfg.Currency, cat.Name)})
}

// resolveSection picks the section for a new expense according to SECTION_POLICY.
// A nil result stores the expense without a section.
func (e *Engine) resolveSection(ctx context.Context, ownerID int64, cat *models.Category) (*int64, error) {
	switch e.cfg.SectionPolicy {
	case config.SectionPolicyFixed:
		sec, err := e.stores.Sections.GetByID(ctx, e.cfg.DefaultSectionID)
		if err == nil {
			return &sec.ID, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		logger.Log.Warn().Int64("section_id", e.cfg.DefaultSectionID).Msg("Configured section missing, using first available")
	case config.SectionPolicyCategory:
		if cat.SectionID != nil {
			return cat.SectionID, nil
		}
	}

	sec, err := e.stores.Sections.First(ctx, ownerID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sec.ID, nil
}

// today returns the current calendar date in the configured time zone.
func (e *Engine) today() time.Time {
	now := e.now().In(e.location())
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func (e *Engine) handleList(ctx context.Context, out Messenger, msg Message, _ string) {
	acc := e.boundAccount(ctx, out, msg.ChatID)
	if acc == nil {
		return
	}

	expenses, err := e.stores.Expenses.ListRecent(ctx, acc.ID, recentExpensesLimit)
	if err != nil {
		e.storeFailure(ctx, out, msg.ChatID, err, "list_expenses")
		return
	}
	if len(expenses) == 0 {
		e.send(ctx, out, msg.ChatID, Reply{Text: msgNoExpenses})
		return
	}
	e.send(ctx, out, msg.ChatID, Reply{Text: msgRecentExpenses(expenses, e.cfg.Currency)})
}

func (e *Engine) handleTotal(ctx context.Context, out Messenger, msg Message, _ string) {
	acc := e.boundAccount(ctx, out, msg.ChatID)
	if acc == nil {
		return
	}

	today := e.today()
	from := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	total, err := e.stores.Expenses.TotalBetween(ctx, acc.ID, from, to)
	if err != nil {
		e.storeFailure(ctx, out, msg.ChatID, err, "month_total")
		return
	}
	e.send(ctx, out, msg.ChatID, Reply{Text: msgMonthTotal(from, total, e.cfg.Currency)})
}
