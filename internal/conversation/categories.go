package conversation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"gitlab.com/yelinaung/tengecash-bot/internal/logger"
	"gitlab.com/yelinaung/tengecash-bot/internal/models"
	"gitlab.com/yelinaung/tengecash-bot/internal/repository"
)

// Category name validation failures.
var (
	ErrEmptyCategoryName   = errors.New("category name is empty")
	ErrCategoryNameTooLong = fmt.Errorf("category name is longer than %d characters", models.MaxCategoryNameLength)
	ErrCategoryNameControl = errors.New("category name contains control characters")
)

// NormalizeCategoryName trims name and checks it can be stored.
func NormalizeCategoryName(name string) (string, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return "", ErrEmptyCategoryName
	case utf8.RuneCountInString(name) > models.MaxCategoryNameLength:
		return "", ErrCategoryNameTooLong
	case strings.ContainsFunc(name, unicode.IsControl):
		return "", ErrCategoryNameControl
	}
	return name, nil
}

func invalidNameText(err error) string {
	switch {
	case errors.Is(err, ErrCategoryNameTooLong):
		return fmt.Sprintf("Название слишком длинное (максимум %d символов). Введи другое название:", models.MaxCategoryNameLength)
	case errors.Is(err, ErrCategoryNameControl):
		return "Название не может содержать переносы строк и табуляцию. Введи другое название:"
	default:
		return "Название не может быть пустым. Введи название:"
	}
}

func categoryKeyboard(categories []models.Category, prefix string) [][]Button {
	rows := make([][]Button, 0, len(categories))
	for _, c := range categories {
		rows = append(rows, []Button{{Text: c.Name, Data: prefix + strconv.FormatInt(c.ID, 10)}})
	}
	return rows
}

// ownedCategories lists the owner's categories, replying with a hint when there are none.
func (e *Engine) ownedCategories(ctx context.Context, out Messenger, chatID int64, acc *models.Account) ([]models.Category, bool) {
	categories, err := e.stores.Categories.ListByOwner(ctx, acc.ID)
	if err != nil {
		e.storeFailure(ctx, out, chatID, err, "list_categories")
		return nil, false
	}
	if len(categories) == 0 {
		e.send(ctx, out, chatID, Reply{Text: msgNoCategories})
		return nil, false
	}
	return categories, true
}

func (e *Engine) handleCatList(ctx context.Context, out Messenger, msg Message, _ string) {
	acc := e.boundAccount(ctx, out, msg.ChatID)
	if acc == nil {
		return
	}
	categories, ok := e.ownedCategories(ctx, out, msg.ChatID, acc)
	if !ok {
		return
	}
	e.send(ctx, out, msg.ChatID, Reply{Text: msgCategoryList(categories)})
}

// handleCatAdd prompts for a category name. "/catadd Name" creates it directly.
func (e *Engine) handleCatAdd(ctx context.Context, out Messenger, msg Message, args string) {
	acc := e.boundAccount(ctx, out, msg.ChatID)
	if acc == nil {
		return
	}
	if args != "" {
		e.createCategory(ctx, out, msg.ChatID, acc, args)
		return
	}
	e.states.Set(msg.ChatID, AwaitingNewCategoryName{})
	e.send(ctx, out, msg.ChatID, Reply{Text: msgAskCategoryName})
}

func (e *Engine) receiveNewCategoryName(ctx context.Context, out Messenger, msg Message) {
	acc := e.boundAccount(ctx, out, msg.ChatID)
	if acc == nil {
		return
	}
	e.createCategory(ctx, out, msg.ChatID, acc, msg.Text)
}

// createCategory adds a category. Invalid or duplicate names keep the chat
// waiting for another name.
func (e *Engine) createCategory(ctx context.Context, out Messenger, chatID int64, acc *models.Account, raw string) {
	name, err := NormalizeCategoryName(raw)
	if err != nil {
		e.states.Set(chatID, AwaitingNewCategoryName{})
		e.send(ctx, out, chatID, Reply{Text: invalidNameText(err)})
		return
	}

	exists, err := e.stores.Categories.ExistsByName(ctx, acc.ID, name, 0)
	if err != nil {
		e.storeFailure(ctx, out, chatID, err, "check_category_name")
		return
	}
	if exists {
		e.states.Set(chatID, AwaitingNewCategoryName{})
		e.send(ctx, out, chatID, Reply{Text: msgCategoryExists(name)})
		return
	}

	cat, err := e.stores.Categories.Create(ctx, acc.ID, name)
	if errors.Is(err, repository.ErrDuplicate) {
		e.states.Set(chatID, AwaitingNewCategoryName{})
		e.send(ctx, out, chatID, Reply{Text: msgCategoryExists(name)})
		return
	}
	if err != nil {
		e.storeFailure(ctx, out, chatID, err, "create_category")
		return
	}

	e.states.Clear(chatID)
	logger.Log.Info().Str("chat_hash", logger.HashChatID(chatID)).Int64("category_id", cat.ID).Msg("Category created")
	e.send(ctx, out, chatID, Reply{Text: msgCategoryCreated(cat.Name)})
}

func (e *Engine) handleCatEdit(ctx context.Context, out Messenger, msg Message, _ string) {
	acc := e.boundAccount(ctx, out, msg.ChatID)
	if acc == nil {
		return
	}
	categories, ok := e.ownedCategories(ctx, out, msg.ChatID, acc)
	if !ok {
		return
	}
	e.send(ctx, out, msg.ChatID, Reply{Text: msgPickToRename, Keyboard: categoryKeyboard(categories, CallbackEdit)})
}

// ownedCategory loads a category of the chat's bound account for a callback.
// It answers the callback and returns nil when the category is gone.
func (e *Engine) ownedCategory(ctx context.Context, out Messenger, cb Callback, id int64) (*models.Account, *models.Category) {
	acc := e.boundAccount(ctx, out, cb.ChatID)
	if acc == nil {
		e.answer(ctx, out, cb.ID, "")
		return nil, nil
	}

	cat, err := e.stores.Categories.GetForOwner(ctx, acc.ID, id)
	if errors.Is(err, repository.ErrNotFound) {
		e.states.Clear(cb.ChatID)
		e.answer(ctx, out, cb.ID, msgCategoryNotFound)
		e.edit(ctx, out, cb.ChatID, cb.MessageID, Reply{Text: msgCategoryNotFound})
		return nil, nil
	}
	if err != nil {
		e.answer(ctx, out, cb.ID, "")
		e.storeFailure(ctx, out, cb.ChatID, err, "get_category")
		return nil, nil
	}
	return acc, cat
}

func (e *Engine) handleEditPick(ctx context.Context, out Messenger, cb Callback, id int64) {
	_, cat := e.ownedCategory(ctx, out, cb, id)
	if cat == nil {
		return
	}
	e.states.Set(cb.ChatID, AwaitingRenameTarget{CategoryID: cat.ID})
	e.answer(ctx, out, cb.ID, "")
	e.edit(ctx, out, cb.ChatID, cb.MessageID, Reply{Text: msgAskNewName(cat.Name)})
}

func (e *Engine) receiveRename(ctx context.Context, out Messenger, msg Message, st AwaitingRenameTarget) {
	acc := e.boundAccount(ctx, out, msg.ChatID)
	if acc == nil {
		return
	}

	cat, err := e.stores.Categories.GetForOwner(ctx, acc.ID, st.CategoryID)
	if errors.Is(err, repository.ErrNotFound) {
		e.states.Clear(msg.ChatID)
		e.send(ctx, out, msg.ChatID, Reply{Text: msgCategoryNotFound})
		return
	}
	if err != nil {
		e.storeFailure(ctx, out, msg.ChatID, err, "get_category")
		return
	}

	name, err := NormalizeCategoryName(msg.Text)
	if err != nil {
		e.states.Set(msg.ChatID, st)
		e.send(ctx, out, msg.ChatID, Reply{Text: invalidNameText(err)})
		return
	}

	exists, err := e.stores.Categories.ExistsByName(ctx, acc.ID, name, cat.ID)
	if err != nil {
		e.storeFailure(ctx, out, msg.ChatID, err, "check_category_name")
		return
	}
	if exists {
		e.states.Set(msg.ChatID, st)
		e.send(ctx, out, msg.ChatID, Reply{Text: msgCategoryExists(name)})
		return
	}

	err = e.stores.Categories.Rename(ctx, acc.ID, cat.ID, name)
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		e.states.Set(msg.ChatID, st)
		e.send(ctx, out, msg.ChatID, Reply{Text: msgCategoryExists(name)})
		return
	case errors.Is(err, repository.ErrNotFound):
		e.states.Clear(msg.ChatID)
		e.send(ctx, out, msg.ChatID, Reply{Text: msgCategoryNotFound})
		return
	case err != nil:
		e.storeFailure(ctx, out, msg.ChatID, err, "rename_category")
		return
	}

	e.states.Clear(msg.ChatID)
	logger.Log.Info().Str("chat_hash", logger.HashChatID(msg.ChatID)).Int64("category_id", cat.ID).Msg("Category renamed")
	e.send(ctx, out, msg.ChatID, Reply{Text: msgCategoryRenamed(cat.Name, name)})
}

func (e *Engine) handleCatDelete(ctx context.Context, out Messenger, msg Message, _ string) {
	acc := e.boundAccount(ctx, out, msg.ChatID)
	if acc == nil {
		return
	}
	categories, ok := e.ownedCategories(ctx, out, msg.ChatID, acc)
	if !ok {
		return
	}
	e.send(ctx, out, msg.ChatID, Reply{Text: msgPickToDelete, Keyboard: categoryKeyboard(categories, CallbackDelete)})
}

func (e *Engine) handleDeletePick(ctx context.Context, out Messenger, cb Callback, id int64) {
	_, cat := e.ownedCategory(ctx, out, cb, id)
	if cat == nil {
		return
	}
	e.answer(ctx, out, cb.ID, "")
	e.edit(ctx, out, cb.ChatID, cb.MessageID, Reply{
		Text: msgConfirmDelete(cat.Name),
		HTML: true,
		Keyboard: [][]Button{{
			{Text: "✅ Да, удалить", Data: CallbackConfirmDelete + strconv.FormatInt(cat.ID, 10)},
			{Text: "❌ Отмена", Data: CallbackCancelDelete},
		}},
	})
}

func (e *Engine) handleConfirmDelete(ctx context.Context, out Messenger, cb Callback, id int64) {
	acc, cat := e.ownedCategory(ctx, out, cb, id)
	if cat == nil {
		return
	}

	removed, err := e.stores.Categories.DeleteCascade(ctx, acc.ID, cat.ID)
	if errors.Is(err, repository.ErrNotFound) {
		e.answer(ctx, out, cb.ID, msgCategoryNotFound)
		e.edit(ctx, out, cb.ChatID, cb.MessageID, Reply{Text: msgCategoryNotFound})
		return
	}
	if err != nil {
		e.answer(ctx, out, cb.ID, "")
		e.storeFailure(ctx, out, cb.ChatID, err, "delete_category")
		return
	}

	logger.Log.Info().
		Str("chat_hash", logger.HashChatID(cb.ChatID)).
		Int64("category_id", cat.ID).
		Int64("removed_expenses", removed).
		Msg("Category deleted")
	e.answer(ctx, out, cb.ID, "")
	e.edit(ctx, out, cb.ChatID, cb.MessageID, Reply{Text: msgCategoryDeleted(cat.Name, removed)})
}

func (e *Engine) handleCancelDelete(ctx context.Context, out Messenger, cb Callback) {
	e.answer(ctx, out, cb.ID, "")
	e.edit(ctx, out, cb.ChatID, cb.MessageID, Reply{Text: msgDeleteCancelled})
}
