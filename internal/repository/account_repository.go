package repository

import (
	"context"
	"fmt"

	"gitlab.com/yelinaung/tengecash-bot/internal/database"
	"gitlab.com/yelinaung/tengecash-bot/internal/models"
)

const accountColumns = `id, username, first_name, password, is_active, telegram_id`

// AccountRepository handles web-site user lookups and Telegram linking.
type AccountRepository struct {
	db database.PGXDB
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db database.PGXDB) *AccountRepository {
	return &AccountRepository{db: db}
}

func scanAccount(row interface{ Scan(dest ...any) error }) (*models.Account, error) {
	var acc models.Account
	if err := row.Scan(&acc.ID, &acc.Username, &acc.FirstName, &acc.PasswordHash, &acc.IsActive, &acc.TelegramID); err != nil {
		return nil, err
	}
	return &acc, nil
}

// FindByChatID retrieves the account linked to a Telegram chat.
func (r *AccountRepository) FindByChatID(ctx context.Context, chatID int64) (*models.Account, error) {
	acc, err := scanAccount(r.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM users_user WHERE telegram_id = $1`, chatID))
	if err != nil {
		return nil, wrapNotFound(err, "failed to get account by chat id")
	}
	return acc, nil
}

// FindByUsername retrieves an account by its exact web-site username.
func (r *AccountRepository) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	acc, err := scanAccount(r.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM users_user WHERE username = $1`, username))
	if err != nil {
		return nil, wrapNotFound(err, "failed to get account by username")
	}
	return acc, nil
}

// Bind links the account to chatID. Any other account linked to the same chat
// is unlinked first so a chat maps to at most one account.
func (r *AccountRepository) Bind(ctx context.Context, accountID, chatID int64) error {
	err := database.WithTx(ctx, r.db, func(tx database.PGXDB) error {
		if _, err := tx.Exec(ctx,
			`UPDATE users_user SET telegram_id = NULL WHERE telegram_id = $1 AND id <> $2`,
			chatID, accountID,
		); err != nil {
			return fmt.Errorf("failed to unlink previous account: %w", err)
		}

		tag, err := tx.Exec(ctx, `UPDATE users_user SET telegram_id = $2 WHERE id = $1`, accountID, chatID)
		if err != nil {
			return fmt.Errorf("failed to link account: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("failed to link account %d: %w", accountID, ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to bind account: %w", err)
	}
	return nil
}

// Unbind clears the Telegram link of an account.
func (r *AccountRepository) Unbind(ctx context.Context, accountID int64) error {
	_, err := r.db.Exec(ctx, `UPDATE users_user SET telegram_id = NULL WHERE id = $1`, accountID)
	if err != nil {
		return fmt.Errorf("failed to unbind account: %w", err)
	}
	return nil
}

// UnbindChat clears whichever account is linked to chatID.
// Returns false when no account was linked.
func (r *AccountRepository) UnbindChat(ctx context.Context, chatID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `UPDATE users_user SET telegram_id = NULL WHERE telegram_id = $1`, chatID)
	if err != nil {
		return false, fmt.Errorf("failed to unbind chat: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
