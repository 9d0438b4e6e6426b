package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/tengecash-bot/internal/database"
	"gitlab.com/yelinaung/tengecash-bot/internal/models"
)

// ExpenseRepository handles expense database operations.
type ExpenseRepository struct {
	db database.PGXDB
}

// NewExpenseRepository creates a new ExpenseRepository.
func NewExpenseRepository(db database.PGXDB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

// Create adds a new expense and fills in its ID.
func (r *ExpenseRepository) Create(ctx context.Context, expense *models.Expense) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO expenses_expense (user_id, amount, description, category_id, section_id, date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, expense.UserID, expense.Amount, expense.Description, expense.CategoryID, expense.SectionID, expense.Date,
	).Scan(&expense.ID)
	if err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}
	return nil
}

// ListRecent retrieves the owner's latest expenses, newest first.
func (r *ExpenseRepository) ListRecent(ctx context.Context, ownerID int64, limit int) ([]models.Expense, error) {
	rows, err := r.db.Query(ctx, `
		SELECT e.id, e.user_id, e.amount, e.description, e.category_id, c.name, e.section_id, e.date
		FROM expenses_expense e
		JOIN categories_category c ON c.id = e.category_id
		WHERE e.user_id = $1
		ORDER BY e.date DESC, e.id DESC
		LIMIT $2
	`, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	var expenses []models.Expense
	for rows.Next() {
		var exp models.Expense
		if err := rows.Scan(
			&exp.ID, &exp.UserID, &exp.Amount, &exp.Description,
			&exp.CategoryID, &exp.CategoryName, &exp.SectionID, &exp.Date,
		); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, exp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expenses: %w", err)
	}
	return expenses, nil
}

// TotalBetween sums the owner's expenses dated in [from, to).
func (r *ExpenseRepository) TotalBetween(ctx context.Context, ownerID int64, from, to time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM expenses_expense
		WHERE user_id = $1 AND date >= $2 AND date < $3
	`, ownerID, from, to).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get total: %w", err)
	}
	return total, nil
}
