package repository

import (
	"context"
	"fmt"

	"gitlab.com/yelinaung/tengecash-bot/internal/database"
	"gitlab.com/yelinaung/tengecash-bot/internal/models"
)

// CategoryRepository handles category database operations.
// Every query is scoped to the owning account.
type CategoryRepository struct {
	db database.PGXDB
}

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(db database.PGXDB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// ListByOwner retrieves the owner's categories ordered by id.
func (r *CategoryRepository) ListByOwner(ctx context.Context, ownerID int64) ([]models.Category, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, name, section_id FROM categories_category
		WHERE user_id = $1
		ORDER BY id
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var cat models.Category
		if err := rows.Scan(&cat.ID, &cat.UserID, &cat.Name, &cat.SectionID); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, cat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}
	return categories, nil
}

// GetForOwner retrieves a category by ID only if it belongs to ownerID.
func (r *CategoryRepository) GetForOwner(ctx context.Context, ownerID, id int64) (*models.Category, error) {
	var cat models.Category
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, name, section_id FROM categories_category
		WHERE id = $1 AND user_id = $2
	`, id, ownerID).Scan(&cat.ID, &cat.UserID, &cat.Name, &cat.SectionID)
	if err != nil {
		return nil, wrapNotFound(err, "failed to get category")
	}
	return &cat, nil
}

// ExistsByName reports whether the owner already has a category with this
// name, compared case-insensitively. excludeID (if non-zero) is ignored, which
// lets a rename keep the same name with different casing.
func (r *CategoryRepository) ExistsByName(ctx context.Context, ownerID int64, name string, excludeID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM categories_category
			WHERE user_id = $1 AND LOWER(name) = LOWER($2) AND id <> $3
		)
	`, ownerID, name, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check category name: %w", err)
	}
	return exists, nil
}

// Create adds a new category for the owner.
func (r *CategoryRepository) Create(ctx context.Context, ownerID int64, name string) (*models.Category, error) {
	var cat models.Category
	err := r.db.QueryRow(ctx, `
		INSERT INTO categories_category (user_id, name) VALUES ($1, $2)
		RETURNING id, user_id, name, section_id
	`, ownerID, name).Scan(&cat.ID, &cat.UserID, &cat.Name, &cat.SectionID)
	if err != nil {
		return nil, wrapWrite(err, "failed to create category")
	}
	return &cat, nil
}

// Rename changes the name of one of the owner's categories in place.
func (r *CategoryRepository) Rename(ctx context.Context, ownerID, id int64, name string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE categories_category SET name = $3 WHERE id = $1 AND user_id = $2
	`, id, ownerID, name)
	if err != nil {
		return wrapWrite(err, "failed to rename category")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to rename category %d: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteCascade removes one of the owner's categories together with every
// expense filed under it. Returns the number of expenses removed.
func (r *CategoryRepository) DeleteCascade(ctx context.Context, ownerID, id int64) (int64, error) {
	var removed int64
	err := database.WithTx(ctx, r.db, func(tx database.PGXDB) error {
		tag, err := tx.Exec(ctx, `
			DELETE FROM expenses_expense
			WHERE category_id IN (SELECT id FROM categories_category WHERE id = $1 AND user_id = $2)
		`, id, ownerID)
		if err != nil {
			return fmt.Errorf("failed to delete expenses: %w", err)
		}
		removed = tag.RowsAffected()

		tag, err = tx.Exec(ctx, `DELETE FROM categories_category WHERE id = $1 AND user_id = $2`, id, ownerID)
		if err != nil {
			return fmt.Errorf("failed to delete category: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("failed to delete category %d: %w", id, ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}
