package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/tengecash-bot/internal/database"
	"gitlab.com/yelinaung/tengecash-bot/internal/models"
)

func TestCategoryRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	tx := database.TestTx(t)
	repo := NewCategoryRepository(tx)

	ownerID := insertAccount(t, tx, "cat_owner")
	otherID := insertAccount(t, tx, "cat_other")

	t.Run("creates and lists categories for owner only", func(t *testing.T) {
		food, err := repo.Create(ctx, ownerID, "Food")
		require.NoError(t, err)
		require.NotZero(t, food.ID)
		require.Equal(t, ownerID, food.UserID)

		_, err = repo.Create(ctx, otherID, "Taxi")
		require.NoError(t, err)

		cats, err := repo.ListByOwner(ctx, ownerID)
		require.NoError(t, err)
		require.Len(t, cats, 1)
		require.Equal(t, "Food", cats[0].Name)
	})

	t.Run("exists by name is case-insensitive per owner", func(t *testing.T) {
		exists, err := repo.ExistsByName(ctx, ownerID, "food", 0)
		require.NoError(t, err)
		require.True(t, exists)

		exists, err = repo.ExistsByName(ctx, ownerID, "ЕДА", 0)
		require.NoError(t, err)
		require.False(t, exists)

		exists, err = repo.ExistsByName(ctx, otherID, "food", 0)
		require.NoError(t, err)
		require.False(t, exists)
	})

	t.Run("cyrillic names compare case-insensitively", func(t *testing.T) {
		_, err := repo.Create(ctx, ownerID, "Кофе")
		require.NoError(t, err)

		exists, err := repo.ExistsByName(ctx, ownerID, "КОФЕ", 0)
		require.NoError(t, err)
		require.True(t, exists)
	})

	t.Run("same name allowed for different owners", func(t *testing.T) {
		_, err := repo.Create(ctx, otherID, "food")
		require.NoError(t, err)
	})

	t.Run("duplicate for same owner violates unique index", func(t *testing.T) {
		sub := database.TestTx(t)
		subRepo := NewCategoryRepository(sub)
		id := insertAccount(t, sub, "dup_owner")

		_, err := subRepo.Create(ctx, id, "Food")
		require.NoError(t, err)
		_, err = subRepo.Create(ctx, id, "food")
		require.ErrorIs(t, err, ErrDuplicate)
	})

	t.Run("exclude id allows recasing own name", func(t *testing.T) {
		cat, err := repo.Create(ctx, ownerID, "Books")
		require.NoError(t, err)

		exists, err := repo.ExistsByName(ctx, ownerID, "BOOKS", cat.ID)
		require.NoError(t, err)
		require.False(t, exists)
	})

	t.Run("renames in place", func(t *testing.T) {
		cat, err := repo.Create(ctx, ownerID, "Old Name")
		require.NoError(t, err)

		require.NoError(t, repo.Rename(ctx, ownerID, cat.ID, "New Name"))

		fetched, err := repo.GetForOwner(ctx, ownerID, cat.ID)
		require.NoError(t, err)
		require.Equal(t, "New Name", fetched.Name)
		require.Equal(t, cat.ID, fetched.ID)
	})

	t.Run("cannot rename or fetch another owner's category", func(t *testing.T) {
		cat, err := repo.Create(ctx, otherID, "Private")
		require.NoError(t, err)

		err = repo.Rename(ctx, ownerID, cat.ID, "Hijacked")
		require.ErrorIs(t, err, ErrNotFound)

		_, err = repo.GetForOwner(ctx, ownerID, cat.ID)
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestCategoryRepository_DeleteCascade(t *testing.T) {
	ctx := context.Background()
	tx := database.TestTx(t)
	repo := NewCategoryRepository(tx)
	expenses := NewExpenseRepository(tx)

	ownerID := insertAccount(t, tx, "cascade_owner")
	otherID := insertAccount(t, tx, "cascade_other")

	doomed, err := repo.Create(ctx, ownerID, "Doomed")
	require.NoError(t, err)
	kept, err := repo.Create(ctx, ownerID, "Kept")
	require.NoError(t, err)

	today := time.Now()
	for _, catID := range []int64{doomed.ID, doomed.ID, kept.ID} {
		require.NoError(t, expenses.Create(ctx, &models.Expense{
			UserID:     ownerID,
			Amount:     decimal.RequireFromString("100"),
			CategoryID: catID,
			Date:       today,
		}))
	}

	t.Run("other owner cannot delete", func(t *testing.T) {
		_, err := repo.DeleteCascade(ctx, otherID, doomed.ID)
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("removes category and its expenses", func(t *testing.T) {
		removed, err := repo.DeleteCascade(ctx, ownerID, doomed.ID)
		require.NoError(t, err)
		require.Equal(t, int64(2), removed)

		cats, err := repo.ListByOwner(ctx, ownerID)
		require.NoError(t, err)
		require.Len(t, cats, 1)
		require.Equal(t, kept.ID, cats[0].ID)

		recent, err := expenses.ListRecent(ctx, ownerID, 10)
		require.NoError(t, err)
		require.Len(t, recent, 1)
		require.Equal(t, kept.ID, recent[0].CategoryID)
	})
}
