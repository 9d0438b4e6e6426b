package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/tengecash-bot/internal/database"
)

// insertAccount creates a web-site user row and returns its ID.
func insertAccount(t *testing.T, db database.PGXDB, username string) int64 {
	t.Helper()
	var id int64
	err := db.QueryRow(context.Background(), `
		INSERT INTO users_user (username, first_name, password) VALUES ($1, $2, '!') RETURNING id
	`, username, "Test").Scan(&id)
	require.NoError(t, err)
	return id
}

// insertSection creates a section row and returns its ID.
func insertSection(t *testing.T, db database.PGXDB, ownerID *int64, name string) int64 {
	t.Helper()
	var id int64
	err := db.QueryRow(context.Background(), `
		INSERT INTO sections_section (user_id, name) VALUES ($1, $2) RETURNING id
	`, ownerID, name).Scan(&id)
	require.NoError(t, err)
	return id
}
