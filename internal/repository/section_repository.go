package repository

import (
	"context"

	"gitlab.com/yelinaung/tengecash-bot/internal/database"
	"gitlab.com/yelinaung/tengecash-bot/internal/models"
)

// SectionRepository reads sections. Sections are managed on the web site.
type SectionRepository struct {
	db database.PGXDB
}

// NewSectionRepository creates a new SectionRepository.
func NewSectionRepository(db database.PGXDB) *SectionRepository {
	return &SectionRepository{db: db}
}

// First returns the first available section: the owner's lowest-id section,
// or the lowest-id section overall when the owner has none.
func (r *SectionRepository) First(ctx context.Context, ownerID int64) (*models.Section, error) {
	var sec models.Section
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, name FROM sections_section
		ORDER BY (user_id = $1) IS NOT TRUE, id
		LIMIT 1
	`, ownerID).Scan(&sec.ID, &sec.UserID, &sec.Name)
	if err != nil {
		return nil, wrapNotFound(err, "failed to get first section")
	}
	return &sec, nil
}

// GetByID retrieves a section by ID.
func (r *SectionRepository) GetByID(ctx context.Context, id int64) (*models.Section, error) {
	var sec models.Section
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, name FROM sections_section WHERE id = $1
	`, id).Scan(&sec.ID, &sec.UserID, &sec.Name)
	if err != nil {
		return nil, wrapNotFound(err, "failed to get section")
	}
	return &sec, nil
}
