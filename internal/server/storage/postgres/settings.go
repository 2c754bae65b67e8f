package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iudanet/folio/internal/models"
	"github.com/iudanet/folio/internal/server/storage"
)

const settingsColumns = `blog_name, blog_description, hero_title, hero_subtitle, twitter, linkedin, github,
	meta_title, meta_description, meta_keywords, updated_at`

// GetSettings returns the settings singleton
func (s *Storage) GetSettings(ctx context.Context) (*models.Settings, error) {
	st := &models.Settings{}
	err := s.db.QueryRowContext(ctx, `SELECT `+settingsColumns+` FROM settings WHERE id = 1`).Scan(
		&st.BlogName,
		&st.BlogDescription,
		&st.HeroTitle,
		&st.HeroSubtitle,
		&st.Twitter,
		&st.LinkedIn,
		&st.GitHub,
		&st.MetaTitle,
		&st.MetaDescription,
		&st.MetaKeywords,
		&st.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrSettingsNotFound
		}
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	return st, nil
}

// SaveSettings creates or replaces the settings singleton
func (s *Storage) SaveSettings(ctx context.Context, st *models.Settings) error {
	query := `INSERT INTO settings (id, ` + settingsColumns + `)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			blog_name = EXCLUDED.blog_name,
			blog_description = EXCLUDED.blog_description,
			hero_title = EXCLUDED.hero_title,
			hero_subtitle = EXCLUDED.hero_subtitle,
			twitter = EXCLUDED.twitter,
			linkedin = EXCLUDED.linkedin,
			github = EXCLUDED.github,
			meta_title = EXCLUDED.meta_title,
			meta_description = EXCLUDED.meta_description,
			meta_keywords = EXCLUDED.meta_keywords,
			updated_at = EXCLUDED.updated_at`

	_, err := s.db.ExecContext(ctx, query,
		st.BlogName,
		st.BlogDescription,
		st.HeroTitle,
		st.HeroSubtitle,
		st.Twitter,
		st.LinkedIn,
		st.GitHub,
		st.MetaTitle,
		st.MetaDescription,
		st.MetaKeywords,
		st.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	return nil
}
