package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iudanet/folio/internal/models"
	"github.com/iudanet/folio/internal/server/storage"
)

// GetSettings returns the settings singleton
func (s *Storage) GetSettings(ctx context.Context) (*models.Settings, error) {
	query := `
		SELECT blog_name, blog_description, hero_title, hero_subtitle, twitter, linkedin, github,
			meta_title, meta_description, meta_keywords, updated_at
		FROM settings
		WHERE id = 1
	`

	st := &models.Settings{}
	err := s.db.QueryRowContext(ctx, query).Scan(
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
	query := `
		INSERT INTO settings (id, blog_name, blog_description, hero_title, hero_subtitle, twitter, linkedin,
			github, meta_title, meta_description, meta_keywords, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			blog_name = excluded.blog_name,
			blog_description = excluded.blog_description,
			hero_title = excluded.hero_title,
			hero_subtitle = excluded.hero_subtitle,
			twitter = excluded.twitter,
			linkedin = excluded.linkedin,
			github = excluded.github,
			meta_title = excluded.meta_title,
			meta_description = excluded.meta_description,
			meta_keywords = excluded.meta_keywords,
			updated_at = excluded.updated_at
	`

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
