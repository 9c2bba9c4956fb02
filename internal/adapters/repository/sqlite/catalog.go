package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/okian/talentflow/internal/adapters/repository"
	"github.com/okian/talentflow/internal/domain/model"
)

const templateColumns = `id, name, channel, subject, body, variables, experience_level, category, response_rate`

func scanTemplate(r rowScanner) (model.MessageTemplate, error) {
	var (
		t    model.MessageTemplate
		vars string
	)
	if err := r.Scan(&t.ID, &t.Name, &t.Channel, &t.Subject, &t.Body, &vars, &t.ExperienceLevel, &t.Category, &t.ResponseRate); err != nil {
		return model.MessageTemplate{}, err
	}
	if err := decodeJSON(vars, &t.Variables); err != nil {
		return model.MessageTemplate{}, err
	}
	return t, nil
}

// GetTemplate implements repository.Catalog.
func (s *Store) GetTemplate(ctx context.Context, id string) (model.MessageTemplate, error) {
	t, err := scanTemplate(s.sqlDB.QueryRowContext(ctx, `SELECT `+templateColumns+` FROM message_templates WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.MessageTemplate{}, repository.ErrTemplateNotFound
		}
		return model.MessageTemplate{}, fmt.Errorf("get template: %w", err)
	}
	return t, nil
}

// ListTemplates implements repository.Catalog.
func (s *Store) ListTemplates(ctx context.Context) ([]model.MessageTemplate, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT `+templateColumns+` FROM message_templates ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var out []model.MessageTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListContent implements repository.Catalog.
func (s *Store) ListContent(ctx context.Context) ([]model.ContentPiece, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT id, title, url, summary, sap_modules, experience_level,
		engagement_count, is_accenture_asset FROM content_pieces ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list content: %w", err)
	}
	defer rows.Close()

	var out []model.ContentPiece
	for rows.Next() {
		var (
			c       model.ContentPiece
			modules string
			asset   int
		)
		if err := rows.Scan(&c.ID, &c.Title, &c.URL, &c.Summary, &modules, &c.ExperienceLevel, &c.EngagementCount, &asset); err != nil {
			return nil, fmt.Errorf("scan content: %w", err)
		}
		if err := decodeJSON(modules, &c.SAPModules); err != nil {
			return nil, err
		}
		c.IsAccentureAsset = asset != 0
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListChallenges implements repository.Catalog.
func (s *Store) ListChallenges(ctx context.Context) ([]model.Challenge, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT id, title, difficulty, sap_module, time_limit,
		is_active, completions FROM challenges ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list challenges: %w", err)
	}
	defer rows.Close()

	var out []model.Challenge
	for rows.Next() {
		var (
			c      model.Challenge
			active int
		)
		if err := rows.Scan(&c.ID, &c.Title, &c.Difficulty, &c.SAPModule, &c.TimeLimit, &active, &c.Completions); err != nil {
			return nil, fmt.Errorf("scan challenge: %w", err)
		}
		c.IsActive = active != 0
		out = append(out, c)
	}
	return out, rows.Err()
}

// SaveTemplate implements repository.Catalog.
func (s *Store) SaveTemplate(ctx context.Context, t model.MessageTemplate) error {
	if t.ID == "" {
		return repository.ErrMissingID
	}
	vars, err := encodeJSON(t.Variables)
	if err != nil {
		return err
	}
	_, err = s.sqlDB.ExecContext(ctx, `INSERT OR REPLACE INTO message_templates (`+templateColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Name, string(t.Channel), t.Subject, t.Body, vars, string(t.ExperienceLevel), string(t.Category), t.ResponseRate,
	)
	if err != nil {
		return fmt.Errorf("save template: %w", err)
	}
	return nil
}

// SaveContent implements repository.Catalog.
func (s *Store) SaveContent(ctx context.Context, c model.ContentPiece) error {
	if c.ID == "" {
		return repository.ErrMissingID
	}
	modules, err := encodeJSON(c.SAPModules)
	if err != nil {
		return err
	}
	_, err = s.sqlDB.ExecContext(ctx, `INSERT OR REPLACE INTO content_pieces
		(id, title, url, summary, sap_modules, experience_level, engagement_count, is_accenture_asset)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Title, c.URL, c.Summary, modules, string(c.ExperienceLevel), c.EngagementCount, boolToInt(c.IsAccentureAsset),
	)
	if err != nil {
		return fmt.Errorf("save content: %w", err)
	}
	return nil
}

// SaveChallenge implements repository.Catalog.
func (s *Store) SaveChallenge(ctx context.Context, c model.Challenge) error {
	if c.ID == "" {
		return repository.ErrMissingID
	}
	_, err := s.sqlDB.ExecContext(ctx, `INSERT OR REPLACE INTO challenges
		(id, title, difficulty, sap_module, time_limit, is_active, completions)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Title, string(c.Difficulty), c.SAPModule, c.TimeLimit, boolToInt(c.IsActive), c.Completions,
	)
	if err != nil {
		return fmt.Errorf("save challenge: %w", err)
	}
	return nil
}
