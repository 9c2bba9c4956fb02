package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/okian/talentflow/internal/adapters/repository"
	"github.com/okian/talentflow/internal/domain/model"
)

const talentColumns = `id, full_name, preferred_name, email, phone, linkedin_url, location,
	experience_level, sap_modules, source, source_details, funnel_stage, consent_status,
	consent_date, data_processing_basis, communication_preference, last_contacted_at,
	created_at, updated_at`

// GetTalent implements repository.TalentStore.
func (s *Store) GetTalent(ctx context.Context, id string) (model.Talent, error) {
	return getTalent(ctx, s.sqlDB, id)
}

func getTalent(ctx context.Context, q querier, id string) (model.Talent, error) {
	row := q.QueryRowContext(ctx, `SELECT `+talentColumns+` FROM talents WHERE id = ?`, id)

	var (
		t                   model.Talent
		modules             string
		consentDate, lastAt sql.NullInt64
		createdAt, updated  int64
	)
	err := row.Scan(
		&t.ID, &t.FullName, &t.PreferredName, &t.Email, &t.Phone, &t.LinkedInURL, &t.Location,
		&t.ExperienceLevel, &modules, &t.Source, &t.SourceDetails, &t.FunnelStage, &t.ConsentStatus,
		&consentDate, &t.DataProcessingBasis, &t.CommunicationPreference, &lastAt,
		&createdAt, &updated,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Talent{}, repository.ErrTalentNotFound
		}
		return model.Talent{}, fmt.Errorf("get talent: %w", err)
	}
	if err := decodeJSON(modules, &t.SAPModules); err != nil {
		return model.Talent{}, err
	}
	t.ConsentDate = fromNullMillis(consentDate)
	t.LastContactedAt = fromNullMillis(lastAt)
	t.CreatedAt = fromMillis(createdAt)
	t.UpdatedAt = fromMillis(updated)
	return t, nil
}

// SaveTalent implements repository.TalentStore as an upsert.
func (s *Store) SaveTalent(ctx context.Context, t model.Talent) error {
	if t.ID == "" {
		return repository.ErrMissingID
	}
	modules, err := encodeJSON(t.SAPModules)
	if err != nil {
		return err
	}
	_, err = s.sqlDB.ExecContext(ctx, `INSERT INTO talents (`+talentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		  full_name = excluded.full_name,
		  preferred_name = excluded.preferred_name,
		  email = excluded.email,
		  phone = excluded.phone,
		  linkedin_url = excluded.linkedin_url,
		  location = excluded.location,
		  experience_level = excluded.experience_level,
		  sap_modules = excluded.sap_modules,
		  source = excluded.source,
		  source_details = excluded.source_details,
		  funnel_stage = excluded.funnel_stage,
		  consent_status = excluded.consent_status,
		  consent_date = excluded.consent_date,
		  data_processing_basis = excluded.data_processing_basis,
		  communication_preference = excluded.communication_preference,
		  last_contacted_at = excluded.last_contacted_at,
		  updated_at = excluded.updated_at`,
		t.ID, t.FullName, t.PreferredName, t.Email, t.Phone, t.LinkedInURL, t.Location,
		string(t.ExperienceLevel), modules, t.Source, t.SourceDetails, string(t.FunnelStage), string(t.ConsentStatus),
		toNullMillis(t.ConsentDate), t.DataProcessingBasis, string(t.CommunicationPreference), toNullMillis(t.LastContactedAt),
		toMillis(t.CreatedAt), toMillis(t.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("save talent: %w", err)
	}
	return nil
}

// UpdateTalent implements repository.TalentStore.
func (s *Store) UpdateTalent(ctx context.Context, id string, mutate func(*model.Talent) error) (model.Talent, error) {
	var out model.Talent
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		t, err := getTalent(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := mutate(&t); err != nil {
			return err
		}
		if err := writeTalentState(ctx, tx, t); err != nil {
			return err
		}
		out = t
		return nil
	})
	return out, err
}

// writeTalentState persists the fields the engine is allowed to change.
func writeTalentState(ctx context.Context, q querier, t model.Talent) error {
	res, err := q.ExecContext(ctx, `UPDATE talents SET
		  funnel_stage = ?,
		  consent_status = ?,
		  consent_date = ?,
		  data_processing_basis = ?,
		  last_contacted_at = ?,
		  updated_at = ?
		WHERE id = ?`,
		string(t.FunnelStage), string(t.ConsentStatus), toNullMillis(t.ConsentDate),
		t.DataProcessingBasis, toNullMillis(t.LastContactedAt), toMillis(t.UpdatedAt), t.ID,
	)
	if err != nil {
		return fmt.Errorf("update talent: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return repository.ErrTalentNotFound
	}
	return nil
}
