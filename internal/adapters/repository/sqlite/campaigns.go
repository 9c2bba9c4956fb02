package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/okian/talentflow/internal/adapters/repository"
	"github.com/okian/talentflow/internal/domain/model"
)

const campaignColumns = `id, name, description, status, channel,
	target_experience_levels, target_sap_modules, target_locations, steps,
	sent, delivered, opened, responded, engaged, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCampaign(r rowScanner) (model.Campaign, error) {
	var (
		c                           model.Campaign
		levels, modules, locs, stps string
		createdAt, updatedAt        int64
	)
	if err := r.Scan(
		&c.ID, &c.Name, &c.Description, &c.Status, &c.Channel,
		&levels, &modules, &locs, &stps,
		&c.Counters.Sent, &c.Counters.Delivered, &c.Counters.Opened, &c.Counters.Responded, &c.Counters.Engaged,
		&createdAt, &updatedAt,
	); err != nil {
		return model.Campaign{}, err
	}
	for _, col := range []struct {
		raw string
		dst any
	}{
		{levels, &c.TargetExperienceLevels},
		{modules, &c.TargetSAPModules},
		{locs, &c.TargetLocations},
		{stps, &c.Steps},
	} {
		if err := decodeJSON(col.raw, col.dst); err != nil {
			return model.Campaign{}, err
		}
	}
	c.CreatedAt = fromMillis(createdAt)
	c.UpdatedAt = fromMillis(updatedAt)
	return c, nil
}

// GetCampaign implements repository.CampaignStore.
func (s *Store) GetCampaign(ctx context.Context, id string) (model.Campaign, error) {
	c, err := scanCampaign(s.sqlDB.QueryRowContext(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Campaign{}, repository.ErrCampaignNotFound
		}
		return model.Campaign{}, fmt.Errorf("get campaign: %w", err)
	}
	return c, nil
}

// SaveCampaign implements repository.CampaignStore. Counters are only
// written on insert; use IncrementCounters afterwards.
func (s *Store) SaveCampaign(ctx context.Context, c model.Campaign) error {
	if c.ID == "" {
		return repository.ErrMissingID
	}
	levels, err := encodeJSON(c.TargetExperienceLevels)
	if err != nil {
		return err
	}
	modules, err := encodeJSON(c.TargetSAPModules)
	if err != nil {
		return err
	}
	locs, err := encodeJSON(c.TargetLocations)
	if err != nil {
		return err
	}
	steps, err := encodeJSON(c.Steps)
	if err != nil {
		return err
	}
	_, err = s.sqlDB.ExecContext(ctx, `INSERT INTO campaigns (`+campaignColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		  name = excluded.name,
		  description = excluded.description,
		  status = excluded.status,
		  channel = excluded.channel,
		  target_experience_levels = excluded.target_experience_levels,
		  target_sap_modules = excluded.target_sap_modules,
		  target_locations = excluded.target_locations,
		  steps = excluded.steps,
		  updated_at = excluded.updated_at`,
		c.ID, c.Name, c.Description, string(c.Status), string(c.Channel),
		levels, modules, locs, steps,
		c.Counters.Sent, c.Counters.Delivered, c.Counters.Opened, c.Counters.Responded, c.Counters.Engaged,
		toMillis(c.CreatedAt), toMillis(c.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("save campaign: %w", err)
	}
	return nil
}

// ListActiveCampaigns implements repository.CampaignStore.
func (s *Store) ListActiveCampaigns(ctx context.Context) ([]model.Campaign, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+campaignColumns+` FROM campaigns WHERE status = ? ORDER BY id ASC`,
		string(model.CampaignActive),
	)
	if err != nil {
		return nil, fmt.Errorf("list active campaigns: %w", err)
	}
	defer rows.Close()

	var out []model.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate campaigns: %w", err)
	}
	return out, nil
}

// IncrementCounters implements repository.CampaignStore.
func (s *Store) IncrementCounters(ctx context.Context, id string, delta model.Counters) error {
	return incrementCounters(ctx, s.sqlDB, id, delta)
}

func incrementCounters(ctx context.Context, q querier, id string, delta model.Counters) error {
	d := model.Counters{}.Add(delta)
	res, err := q.ExecContext(ctx, `UPDATE campaigns SET
		  sent = sent + ?,
		  delivered = delivered + ?,
		  opened = opened + ?,
		  responded = responded + ?,
		  engaged = engaged + ?
		WHERE id = ?`,
		d.Sent, d.Delivered, d.Opened, d.Responded, d.Engaged, id,
	)
	if err != nil {
		return fmt.Errorf("increment campaign counters: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return repository.ErrCampaignNotFound
	}
	return nil
}

// Enroll implements repository.CampaignStore. Re-enrolling keeps the
// original date.
func (s *Store) Enroll(ctx context.Context, e model.Enrollment) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := exists(ctx, tx, `SELECT 1 FROM campaigns WHERE id = ?`, e.CampaignID, repository.ErrCampaignNotFound); err != nil {
			return err
		}
		if err := exists(ctx, tx, `SELECT 1 FROM talents WHERE id = ?`, e.TalentID, repository.ErrTalentNotFound); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO enrollments (campaign_id, talent_id, enrolled_at) VALUES (?, ?, ?)`,
			e.CampaignID, e.TalentID, toMillis(e.EnrolledAt),
		); err != nil {
			return fmt.Errorf("enroll talent: %w", err)
		}
		return nil
	})
}

func exists(ctx context.Context, q querier, query, id string, notFound error) error {
	var one int
	err := q.QueryRowContext(ctx, query, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	if err != nil {
		return fmt.Errorf("lookup %s: %w", id, err)
	}
	return nil
}

// GetEnrollment implements repository.CampaignStore.
func (s *Store) GetEnrollment(ctx context.Context, campaignID, talentID string) (model.Enrollment, error) {
	var at int64
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT enrolled_at FROM enrollments WHERE campaign_id = ? AND talent_id = ?`,
		campaignID, talentID,
	).Scan(&at)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Enrollment{}, repository.ErrEnrollmentNotFound
		}
		return model.Enrollment{}, fmt.Errorf("get enrollment: %w", err)
	}
	return model.Enrollment{CampaignID: campaignID, TalentID: talentID, EnrolledAt: fromMillis(at)}, nil
}

// ListEnrollments implements repository.CampaignStore.
func (s *Store) ListEnrollments(ctx context.Context, campaignID string) ([]model.Enrollment, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT talent_id, enrolled_at FROM enrollments WHERE campaign_id = ? ORDER BY talent_id ASC`,
		campaignID,
	)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	defer rows.Close()

	out := []model.Enrollment{}
	for rows.Next() {
		e := model.Enrollment{CampaignID: campaignID}
		var at int64
		if err := rows.Scan(&e.TalentID, &at); err != nil {
			return nil, fmt.Errorf("scan enrollment: %w", err)
		}
		e.EnrolledAt = fromMillis(at)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate enrollments: %w", err)
	}
	return out, nil
}
