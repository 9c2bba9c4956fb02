package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/okian/talentflow/internal/adapters/repository"
	"github.com/okian/talentflow/internal/domain/model"
)

// AppendActivity implements repository.AuditLog.
func (s *Store) AppendActivity(ctx context.Context, a model.Activity) error {
	return appendActivity(ctx, s.sqlDB, a)
}

func appendActivity(ctx context.Context, q querier, a model.Activity) error {
	details, err := encodeJSON(a.Details)
	if err != nil {
		return err
	}
	if _, err := q.ExecContext(ctx,
		`INSERT INTO talent_activity (id, talent_id, activity_type, details, created_at) VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.TalentID, a.Type, details, toMillis(a.CreatedAt),
	); err != nil {
		return fmt.Errorf("record activity: %w", err)
	}
	return nil
}

// Activities implements repository.AuditLog.
func (s *Store) Activities(ctx context.Context, talentID string) ([]model.Activity, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, talent_id, activity_type, details, created_at FROM talent_activity WHERE talent_id = ? ORDER BY seq ASC`,
		talentID,
	)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	out := []model.Activity{}
	for rows.Next() {
		var (
			a       model.Activity
			details string
			at      int64
		)
		if err := rows.Scan(&a.ID, &a.TalentID, &a.Type, &details, &at); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		if err := decodeJSON(details, &a.Details); err != nil {
			return nil, err
		}
		a.CreatedAt = fromMillis(at)
		out = append(out, a)
	}
	return out, rows.Err()
}

// ConsentHistory implements repository.AuditLog.
func (s *Store) ConsentHistory(ctx context.Context, talentID string) ([]model.ConsentRecord, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, talent_id, action, basis, details, created_at FROM consent_log WHERE talent_id = ? ORDER BY seq ASC`,
		talentID,
	)
	if err != nil {
		return nil, fmt.Errorf("list consent log: %w", err)
	}
	defer rows.Close()

	out := []model.ConsentRecord{}
	for rows.Next() {
		var (
			r  model.ConsentRecord
			at int64
		)
		if err := rows.Scan(&r.ID, &r.TalentID, &r.Action, &r.Basis, &r.Details, &at); err != nil {
			return nil, fmt.Errorf("scan consent record: %w", err)
		}
		r.CreatedAt = fromMillis(at)
		out = append(out, r)
	}
	return out, rows.Err()
}

// CommitSend implements repository.Store.
func (s *Store) CommitSend(ctx context.Context, rec repository.SendRecord) (model.Talent, error) {
	var out model.Talent
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		t, err := getTalent(ctx, tx, rec.Event.TalentID)
		if err != nil {
			return err
		}
		if err := appendEvent(ctx, tx, rec.Event); err != nil {
			return err
		}
		if rec.Touch != nil {
			rec.Touch(&t)
		}
		if err := writeTalentState(ctx, tx, t); err != nil {
			return err
		}
		if rec.Event.CampaignID != "" {
			if err := incrementCounters(ctx, tx, rec.Event.CampaignID, rec.Counters); err != nil {
				return err
			}
		}
		if rec.Activity != nil {
			if err := appendActivity(ctx, tx, *rec.Activity); err != nil {
				return err
			}
		}
		out = t
		return nil
	})
	return out, err
}

// CommitConsent implements repository.Store.
func (s *Store) CommitConsent(ctx context.Context, ch repository.ConsentChange) (model.Talent, error) {
	var out model.Talent
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		t, err := getTalent(ctx, tx, ch.TalentID)
		if err != nil {
			return err
		}
		if ch.Apply != nil {
			ch.Apply(&t)
		}
		if err := writeTalentState(ctx, tx, t); err != nil {
			return err
		}
		r := ch.Record
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO consent_log (id, talent_id, action, basis, details, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			r.ID, r.TalentID, string(r.Action), r.Basis, r.Details, toMillis(r.CreatedAt),
		); err != nil {
			return fmt.Errorf("record consent: %w", err)
		}
		out = t
		return nil
	})
	return out, err
}
