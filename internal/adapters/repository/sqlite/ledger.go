package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/okian/talentflow/internal/adapters/repository"
	"github.com/okian/talentflow/internal/domain/model"
)

const eventColumns = `id, talent_id, campaign_id, template_id, step_order, channel,
	subject, body, personalized_elements, status, error,
	sent_at, delivered_at, opened_at, responded_at, created_at`

func scanEvent(r rowScanner) (model.OutreachEvent, error) {
	var (
		ev        model.OutreachEvent
		elements  string
		createdAt int64

		sentAt, delivAt, openAt, respAt sql.NullInt64
	)
	if err := r.Scan(
		&ev.ID, &ev.TalentID, &ev.CampaignID, &ev.TemplateID, &ev.StepOrder, &ev.Channel,
		&ev.Subject, &ev.Body, &elements, &ev.Status, &ev.Error,
		&sentAt, &delivAt, &openAt, &respAt, &createdAt,
	); err != nil {
		return model.OutreachEvent{}, err
	}
	if err := decodeJSON(elements, &ev.PersonalizedElements); err != nil {
		return model.OutreachEvent{}, err
	}
	ev.SentAt = fromNullMillis(sentAt)
	ev.DeliveredAt = fromNullMillis(delivAt)
	ev.OpenedAt = fromNullMillis(openAt)
	ev.RespondedAt = fromNullMillis(respAt)
	ev.CreatedAt = fromMillis(createdAt)
	return ev, nil
}

// AppendEvent implements repository.Ledger.
func (s *Store) AppendEvent(ctx context.Context, ev model.OutreachEvent) error {
	return appendEvent(ctx, s.sqlDB, ev)
}

func appendEvent(ctx context.Context, q querier, ev model.OutreachEvent) error {
	if ev.ID == "" {
		return repository.ErrMissingID
	}
	elements, err := encodeJSON(ev.PersonalizedElements)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, `INSERT INTO outreach_events (`+eventColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.TalentID, ev.CampaignID, ev.TemplateID, ev.StepOrder, string(ev.Channel),
		ev.Subject, ev.Body, elements, string(ev.Status), ev.Error,
		toNullMillis(ev.SentAt), toNullMillis(ev.DeliveredAt), toNullMillis(ev.OpenedAt), toNullMillis(ev.RespondedAt),
		toMillis(ev.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicateEvent
		}
		return fmt.Errorf("append outreach event: %w", err)
	}
	return nil
}

// GetEvent implements repository.Ledger.
func (s *Store) GetEvent(ctx context.Context, id string) (model.OutreachEvent, error) {
	return getEvent(ctx, s.sqlDB, id)
}

func getEvent(ctx context.Context, q querier, id string) (model.OutreachEvent, error) {
	ev, err := scanEvent(q.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM outreach_events WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.OutreachEvent{}, repository.ErrEventNotFound
		}
		return model.OutreachEvent{}, fmt.Errorf("get outreach event: %w", err)
	}
	return ev, nil
}

// History implements repository.Ledger.
func (s *Store) History(ctx context.Context, talentID string) ([]model.OutreachEvent, error) {
	return s.listEvents(ctx,
		`SELECT `+eventColumns+` FROM outreach_events WHERE talent_id = ? ORDER BY seq DESC`,
		talentID,
	)
}

// CampaignHistory implements repository.Ledger.
func (s *Store) CampaignHistory(ctx context.Context, campaignID, talentID string) ([]model.OutreachEvent, error) {
	return s.listEvents(ctx,
		`SELECT `+eventColumns+` FROM outreach_events WHERE campaign_id = ? AND talent_id = ? ORDER BY seq ASC`,
		campaignID, talentID,
	)
}

func (s *Store) listEvents(ctx context.Context, query string, args ...any) ([]model.OutreachEvent, error) {
	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list outreach events: %w", err)
	}
	defer rows.Close()

	var out []model.OutreachEvent
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan outreach event: %w", err)
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outreach events: %w", err)
	}
	return out, nil
}

// UpdateEvent implements repository.Ledger.
func (s *Store) UpdateEvent(ctx context.Context, id string, mutate func(*model.OutreachEvent) (model.Counters, error)) (model.OutreachEvent, error) {
	var out model.OutreachEvent
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		ev, err := getEvent(ctx, tx, id)
		if err != nil {
			return err
		}
		delta, err := mutate(&ev)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE outreach_events SET
			  status = ?,
			  error = ?,
			  sent_at = ?,
			  delivered_at = ?,
			  opened_at = ?,
			  responded_at = ?
			WHERE id = ?`,
			string(ev.Status), ev.Error,
			toNullMillis(ev.SentAt), toNullMillis(ev.DeliveredAt), toNullMillis(ev.OpenedAt), toNullMillis(ev.RespondedAt),
			id,
		); err != nil {
			return fmt.Errorf("update outreach event: %w", err)
		}
		if ev.CampaignID != "" && delta != (model.Counters{}) {
			if err := incrementCounters(ctx, tx, ev.CampaignID, delta); err != nil {
				return err
			}
		}
		ev.ID = id
		out = ev
		return nil
	})
	return out, err
}
