package outreach

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/okian/talentflow/internal/adapters/repository"
	"github.com/okian/talentflow/internal/domain/consent"
	"github.com/okian/talentflow/internal/domain/funnel"
	"github.com/okian/talentflow/internal/domain/model"
	"github.com/okian/talentflow/pkg/logger"
	"github.com/okian/talentflow/pkg/metrics"
)

// MoveStage sets a talent's funnel stage and logs the change.
func (e *Engine) MoveStage(ctx context.Context, talentID, stage string) (model.Talent, error) {
	target, err := funnel.Parse(stage)
	if err != nil {
		return model.Talent{}, err
	}

	unlock := e.locks.Lock(talentID)
	defer unlock()

	now := e.now()
	var from model.FunnelStage
	t, err := e.store.UpdateTalent(ctx, talentID, func(t *model.Talent) error {
		from = t.FunnelStage
		return funnel.Advance(t, target, now)
	})
	if err != nil {
		return model.Talent{}, err
	}

	if err := e.store.AppendActivity(ctx, model.Activity{
		ID:        e.newID(),
		TalentID:  talentID,
		Type:      model.ActivityStageChanged,
		Details:   map[string]string{"from": string(from), "to": string(target)},
		CreatedAt: now,
	}); err != nil {
		e.log.Warn(ctx, "failed to log stage change", logger.String("talent_id", talentID), logger.Error(err))
	}
	metrics.RecordStageChange(string(target))
	e.log.Info(ctx, "funnel stage changed",
		logger.String("talent_id", talentID),
		logger.String("from", string(from)),
		logger.String("to", string(target)),
	)
	return t, nil
}

// GrantConsent records the talent's consent. An empty basis means
// consent.BasisConsent.
func (e *Engine) GrantConsent(ctx context.Context, talentID, basis, details string) (model.Talent, error) {
	if basis == "" {
		basis = consent.BasisConsent
	}
	now := e.now()
	return e.changeConsent(ctx, repository.ConsentChange{
		TalentID: talentID,
		Apply:    func(t *model.Talent) { consent.Grant(t, basis, now) },
		Record: model.ConsentRecord{
			ID:        e.newID(),
			TalentID:  talentID,
			Action:    model.ConsentActionGrant,
			Basis:     basis,
			Details:   details,
			CreatedAt: now,
		},
	})
}

// RevokeConsent withdraws consent. Every later send to the talent is denied.
func (e *Engine) RevokeConsent(ctx context.Context, talentID, details string) (model.Talent, error) {
	now := e.now()
	return e.changeConsent(ctx, repository.ConsentChange{
		TalentID: talentID,
		Apply:    func(t *model.Talent) { consent.Revoke(t, now) },
		Record: model.ConsentRecord{
			ID:        e.newID(),
			TalentID:  talentID,
			Action:    model.ConsentActionRevoke,
			Basis:     consent.BasisSubjectRequest,
			Details:   details,
			CreatedAt: now,
		},
	})
}

func (e *Engine) changeConsent(ctx context.Context, ch repository.ConsentChange) (model.Talent, error) {
	unlock := e.locks.Lock(ch.TalentID)
	defer unlock()

	t, err := e.store.CommitConsent(ctx, ch)
	if err != nil {
		return model.Talent{}, err
	}
	metrics.RecordConsentChange(string(ch.Record.Action))
	e.log.Info(ctx, "consent updated",
		logger.String("talent_id", ch.TalentID),
		logger.String("action", string(ch.Record.Action)),
		logger.String("basis", ch.Record.Basis),
	)
	return t, nil
}

// statusRank orders the forward path of a message.
var statusRank = map[model.EventStatus]int{
	model.StatusPending:   0,
	model.StatusSent:      1,
	model.StatusDelivered: 2,
	model.StatusOpened:    3,
	model.StatusResponded: 4,
}

// RecordStatus applies a delivery update reported by a channel. Statuses
// only move forward; every level crossed is stamped with at and counted on
// the event's campaign. A zero at means now.
func (e *Engine) RecordStatus(ctx context.Context, eventID string, status model.EventStatus, at time.Time) (model.OutreachEvent, error) {
	target, ok := statusRank[status]
	if !ok || status == model.StatusPending {
		return model.OutreachEvent{}, fmt.Errorf("%w: cannot set status %q", ErrInvalidStatus, status)
	}
	if at.IsZero() {
		at = e.now()
	}

	ev, err := e.store.UpdateEvent(ctx, eventID, func(ev *model.OutreachEvent) (model.Counters, error) {
		current, known := statusRank[ev.Status]
		if !known || target <= current {
			return model.Counters{}, fmt.Errorf("%w: %s to %s", ErrInvalidStatus, ev.Status, status)
		}
		var delta model.Counters
		for r := current + 1; r <= target; r++ {
			stamp := at
			switch r {
			case statusRank[model.StatusSent]:
				ev.SentAt = &stamp
			case statusRank[model.StatusDelivered]:
				ev.DeliveredAt = &stamp
				delta.Delivered++
			case statusRank[model.StatusOpened]:
				ev.OpenedAt = &stamp
				delta.Opened++
			case statusRank[model.StatusResponded]:
				ev.RespondedAt = &stamp
				delta.Responded++
			}
		}
		ev.Status = status
		return delta, nil
	})
	if err != nil {
		return model.OutreachEvent{}, err
	}
	metrics.RecordStatusUpdate(string(status))
	e.log.Debug(ctx, "outreach status updated",
		logger.String("event_id", eventID),
		logger.String("status", string(status)),
	)
	return ev, nil
}

// History returns a talent's outreach events, newest first.
func (e *Engine) History(ctx context.Context, talentID string) ([]model.OutreachEvent, error) {
	return e.store.History(ctx, talentID)
}

// SubjectReport is everything held about one talent. Every list is newest
// first.
type SubjectReport struct {
	Talent     model.Talent
	History    []model.OutreachEvent
	Activities []model.Activity
	Consents   []model.ConsentRecord
}

// SubjectAccess collects a talent's record with its outreach history,
// activity trail and consent log for a data subject access request. The
// talent lock is held so the parts agree with each other.
func (e *Engine) SubjectAccess(ctx context.Context, talentID string) (SubjectReport, error) {
	unlock := e.locks.Lock(talentID)
	defer unlock()

	t, err := e.store.GetTalent(ctx, talentID)
	if err != nil {
		return SubjectReport{}, err
	}
	history, err := e.store.History(ctx, talentID)
	if err != nil {
		return SubjectReport{}, fmt.Errorf("load history: %w", err)
	}
	activities, err := e.store.Activities(ctx, talentID)
	if err != nil {
		return SubjectReport{}, fmt.Errorf("load activities: %w", err)
	}
	consents, err := e.store.ConsentHistory(ctx, talentID)
	if err != nil {
		return SubjectReport{}, fmt.Errorf("load consent log: %w", err)
	}
	slices.Reverse(activities)
	slices.Reverse(consents)

	e.log.Info(ctx, "subject access report built",
		logger.String("talent_id", talentID),
		logger.Int("events", len(history)),
		logger.Int("consent_records", len(consents)),
	)
	return SubjectReport{Talent: t, History: history, Activities: activities, Consents: consents}, nil
}
