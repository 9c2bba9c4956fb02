// Package sequence decides which campaign step, if any, a talent should
// receive next. It is pure: all inputs are passed in and nothing is mutated.
package sequence

import (
	"fmt"
	"sort"
	"time"

	"github.com/okian/talentflow/internal/domain/model"
)

const day = 24 * time.Hour

// Kind classifies a sequencing decision.
type Kind string

const (
	KindReady           Kind = "ready"
	KindNotYetDue       Kind = "not_yet_due"
	KindConditionNotMet Kind = "condition_not_met"
	KindExhausted       Kind = "exhausted"
	KindAbandoned       Kind = "abandoned"
)

// Mode selects what happens when a step's condition stays unmet.
type Mode string

const (
	// ModeWait keeps the talent on the step until the condition holds.
	ModeWait Mode = "wait"
	// ModeAbandon gives up on the campaign once Expiry has passed since the
	// step became due.
	ModeAbandon Mode = "abandon"
)

// Policy configures condition handling. The zero value waits forever.
type Policy struct {
	Mode   Mode
	Expiry time.Duration
}

// ParseMode validates a configured mode name. Empty means ModeWait.
func ParseMode(raw string) (Mode, error) {
	switch Mode(raw) {
	case "", ModeWait:
		return ModeWait, nil
	case ModeAbandon:
		return ModeAbandon, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPolicy, raw)
}

// Input is everything Next needs to decide.
type Input struct {
	Steps      []model.CampaignStep
	History    []model.OutreachEvent // events for this (campaign, talent) pair
	EnrolledAt time.Time
	Now        time.Time
	Policy     Policy
}

// Decision is the outcome of Next. Step is set for Ready, NotYetDue,
// ConditionNotMet and Abandoned; DueAt for every kind but Exhausted.
type Decision struct {
	Kind  Kind
	Step  model.CampaignStep
	DueAt time.Time
}

// Ready reports whether the decision asks for a send.
func (d Decision) Ready() bool { return d.Kind == KindReady }

// Next returns the decision for one (campaign, talent) pair.
func Next(in Input) (Decision, error) {
	steps, err := ValidateSteps(in.Steps)
	if err != nil {
		return Decision{}, err
	}

	lastOrder, lastSent := lastCompleted(in.History)

	var (
		candidate model.CampaignStep
		anchor    time.Time
	)
	if lastOrder == 0 {
		if len(steps) == 0 {
			return Decision{Kind: KindExhausted}, nil
		}
		candidate = steps[0]
		anchor = in.EnrolledAt
	} else {
		if lastOrder >= len(steps) {
			return Decision{Kind: KindExhausted}, nil
		}
		candidate = steps[lastOrder]
		anchor = lastSent
	}

	due := anchor.Add(time.Duration(candidate.DelayDays) * day)
	if in.Now.Before(due) {
		return Decision{Kind: KindNotYetDue, Step: candidate, DueAt: due}, nil
	}

	if !conditionMet(candidate.Condition, in.History) {
		if in.Policy.Mode == ModeAbandon && !in.Now.Before(due.Add(in.Policy.Expiry)) {
			return Decision{Kind: KindAbandoned, Step: candidate, DueAt: due}, nil
		}
		return Decision{Kind: KindConditionNotMet, Step: candidate, DueAt: due}, nil
	}

	return Decision{Kind: KindReady, Step: candidate, DueAt: due}, nil
}

// ValidateSteps checks that orders are unique, contiguous from 1 and that
// delays are non-negative. It returns the steps sorted by order.
func ValidateSteps(steps []model.CampaignStep) ([]model.CampaignStep, error) {
	out := make([]model.CampaignStep, len(steps))
	copy(out, steps)
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })

	for i, s := range out {
		if s.Order != i+1 {
			return nil, fmt.Errorf("%w: step orders must be contiguous from 1, got %d at position %d", ErrMalformedSteps, s.Order, i+1)
		}
		if s.DelayDays < 0 {
			return nil, fmt.Errorf("%w: step %d has negative delay", ErrMalformedSteps, s.Order)
		}
		switch s.Condition {
		case "", model.ConditionNone, model.ConditionNoResponse, model.ConditionOpenedNotResponded:
		default:
			return nil, fmt.Errorf("%w: step %d has unknown condition %q", ErrMalformedSteps, s.Order, s.Condition)
		}
	}
	return out, nil
}

// lastCompleted returns the highest step order that reached sent together
// with its send time. Ad-hoc events (order 0) are ignored.
func lastCompleted(history []model.OutreachEvent) (int, time.Time) {
	var (
		order int
		at    time.Time
	)
	for i := range history {
		ev := &history[i]
		if ev.StepOrder <= 0 || !ev.Status.Reached() {
			continue
		}
		sent := ev.CreatedAt
		if ev.SentAt != nil {
			sent = *ev.SentAt
		}
		switch {
		case ev.StepOrder > order:
			order, at = ev.StepOrder, sent
		case ev.StepOrder == order && sent.After(at):
			at = sent
		}
	}
	return order, at
}

func conditionMet(c model.StepCondition, history []model.OutreachEvent) bool {
	switch c {
	case model.ConditionNoResponse:
		return !hasStatus(history, model.StatusResponded)
	case model.ConditionOpenedNotResponded:
		return hasStatus(history, model.StatusOpened) && !hasStatus(history, model.StatusResponded)
	default:
		return true
	}
}

func hasStatus(history []model.OutreachEvent, status model.EventStatus) bool {
	for i := range history {
		if history[i].Status == status {
			return true
		}
	}
	return false
}
