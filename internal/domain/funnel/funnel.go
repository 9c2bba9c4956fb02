// Package funnel defines the ordered hiring funnel and the stage transitions
// a talent may undergo.
package funnel

import (
	"fmt"
	"strings"
	"time"

	"github.com/okian/talentflow/internal/domain/model"
)

// Stage aliases the model type so callers can stay within this package.
type Stage = model.FunnelStage

// ordered is the main path, earliest first. Declined is off-path.
var ordered = []Stage{
	model.StageDiscovered,
	model.StageEnriched,
	model.StageOutreachReady,
	model.StageContacted,
	model.StageEngaged,
	model.StageResponded,
	model.StageScreening,
	model.StageInterviewing,
	model.StageOffer,
	model.StageHired,
}

// preContact are the stages MarkContacted advances from.
var preContact = map[Stage]bool{
	model.StageDiscovered:    true,
	model.StageEnriched:      true,
	model.StageOutreachReady: true,
}

// Stages returns the main path followed by the absorbing declined stage.
func Stages() []Stage {
	out := make([]Stage, 0, len(ordered)+1)
	out = append(out, ordered...)
	return append(out, model.StageDeclined)
}

// Valid reports whether s belongs to the fixed stage set.
func Valid(s Stage) bool {
	return s == model.StageDeclined || Position(s) >= 0
}

// Position returns the index of s on the main path, or -1 for declined and
// unknown stages.
func Position(s Stage) int {
	for i, st := range ordered {
		if st == s {
			return i
		}
	}
	return -1
}

// Parse validates a raw stage name.
func Parse(raw string) (Stage, error) {
	s := Stage(strings.TrimSpace(raw))
	if !Valid(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidStage, raw)
	}
	return s, nil
}

// Advance moves t to target. Any known stage is accepted, including earlier
// ones: recruiters revert talents. Declined is reachable from every stage.
func Advance(t *model.Talent, target Stage, now time.Time) error {
	if !Valid(target) {
		return fmt.Errorf("%w: %q", ErrInvalidStage, target)
	}
	t.FunnelStage = target
	t.UpdatedAt = now
	return nil
}

// MarkContacted advances a not-yet-contacted talent to contacted and reports
// whether the stage changed. Talents further along are left where they are.
// LastContactedAt is stamped either way.
func MarkContacted(t *model.Talent, now time.Time) bool {
	contacted := now
	t.LastContactedAt = &contacted
	t.UpdatedAt = now
	if !preContact[t.FunnelStage] {
		return false
	}
	t.FunnelStage = model.StageContacted
	return true
}

// Blocked reports whether the stage forbids outbound messages.
func Blocked(s Stage) bool {
	return s == model.StageDeclined
}
