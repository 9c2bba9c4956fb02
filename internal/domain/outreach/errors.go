package outreach

import (
	"errors"
	"fmt"

	"github.com/okian/talentflow/internal/domain/model"
)

// Sentinel kinds for engine errors.
var (
	ErrUnauthorized     = errors.New("contact not authorized")
	ErrCampaignInactive = errors.New("campaign is not active")

	ErrInvalidStatus = fmt.Errorf("invalid status transition: %w", model.ErrValidation)
	ErrEmptyBulk     = fmt.Errorf("talent ids must be a non-empty list: %w", model.ErrValidation)
	ErrInvalidInput  = fmt.Errorf("invalid request: %w", model.ErrValidation)
)

// AuthorizationError is returned when the consent gate denies a send.
// It matches ErrUnauthorized.
type AuthorizationError struct {
	TalentID string
	Reason   string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("cannot contact talent %s: %s", e.TalentID, e.Reason)
}

// Is makes every *AuthorizationError match ErrUnauthorized.
func (e *AuthorizationError) Is(target error) bool { return target == ErrUnauthorized }
