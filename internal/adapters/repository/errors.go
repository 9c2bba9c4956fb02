package repository

import (
	"fmt"

	"github.com/okian/talentflow/internal/domain/model"
)

// Sentinel kinds for storage errors.
var (
	ErrTalentNotFound     = fmt.Errorf("talent %w", model.ErrNotFound)
	ErrCampaignNotFound   = fmt.Errorf("campaign %w", model.ErrNotFound)
	ErrEnrollmentNotFound = fmt.Errorf("enrollment %w", model.ErrNotFound)
	ErrEventNotFound      = fmt.Errorf("outreach event %w", model.ErrNotFound)
	ErrTemplateNotFound   = fmt.Errorf("template %w", model.ErrNotFound)
	ErrDuplicateEvent     = fmt.Errorf("duplicate outreach event: %w", model.ErrValidation)
	ErrMissingID          = fmt.Errorf("id is required: %w", model.ErrValidation)
)
