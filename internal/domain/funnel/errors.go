package funnel

import (
	"fmt"

	"github.com/okian/talentflow/internal/domain/model"
)

// Sentinel kinds for funnel errors.
var (
	ErrInvalidStage = fmt.Errorf("invalid funnel stage: %w", model.ErrValidation)
)
