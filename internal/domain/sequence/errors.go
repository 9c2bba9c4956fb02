package sequence

import (
	"fmt"

	"github.com/okian/talentflow/internal/domain/model"
)

var (
	ErrMalformedSteps = fmt.Errorf("malformed campaign steps: %w", model.ErrValidation)
	ErrInvalidPolicy  = fmt.Errorf("invalid condition policy: %w", model.ErrValidation)
)
