package render

import (
	"fmt"

	"github.com/okian/talentflow/internal/domain/model"
)

var ErrInvalidTone = fmt.Errorf("invalid tone: %w", model.ErrValidation)
