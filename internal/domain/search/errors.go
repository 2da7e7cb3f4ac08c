package search

import (
	"errors"

	"github.com/okian/lineup/internal/domain/model"
)

// Search errors.
var (
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrUnknownStrategy      = errors.New("unknown strategy")
	ErrEmptyInput           = model.ErrEmptyInput
	ErrInvalidInput         = model.ErrInvalidInput
)
