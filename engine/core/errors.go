package core

import (
	"errors"
)

var (
	ErrPlanInvalid = errors.New("plan is invalid")
	ErrUnknownName = errors.New("unknown name")
	ErrUnknown     = errors.New("unknown")
)
