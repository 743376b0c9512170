package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrTripNotFound        = fmt.Errorf("trip %w", ErrNotFound)
	ErrDestinationNotFound = fmt.Errorf("destination %w", ErrNotFound)
	ErrDropInFlight        = errors.New("drop already in progress")
	ErrNotDragging         = errors.New("no drag in progress")
	ErrInvalidPosition     = errors.New("invalid insert position")
	ErrInvalidInput        = errors.New("invalid input")
)
