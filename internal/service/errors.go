package service

import (
	"context"
	"errors"
	"fmt"

	"rentalyard/internal/billing"
	"rentalyard/internal/calendar"
	"rentalyard/internal/lifecycle"
	"rentalyard/internal/model"
)

var (
	ErrPersistenceFailure = errors.New("persistence failure")
	ErrEquipmentNotFound  = errors.New("equipment not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrDuplicateSerial    = errors.New("serial number already registered")
)

// TransitionError reports a lifecycle transition that did not happen. Nothing
// was written when it is returned.
type TransitionError struct {
	Event       lifecycle.Event
	EquipmentID string
	Err         error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: equipment %s: %v", e.Event, e.EquipmentID, e.Err)
}

func (e *TransitionError) Unwrap() error { return e.Err }

func persistenceErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrPersistenceFailure, err)
}

var domainErrors = []error{
	ErrPersistenceFailure,
	ErrEquipmentNotFound,
	ErrInvalidInput,
	lifecycle.ErrTransitionNotAllowed,
	calendar.ErrInvalidRange,
	calendar.ErrUnparseableDate,
	billing.ErrInvalidInput,
	model.ErrInvariantViolated,
	context.Canceled,
	context.DeadlineExceeded,
}

// classify leaves known errors untouched and treats anything else, such as
// a failed commit, as a persistence failure.
func classify(err error) error {
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return err
		}
	}
	return persistenceErr("commit", err)
}

// reason is the metrics label of a failed transition.
func reason(err error) string {
	switch {
	case errors.Is(err, lifecycle.ErrTransitionNotAllowed):
		return "not_allowed"
	case errors.Is(err, calendar.ErrInvalidRange):
		return "invalid_range"
	case errors.Is(err, calendar.ErrUnparseableDate):
		return "unparseable_date"
	case errors.Is(err, ErrInvalidInput), errors.Is(err, billing.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrEquipmentNotFound):
		return "not_found"
	case errors.Is(err, model.ErrInvariantViolated):
		return "invariant"
	case errors.Is(err, ErrPersistenceFailure):
		return "persistence"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	}
	return "unknown"
}
