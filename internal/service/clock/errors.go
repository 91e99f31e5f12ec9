package clock

import (
	"errors"

	"github.com/park285/cheese-clock/internal/movelog"
	"github.com/park285/cheese-clock/internal/store"
	"github.com/park285/cheese-clock/internal/timecontrol"
	"github.com/park285/cheese-clock/pkg/clockdto"
)

// MapError converts a service error into the host-facing DomainError.
func MapError(err error) clockdto.DomainError {
	switch {
	case err == nil:
		return clockdto.DomainError{}
	case errors.Is(err, ErrGameNotFound):
		return clockdto.DomainError{Code: clockdto.CodeNotFound, Message: err.Error()}
	case errors.Is(err, ErrInvalidSide):
		return clockdto.DomainError{Code: clockdto.CodeBadSide, Message: err.Error()}
	case errors.Is(err, timecontrol.ErrBadShorthand), errors.Is(err, timecontrol.ErrUnknownPreset):
		return clockdto.DomainError{Code: clockdto.CodeBadTime, Message: err.Error()}
	case errors.Is(err, movelog.ErrIllegalMove), errors.Is(err, movelog.ErrEmptyMove), errors.Is(err, movelog.ErrGameOver):
		return clockdto.DomainError{Code: clockdto.CodeIllegalMove, Message: err.Error()}
	case errors.Is(err, ErrMoveOutOfTurn):
		return clockdto.DomainError{Code: clockdto.CodeOutOfTurn, Message: err.Error()}
	case errors.Is(err, ErrNoSnapshotStore):
		return clockdto.DomainError{Code: clockdto.CodeNoStore, Message: err.Error()}
	case errors.Is(err, store.ErrConflict):
		return clockdto.DomainError{Code: clockdto.CodeStoreFailure, Message: err.Error(), Retryable: true}
	default:
		return clockdto.DomainError{Code: clockdto.CodeInternal, Message: err.Error()}
	}
}
