package conditions

import (
	"errors"
	"fmt"
)

// ErrInvalidSnapshot is matched by every snapshot validation failure.
var ErrInvalidSnapshot = errors.New("invalid weather snapshot")

// InvalidSnapshotError names the reading that could not be evaluated.
type InvalidSnapshotError struct {
	Field string
	Value float64
}

func (e *InvalidSnapshotError) Error() string {
	return fmt.Sprintf("%s: %s is not a finite number (%v)", ErrInvalidSnapshot, e.Field, e.Value)
}

func (e *InvalidSnapshotError) Is(target error) bool {
	return target == ErrInvalidSnapshot
}
