package limit

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrInvalidInput marks a non-positive, non-finite or unknown input.
	// Nothing is computed when it is returned.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnitMismatch marks a reading compared against a limit in another unit.
	ErrUnitMismatch = errors.New("unit mismatch")
)

// UnitMismatchError reports a reading whose unit differs from the limit's.
// The limit itself stays valid; only the pass/fail verdict is withheld.
type UnitMismatchError struct {
	Reading ReadingUnit
	Limit   ReadingUnit
}

func (e *UnitMismatchError) Error() string {
	return fmt.Sprintf("unit mismatch: reading is %s, limit is %s", e.Reading, e.Limit)
}

// Is makes errors.Is(err, ErrUnitMismatch) true for any *UnitMismatchError.
func (e *UnitMismatchError) Is(target error) bool {
	return target == ErrUnitMismatch
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidInput}, args...)...)
}
