package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// Sentinel errors returned by the services. Controllers map them to HTTP
// statuses with errors.Is; every returned error wraps at most one of them.
var (
	// ErrValidation: malformed input such as an empty date range or a negative quantity.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound: a referenced room, currency, booking, user or invoice is absent.
	ErrNotFound = errors.New("not found")

	// ErrAvailabilityConflict: not enough inventory left for the requested
	// dates. Callers may retry with other dates.
	ErrAvailabilityConflict = errors.New("availability conflict")

	// ErrImmutableRate: the default currency rate cannot change and a
	// currency still in use cannot be removed.
	ErrImmutableRate = errors.New("immutable rate")

	// ErrInvalidTransition: the requested status change is not allowed from the current state.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrConflict: a unique record already exists (e.g. invoice for the same host and period).
	ErrConflict = errors.New("conflict")
)

func validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func notFound(what string, id interface{}) error {
	return fmt.Errorf("%w: %s %v", ErrNotFound, what, id)
}

// notFoundOr turns gorm.ErrRecordNotFound into ErrNotFound and wraps anything else.
func notFoundOr(err error, what string, id interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(what, id)
	}
	return fmt.Errorf("load %s %v: %w", what, id, err)
}

// isDuplicateKey recognizes unique violations from every supported driver.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == 1062 {
		return true
	}
	lc := strings.ToLower(err.Error())
	return strings.Contains(lc, "duplicate") || strings.Contains(lc, "unique constraint")
}
