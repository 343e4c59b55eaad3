package service

import (
	"errors"
	"fmt"
)

// Sentinel errors for entities referenced by slug or name.
var (
	ErrRoleNotFound           = errors.New("rbac: role not found")
	ErrAppModelNotFound       = errors.New("rbac: app model not found")
	ErrPermissionTypeNotFound = errors.New("rbac: permission type not found")
	ErrGrantNotFound          = errors.New("rbac: permission assignment not found")
	ErrUserNotFound           = errors.New("accounts: user not found")
	ErrLeaveNotFound          = errors.New("hr: leave request not found")
	ErrTaskNotFound           = errors.New("hr: task not found")

	// ErrPermissionExists is returned by the strict single-grant path only.
	// The bulk create path is idempotent and never raises it.
	ErrPermissionExists = errors.New("rbac: permission already assigned")

	// ErrForbidden denies the action without revealing whether the target exists.
	ErrForbidden = errors.New("permission denied")
)

// ValidationError marks malformed or semantically invalid input. Handlers
// surface it as a 400 with the offending field; it is never a server fault.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func validationErr(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is one of the not-found sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRoleNotFound) ||
		errors.Is(err, ErrAppModelNotFound) ||
		errors.Is(err, ErrPermissionTypeNotFound) ||
		errors.Is(err, ErrGrantNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrLeaveNotFound) ||
		errors.Is(err, ErrTaskNotFound)
}
