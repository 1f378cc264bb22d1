// internal/domain/errors.go
package domain

import (
	"errors"
	"fmt"
)

var (
	// Taxonomy errors. Every specific error below wraps one of these so the
	// transport layer can map on the category alone.
	ErrValidation       = errors.New("validation error")
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrConflict         = errors.New("conflict")
	ErrUnauthenticated  = errors.New("unauthenticated")

	// Partner-related errors
	ErrPartnerNotFound   = fmt.Errorf("%w: partner not found", ErrNotFound)
	ErrInvalidPartner    = fmt.Errorf("%w: invalid partner type", ErrValidation)
	ErrInvalidStatus     = fmt.Errorf("%w: invalid status", ErrValidation)
	ErrStatusRequired    = fmt.Errorf("%w: status is required", ErrValidation)
	ErrStatusUnchanged   = fmt.Errorf("%w: partner already has this status", ErrValidation)
	ErrInvalidRiskLevel  = fmt.Errorf("%w: invalid risk level", ErrValidation)
	ErrRiskLevelRequired = fmt.Errorf("%w: risk_level is required", ErrValidation)
	ErrProfileNotFound   = fmt.Errorf("%w: partner profile not found", ErrNotFound)
	ErrDocumentNotFound  = fmt.Errorf("%w: document not found", ErrNotFound)
	ErrDocumentSource    = fmt.Errorf("%w: you must provide a file or a file_url", ErrValidation)

	// Association-related errors
	ErrDepartmentNotFound      = fmt.Errorf("%w: department not found", ErrNotFound)
	ErrAssignmentNotFound      = fmt.Errorf("%w: department is not assigned to this partner", ErrNotFound)
	ErrProjectNotFound         = fmt.Errorf("%w: project not found", ErrNotFound)
	ErrProjectPartnerNotFound  = fmt.Errorf("%w: project partner not found", ErrNotFound)
	ErrDuplicateProjectPartner = fmt.Errorf("%w: partner already holds this role on the project", ErrConflict)
	ErrMOUNotFound             = fmt.Errorf("%w: mou not found", ErrNotFound)

	// Identity-related errors
	ErrUserNotFound       = fmt.Errorf("%w: user not found", ErrNotFound)
	ErrRoleNotFound       = fmt.Errorf("%w: role not found", ErrNotFound)
	ErrPermissionNotFound = fmt.Errorf("%w: permission not found", ErrNotFound)
	ErrUsernameTaken      = fmt.Errorf("%w: username already exists", ErrConflict)
	ErrEmailTaken         = fmt.Errorf("%w: email already exists", ErrConflict)
	ErrNameTaken          = fmt.Errorf("%w: name already exists", ErrConflict)
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInactiveUser       = errors.New("user account is inactive")
	ErrInvalidToken       = errors.New("invalid token")
)

// Validationf returns a validation error carrying a human readable message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
