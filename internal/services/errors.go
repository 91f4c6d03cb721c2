package services

import (
	"errors"
	"fmt"
)

var (
	ErrNameRequired        = errors.New("name is required")
	ErrCompanyNameRequired = errors.New("company name is required")
	ErrCompanyNotFound     = errors.New("company not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrPendingUserNotFound = errors.New("pending user not found")
	ErrAdminOnly           = errors.New("admin role required")
	ErrAccountExists       = errors.New("editor account already exists")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrEmptyImportFile     = errors.New("the CSV file seems to be empty")
	ErrMissingNumberColumn = errors.New("the CSV file must contain a 'Number' column")
)

// ExtensionInUseError is the user-facing conflict raised when an
// extension is already occupied within the company. Both the
// application pre-check and the database unique index surface it.
type ExtensionInUseError struct {
	Extension string
}

func (e *ExtensionInUseError) Error() string {
	return fmt.Sprintf("Extension %s is already used in this company.", e.Extension)
}

// IsExtensionInUse reports whether err is an extension conflict.
func IsExtensionInUse(err error) bool {
	var conflict *ExtensionInUseError
	return errors.As(err, &conflict)
}
