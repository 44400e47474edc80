package testresults

import (
	"errors"
	"fmt"
)

const (
	remoteAccessErrorTemplateConstant    = "failed to %s: %v"
	formatErrorTemplateConstant          = "%s: %s"
	formatErrorWithCauseTemplateConstant = "%s: %s: %v"
)

// RemoteAccessError reports a failed GitHub lookup or an unusable run identifier.
type RemoteAccessError struct {
	Operation string
	Cause     error
}

// Error describes the failed lookup.
func (accessError RemoteAccessError) Error() string {
	return fmt.Sprintf(remoteAccessErrorTemplateConstant, accessError.Operation, accessError.Cause)
}

// Unwrap exposes the underlying failure.
func (accessError RemoteAccessError) Unwrap() error {
	return accessError.Cause
}

// FormatError reports a missing or malformed template or README.
type FormatError struct {
	Path   string
	Reason string
	Cause  error
}

// Error describes the problem and the file it concerns.
func (formatError FormatError) Error() string {
	if formatError.Cause != nil {
		return fmt.Sprintf(formatErrorWithCauseTemplateConstant, formatError.Reason, formatError.Path, formatError.Cause)
	}
	return fmt.Sprintf(formatErrorTemplateConstant, formatError.Reason, formatError.Path)
}

// Unwrap exposes the underlying filesystem failure, if any.
func (formatError FormatError) Unwrap() error {
	return formatError.Cause
}

// IsUpdateFailure reports whether failure is an expected update error rather than an unexpected one.
func IsUpdateFailure(failure error) bool {
	var accessError RemoteAccessError
	var formatError FormatError
	return errors.As(failure, &accessError) || errors.As(failure, &formatError)
}
