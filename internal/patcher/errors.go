package patcher

import (
	"errors"
	"fmt"
)

const (
	gitOperationErrorTemplateConstant  = "%s: %v"
	patchApplyErrorTemplateConstant    = "failed to apply patch %s: %v"
	invalidInputErrorTemplateConstant  = "%s: %s"
	requiredValueMessageConstant       = "value required"
	originMissingMessageConstant       = "no 'origin' remote found"
	invalidUpstreamRefTemplateConstant = "invalid upstream ref %s: %w"
)

// ErrOriginRemoteMissing indicates the push step found no origin remote.
var ErrOriginRemoteMissing = errors.New(originMissingMessageConstant)

// GitOperationError reports a failed repository step.
type GitOperationError struct {
	Operation string
	Cause     error
}

// Error describes the failed step.
func (operationError GitOperationError) Error() string {
	return fmt.Sprintf(gitOperationErrorTemplateConstant, operationError.Operation, operationError.Cause)
}

// Unwrap exposes the underlying cause.
func (operationError GitOperationError) Unwrap() error {
	return operationError.Cause
}

// PatchApplyError reports the first patch git am rejected.
type PatchApplyError struct {
	PatchFile string
	Cause     error
}

// Error names the rejected patch.
func (applyError PatchApplyError) Error() string {
	return fmt.Sprintf(patchApplyErrorTemplateConstant, applyError.PatchFile, applyError.Cause)
}

// Unwrap exposes the underlying git failure.
func (applyError PatchApplyError) Unwrap() error {
	return applyError.Cause
}

// InvalidInputError reports an empty or malformed option.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid option.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}

// IsWorkflowFailure reports whether failure is one of the expected workflow errors
// rather than an unexpected one.
func IsWorkflowFailure(failure error) bool {
	var operationError GitOperationError
	var applyError PatchApplyError
	var inputError InvalidInputError
	return errors.As(failure, &operationError) || errors.As(failure, &applyError) || errors.As(failure, &inputError)
}
