package transfer

import (
	"errors"
	"fmt"
)

// ErrInsufficientBalance is returned when the sender's token balance does not cover the transfer amount.
var ErrInsufficientBalance = errors.New("insufficient balance")

// ConfigurationError is returned when the credentials or the endpoint cannot be used. It is fatal and happens before
// any chain interaction.
type ConfigurationError struct {
	Option string
	Err    error
}

func NewConfigurationError(option string, err error) *ConfigurationError {
	return &ConfigurationError{Option: option, Err: err}
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %v", e.Option, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

var _ error = &ConfigurationError{}

// ResolutionError aborts a run before any transfer is attempted: invalid amount, unusable asset contract, no senders
// or no recipients.
type ResolutionError struct {
	Subject string
	Err     error
}

func NewResolutionError(subject string, err error) *ResolutionError {
	return &ResolutionError{Subject: subject, Err: err}
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolving %s: %v", e.Subject, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

var _ error = &ResolutionError{}

type TransferStage string

const (
	StageNonce        TransferStage = "nonce"
	StageBalanceCheck TransferStage = "balance check"
	StageSubmission   TransferStage = "submission"
	StageConfirmation TransferStage = "confirmation"
	StageInterrupted  TransferStage = "interrupted"
)

// TransferError is the failure of a single transfer. It is recorded in the transfer Result and never stops the run.
type TransferError struct {
	Stage TransferStage
	Err   error
}

func NewTransferError(stage TransferStage, err error) *TransferError {
	return &TransferError{Stage: stage, Err: err}
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

var _ error = &TransferError{}

// ValidationError is returned by the input collector for a malformed value, e.g. an invalid recipient address.
type ValidationError struct {
	Value  string
	Reason string
}

func NewValidationError(value, reason string) *ValidationError {
	return &ValidationError{Value: value, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid value %q: %s", e.Value, e.Reason)
}

var _ error = &ValidationError{}

// ValidationErrors groups the validation errors of a list of inputs.
type ValidationErrors []*ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}
	return fmt.Sprintf("%d invalid values, first: %v", len(e), e[0])
}

func (e ValidationErrors) Unwrap() []error {
	errs := make([]error, 0, len(e))
	for _, err := range e {
		errs = append(errs, err)
	}
	return errs
}
