package transfer

import (
	"fmt"
	"strings"
)

type Status string

const (
	PendingStatus   Status = "PENDING"
	SubmittedStatus Status = "SUBMITTED"
	ConfirmedStatus Status = "CONFIRMED"
	FailedStatus    Status = "FAILED"
)

// Validate validates the transfer status
func (status Status) Validate() error {
	switch Status(strings.ToUpper(string(status))) {
	case PendingStatus, SubmittedStatus, ConfirmedStatus, FailedStatus:
		return nil
	default:
		return fmt.Errorf("invalid transfer status: %s", status)
	}
}

// IsTerminal reports whether no transition leaves the status.
func (status Status) IsTerminal() bool {
	return status == ConfirmedStatus || status == FailedStatus
}

// TransitionTo checks that the status can transition to the target status.
func (status Status) TransitionTo(targetStatus Status) error {
	return StatusStateMachineWithInitialState(status).TransitionTo(targetStatus)
}

// StatusStateMachineWithInitialState returns the state machine of a transfer initialized with the given status.
func StatusStateMachineWithInitialState(initialStatus Status) *StateMachine[Status] {
	transitions := []StateTransition[Status]{
		{From: PendingStatus, To: SubmittedStatus},   // the node accepted the transaction
		{From: PendingStatus, To: FailedStatus},      // balance check failed or the node rejected the transaction
		{From: SubmittedStatus, To: ConfirmedStatus}, // included in a block
		{From: SubmittedStatus, To: FailedStatus},    // reverted, or the confirmation wait failed
	}

	return NewStateMachine(initialStatus, transitions)
}

// Statuses returns all the transfer statuses.
func Statuses() []Status {
	return []Status{PendingStatus, SubmittedStatus, ConfirmedStatus, FailedStatus}
}

// SourceStatuses returns the statuses that can transition to the given one.
func (status Status) SourceStatuses() []Status {
	return StatusStateMachineWithInitialState(PendingStatus).Sources(status)
}

// ToStatus converts a string to a Status
func ToStatus(s string) (Status, error) {
	if err := Status(s).Validate(); err != nil {
		return "", err
	}

	return Status(strings.ToUpper(s)), nil
}
