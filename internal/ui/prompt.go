// Package ui provides the interactive prompts used to collect the inputs of a transfer run.
package ui

import (
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
)

const SIGINT = 130 // Standard exit code for SIGINT

// ErrInterrupted is returned when the user hits Ctrl-C at a prompt.
var ErrInterrupted = errors.New("prompt interrupted")

type Prompter interface {
	// Input prompts for a text value until validate accepts it.
	Input(label string, validate func(string) error) (string, error)
	// Select presents a list of items and returns the chosen one.
	Select(label string, items []string) (string, error)
	// Confirm prompts for a yes/no answer, defaulting to no.
	Confirm(label string) (bool, error)
}

// PromptUI is the terminal Prompter.
type PromptUI struct{}

var _ Prompter = PromptUI{}

func (PromptUI) Input(label string, validate func(string) error) (string, error) {
	prompt := promptui.Prompt{
		Label:    label,
		Validate: validate,
	}

	res, err := prompt.Run()
	if err != nil {
		return "", promptError(err)
	}
	return res, nil
}

func (PromptUI) Select(label string, items []string) (string, error) {
	if len(items) == 0 {
		return "", errors.New("no items to select from")
	}

	sel := promptui.Select{
		Label: label,
		Items: items,
	}

	_, result, err := sel.Run()
	if err != nil {
		return "", promptError(err)
	}

	return result, nil
}

func (PromptUI) Confirm(label string) (bool, error) {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}

	res, err := prompt.Run()
	if errors.Is(err, promptui.ErrAbort) {
		return false, nil
	} else if err != nil {
		return false, promptError(err)
	}

	return res == "y" || res == "Y", nil
}

func promptError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
		return fmt.Errorf("%w: %w", ErrInterrupted, err)
	}
	return fmt.Errorf("running prompt: %w", err)
}
