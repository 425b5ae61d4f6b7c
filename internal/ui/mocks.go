package ui

import (
	"github.com/stretchr/testify/mock"
)

// MockPrompter returns the configured answers. The validate function of Input is applied to the configured answer.
type MockPrompter struct {
	mock.Mock
}

var _ Prompter = (*MockPrompter)(nil)

func (m *MockPrompter) Input(label string, validate func(string) error) (string, error) {
	args := m.Called(label)
	value, err := args.String(0), args.Error(1)
	if err != nil {
		return "", err
	}
	if validate != nil {
		if err = validate(value); err != nil {
			return "", err
		}
	}
	return value, nil
}

func (m *MockPrompter) Select(label string, items []string) (string, error) {
	args := m.Called(label, items)
	return args.String(0), args.Error(1)
}

func (m *MockPrompter) Confirm(label string) (bool, error) {
	args := m.Called(label)
	return args.Bool(0), args.Error(1)
}
