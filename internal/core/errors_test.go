package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError(t *testing.T) {
	baseErr := errors.New("base error")

	tests := []struct {
		name     string
		err      *ValidationError
		expected string
	}{
		{
			name:     "with field",
			err:      &ValidationError{Field: "categories", Message: "select at least one category", Err: baseErr},
			expected: "categories: select at least one category",
		},
		{
			name:     "without field",
			err:      &ValidationError{Message: "invalid input", Err: baseErr},
			expected: "invalid input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
			assert.ErrorIs(t, tt.err, baseErr)
		})
	}
}

func TestOutOfScopeError(t *testing.T) {
	err := fmt.Errorf("analyze: %w", &OutOfScopeError{Message: "fora de escopo"})

	assert.ErrorIs(t, err, ErrOutOfScope)
	var oos *OutOfScopeError
	assert.ErrorAs(t, err, &oos)
	assert.Equal(t, "fora de escopo", oos.Message)
	assert.NotErrorIs(t, errors.New("other"), ErrOutOfScope)
}

func TestLockError(t *testing.T) {
	baseErr := errors.New("base error")
	err := &LockError{Operation: "acquire", Message: "held by server", Err: baseErr}

	assert.Equal(t, "lock acquire: held by server", err.Error())
	assert.ErrorIs(t, err, baseErr)
}

func TestStorageError(t *testing.T) {
	baseErr := errors.New("disk full")

	withPath := &StorageError{Operation: "save", Path: ".qakit", Err: baseErr}
	assert.Equal(t, "storage save .qakit: disk full", withPath.Error())
	assert.ErrorIs(t, withPath, baseErr)

	noPath := &StorageError{Operation: "list", Err: baseErr}
	assert.Equal(t, "storage list: disk full", noPath.Error())
}
