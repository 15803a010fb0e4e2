package rterr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Is(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		target   error
		expected bool
	}{
		{"same kind", New(KindRange, "offset too large"), ErrInvalidRange, true},
		{"different kind", New(KindRange, "offset too large"), ErrAllocation, false},
		{"kind sentinel ignores code", Coded(KindAccessor, "outside_command_group", "x"), ErrAccessorContract, true},
		{"coded sentinel requires code", New(KindAccessor, "host target"), ErrAccessorOutsideCommandGroup, false},
		{"coded sentinel matches code", Coded(KindAccessor, "outside_command_group", "x"), ErrAccessorOutsideCommandGroup, true},
		{"wrapped by fmt", fmt.Errorf("submit: %w", New(KindDevice, "boom")), ErrDevice, true},
		{"nested kinds", Wrap(KindDependency, New(KindExecution, "payload"), "pred failed"), ErrExecution, true},
		{"plain error", errors.New("plain"), ErrRuntime, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, errors.Is(tc.err, tc.target))
		})
	}
}

func TestError_Message(t *testing.T) {
	cause := errors.New("out of memory")

	assert.Equal(t, "range error: offset too large", New(KindRange, "offset too large").Error())
	assert.Equal(t, "allocation error: alloc 64 bytes: out of memory", Wrap(KindAllocation, cause, "alloc 64 bytes").Error())
	assert.Equal(t, "runtime error: destroyed", ErrDestroyed.Error())
	assert.Equal(t, "kind(99)", Kind(99).String())
}

func TestWrap_NilCause(t *testing.T) {
	assert.NoError(t, Wrap(KindDevice, nil, "ignored"))
	assert.NoError(t, Wrapf(KindDevice, nil, "ignored %d", 1))
}

func TestKindOf(t *testing.T) {
	err := fmt.Errorf("outer: %w", Wrap(KindDependency, New(KindExecution, "inner"), "dep"))

	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindDependency, kind)
	assert.True(t, IsKind(err, KindExecution))

	_, ok = KindOf(errors.New("plain"))
	assert.False(t, ok)
}
