package core

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecover_PassesThroughError(t *testing.T) {
	sentinel := errors.New("boom")

	err := Recover(func() error { return sentinel })

	assert.Same(t, sentinel, err)
}

func TestRecover_NilOnSuccess(t *testing.T) {
	assert.NoError(t, Recover(func() error { return nil }))
}

func TestRecover_ConvertsPanic(t *testing.T) {
	err := Recover(func() error {
		var m map[string]int
		m["x"] = 1
		return nil
	})
	require.Error(t, err)

	var pe *PanicError
	require.True(t, errors.As(err, &pe))
	assert.NotEmpty(t, pe.Stack)
	assert.Contains(t, err.Error(), "panic:")
}

func TestHandleCrash_NilIsNoop(t *testing.T) {
	called := false
	SetRestore(func() { called = true })
	defer SetRestore(nil)

	HandleCrash(nil)

	assert.False(t, called)
}
