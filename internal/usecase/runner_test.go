package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunnerIterationRecoversPanic(t *testing.T) {
	r := &Runner{logger: testLogger(t)}

	err := r.runIteration(context.Background(), "boom", func(context.Context) error {
		panic("kaboom")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")
}

func TestRunnerIterationPassesErrorThrough(t *testing.T) {
	r := &Runner{logger: testLogger(t)}
	want := errors.New("iteration failed")

	err := r.runIteration(context.Background(), "x", func(context.Context) error {
		return want
	})
	assert.Equal(t, want, err)
}
