package dbt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandRunnerCapturesOutput(t *testing.T) {
	r := NewCommandRunner("echo", t.TempDir())
	out, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "run", out)
}

func TestCommandRunnerReportsFailure(t *testing.T) {
	r := NewCommandRunner("false", t.TempDir())
	_, err := r.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dbt run failed")
}

func TestCommandRunnerMissingBinary(t *testing.T) {
	r := NewCommandRunner("definitely-not-a-real-binary", t.TempDir())
	_, err := r.Run(context.Background())
	assert.Error(t, err)
}
