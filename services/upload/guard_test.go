package upload

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGuardOneUploadPerUser(t *testing.T) {
	g := NewMemoryGuard()
	ctx := context.Background()

	release, err := g.Acquire(ctx, 1, "job-a")
	require.NoError(t, err)

	_, err = g.Acquire(ctx, 1, "job-b")
	assert.ErrorIs(t, err, ErrUploadInFlight)

	other, err := g.Acquire(ctx, 2, "job-c")
	require.NoError(t, err)
	other()

	release()
	release() // idempotent

	again, err := g.Acquire(ctx, 1, "job-d")
	require.NoError(t, err)
	again()
}

func TestMemoryGuardStaleReleaseKeepsNewHolder(t *testing.T) {
	g := NewMemoryGuard()
	ctx := context.Background()

	first, err := g.Acquire(ctx, 1, "job-a")
	require.NoError(t, err)
	first()

	second, err := g.Acquire(ctx, 1, "job-b")
	require.NoError(t, err)
	defer second()

	first()
	_, err = g.Acquire(ctx, 1, "job-c")
	assert.ErrorIs(t, err, ErrUploadInFlight)
}
