package middleware

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahilchouksey/intern-track/utils/cache"
)

func TestLockoutFor(t *testing.T) {
	assert.Equal(t, time.Duration(0), LockoutFor(4))
	assert.Equal(t, 2*time.Minute, LockoutFor(5))
	assert.Equal(t, time.Hour, LockoutFor(10))
	assert.Equal(t, 24*time.Hour, LockoutFor(30))
}

func TestBruteForceLocksAfterFiveFailures(t *testing.T) {
	ctx := context.Background()
	bf := NewBruteForceProtection(memoryCache(t), nil)

	app := fiber.New()
	app.Post("/login", bf.CheckAndRecordAttempt(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	for i := 0; i < 4; i++ {
		require.NoError(t, bf.RecordFailedAttempt(ctx, "0.0.0.0", "a@example.com"))
	}
	locked, err := bf.IsIPLocked(ctx, "0.0.0.0")
	require.NoError(t, err)
	assert.False(t, locked)

	resp, err := app.Test(httptest.NewRequest("POST", "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	require.NoError(t, bf.RecordFailedAttempt(ctx, "0.0.0.0", "a@example.com"))
	count, err := bf.GetAttemptCount(ctx, "0.0.0.0")
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	resp, err = app.Test(httptest.NewRequest("POST", "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))

	require.NoError(t, bf.RecordSuccessfulAttempt(ctx, "0.0.0.0"))
	resp, err = app.Test(httptest.NewRequest("POST", "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func memoryCache(t *testing.T) *cache.MemoryCache {
	t.Helper()
	c := cache.NewMemoryCache()
	t.Cleanup(func() { _ = c.Close() })
	return c
}
