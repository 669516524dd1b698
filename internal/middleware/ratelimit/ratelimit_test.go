package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func newTestApp(maxPerMinute int) (*fiber.App, *RateLimiter) {
	rl := New(Config{MaxRequestsPerMinute: maxPerMinute})

	app := fiber.New()
	app.Use(rl.Middleware())
	app.Get("/ping", func(c *fiber.Ctx) error {
		return c.SendString("pong")
	})

	return app, rl
}

func TestAllowsWithinBudget(t *testing.T) {
	app, rl := newTestApp(10)
	defer rl.Stop()

	for i := 0; i < 10; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ping", nil))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
}

func TestRejectsOverBudget(t *testing.T) {
	app, rl := newTestApp(3)
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ping", nil))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestKeysAreIndependent(t *testing.T) {
	app, rl := newTestApp(1)
	defer rl.Stop()

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-User-ID", "u1")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	req2 := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req2.Header.Set("X-User-ID", "u2")
	resp, err = app.Test(req2)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
