package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"creatorhub/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const globalRequestLimit = 300

func newLimitedApp(t *testing.T, env string) *fiber.App {
	t.Helper()
	srv := &Server{
		config: &config.Config{
			Env:            env,
			AllowedOrigins: "http://localhost:5173",
		},
	}

	app := fiber.New()
	srv.SetupMiddleware(app)
	app.All("/limited", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func hit(t *testing.T, app *fiber.App, method string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, "/limited", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestSetupMiddleware_RateLimitedResponseIncludesCORSHeaders(t *testing.T) {
	app := newLimitedApp(t, "production")

	// Exhaust the limiter and assert the final response still carries CORS headers.
	for i := 0; i < globalRequestLimit; i++ {
		resp := hit(t, app, http.MethodGet)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		_ = resp.Body.Close()
	}

	resp := hit(t, app, http.MethodGet)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestSetupMiddleware_PreflightBypassesLimiter(t *testing.T) {
	app := newLimitedApp(t, "production")

	for i := 0; i < globalRequestLimit; i++ {
		resp := hit(t, app, http.MethodPost)
		_ = resp.Body.Close()
	}

	limited := hit(t, app, http.MethodPost)
	assert.Equal(t, fiber.StatusTooManyRequests, limited.StatusCode)
	_ = limited.Body.Close()

	// Preflight should still pass and include CORS headers.
	preflightReq := httptest.NewRequest(http.MethodOptions, "/limited", nil)
	preflightReq.Header.Set("Origin", "http://localhost:5173")
	preflightReq.Header.Set("Access-Control-Request-Method", http.MethodPost)
	preflightReq.Header.Set("Access-Control-Request-Headers", "authorization,content-type")
	preflightResp, err := app.Test(preflightReq, -1)
	require.NoError(t, err)
	defer func() { _ = preflightResp.Body.Close() }()

	assert.Equal(t, fiber.StatusNoContent, preflightResp.StatusCode)
	assert.Equal(t, "http://localhost:5173", preflightResp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, preflightResp.Header.Get("Access-Control-Allow-Methods"), http.MethodPost)
}

func TestSetupMiddleware_LimiterOffOutsideProduction(t *testing.T) {
	app := newLimitedApp(t, "development")

	for i := 0; i < globalRequestLimit+5; i++ {
		resp := hit(t, app, http.MethodGet)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		_ = resp.Body.Close()
	}
}
