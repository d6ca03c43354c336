package middleware

import (
	"net/http/httptest"
	"testing"

	"agrofresh-gh/internal/config"
	"agrofresh-gh/internal/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			Secret:          "test-secret",
			AccessTokenMins: 15,
		},
	}
}

func newProtectedApp(cfg *config.Config, extra ...fiber.Handler) *fiber.App {
	app := fiber.New()

	handlers := []fiber.Handler{AuthMiddleware(cfg)}
	handlers = append(handlers, extra...)
	handlers = append(handlers, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"user_id": c.Locals("userID"),
			"role":    c.Locals("role"),
		})
	})

	app.Get("/protected", handlers...)
	return app
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	app := newProtectedApp(testConfig())

	req := httptest.NewRequest("GET", "/protected", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddlewareRejectsGarbageToken(t *testing.T) {
	app := newProtectedApp(testConfig())

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddlewareAcceptsBearerToken(t *testing.T) {
	cfg := testConfig()
	app := newProtectedApp(cfg)

	token, err := jwt.GenerateAccessToken(5, "Ama", "ama@example.com", "farmer", "Kumasi", cfg.JWT.Secret, 15)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAuthMiddlewareAcceptsCookieToken(t *testing.T) {
	cfg := testConfig()
	app := newProtectedApp(cfg)

	token, err := jwt.GenerateAccessToken(5, "Ama", "ama@example.com", "farmer", "Kumasi", cfg.JWT.Secret, 15)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Cookie", "access_token="+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRoleMiddleware(t *testing.T) {
	cfg := testConfig()

	farmerToken, err := jwt.GenerateAccessToken(5, "Ama", "ama@example.com", "farmer", "Kumasi", cfg.JWT.Secret, 15)
	require.NoError(t, err)
	buyerToken, err := jwt.GenerateAccessToken(6, "Kofi", "kofi@example.com", "buyer", "Accra", cfg.JWT.Secret, 15)
	require.NoError(t, err)

	app := newProtectedApp(cfg, FarmerOnly())

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+farmerToken)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+buyerToken)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestFarmerOrAdmin(t *testing.T) {
	cfg := testConfig()

	adminToken, err := jwt.GenerateAccessToken(7, "Admin", "admin@example.com", "admin", "", cfg.JWT.Secret, 15)
	require.NoError(t, err)

	app := newProtectedApp(cfg, FarmerOrAdmin())

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
