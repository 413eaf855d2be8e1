package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"tracker_server/pkg/apperr"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newApp() *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(),
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})
	app.Use(Recover())
	app.Use(RequestID())
	return app
}

func decodeError(t *testing.T, resp *http.Response) ErrorResponse {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out ErrorResponse
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func TestErrorHandlerAppError(t *testing.T) {
	app := newApp()
	app.Get("/init", func(c *fiber.Ctx) error { return apperr.ServiceInitializing("") })
	app.Get("/wrapped", func(c *fiber.Ctx) error {
		return errors.Join(errors.New("context"), apperr.ContentUnavailable("movie not available"))
	})
	app.Get("/plain", func(c *fiber.Ctx) error { return errors.New("boom") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/init", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "5", resp.Header.Get("Retry-After"))
	body := decodeError(t, resp)
	assert.False(t, body.Success)
	assert.Equal(t, apperr.CodeServiceInitializing, body.Error.Code)
	assert.NotEmpty(t, body.RequestID)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/wrapped", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, apperr.CodeContentUnavailable, decodeError(t, resp).Error.Code)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/plain", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	body = decodeError(t, resp)
	assert.Equal(t, apperr.CodeInternalError, body.Error.Code)
	assert.NotContains(t, body.Error.Message, "boom")
}

func TestRequestIDPropagation(t *testing.T) {
	app := newApp()
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "abc-123", resp.Header.Get("X-Request-ID"))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	_, err = uuid.Parse(resp.Header.Get("X-Request-ID"))
	assert.NoError(t, err)
}

func TestRecover(t *testing.T) {
	app := newApp()
	app.Get("/panic", func(c *fiber.Ctx) error { panic("kaboom") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/panic", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

type recordingObserver struct {
	mu     sync.Mutex
	status []int
}

func (o *recordingObserver) ObserveHTTPRequest(_, _ string, status int, _ time.Duration) {
	o.mu.Lock()
	o.status = append(o.status, status)
	o.mu.Unlock()
}

func TestRequestLoggerRecordsFinalStatus(t *testing.T) {
	obs := &recordingObserver{}
	app := newApp()
	app.Use(RequestLogger(obs))
	app.Get("/missing", func(c *fiber.Ctx) error { return apperr.NotFound("movie") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, []int{http.StatusNotFound}, obs.status)
}

type fakeRevocations struct {
	revoked map[string]bool
	err     error
}

func (f *fakeRevocations) Revoke(_ context.Context, id string, _ time.Duration) error {
	f.revoked[id] = true
	return nil
}

func (f *fakeRevocations) IsRevoked(_ context.Context, id string) (bool, error) {
	return f.revoked[id], f.err
}

func (f *fakeRevocations) Ping(context.Context) error { return f.err }

func authApp(store *fakeRevocations) *fiber.App {
	app := newApp()
	cfg := AuthConfig{Secret: testSecret}
	if store != nil {
		cfg.Revocations = store
	}
	app.Use(JWTAuth(cfg))
	app.Get("/me", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("user_id").(uuid.UUID).String())
	})
	app.Post("/logout", func(c *fiber.Ctx) error {
		if err := RevokeCurrent(c, store); err != nil {
			return err
		}
		return c.SendStatus(http.StatusNoContent)
	})
	return app
}

func withToken(method, path, token string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestJWTAuth(t *testing.T) {
	user := uuid.New()
	token, err := IssueToken(testSecret, user, "u@example.com", time.Hour)
	require.NoError(t, err)

	app := authApp(nil)

	resp, err := app.Test(withToken(http.MethodGet, "/me", token))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, user.String(), string(body))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	other, err := IssueToken("other-secret", user, "", time.Hour)
	require.NoError(t, err)
	resp, err = app.Test(withToken(http.MethodGet, "/me", other))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, apperr.CodeInvalidToken, decodeError(t, resp).Error.Code)
}

func TestJWTAuthExpired(t *testing.T) {
	token, err := IssueToken(testSecret, uuid.New(), "", -2*time.Minute)
	require.NoError(t, err)

	resp, err := authApp(nil).Test(withToken(http.MethodGet, "/me", token))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, apperr.CodeTokenExpired, decodeError(t, resp).Error.Code)
}

func TestJWTAuthRejectsOtherAlgorithms(t *testing.T) {
	claims := jwt.RegisteredClaims{Subject: uuid.NewString(), ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	resp, err := authApp(nil).Test(withToken(http.MethodGet, "/me", token))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestJWTAuthRevocation(t *testing.T) {
	store := &fakeRevocations{revoked: map[string]bool{}}
	app := authApp(store)
	token, err := IssueToken(testSecret, uuid.New(), "", time.Hour)
	require.NoError(t, err)

	resp, err := app.Test(withToken(http.MethodPost, "/logout", token))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Len(t, store.revoked, 1)

	resp, err = app.Test(withToken(http.MethodGet, "/me", token))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRateLimit(t *testing.T) {
	app := newApp()
	app.Use(RateLimit(2, time.Minute))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "2", resp.Header.Get("X-RateLimit-Limit"))
	}
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, apperr.CodeRateLimited, decodeError(t, resp).Error.Code)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))

	resp, err = app.Test(httptest.NewRequest(http.MethodOptions, "/", nil))
	require.NoError(t, err)
	assert.NotEqual(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestRateLimitPerUser(t *testing.T) {
	alice, bob := uuid.New(), uuid.New()
	app := newApp()
	app.Use(func(c *fiber.Ctx) error {
		if id, err := uuid.Parse(c.Get("X-Test-User")); err == nil {
			c.Locals("user_id", id)
		}
		return c.Next()
	}, RateLimit(1, time.Minute))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	asUser := func(id uuid.UUID) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Test-User", id.String())
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusOK, asUser(alice))
	assert.Equal(t, http.StatusTooManyRequests, asUser(alice))
	assert.Equal(t, http.StatusOK, asUser(bob))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "anonymous callers share the IP budget, not a user budget")
}
