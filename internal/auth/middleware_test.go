package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/repository"
	apperrors "github.com/spec-kit/account-service/pkg/util"
)

func newProtectedApp(t *testing.T, tokens *TokenManager, repo repository.AccountRepository) *fiber.App {
	t.Helper()
	// Not immutable: header strings alias fasthttp's reused buffers here.
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).JSON(fiber.Map{"message": de.Body()})
		},
	})
	mw := NewAuthMiddleware(tokens, repo, nil)
	app.Get("/protected", mw.Handle, RequireAccount(), func(c *fiber.Ctx) error {
		account, ok := AccountFromContext(c)
		if !ok {
			return fiber.ErrUnauthorized
		}
		return c.SendString(account.ID)
	})
	return app
}

func seedAccount(t *testing.T, repo repository.AccountRepository, id string) {
	t.Helper()
	require.NoError(t, repo.Create(context.Background(), &domain.Account{ID: id, Email: id + "@example.com"}))
}

func doRequest(t *testing.T, app *fiber.App, header string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestAuthMiddleware_AllowsValidToken(t *testing.T) {
	tokens := NewTokenManager("secret")
	repo := repository.NewMemoryAccountRepository()
	seedAccount(t, repo, "acc-1")
	app := newProtectedApp(t, tokens, repo)

	token, _, err := tokens.Issue("acc-1", false)
	require.NoError(t, err)

	resp := doRequest(t, app, "Bearer "+token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	stored, err := repo.GetByID(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.True(t, stored.IsOnline)
	assert.Equal(t, token, stored.LastAccessToken)
}

func TestAuthMiddleware_SchemeIsCaseInsensitive(t *testing.T) {
	tokens := NewTokenManager("secret")
	repo := repository.NewMemoryAccountRepository()
	seedAccount(t, repo, "acc-1")
	app := newProtectedApp(t, tokens, repo)

	token, _, err := tokens.Issue("acc-1", false)
	require.NoError(t, err)

	resp := doRequest(t, app, "bEaReR "+token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthMiddleware_KeepsFirstTokenWhileOnline(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	tokens := NewTokenManager("secret", WithClock(clock.Now))
	repo := repository.NewMemoryAccountRepository()
	seedAccount(t, repo, "acc-1")
	app := newProtectedApp(t, tokens, repo)

	first, _, err := tokens.Issue("acc-1", false)
	require.NoError(t, err)
	clock.now = clock.now.Add(2 * time.Second)
	second, _, err := tokens.Issue("acc-1", false)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, doRequest(t, app, "Bearer "+first).StatusCode)
	assert.Equal(t, http.StatusOK, doRequest(t, app, "Bearer "+second).StatusCode)

	stored, err := repo.GetByID(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.Equal(t, first, stored.LastAccessToken)
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	tokens := NewTokenManager("secret", WithClock(clock.Now))
	repo := repository.NewMemoryAccountRepository()
	seedAccount(t, repo, "acc-1")

	valid, _, err := tokens.Issue("acc-1", false)
	require.NoError(t, err)
	unknown, _, err := tokens.Issue("ghost", false)
	require.NoError(t, err)
	foreign, _, err := NewTokenManager("other-secret").Issue("acc-1", false)
	require.NoError(t, err)
	expired, _, err := NewTokenManager("secret", WithClock(func() time.Time {
		return time.Now().Add(-2 * TokenTTL)
	})).Issue("acc-1", false)
	require.NoError(t, err)

	app := newProtectedApp(t, tokens, repo)

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "no scheme", header: valid},
		{name: "wrong scheme", header: "Basic " + valid},
		{name: "too many parts", header: "Bearer " + valid + " extra"},
		{name: "garbage token", header: "Bearer abc.def.ghi"},
		{name: "foreign signature", header: "Bearer " + foreign},
		{name: "expired", header: "Bearer " + expired},
		{name: "unknown account", header: "Bearer " + unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(t, app, tt.header)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}
