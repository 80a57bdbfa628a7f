package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/account-service/internal/api/http/handlers"
	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/mail"
	"github.com/spec-kit/account-service/internal/observability"
	"github.com/spec-kit/account-service/internal/repository"
	"github.com/spec-kit/account-service/internal/service"
)

const (
	testPrefix   = "/api/v1.0"
	testPassword = "Abc12345!"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg mail.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

type testEnv struct {
	app     *fiber.App
	repo    repository.AccountRepository
	tokens  *auth.TokenManager
	sender  *recordingSender
	metrics *observability.Metrics
}

func newTestEnv(t *testing.T, rateLimit fiber.Handler) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	env := &testEnv{
		repo:    repository.NewMemoryAccountRepository(),
		tokens:  auth.NewTokenManager("test-secret"),
		sender:  &recordingSender{},
		metrics: observability.NewMetrics(),
	}

	authSvc := service.NewAuthService(service.AuthDependencies{
		Accounts:     env.repo,
		Hasher:       auth.NewPasswordHasher(bcrypt.MinCost),
		Tokens:       env.tokens,
		Mailer:       env.sender,
		ResetBaseURL: "http://localhost:3000/reset-password",
		Logger:       logger,
	})
	profileSvc := service.NewProfileService(env.repo, nil, logger)

	env.app = NewApp("account-service", 4<<20, logger, env.metrics)
	RegisterMiddlewares(env.app, logger, env.metrics, MiddlewareConfig{Timeout: 5 * time.Second, AllowOrigins: "*"})
	RegisterRoutes(env.app, RouteConfig{
		Prefix:         testPrefix,
		Health:         handlers.NewHealthHandler("account-service", "test", map[string]handlers.Pinger{"store": env.repo}),
		Auth:           handlers.NewAuthHandler(authSvc),
		Users:          handlers.NewUsersHandler(profileSvc),
		AuthMiddleware: auth.NewAuthMiddleware(env.tokens, env.repo, logger),
		AuthRateLimit:  rateLimit,
		Metrics:        env.metrics,
	})
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any, header map[string]string) (int, map[string]any, string) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded map[string]any
	_ = json.Unmarshal(raw, &decoded)
	return resp.StatusCode, decoded, resp.Header.Get(fiber.HeaderAuthorization)
}

func (e *testEnv) doForm(t *testing.T, path string, form url.Values) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp.StatusCode, decoded
}

func signupBody() map[string]any {
	return map[string]any{
		"firstName":       "A",
		"lastName":        "B",
		"email":           "a@b.com",
		"password":        testPassword,
		"confirmPassword": testPassword,
		"terms":           true,
	}
}

func (e *testEnv) signup(t *testing.T) string {
	t.Helper()
	status, body, _ := e.do(t, fiber.MethodPost, testPrefix+"/auth/signup", signupBody(), nil)
	require.Equal(t, fiber.StatusOK, status, "body: %v", body)
	return body["token"].(string)
}

func TestWelcomeAndNotFound(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, err := env.app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Welcome to DreamsChat :)", string(raw))

	status, body, _ := env.do(t, fiber.MethodGet, "/nowhere", nil, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "Route not found", body["message"])
}

func TestSignup_ReturnsBearerToken(t *testing.T) {
	env := newTestEnv(t, nil)

	status, body, header := env.do(t, fiber.MethodPost, testPrefix+"/auth/signup", signupBody(), nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "User registered successfully", body["message"])

	token, ok := body["token"].(string)
	require.True(t, ok)
	assert.Equal(t, token, header)
	require.True(t, strings.HasPrefix(token, "Bearer "))

	claims, err := env.tokens.Verify(strings.TrimPrefix(token, "Bearer "))
	require.NoError(t, err)
	assert.True(t, claims.IsNewUser)
}

func TestSignup_ValidationMessagesAreAList(t *testing.T) {
	env := newTestEnv(t, nil)

	status, body, _ := env.do(t, fiber.MethodPost, testPrefix+"/auth/signup", map[string]any{"email": "a@b.com"}, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	msgs, ok := body["message"].([]any)
	require.True(t, ok, "message should be a list: %v", body)
	assert.Contains(t, msgs, `"firstName" is required`)
	assert.Contains(t, msgs, `"terms" is required`)
}

func TestSignup_MalformedBody(t *testing.T) {
	env := newTestEnv(t, nil)

	req := httptest.NewRequest(fiber.MethodPost, testPrefix+"/auth/signup", strings.NewReader("{"))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t, nil)
	env.signup(t)

	status, body, header := env.do(t, fiber.MethodPost, testPrefix+"/auth/login", map[string]any{"email": "a@b.com", "password": testPassword}, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Successful", body["message"])
	assert.Equal(t, body["token"], header)

	status, body, _ = env.do(t, fiber.MethodPost, testPrefix+"/auth/login", map[string]any{"email": "a@b.com", "password": "Wrong123!"}, nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "Wrong password", body["message"])
}

func TestForgotPassword(t *testing.T) {
	env := newTestEnv(t, nil)
	env.signup(t)

	status, body, _ := env.do(t, fiber.MethodPost, testPrefix+"/auth/forgot-password", map[string]any{"email": "a@b.com"}, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Password reset email has been sent.", body["message"])
	assert.Equal(t, true, body["sentEmail"])
	require.Len(t, env.sender.sent, 1)
	assert.Contains(t, env.sender.sent[0].HTML, "http://localhost:3000/reset-password?token=")
}

func TestForgotPassword_MailFailureIsGeneric(t *testing.T) {
	env := newTestEnv(t, nil)
	env.signup(t)
	env.sender.err = errors.New("dial tcp 10.0.0.7:587: connection refused")

	status, body, _ := env.do(t, fiber.MethodPost, testPrefix+"/auth/forgot-password", map[string]any{"email": "a@b.com"}, nil)
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "Failed to send email.", body["message"])
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.signup(t)
	payload := map[string]any{"password": "New12345!", "confirmPassword": "New12345!"}

	status, body, _ := env.do(t, fiber.MethodPut, testPrefix+"/auth/change-password", payload, nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "No authorization token specified in headers", body["message"])

	status, _, _ = env.do(t, fiber.MethodPut, testPrefix+"/auth/change-password", payload, map[string]string{fiber.HeaderAuthorization: token})
	require.Equal(t, fiber.StatusOK, status)

	status, _, _ = env.do(t, fiber.MethodPost, testPrefix+"/auth/login", map[string]any{"email": "a@b.com", "password": "New12345!"}, nil)
	assert.Equal(t, fiber.StatusOK, status)
}

func TestUpdateUser_Multipart(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.signup(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("nickName", "Dreamer"))
	require.NoError(t, w.WriteField("bio", "hello there"))
	part, err := w.CreateFormFile("picture", "avatar.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(fiber.MethodPut, testPrefix+"/users/update-user", &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	req.Header.Set(fiber.HeaderAuthorization, token)

	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Message string         `json:"message"`
		User    map[string]any `json:"user"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "User updated", body.Message)
	assert.Equal(t, "Dreamer", body.User["nickName"])
	assert.Equal(t, "hello there", body.User["bio"])
	assert.Equal(t, true, body.User["isOnline"])
	assert.NotEmpty(t, body.User["picture"])
	assert.NotContains(t, body.User, "password")
	assert.NotContains(t, body.User, "passwordHash")
}

func TestUpdateUser_RejectsBadScheme(t *testing.T) {
	env := newTestEnv(t, nil)
	token := strings.TrimPrefix(env.signup(t), "Bearer ")

	status, body, _ := env.do(t, fiber.MethodPut, testPrefix+"/users/update-user", map[string]any{"bio": "x"},
		map[string]string{fiber.HeaderAuthorization: "Token " + token})
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "Invalid authorization header specified. It must be a bearer auth token", body["message"])
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t, nil)

	status, body, _ := env.do(t, fiber.MethodGet, "/health/ready", nil, nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ready", body["status"])

	resp, err := env.app.Test(httptest.NewRequest(fiber.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "account_service_http_requests_total")
}

func TestAuthRateLimit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	env := newTestEnv(t, RateLimit(ctx, 0.01, 1))

	body := map[string]any{"email": "a@b.com", "password": testPassword}
	status, _, _ := env.do(t, fiber.MethodPost, testPrefix+"/auth/login", body, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	req := httptest.NewRequest(fiber.MethodPost, testPrefix+"/auth/login", strings.NewReader(`{"email":"a@b.com"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "Too many requests", decoded["message"])
	// One token per hundred seconds, minus the little time the first request took.
	assert.Contains(t, []string{"99", "100"}, resp.Header.Get(fiber.HeaderRetryAfter))
}

func TestSignup_FormEncodedFieldsSurviveLaterRequests(t *testing.T) {
	env := newTestEnv(t, nil)

	status, body := env.doForm(t, testPrefix+"/auth/signup", url.Values{
		"firstName":       {"Alice"},
		"lastName":        {"Liddell"},
		"email":           {"alice@example.com"},
		"password":        {testPassword},
		"confirmPassword": {testPassword},
		"terms":           {"true"},
	})
	require.Equal(t, fiber.StatusOK, status, "body: %v", body)

	// Unrelated traffic of similar length reuses the request buffers.
	for _, email := range []string{"zzzzz@example.com", "yyyyy@example.com", "xxxxx@example.com", "wwwww@example.com", "vvvvv@example.com"} {
		env.doForm(t, testPrefix+"/auth/login", url.Values{"email": {email}, "password": {"Zzz98765?"}})
	}

	stored, err := env.repo.GetByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Alice", stored.FirstName)
	assert.Equal(t, "Liddell", stored.LastName)

	status, body = env.doForm(t, testPrefix+"/auth/login", url.Values{"email": {"alice@example.com"}, "password": {testPassword}})
	assert.Equal(t, fiber.StatusOK, status, "body: %v", body)
}
