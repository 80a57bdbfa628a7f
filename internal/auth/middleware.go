package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/repository"
	apperrors "github.com/spec-kit/account-service/pkg/util"
)

const accountKey = "auth_account"

// AuthMiddleware validates bearer tokens and loads the calling account.
type AuthMiddleware struct {
	tokens   *TokenManager
	accounts repository.AccountRepository
	logger   *zap.Logger
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, accounts repository.AccountRepository, logger *zap.Logger) *AuthMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthMiddleware{tokens: tokens, accounts: accounts, logger: logger}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return apperrors.NewUnauthorized("No authorization token specified in headers")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return apperrors.NewUnauthorized("Invalid authorization header specified. It must be a bearer auth token")
	}
	// The header aliases the request buffer unless the app is immutable; the
	// token may be stored as LastAccessToken.
	token := utils.CopyString(parts[1])

	claims, err := m.tokens.Verify(token)
	switch {
	case err == nil:
	case errors.Is(err, ErrTokenExpired):
		return apperrors.NewUnauthorized("Token has expired.")
	default:
		return apperrors.NewUnauthorized("Invalid authentication credentials.")
	}

	ctx := c.UserContext()
	account, err := m.accounts.GetByID(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return apperrors.NewUnauthorized("Invalid authentication credentials.")
		}
		return apperrors.NewInternalError("", err)
	}

	if !account.IsOnline {
		online := true
		updated, err := m.accounts.Update(ctx, account.ID, domain.AccountPatch{IsOnline: &online, LastAccessToken: &token})
		if err != nil {
			m.logger.Warn("mark account online", zap.String("account_id", account.ID), zap.Error(err))
		} else {
			account = updated
		}
	}

	c.Locals(accountKey, account)
	return c.Next()
}

// AccountFromContext retrieves the authenticated account from fiber locals.
func AccountFromContext(c *fiber.Ctx) (*domain.Account, bool) {
	val := c.Locals(accountKey)
	if val == nil {
		return nil, false
	}
	account, ok := val.(*domain.Account)
	return account, ok
}

// RequireAccount rejects requests that reached a handler without an account.
func RequireAccount() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := AccountFromContext(c); !ok {
			return apperrors.NewUnauthorized("Unauthorized user")
		}
		return c.Next()
	}
}
