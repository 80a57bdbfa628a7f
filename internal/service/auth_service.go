package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/events"
	"github.com/spec-kit/account-service/internal/mail"
	"github.com/spec-kit/account-service/internal/repository"
	apperrors "github.com/spec-kit/account-service/pkg/util"
)

// Messages returned to clients by the auth flows.
const (
	MsgInvalidEmailProvider = "Invalid email provider"
	MsgPasswordsMismatch    = "Passwords do not match"
	MsgEmailInUse           = "Email address is already in use"
	MsgCredentialsRequired  = "Email and password are required"
	MsgUserNotFound         = "User not found"
	MsgWrongPassword        = "Wrong password"
	MsgUserNotRegistered    = "User is not registered"
	MsgSendEmailFailed      = "Failed to send email."
	MsgSaveUserFailed       = "Error while saving user"
	MsgUnauthorizedUser     = "Unauthorized user"
	MsgTooManyRequests      = "Too many requests"
)

// AuthResult is returned by flows that issue a session token.
type AuthResult struct {
	Account   *domain.Account
	Token     string
	ExpiresAt time.Time
}

// AuthService coordinates signup, login and password flows.
type AuthService struct {
	accounts     repository.AccountRepository
	hasher       *auth.PasswordHasher
	tokens       *auth.TokenManager
	mailer       mail.Sender
	resetLimiter ResetLimiter
	dispatcher   events.Dispatcher
	resetBaseURL string
	logger       *zap.Logger
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	Accounts     repository.AccountRepository
	Hasher       *auth.PasswordHasher
	Tokens       *auth.TokenManager
	Mailer       mail.Sender
	ResetLimiter ResetLimiter
	Dispatcher   events.Dispatcher
	ResetBaseURL string
	Logger       *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		accounts:     deps.Accounts,
		hasher:       deps.Hasher,
		tokens:       deps.Tokens,
		mailer:       deps.Mailer,
		resetLimiter: deps.ResetLimiter,
		dispatcher:   deps.Dispatcher,
		resetBaseURL: deps.ResetBaseURL,
		logger:       logger,
	}
}

// Signup creates an account and issues a token flagged as a new user.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	in.Email = normalizeEmail(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)

	if msgs := in.Validate(); len(msgs) > 0 {
		return nil, apperrors.NewValidationError(msgs)
	}
	if auth.IsDisposableEmail(in.Email) {
		return nil, apperrors.NewBadRequest(MsgInvalidEmailProvider)
	}
	if in.Password != in.ConfirmPassword {
		return nil, apperrors.NewBadRequest(MsgPasswordsMismatch)
	}

	if _, err := s.accounts.GetByEmail(ctx, in.Email); err == nil {
		return nil, apperrors.NewBadRequest(MsgEmailInUse)
	} else if !errors.Is(err, repository.ErrAccountNotFound) {
		return nil, apperrors.NewInternalError("", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperrors.NewInternalError("", fmt.Errorf("hash password: %w", err))
	}

	account := &domain.Account{
		ID:           uuid.NewString(),
		Email:        in.Email,
		PasswordHash: hash,
		Profile: domain.Profile{
			FirstName: in.FirstName,
			LastName:  in.LastName,
		},
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicateAccount) {
			return nil, apperrors.NewBadRequest(MsgEmailInUse)
		}
		return nil, apperrors.NewInternalError(MsgSaveUserFailed, err)
	}

	token, exp, err := s.tokens.Issue(account.ID, true)
	if err != nil {
		return nil, apperrors.NewInternalError("", fmt.Errorf("issue token: %w", err))
	}

	s.publish(ctx, events.EventAccountCreated, account.ID, nil)
	return &AuthResult{Account: account, Token: token, ExpiresAt: exp}, nil
}

// Login verifies credentials and issues a token.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	in.Email = normalizeEmail(in.Email)

	if in.Email == "" || in.Password == "" {
		return nil, apperrors.NewBadRequest(MsgCredentialsRequired)
	}
	if msgs := in.Validate(); len(msgs) > 0 {
		return nil, apperrors.NewValidationError(msgs)
	}
	if auth.IsDisposableEmail(in.Email) {
		return nil, apperrors.NewBadRequest(MsgInvalidEmailProvider)
	}

	account, err := s.accounts.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, apperrors.NewBadRequest(MsgUserNotFound)
		}
		return nil, apperrors.NewInternalError("", err)
	}

	ok, err := s.hasher.Verify(in.Password, account.PasswordHash)
	if err != nil {
		return nil, apperrors.NewInternalError("", fmt.Errorf("verify password: %w", err))
	}
	if !ok {
		return nil, apperrors.NewUnauthorized(MsgWrongPassword)
	}

	token, exp, err := s.tokens.Issue(account.ID, false)
	if err != nil {
		return nil, apperrors.NewInternalError("", fmt.Errorf("issue token: %w", err))
	}

	s.publish(ctx, events.EventAccountLoggedIn, account.ID, nil)
	return &AuthResult{Account: account, Token: token, ExpiresAt: exp}, nil
}

// ForgotPassword mails a reset link carrying a fresh session token. It
// returns once the mail transport accepted the message.
func (s *AuthService) ForgotPassword(ctx context.Context, in ForgotPasswordInput) error {
	in.Email = normalizeEmail(in.Email)

	if msgs := in.Validate(); len(msgs) > 0 {
		return apperrors.NewValidationError(msgs)
	}
	if auth.IsDisposableEmail(in.Email) {
		return apperrors.NewBadRequest(MsgInvalidEmailProvider)
	}
	if s.resetLimiter != nil {
		if d := s.resetLimiter.Allow(ctx, in.Email); !d.Allowed {
			return apperrors.NewTooManyRequests(MsgTooManyRequests, d.RetryAfter)
		}
	}

	account, err := s.accounts.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return apperrors.NewUnauthorized(MsgUserNotRegistered)
		}
		return apperrors.NewInternalError("", err)
	}

	token, _, err := s.tokens.Issue(account.ID, false)
	if err != nil {
		return apperrors.NewInternalError(MsgSendEmailFailed, fmt.Errorf("issue token: %w", err))
	}

	link, err := s.resetLink(token)
	if err != nil {
		return apperrors.NewInternalError(MsgSendEmailFailed, err)
	}

	msg, err := mail.NewPasswordResetMessage(account.Email, account.FirstName, link)
	if err != nil {
		return apperrors.NewInternalError(MsgSendEmailFailed, fmt.Errorf("render reset mail: %w", err))
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return apperrors.NewInternalError(MsgSendEmailFailed, fmt.Errorf("send reset mail: %w", err))
	}

	s.publish(ctx, events.EventPasswordResetRequested, account.ID, nil)
	return nil
}

// ChangePassword overwrites the credential of an authenticated account.
func (s *AuthService) ChangePassword(ctx context.Context, accountID string, in ChangePasswordInput) error {
	if msgs := in.Validate(); len(msgs) > 0 {
		return apperrors.NewValidationError(msgs)
	}
	if in.Password != in.ConfirmPassword {
		return apperrors.NewBadRequest(MsgPasswordsMismatch)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return apperrors.NewInternalError("", fmt.Errorf("hash password: %w", err))
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return apperrors.NewUnauthorized(MsgUnauthorizedUser)
		}
		return apperrors.NewInternalError("", err)
	}

	if _, err := s.accounts.Update(ctx, account.ID, domain.AccountPatch{PasswordHash: &hash}); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return apperrors.NewUnauthorized(MsgUnauthorizedUser)
		}
		return apperrors.NewInternalError("", err)
	}
	if s.resetLimiter != nil {
		s.resetLimiter.Clear(ctx, account.Email)
	}

	s.publish(ctx, events.EventPasswordChanged, account.ID, nil)
	return nil
}

func (s *AuthService) resetLink(token string) (string, error) {
	u, err := url.Parse(s.resetBaseURL)
	if err != nil {
		return "", fmt.Errorf("parse reset base url: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (s *AuthService) publish(ctx context.Context, eventType events.EventType, accountID string, payload interface{}) {
	publishEvent(ctx, s.dispatcher, s.logger, eventType, accountID, payload)
}

func publishEvent(ctx context.Context, d events.Dispatcher, logger *zap.Logger, eventType events.EventType, accountID string, payload interface{}) {
	if d == nil {
		return
	}
	err := d.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		AccountID: accountID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	})
	if err != nil {
		logger.Warn("publish account event", zap.String("event_type", string(eventType)), zap.Error(err))
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
