package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/keywarden/keywarden/internal/apperror"
	"github.com/keywarden/keywarden/internal/domain"
	"github.com/keywarden/keywarden/internal/mailer"
	"github.com/keywarden/keywarden/internal/token"
)

// TokenCodec is the slice of the token codec the login flow needs.
type TokenCodec interface {
	Issue(email domain.Email) (token.Session, error)
	Verify(raw string) (token.Session, error)
}

// AuthService defines the business logic contract for authentication.
// Handlers call these methods and never touch the stores directly.
type AuthService interface {
	Register(ctx context.Context, input SignupRequest) error
	Login(ctx context.Context, input LoginRequest) (*LoginResult, error)
	VerifyTwoFactor(ctx context.Context, input VerifyTwoFactorRequest) (*token.Session, error)
	Logout(ctx context.Context, rawToken string) error
	VerifyToken(ctx context.Context, rawToken string) (*token.Session, error)
}

// LoginResult is the outcome of a login attempt. Either Session is set, or
// TwoFactorRequired is true and ChallengeID identifies the pending attempt.
type LoginResult struct {
	TwoFactorRequired bool
	ChallengeID       string
	Session           *token.Session
}

// authService implements AuthService over the injected stores.
type authService struct {
	users       domain.UserStore
	challenges  domain.ChallengeStore
	revocations domain.RevocationList
	codec       TokenCodec
	mail        mailer.Mailer
	clock       domain.Clock
	policy      domain.PasswordPolicy
	grace       time.Duration
}

// NewAuthService creates a new auth service with the given dependencies.
func NewAuthService(
	users domain.UserStore,
	challenges domain.ChallengeStore,
	revocations domain.RevocationList,
	codec TokenCodec,
	mail mailer.Mailer,
	clock domain.Clock,
	grace time.Duration,
) AuthService {
	return &authService{
		users:       users,
		challenges:  challenges,
		revocations: revocations,
		codec:       codec,
		mail:        mail,
		clock:       clock,
		policy:      domain.DefaultPasswordPolicy,
		grace:       grace,
	}
}

// Register creates a new account. Uniqueness is enforced by the store's
// atomic insert, so two concurrent signups for one email resolve to exactly
// one account.
func (s *authService) Register(ctx context.Context, input SignupRequest) error {
	email, err := domain.ParseEmail(input.Email)
	if err != nil {
		return apperror.NewValidation("invalid email address")
	}
	password, err := domain.ParsePassword(input.Password, s.policy)
	if err != nil {
		return apperror.NewValidation("password does not meet requirements")
	}

	if err := s.users.Add(ctx, email, password, input.Requires2FA); err != nil {
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			return apperror.NewAlreadyExists("an account with this email already exists")
		}
		return apperror.NewInternal(fmt.Errorf("adding user: %w", err))
	}

	slog.Info("user registered",
		slog.String("email", email.String()),
		slog.Bool("requires_2fa", input.Requires2FA),
	)
	return nil
}

// Login authenticates by email and password. Unknown accounts and wrong
// passwords produce the same error, so callers cannot probe which emails
// are registered. Accounts with 2FA enabled get a challenge instead of a
// token.
func (s *authService) Login(ctx context.Context, input LoginRequest) (*LoginResult, error) {
	email, err := domain.ParseEmail(input.Email)
	if err != nil {
		return nil, apperror.NewIncorrectCredentials()
	}

	if err := s.users.ValidateCredentials(ctx, email, input.Password); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) || errors.Is(err, domain.ErrPasswordMismatch) {
			return nil, apperror.NewIncorrectCredentials()
		}
		return nil, apperror.NewInternal(fmt.Errorf("validating credentials: %w", err))
	}

	user, err := s.users.Get(ctx, email)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("loading user: %w", err))
	}

	if user.RequiresTwoFactor {
		return s.beginTwoFactor(ctx, email)
	}

	session, err := s.codec.Issue(email)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("issuing token: %w", err))
	}

	slog.Info("user logged in", slog.String("email", email.String()))
	return &LoginResult{Session: &session}, nil
}

// beginTwoFactor installs a fresh challenge (superseding any prior one) and
// sends the code to the account's email. The challenge is installed before
// the mail goes out, so a delivery retry can still verify against it.
func (s *authService) beginTwoFactor(ctx context.Context, email domain.Email) (*LoginResult, error) {
	challenge, err := s.challenges.Issue(ctx, email)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("issuing challenge: %w", err))
	}

	subject := "Your verification code"
	body := fmt.Sprintf("Your verification code is: %s\r\n\r\nIt expires in 10 minutes.", challenge.Code)
	if err := s.mail.Send(ctx, email, subject, body); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("sending challenge code: %w", err))
	}

	slog.Info("two-factor challenge issued", slog.String("email", email.String()))
	return &LoginResult{TwoFactorRequired: true, ChallengeID: challenge.ID}, nil
}

// VerifyTwoFactor completes a pending two-factor login. The store consumes
// the challenge in the same atomic step that validates it, so a code can
// never be redeemed twice. All failure modes share one error.
func (s *authService) VerifyTwoFactor(ctx context.Context, input VerifyTwoFactorRequest) (*token.Session, error) {
	email, err := domain.ParseEmail(input.Email)
	if err != nil {
		return nil, apperror.NewIncorrectCredentials()
	}
	if _, err := domain.ParseChallengeID(input.ChallengeID); err != nil {
		return nil, apperror.NewIncorrectCredentials()
	}
	if _, err := domain.ParseChallengeCode(input.Code); err != nil {
		return nil, apperror.NewIncorrectCredentials()
	}

	if err := s.challenges.Verify(ctx, email, input.ChallengeID, input.Code); err != nil {
		if errors.Is(err, domain.ErrChallengeNotFound) || errors.Is(err, domain.ErrChallengeMismatch) {
			return nil, apperror.NewIncorrectCredentials()
		}
		return nil, apperror.NewInternal(fmt.Errorf("verifying challenge: %w", err))
	}

	session, err := s.codec.Issue(email)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("issuing token: %w", err))
	}

	slog.Info("two-factor login completed", slog.String("email", email.String()))
	return &session, nil
}

// Logout revokes the presented token. The revocation entry outlives the
// token's remaining validity by a small grace period, so the token can
// never verify again even right at its expiry boundary.
func (s *authService) Logout(ctx context.Context, rawToken string) error {
	session, err := s.verifyLive(ctx, rawToken)
	if err != nil {
		return err
	}

	ttl := session.ExpiresAt.Sub(s.clock.Now()) + s.grace
	if err := s.revocations.Revoke(ctx, session.TokenID, ttl); err != nil {
		return apperror.NewInternal(fmt.Errorf("revoking token: %w", err))
	}

	slog.Info("user logged out", slog.String("email", session.Email.String()))
	return nil
}

// VerifyToken checks that a token is well formed, unexpired and not revoked.
func (s *authService) VerifyToken(ctx context.Context, rawToken string) (*token.Session, error) {
	return s.verifyLive(ctx, rawToken)
}

// verifyLive runs codec verification first, then the revocation check, so a
// forged token never reaches the revocation list.
func (s *authService) verifyLive(ctx context.Context, rawToken string) (*token.Session, error) {
	session, err := s.codec.Verify(rawToken)
	if err != nil {
		return nil, apperror.NewInvalidToken(err)
	}

	revoked, err := s.revocations.IsRevoked(ctx, session.TokenID)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("checking revocation: %w", err))
	}
	if revoked {
		return nil, apperror.NewInvalidToken(errors.New("token revoked"))
	}

	return &session, nil
}
