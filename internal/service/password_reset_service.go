package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/responsainveniree/student-info-api/internal/dto"
	"github.com/responsainveniree/student-info-api/internal/repository"
	appErrors "github.com/responsainveniree/student-info-api/pkg/errors"
)

type otpStore interface {
	IncrementRequests(ctx context.Context, email string, window time.Duration) (int64, error)
	Store(ctx context.Context, email, hash string, ttl time.Duration) error
	Get(ctx context.Context, email string) (string, error)
	IncrementAttempts(ctx context.Context, email string, ttl time.Duration) (int64, error)
	Clear(ctx context.Context, email string) error
}

type resetAccountStore interface {
	FindCredentialByEmail(ctx context.Context, email string) (*repository.Credential, error)
	UpdatePassword(ctx context.Context, kind repository.AccountKind, id, hash string) error
}

// PasswordResetConfig tunes the OTP flow.
type PasswordResetConfig struct {
	OTPTTL      time.Duration
	MaxRequests int
	Window      time.Duration
	MaxAttempts int
	BCryptCost  int
}

// PasswordResetService runs the emailed one-time-code reset flow.
type PasswordResetService struct {
	otps      otpStore
	accounts  resetAccountStore
	notifier  OTPNotifier
	validator *validator.Validate
	logger    *zap.Logger
	config    PasswordResetConfig
}

// NewPasswordResetService constructs the service.
func NewPasswordResetService(otps otpStore, accounts resetAccountStore, notifier OTPNotifier, validate *validator.Validate, logger *zap.Logger, cfg PasswordResetConfig) *PasswordResetService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BCryptCost == 0 {
		cfg.BCryptCost = bcrypt.DefaultCost
	}
	return &PasswordResetService{
		otps:      otps,
		accounts:  accounts,
		notifier:  notifier,
		validator: validate,
		logger:    logger,
		config:    cfg,
	}
}

// RequestOTP issues a reset code for the email. Unknown emails succeed without sending anything.
func (s *PasswordResetService) RequestOTP(ctx context.Context, req dto.PasswordResetRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err, "invalid password reset payload")
	}

	count, err := s.otps.IncrementRequests(ctx, req.Email, s.config.Window)
	if err != nil {
		return appErrors.Internal(err, "failed to rate limit reset request")
	}
	if count > int64(s.config.MaxRequests) {
		return appErrors.Clone(appErrors.ErrTooManyRequests, "too many reset requests, try again later")
	}

	cred, err := s.accounts.FindCredentialByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Info("password reset requested for unknown email")
			return nil
		}
		return appErrors.Internal(err, "failed to load account")
	}

	code, err := generateOTP()
	if err != nil {
		return appErrors.Internal(err, "failed to generate reset code")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.config.BCryptCost)
	if err != nil {
		return appErrors.Internal(err, "failed to hash reset code")
	}
	if err := s.otps.Store(ctx, req.Email, string(hash), s.config.OTPTTL); err != nil {
		return appErrors.Internal(err, "failed to store reset code")
	}
	if err := s.notifier.NotifyOTP(ctx, OTPMessage{Email: cred.Email, Name: cred.Name, Code: code, ExpiresIn: s.config.OTPTTL}); err != nil {
		return appErrors.Internal(err, "failed to send reset code")
	}

	s.logger.Info("password reset code issued", zap.String("user_id", cred.ID))
	return nil
}

// ConfirmOTP checks the code and sets the new password. Each wrong code counts against the
// attempt limit.
func (s *PasswordResetService) ConfirmOTP(ctx context.Context, req dto.PasswordResetConfirm) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err, "invalid password reset payload")
	}

	stored, err := s.otps.Get(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrOTPNotFound) {
			return appErrors.Clone(appErrors.ErrValidation, "reset code is invalid or expired")
		}
		return appErrors.Internal(err, "failed to load reset code")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(req.OTP)); err != nil {
		attempts, incErr := s.otps.IncrementAttempts(ctx, req.Email, s.config.OTPTTL)
		if incErr != nil {
			return appErrors.Internal(incErr, "failed to record reset attempt")
		}
		if attempts >= int64(s.config.MaxAttempts) {
			if clearErr := s.otps.Clear(ctx, req.Email); clearErr != nil {
				s.logger.Warn("failed to clear exhausted reset code", zap.Error(clearErr))
			}
			return appErrors.Clone(appErrors.ErrTooManyRequests, "too many wrong codes, request a new one")
		}
		return appErrors.Clone(appErrors.ErrValidation, "reset code is invalid or expired")
	}

	cred, err := s.accounts.FindCredentialByEmail(ctx, req.Email)
	if err != nil {
		return lookupError(err, "account not found", "failed to load account")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.config.BCryptCost)
	if err != nil {
		return appErrors.Internal(err, "failed to hash password")
	}
	if err := s.accounts.UpdatePassword(ctx, cred.Kind, cred.ID, string(hash)); err != nil {
		return lookupError(err, "account not found", "failed to update password")
	}
	if err := s.otps.Clear(ctx, req.Email); err != nil {
		s.logger.Warn("failed to clear used reset code", zap.Error(err))
	}

	s.logger.Info("password reset completed", zap.String("user_id", cred.ID))
	return nil
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
