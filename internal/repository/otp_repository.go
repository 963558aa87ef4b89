package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrOTPNotFound is returned when no live OTP exists for an email.
var ErrOTPNotFound = errors.New("otp not found")

const (
	otpKeyPrefix      = "password_reset:otp:"
	attemptsKeyPrefix = "password_reset:attempts:"
	rateKeyPrefix     = "password_reset:rate:"
)

// OTPRepository keeps password-reset codes and their counters in Redis.
type OTPRepository struct {
	client *redis.Client
}

// NewOTPRepository constructs the repository.
func NewOTPRepository(client *redis.Client) *OTPRepository {
	return &OTPRepository{client: client}
}

func normalizeEmailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IncrementRequests counts reset requests for an email within a fixed window. The window starts
// with the first request.
func (r *OTPRepository) IncrementRequests(ctx context.Context, email string, window time.Duration) (int64, error) {
	key := rateKeyPrefix + normalizeEmailKey(email)
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr %s: %w", key, err)
	}
	if count == 1 {
		if err := r.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, fmt.Errorf("redis expire %s: %w", key, err)
		}
	}
	return count, nil
}

// Store saves the OTP hash and resets the attempt counter.
func (r *OTPRepository) Store(ctx context.Context, email, hash string, ttl time.Duration) error {
	email = normalizeEmailKey(email)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, otpKeyPrefix+email, hash, ttl)
		pipe.Del(ctx, attemptsKeyPrefix+email)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis store otp: %w", err)
	}
	return nil
}

// Get returns the stored OTP hash or ErrOTPNotFound.
func (r *OTPRepository) Get(ctx context.Context, email string) (string, error) {
	key := otpKeyPrefix + normalizeEmailKey(email)
	hash, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrOTPNotFound
		}
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	return hash, nil
}

// IncrementAttempts counts a failed confirmation. The counter expires with the OTP.
func (r *OTPRepository) IncrementAttempts(ctx context.Context, email string, ttl time.Duration) (int64, error) {
	key := attemptsKeyPrefix + normalizeEmailKey(email)
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr %s: %w", key, err)
	}
	if count == 1 {
		if err := r.client.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("redis expire %s: %w", key, err)
		}
	}
	return count, nil
}

// Clear removes the OTP and its attempt counter.
func (r *OTPRepository) Clear(ctx context.Context, email string) error {
	email = normalizeEmailKey(email)
	if err := r.client.Del(ctx, otpKeyPrefix+email, attemptsKeyPrefix+email).Err(); err != nil {
		return fmt.Errorf("redis clear otp: %w", err)
	}
	return nil
}
