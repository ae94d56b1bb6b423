package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jevencare/api/pkg/metrics"
	"github.com/jevencare/api/pkg/security"
)

const (
	DefaultTTL         = 10 * time.Minute
	DefaultCountryCode = "+91"
	codeLength         = 6
)

var ErrDelivery = errors.New("failed to send OTP")

type Config struct {
	TestMode    bool
	FixedCode   string
	TTL         time.Duration
	CountryCode string
}

// Service issues and verifies one-time codes keyed by normalized phone.
type Service struct {
	cfg     Config
	store   Store
	sender  Sender
	hasher  security.SecretHasher
	metrics *metrics.Metrics
	logger  zerolog.Logger
	now     func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func NewService(cfg Config, store Store, sender Sender, hasher security.SecretHasher, m *metrics.Metrics, opts ...Option) *Service {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.CountryCode == "" {
		cfg.CountryCode = DefaultCountryCode
	}
	if cfg.FixedCode == "" {
		cfg.FixedCode = "123456"
	}

	s := &Service{
		cfg:     cfg,
		store:   store,
		sender:  sender,
		hasher:  hasher,
		metrics: m,
		logger:  zerolog.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Normalize returns phone in E.164 form, prefixing the default country code
// when phone has no leading '+'.
func (s *Service) Normalize(phone string) string {
	phone = strings.TrimSpace(phone)
	if strings.HasPrefix(phone, "+") {
		return phone
	}
	return s.cfg.CountryCode + phone
}

// Issue creates a fresh code for phone, replacing any outstanding one, and
// sends it. A delivery failure is wrapped in ErrDelivery.
func (s *Service) Issue(ctx context.Context, phone string) error {
	key := s.Normalize(phone)

	code, err := s.generate()
	if err != nil {
		return fmt.Errorf("failed to generate otp: %w", err)
	}

	hashed, err := s.hasher.Hash(code)
	if err != nil {
		return fmt.Errorf("failed to hash otp: %w", err)
	}

	entry := Entry{Hash: hashed, ExpiresAt: s.now().Add(s.cfg.TTL)}
	if err := s.store.Set(ctx, key, entry, s.cfg.TTL); err != nil {
		return err
	}

	msg := fmt.Sprintf("Your JevenCare verification code is %s. It expires in %d minutes.",
		code, int(s.cfg.TTL.Minutes()))
	if err := s.sender.Send(ctx, key, msg); err != nil {
		s.metrics.OTPDeliveryFailures.Inc()
		s.logger.Error().Err(err).Str("phone", key).Msg("otp delivery failed")
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}

	s.metrics.OTPIssued.Inc()
	s.logger.Debug().Str("phone", key).Msg("otp issued")
	return nil
}

// Verify reports whether code matches the outstanding code for phone. A
// match or an expired code removes it; a mismatch leaves it for retry.
func (s *Service) Verify(ctx context.Context, phone, code string) (bool, error) {
	key := s.Normalize(phone)

	entry, err := s.store.Get(ctx, key)
	if errors.Is(err, ErrCodeNotFound) {
		s.metrics.OTPVerifications.WithLabelValues("missing").Inc()
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if s.now().After(entry.ExpiresAt) {
		s.metrics.OTPVerifications.WithLabelValues("expired").Inc()
		return false, s.store.Delete(ctx, key)
	}

	if err := s.hasher.Compare(entry.Hash, code); err != nil {
		s.metrics.OTPVerifications.WithLabelValues("mismatch").Inc()
		return false, nil
	}

	s.metrics.OTPVerifications.WithLabelValues("valid").Inc()
	return true, s.store.Delete(ctx, key)
}

func (s *Service) generate() (string, error) {
	if s.cfg.TestMode {
		return s.cfg.FixedCode, nil
	}
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeLength, n.Int64()), nil
}
