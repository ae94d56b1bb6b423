package otp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// Sender delivers a text message to a normalized phone number.
type Sender interface {
	Send(ctx context.Context, phone, message string) error
}

type logSender struct {
	logger zerolog.Logger
}

// NewLogSender writes messages to the log instead of sending them.
func NewLogSender(logger zerolog.Logger) Sender {
	return &logSender{logger: logger}
}

func (s *logSender) Send(_ context.Context, phone, message string) error {
	s.logger.Info().Str("phone", phone).Str("message", message).Msg("sms not sent, log delivery")
	return nil
}

type TwilioConfig struct {
	AccountSID  string
	AuthToken   string
	PhoneNumber string
	BaseURL     string
	Timeout     time.Duration
}

type twilioSender struct {
	cfg    TwilioConfig
	client *http.Client
	cb     *gobreaker.CircuitBreaker
}

// NewTwilioSender sends through the Twilio Messages API.
func NewTwilioSender(cfg TwilioConfig) Sender {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.twilio.com"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "twilio-sms",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &twilioSender{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		cb:     cb,
	}
}

func (s *twilioSender) Send(ctx context.Context, phone, message string) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.post(ctx, phone, message)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("sms provider unavailable: %w", err)
	}
	return err
}

func (s *twilioSender) post(ctx context.Context, phone, message string) error {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json",
		strings.TrimRight(s.cfg.BaseURL, "/"), url.PathEscape(s.cfg.AccountSID))

	form := url.Values{}
	form.Set("To", phone)
	form.Set("From", s.cfg.PhoneNumber)
	form.Set("Body", message)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build sms request: %w", err)
	}
	req.SetBasicAuth(s.cfg.AccountSID, s.cfg.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sms provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
