package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/jevencare/api/internal/email"
	"github.com/jevencare/api/pkg/metrics"
)

type flakyMailer struct {
	mu       sync.Mutex
	failures int
	sent     []email.Message
}

func (m *flakyMailer) Send(_ context.Context, msg email.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures > 0 {
		m.failures--
		return errors.New("smtp unavailable")
	}
	m.sent = append(m.sent, msg)
	return nil
}

func TestNotificationWorkerRetries(t *testing.T) {
	queue := make(chan email.Message, 2)
	mailer := &flakyMailer{failures: 1}
	m := metrics.New("test")
	w := NewNotificationWorker(queue, mailer, NotificationWorkerConfig{RetryAttempts: 2, RetryDelay: time.Millisecond}, m)

	queue <- email.Message{To: "a@example.com", Subject: "hi"}
	close(queue)
	w.Start(context.Background())

	assert.Len(t, mailer.sent, 1)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.NotificationsSent.WithLabelValues("sent")))
}

func TestNotificationWorkerGivesUp(t *testing.T) {
	queue := make(chan email.Message, 1)
	mailer := &flakyMailer{failures: 5}
	m := metrics.New("test")
	w := NewNotificationWorker(queue, mailer, NotificationWorkerConfig{RetryAttempts: 2, RetryDelay: time.Millisecond}, m)

	queue <- email.Message{To: "a@example.com"}
	close(queue)
	w.Start(context.Background())

	assert.Empty(t, mailer.sent)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.NotificationsSent.WithLabelValues("failed")))
}
