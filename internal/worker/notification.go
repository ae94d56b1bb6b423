package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jevencare/api/internal/email"
	"github.com/jevencare/api/pkg/metrics"
)

type NotificationWorkerConfig struct {
	RetryAttempts int
	RetryDelay    time.Duration
	SendTimeout   time.Duration
}

// NotificationWorker drains the email queue filled by the notification service.
type NotificationWorker struct {
	queue   <-chan email.Message
	mailer  email.Service
	config  NotificationWorkerConfig
	metrics *metrics.Metrics
}

func NewNotificationWorker(queue <-chan email.Message, mailer email.Service, config NotificationWorkerConfig, m *metrics.Metrics) *NotificationWorker {
	if config.RetryAttempts <= 0 {
		config.RetryAttempts = 3
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = 2 * time.Second
	}
	if config.SendTimeout <= 0 {
		config.SendTimeout = 15 * time.Second
	}
	return &NotificationWorker{
		queue:   queue,
		mailer:  mailer,
		config:  config,
		metrics: m,
	}
}

// Start blocks until ctx is done or the queue is closed.
func (w *NotificationWorker) Start(ctx context.Context) {
	log.Info().Msg("starting notification worker")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("shutting down notification worker")
			return
		case msg, ok := <-w.queue:
			if !ok {
				return
			}
			w.deliver(ctx, msg)
		}
	}
}

func (w *NotificationWorker) deliver(ctx context.Context, msg email.Message) {
	var err error
	for attempt := 1; attempt <= w.config.RetryAttempts; attempt++ {
		sendCtx, cancel := context.WithTimeout(ctx, w.config.SendTimeout)
		err = w.mailer.Send(sendCtx, msg)
		cancel()
		if err == nil {
			w.metrics.NotificationsSent.WithLabelValues("sent").Inc()
			return
		}

		if attempt < w.config.RetryAttempts {
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.config.RetryDelay):
			}
		}
	}

	w.metrics.NotificationsSent.WithLabelValues("failed").Inc()
	log.Error().Err(err).Str("to", msg.To).Str("subject", msg.Subject).Msg("failed to send notification")
}
