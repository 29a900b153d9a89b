// Package queue_publisher provides functions to publish domain events to RabbitMQ.
// Errors are logged and returned to allow callers to ignore failures without
// interrupting the main request flow.
package queue_publisher

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	q "github.com/joshuacenter/applicant-intake/internal/queue"
)

// DefaultDialTimeout bounds the TCP connect and AMQP handshake.  Publishing
// happens after the HTTP transaction committed, so an unreachable broker
// must not hold the response.
const DefaultDialTimeout = 2 * time.Second

// Publisher dials the broker per event.  Submissions are infrequent, so a
// pooled connection would only add reconnect handling.
type Publisher struct {
	URL         string
	DialTimeout time.Duration
	Logger      *slog.Logger
}

// New returns a Publisher for the broker at url.
func New(url string, logger *slog.Logger) *Publisher {
	return &Publisher{URL: url, DialTimeout: DefaultDialTimeout, Logger: logger}
}

// dialTimeout is the configured timeout, shortened to ctx's deadline.
func (p *Publisher) dialTimeout(ctx context.Context) time.Duration {
	d := p.DialTimeout
	if d <= 0 {
		d = DefaultDialTimeout
	}
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < d {
			d = left
		}
	}
	return d
}

// PublishApplicationSubmitted publishes to the "applicant.submitted" queue.
func (p *Publisher) PublishApplicationSubmitted(ctx context.Context, event q.ApplicationSubmittedEvent) error {
	return p.publish(ctx, q.ApplicantSubmittedQueue, event)
}

// PublishStatusChanged publishes to the "applicant.status_changed" queue.
func (p *Publisher) PublishStatusChanged(ctx context.Context, event q.ApplicantStatusChangedEvent) error {
	return p.publish(ctx, q.ApplicantStatusChangedQueue, event)
}

// publish never panics; any error is logged and returned so the caller can
// choose to ignore it.  Messages are marked as persistent.
func (p *Publisher) publish(ctx context.Context, queue string, event any) error {
	log := p.Logger.With("queue", queue)

	body, err := json.Marshal(event)
	if err != nil {
		log.Error("rabbitmq: marshal event failed", "err", err)
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	conn, err := amqp.DialConfig(p.URL, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(p.dialTimeout(ctx)),
	})
	if err != nil {
		log.Warn("rabbitmq: dial failed", "err", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Warn("rabbitmq: channel open failed", "err", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		log.Warn("rabbitmq: queue declare failed", "err", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue, false, false, pub); err != nil {
		log.Warn("rabbitmq: publish failed", "err", err)
		return err
	}
	return nil
}
