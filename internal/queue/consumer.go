package queue

// consumer.go listens to the applicant queues and appends one line per
// event to <dir>/intake.log.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const intakeLogFile = "intake.log"

// Consumer appends applicant events to an audit log file.
type Consumer struct {
	URL    string
	LogDir string
	Logger *slog.Logger
}

// Run connects to RabbitMQ, declares both applicant queues (durable) and
// consumes them until ctx is cancelled.  Lost connections are retried with
// exponential backoff capped at 30s, so a broker outage never stops the
// HTTP server.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.Logger.Warn("intake consumer: dial failed", "err", err, "retry_in", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.Logger.Warn("intake consumer: consume loop ended, reconnecting", "err", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.Logger.Warn("intake consumer: set QoS failed", "err", err)
	}

	submitted, err := c.subscribe(ch, ApplicantSubmittedQueue)
	if err != nil {
		return err
	}
	changed, err := c.subscribe(ch, ApplicantStatusChangedQueue)
	if err != nil {
		return err
	}

	for {
		var (
			d  amqp.Delivery
			ok bool
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok = <-submitted:
		case d, ok = <-changed:
		}
		if !ok {
			return errors.New("deliveries channel closed")
		}
		if err := c.handle(d.RoutingKey, d.Body); err != nil {
			c.Logger.Error("intake consumer: handle message failed", "queue", d.RoutingKey, "err", err)
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
}

func (c *Consumer) subscribe(ch *amqp.Channel, queue string) (<-chan amqp.Delivery, error) {
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("queue declare %s: %w", queue, err)
	}
	msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("queue consume %s: %w", queue, err)
	}
	return msgs, nil
}

func (c *Consumer) handle(queue string, body []byte) error {
	line, err := FormatEvent(queue, body)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(c.LogDir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", c.LogDir, err)
	}
	f, err := os.OpenFile(filepath.Join(c.LogDir, intakeLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatEvent renders one event body as a single log line ending in a
// newline.
func FormatEvent(queue string, body []byte) (string, error) {
	switch queue {
	case ApplicantSubmittedQueue:
		var ev ApplicationSubmittedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal: %w", err)
		}
		locs := make([]string, len(ev.LocationIDs))
		for i, id := range ev.LocationIDs {
			locs[i] = fmt.Sprint(id)
		}
		return fmt.Sprintf("[%s] Application submitted | applicant_id=%d | email=%q | name=%q | references=%d | locations=[%s]\n",
			ev.SubmittedAt, ev.ApplicantID, ev.Email, ev.Name, ev.ReferenceCount, strings.Join(locs, ",")), nil

	case ApplicantStatusChangedQueue:
		var ev ApplicantStatusChangedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal: %w", err)
		}
		assignee := "none"
		if ev.AssignedEmployeeID != nil {
			assignee = fmt.Sprint(*ev.AssignedEmployeeID)
		}
		return fmt.Sprintf("[%s] Status changed | applicant_id=%d | status=%q | assigned_employee_id=%s\n",
			ev.ChangedAt, ev.ApplicantID, ev.Status, assignee), nil
	}
	return "", fmt.Errorf("unknown queue %q", queue)
}
