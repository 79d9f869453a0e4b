package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/restaurant-table-reservation/internal/booking"
)

// Scheduler implements booking.Scheduler on RabbitMQ.  Tasks survive
// server restarts because they live in the broker.
type Scheduler struct {
	url string
	now func() time.Time
}

func NewScheduler(url string) *Scheduler {
	return &Scheduler{url: url, now: time.Now}
}

// delayMillis is the x-delay header value for a task, never negative.
func delayMillis(runAt, now time.Time) int64 {
	d := runAt.Sub(now).Milliseconds()
	if d < 0 {
		return 0
	}
	return d
}

// Schedule publishes t as a persistent delayed message and returns the
// message ID as the handle.  A connection is opened per publish; task
// volume is a few messages per reservation.
func (s *Scheduler) Schedule(ctx context.Context, t booking.Task) (string, error) {
	conn, err := amqp.Dial(s.url)
	if err != nil {
		return "", err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return "", err
	}
	defer func() { _ = ch.Close() }()

	if err := declareTopology(ch); err != nil {
		return "", err
	}

	id := uuid.NewString()
	body, err := json.Marshal(messageFromTask(id, t))
	if err != nil {
		return "", err
	}
	now := s.now()
	err = ch.PublishWithContext(ctx, TaskExchange, TaskRoutingKey, false, false, amqp.Publishing{
		Headers:      amqp.Table{"x-delay": delayMillis(t.RunAt, now)},
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    id,
		Type:         string(t.Kind),
		Timestamp:    now.UTC(),
		Body:         body,
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// Cancel is a no-op: a delayed message cannot be withdrawn from the
// exchange.  When it fires, the task re-checks the reservation and does
// nothing if it was confirmed, cancelled, moved or given new tasks.
func (s *Scheduler) Cancel(context.Context, string) error { return nil }
