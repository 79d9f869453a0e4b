// Package queue carries deferred reservation tasks over RabbitMQ.  Tasks
// are published to a delayed-message exchange (rabbitmq_delayed_message_exchange
// plugin) which holds each message until its run time and then routes it
// to a durable work queue.
package queue

import (
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/restaurant-table-reservation/internal/booking"
)

const (
	TaskExchange   = "reservation.tasks.delayed"
	TaskQueue      = "reservation.tasks"
	TaskRoutingKey = "reservation.task"
)

// TaskMessage is the JSON body of a task message.
type TaskMessage struct {
	ID            string    `json:"id"`
	Kind          string    `json:"kind"`
	ReservationID uint64    `json:"reservation_id"`
	StartsAt      time.Time `json:"starts_at"`
	RunAt         time.Time `json:"run_at"`
}

func messageFromTask(id string, t booking.Task) TaskMessage {
	return TaskMessage{
		ID:            id,
		Kind:          string(t.Kind),
		ReservationID: t.ReservationID,
		StartsAt:      t.StartsAt,
		RunAt:         t.RunAt,
	}
}

// Task converts the message back to a booking task.  The message ID is
// the handle Schedule returned.
func (m TaskMessage) Task() booking.Task {
	return booking.Task{
		Kind:          booking.TaskKind(m.Kind),
		ReservationID: m.ReservationID,
		StartsAt:      m.StartsAt,
		RunAt:         m.RunAt,
		Handle:        m.ID,
	}
}

// declareTopology declares the delayed exchange, the work queue and the
// binding between them.  All three are durable and idempotent.
func declareTopology(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(TaskExchange, "x-delayed-message", true, false, false, false,
		amqp.Table{"x-delayed-type": "direct"}); err != nil {
		return fmt.Errorf("exchange declare: %w", err)
	}
	if _, err := ch.QueueDeclare(TaskQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	if err := ch.QueueBind(TaskQueue, TaskRoutingKey, TaskExchange, false, nil); err != nil {
		return fmt.Errorf("queue bind: %w", err)
	}
	return nil
}
