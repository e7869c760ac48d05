package event

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// StreamPublisher is the transport the batch logger ships events through.
// Publish may complete before the broker has the message; AwaitDelivery
// blocks until every message published since the last call is fully
// delivered, surfacing any failure to the caller.
type StreamPublisher interface {
	EnsureStream() error
	Publish(ctx context.Context, body []byte) error
	AwaitDelivery(ctx context.Context) error
	Close() error
}

// AuditPublisher ships audit events to a single durable RabbitMQ queue using
// publisher confirms for the delivery guarantee.
type AuditPublisher struct {
	conn    *RabbitMQConnection
	queue   string
	pending []*amqp.DeferredConfirmation
}

func NewAuditPublisher(conn *RabbitMQConnection, queue string) (*AuditPublisher, error) {
	if err := conn.Channel.Confirm(false); err != nil {
		return nil, fmt.Errorf("failed to put channel in confirm mode: %w", err)
	}
	return &AuditPublisher{
		conn:  conn,
		queue: queue,
	}, nil
}

// EnsureStream declares the audit queue. QueueDeclare is idempotent, so
// racing with another service instance declaring the same queue is fine.
func (p *AuditPublisher) EnsureStream() error {
	_, err := p.conn.Channel.QueueDeclare(
		p.queue, // queue name
		true,    // durable
		false,   // delete when unused
		false,   // exclusive
		false,   // no-wait
		nil,     // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", p.queue, err)
	}
	return nil
}

func (p *AuditPublisher) Publish(ctx context.Context, body []byte) error {
	confirmation, err := p.conn.Channel.PublishWithDeferredConfirmWithContext(
		ctx,
		"",      // exchange
		p.queue, // routing key (queue name)
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish audit event: %w", err)
	}
	p.pending = append(p.pending, confirmation)
	return nil
}

// AwaitDelivery waits for the broker to confirm every outstanding publish.
func (p *AuditPublisher) AwaitDelivery(ctx context.Context) error {
	pending := p.pending
	p.pending = nil
	for _, confirmation := range pending {
		acked, err := confirmation.WaitContext(ctx)
		if err != nil {
			return fmt.Errorf("failed to confirm audit event delivery: %w", err)
		}
		if !acked {
			return fmt.Errorf("audit event rejected by broker")
		}
	}
	return nil
}

func (p *AuditPublisher) Close() error {
	return p.conn.Close()
}
