package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// RabbitPublisher publishes events to a durable queue over one long-lived
// channel, redialing when the connection drops.
type RabbitPublisher struct {
	url    string
	queue  string
	logger *zap.Logger

	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewRabbitPublisher dials url and declares queue.
func NewRabbitPublisher(url, queue string, logger *zap.Logger) (*RabbitPublisher, error) {
	p := &RabbitPublisher{url: url, queue: queue, logger: logger}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *RabbitPublisher) connect() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("rabbitmq channel open: %w", err)
	}
	if _, err := declareQueue(ch, p.queue); err != nil {
		ch.Close()
		conn.Close()
		return err
	}
	p.conn, p.channel = conn, ch
	return nil
}

// Publish sends event as a persistent JSON message.
func (p *RabbitPublisher) Publish(ctx context.Context, event PlanEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil || p.conn.IsClosed() {
		p.logger.Warn("RabbitMQ connection lost; reconnecting publisher")
		if err := p.connect(); err != nil {
			return err
		}
	}

	err = p.channel.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Type:         string(event.Type),
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("rabbitmq publish %s: %w", event.Type, err)
	}
	return nil
}

// Close closes the RabbitMQ channel and connection.
func (p *RabbitPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	if p.channel != nil {
		errs = append(errs, p.channel.Close())
	}
	if p.conn != nil && !p.conn.IsClosed() {
		errs = append(errs, p.conn.Close())
	}
	return errors.Join(errs...)
}

func declareQueue(ch *amqp.Channel, name string) (amqp.Queue, error) {
	q, err := ch.QueueDeclare(
		name,  // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return q, fmt.Errorf("queue declare %s: %w", name, err)
	}
	return q, nil
}

// Handler processes one decoded event. Returning an error rejects the message
// without requeueing it.
type Handler func(ctx context.Context, event PlanEvent) error

// Consume reads queue until ctx is cancelled, redialing with exponential
// backoff whenever the broker connection is lost.
func Consume(ctx context.Context, url, queue string, handler Handler, logger *zap.Logger) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			logger.Warn("Event consumer failed to dial broker", zap.Error(err), zap.Duration("retry_in", backoff))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, queue, handler, logger)
		conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn("Event consume loop ended; reconnecting", zap.Error(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, queue string, handler Handler, logger *zap.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer ch.Close()

	if err := ch.Qos(20, 0, false); err != nil {
		logger.Warn("Event consumer failed to set QoS", zap.Error(err))
	}
	if _, err := declareQueue(ch, queue); err != nil {
		return err
	}

	deliveries, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	logger.Info("Waiting for plan events", zap.String("queue", queue))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := HandleDelivery(ctx, d.Body, handler); err != nil {
				logger.Error("Failed to handle plan event", zap.Error(err), zap.ByteString("body", d.Body))
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// HandleDelivery decodes body and passes it to handler.
func HandleDelivery(ctx context.Context, body []byte, handler Handler) error {
	var event PlanEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("unmarshal event: %w", err)
	}
	if event.Type == "" || event.UserID == "" {
		return fmt.Errorf("event is missing type or userId")
	}
	return handler(ctx, event)
}
