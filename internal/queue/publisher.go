package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// ErrPublishBacklogFull is returned when events arrive faster than the
// broker takes them, or while it is unreachable for long enough to fill the
// backlog.
var ErrPublishBacklogFull = errors.New("order event backlog full")

const publishBacklog = 256

// Publisher sends order events to RabbitMQ over one long-lived connection.
// PublishOrderPlaced only enqueues; Run does the delivery, so an order
// never waits on the broker.
type Publisher struct {
	url     string
	log     *zap.Logger
	backlog chan OrderPlacedEvent
}

// NewPublisher returns a Publisher for the broker at url.  Nothing is sent
// until Run is started.
func NewPublisher(url string, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{url: url, log: log, backlog: make(chan OrderPlacedEvent, publishBacklog)}
}

// PublishOrderPlaced queues ev for delivery to the order.placed queue.
func (p *Publisher) PublishOrderPlaced(_ context.Context, ev OrderPlacedEvent) error {
	select {
	case p.backlog <- ev:
		return nil
	default:
		return ErrPublishBacklogFull
	}
}

// Run delivers queued events until ctx is cancelled, redialing with
// exponential backoff (capped at 30s) whenever the broker goes away.
func (p *Publisher) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		err := p.deliver(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.log.Warn("order publisher: disconnected", zap.Error(err), zap.Duration("retry_in", backoff))
		if !sleep(ctx, backoff) {
			return ctx.Err()
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func (p *Publisher) deliver(ctx context.Context) error {
	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(5 * time.Second)})
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		OrderPlacedQueue, // name
		true,             // durable
		false,            // autoDelete
		false,            // exclusive
		false,            // noWait
		nil,              // args
	); err != nil {
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}
	closed := conn.NotifyClose(make(chan *amqp.Error, 1))
	p.log.Info("order publisher: connected")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case aerr := <-closed:
			return fmt.Errorf("connection closed: %v", aerr)
		case ev := <-p.backlog:
			if err := publish(ctx, ch, ev); err != nil {
				p.retry(ev)
				return err
			}
		}
	}
}

// retry puts an undelivered event back for the next connection.
func (p *Publisher) retry(ev OrderPlacedEvent) {
	select {
	case p.backlog <- ev:
	default:
		p.log.Error("order publisher: dropping event", zap.String("order_id", ev.OrderID))
	}
}

func publish(ctx context.Context, ch *amqp.Channel, ev OrderPlacedEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", OrderPlacedQueue, false, false, pub); err != nil {
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	return nil
}
