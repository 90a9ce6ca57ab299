package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const orderLogFile = "orders.log"

// Consumer drains the order.placed queue and appends one line per order to
// <dir>/orders.log.
type Consumer struct {
	url string
	dir string
	log *zap.Logger
}

// NewConsumer builds a Consumer for the broker at url writing into dir.
func NewConsumer(url, dir string, log *zap.Logger) *Consumer {
	return &Consumer{url: url, dir: dir, log: log}
}

// Run keeps a consume loop alive until ctx is cancelled, redialing with
// exponential backoff (capped at 30s) whenever the broker goes away.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warn("order consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
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
		c.log.Warn("order consumer: loop ended, reconnecting", zap.Error(err))
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
		c.log.Warn("order consumer: set QoS failed", zap.Error(err))
	}
	if _, err := ch.QueueDeclare(OrderPlacedQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(OrderPlacedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.HandleMessage(d.Body); err != nil {
				c.log.Error("order consumer: handle message failed", zap.Error(err))
				_ = d.Nack(false, false) // drop, requeueing would spin on a poison message
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// HandleMessage decodes one event and appends it to the order log.
func (c *Consumer) HandleMessage(body []byte) error {
	var ev OrderPlacedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", c.dir, err)
	}
	f, err := os.OpenFile(filepath.Join(c.dir, orderLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(formatOrderLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

func formatOrderLine(ev OrderPlacedEvent) string {
	items := make([]string, 0, len(ev.Items))
	seats := 0
	for _, it := range ev.Items {
		items = append(items, fmt.Sprintf("%s x%d", it.Title, it.Quantity))
		seats += it.Quantity
	}
	return fmt.Sprintf("[%s] Order placed | order_id=%s | customer=%q | phone=%q | seats=%d | lessons=[%s]\n",
		ev.PlacedAt, ev.OrderID, ev.FullName, ev.PhoneNumber, seats, strings.Join(items, ", "))
}
