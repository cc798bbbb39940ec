package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultExchange is the fanout exchange events are published to.
const DefaultExchange = "estatedesk.events"

// AMQP publishes events to a RabbitMQ fanout exchange so that every replica
// can relay them to its own listeners.
type AMQP struct {
	conn     *amqp.Connection
	mu       sync.Mutex // guards ch; channels are not safe for concurrent publishing
	ch       *amqp.Channel
	exchange string
}

// DialAMQP connects to url and declares the exchange.
func DialAMQP(url, exchange string) (*AMQP, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dialing amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("opening amqp channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange,
		amqp.ExchangeFanout,
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declaring exchange %q: %w", exchange, err)
	}

	return &AMQP{conn: conn, ch: ch, exchange: exchange}, nil
}

// Publish sends e to the exchange.
func (a *AMQP) Publish(ctx context.Context, e Event) error {
	msg, err := Publishing(e)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.ch.PublishWithContext(ctx, a.exchange, "", false, false, msg); err != nil {
		return fmt.Errorf("publishing %s: %w", e.Type, err)
	}
	return nil
}

// Publishing builds the AMQP message for e.
func Publishing(e Event) (amqp.Publishing, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("encoding %s: %w", e.Type, err)
	}
	return amqp.Publishing{
		ContentType: "application/json",
		Type:        e.Type,
		Timestamp:   time.Now().UTC(),
		Body:        body,
	}, nil
}

// Relay binds a private queue to the exchange and forwards every message
// to dst until ctx is cancelled or the connection drops.
func (a *AMQP) Relay(ctx context.Context, dst Publisher) error {
	ch, err := a.conn.Channel()
	if err != nil {
		return fmt.Errorf("opening relay channel: %w", err)
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(
		"",    // server-named
		false, // durable
		true,  // auto-delete
		true,  // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declaring relay queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, "", a.exchange, false, nil); err != nil {
		return fmt.Errorf("binding relay queue: %w", err)
	}

	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("consuming relay queue: %w", err)
	}

	slog.Info("relaying events", "exchange", a.exchange, "queue", q.Name)
	return relay(ctx, deliveries, dst)
}

func relay(ctx context.Context, deliveries <-chan amqp.Delivery, dst Publisher) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("relay: delivery channel closed")
			}
			e, err := DecodeEvent(d.Body)
			if err != nil {
				slog.Warn("skipping malformed event", "error", err)
				continue
			}
			if err := dst.Publish(ctx, e); err != nil {
				if errors.Is(err, ErrHubClosed) {
					return nil
				}
				slog.Warn("relaying event", "event", e.Type, "error", err)
			}
		}
	}
}

// Close closes the publishing channel and the connection.
func (a *AMQP) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	err := a.ch.Close()
	if cerr := a.conn.Close(); err == nil {
		err = cerr
	}
	return err
}
