// AngelaMos | 2026
// rabbitmq.go

package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/carterperez-dev/identity-service/internal/config"
)

const publishTimeout = 5 * time.Second

type channel interface {
	QueueDeclare(
		name string,
		durable, autoDelete, exclusive, noWait bool,
		args amqp.Table,
	) (amqp.Queue, error)
	PublishWithContext(
		ctx context.Context,
		exchange, key string,
		mandatory, immediate bool,
		msg amqp.Publishing,
	) error
	Close() error
}

type dialFunc func(url string) (channel, func() error, error)

// RabbitPublisher publishes persistent JSON messages to durable queues on
// the default exchange. A broken channel is re-dialed on the next publish.
type RabbitPublisher struct {
	url    string
	dial   dialFunc
	logger *slog.Logger

	mu        sync.Mutex
	ch        channel
	closeConn func() error
}

// New returns a no-op publisher when events are disabled.
func New(cfg config.EventsConfig, logger *slog.Logger) (Publisher, func() error, error) {
	if !cfg.Enabled {
		return Nop{}, func() error { return nil }, nil
	}

	p, err := NewRabbitPublisher(cfg.URL, logger)
	if err != nil {
		return nil, nil, err
	}
	return p, p.Close, nil
}

func NewRabbitPublisher(url string, logger *slog.Logger) (*RabbitPublisher, error) {
	return newRabbitPublisher(url, dialAMQP, logger)
}

func newRabbitPublisher(url string, dial dialFunc, logger *slog.Logger) (*RabbitPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	p := &RabbitPublisher{url: url, dial: dial, logger: logger}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.connectLocked(); err != nil {
		return nil, err
	}
	return p, nil
}

func dialAMQP(url string) (channel, func() error, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	return ch, conn.Close, nil
}

func (p *RabbitPublisher) connectLocked() error {
	ch, closeConn, err := p.dial(p.url)
	if err != nil {
		return err
	}

	for _, q := range Queues {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			_ = ch.Close()
			_ = closeConn()
			return fmt.Errorf("declare queue %s: %w", q, err)
		}
	}

	p.ch = ch
	p.closeConn = closeConn
	return nil
}

func (p *RabbitPublisher) resetLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.closeConn != nil {
		_ = p.closeConn()
	}
	p.ch = nil
	p.closeConn = nil
}

func (p *RabbitPublisher) Publish(ctx context.Context, queue string, event any) {
	if err := p.publish(ctx, queue, event); err != nil {
		p.logger.WarnContext(ctx, "event publish failed",
			"queue", queue,
			"error", err,
		)
	}
}

func (p *RabbitPublisher) publish(ctx context.Context, queue string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil {
		if err := p.connectLocked(); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = p.ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		p.resetLocked()
		return fmt.Errorf("publish to %s: %w", queue, err)
	}
	return nil
}

func (p *RabbitPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetLocked()
	return nil
}
