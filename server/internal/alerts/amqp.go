package alerts

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/reliabilitypro/reliabilitypro/server/internal/config"
)

// amqpPublisher keeps one broker connection per target, dialled lazily and
// re-dialled after any publish failure.
type amqpPublisher struct {
	cfg config.WebhookConfig

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func newAMQPPublisher(cfg config.WebhookConfig) *amqpPublisher {
	return &amqpPublisher{cfg: cfg}
}

func (p *amqpPublisher) publish(ctx context.Context, id string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.connect(); err != nil {
		return err
	}
	err := p.ch.PublishWithContext(ctx,
		p.cfg.Exchange,
		p.cfg.RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    id,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		p.reset()
		return fmt.Errorf("amqp publish: %w", err)
	}
	return nil
}

// connect must be called with p.mu held.
func (p *amqpPublisher) connect() error {
	if p.conn != nil && !p.conn.IsClosed() && p.ch != nil {
		return nil
	}
	p.reset()
	url := p.cfg.URL()
	if url == "" {
		return fmt.Errorf("amqp: %s is not set", p.cfg.URLEnv)
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("amqp channel: %w", err)
	}
	p.conn, p.ch = conn, ch
	return nil
}

// reset must be called with p.mu held.
func (p *amqpPublisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
}

func (p *amqpPublisher) close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
}
