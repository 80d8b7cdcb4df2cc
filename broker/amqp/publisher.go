// Package amqp implements broker.Publisher over RabbitMQ. It is
// supporting infrastructure for deployments that use AMQP as the job
// transport; the conveyor core only sees the broker.Publisher
// interface.
package amqp

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/xraph/conveyor/broker"
	"github.com/xraph/conveyor/id"
)

// Config holds AMQP connection and exchange configuration.
type Config struct {
	// URL is the amqp:// connection string.
	URL string

	// Exchange is the exchange outbound messages are published to.
	// Empty publishes to the default exchange.
	Exchange string

	// ExchangeType defaults to "topic".
	ExchangeType string

	// Durable marks the declared exchange durable.
	Durable bool

	// Heartbeat is the connection heartbeat interval.
	Heartbeat time.Duration

	// ConnectAttempts is how many times to retry the initial dial.
	ConnectAttempts int

	// ConnectInterval is the delay between dial attempts.
	ConnectInterval time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig(url string) Config {
	return Config{
		URL:             url,
		ExchangeType:    "topic",
		Durable:         true,
		Heartbeat:       10 * time.Second,
		ConnectAttempts: 3,
		ConnectInterval: 2 * time.Second,
	}
}

// Publisher publishes job messages to a RabbitMQ exchange. Message
// properties travel as AMQP headers; the partition key is appended to
// the routing key so topic exchanges can fan out by partition.
type Publisher struct {
	cfg    Config
	conn   *amqp.Connection
	logger *slog.Logger

	mu sync.Mutex
	ch *amqp.Channel
}

// NewPublisher dials RabbitMQ, declares the exchange, and returns a
// ready Publisher.
func NewPublisher(cfg Config, logger *slog.Logger) (*Publisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ExchangeType == "" {
		cfg.ExchangeType = "topic"
	}
	if cfg.ConnectAttempts <= 0 {
		cfg.ConnectAttempts = 1
	}

	p := &Publisher{cfg: cfg, logger: logger}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

// connect dials with retry and sets up the channel and exchange.
func (p *Publisher) connect() error {
	var err error

	amqpConfig := amqp.Config{
		Heartbeat: p.cfg.Heartbeat,
		Locale:    "en_US",
	}

	for attempt := 1; attempt <= p.cfg.ConnectAttempts; attempt++ {
		p.conn, err = amqp.DialConfig(p.cfg.URL, amqpConfig)
		if err == nil {
			break
		}
		p.logger.Error("failed to connect to RabbitMQ",
			slog.Any("error", err),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", p.cfg.ConnectAttempts),
		)
		if attempt < p.cfg.ConnectAttempts {
			time.Sleep(p.cfg.ConnectInterval)
		}
	}
	if err != nil {
		return fmt.Errorf("amqp: connect after %d attempts: %w", p.cfg.ConnectAttempts, err)
	}

	p.ch, err = p.conn.Channel()
	if err != nil {
		p.conn.Close()
		return fmt.Errorf("amqp: open channel: %w", err)
	}

	if p.cfg.Exchange != "" {
		if err := p.ch.ExchangeDeclare(
			p.cfg.Exchange,
			p.cfg.ExchangeType,
			p.cfg.Durable,
			false, // autoDelete
			false, // internal
			false, // noWait
			nil,
		); err != nil {
			p.ch.Close()
			p.conn.Close()
			return fmt.Errorf("amqp: declare exchange %q: %w", p.cfg.Exchange, err)
		}
	}

	return nil
}

// Publish implements broker.Publisher.
func (p *Publisher) Publish(ctx context.Context, cluster, topic string, payload []byte, opts broker.PublishOptions) (*broker.Receipt, error) {
	headers := amqp.Table{}
	for k, v := range opts.Properties {
		headers[k] = v
	}
	if opts.OrderingKey != "" {
		headers["ordering_key"] = opts.OrderingKey
	}
	if !opts.DeliverAt.IsZero() {
		headers["deliver_at"] = opts.DeliverAt.UnixMilli()
	}
	for k, v := range opts.Extra {
		headers[k] = v
	}

	routingKey := topic
	if opts.PartitionKey != "" {
		routingKey = topic + "." + opts.PartitionKey
	}

	msgID := id.New(id.PrefixMessage)
	now := time.Now()

	pub := amqp.Publishing{
		ContentType: "application/json",
		MessageId:   msgID.String(),
		AppId:       cluster,
		Timestamp:   now,
		Headers:     headers,
		Body:        payload,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ch.PublishWithContext(ctx, p.cfg.Exchange, routingKey, false, false, pub); err != nil {
		return nil, fmt.Errorf("amqp: publish to %q: %w", topic, err)
	}

	return &broker.Receipt{
		MessageID:   msgID.String(),
		Topic:       topic,
		PublishTime: now,
	}, nil
}

// Close shuts down the channel and connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch != nil {
		if err := p.ch.Close(); err != nil {
			p.logger.Warn("failed to close channel", slog.Any("error", err))
		}
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
