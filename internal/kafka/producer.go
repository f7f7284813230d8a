package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/securizon/kbapi/internal/config"
)

// Producer defines the interface for Kafka message production
type Producer interface {
	Send(ctx context.Context, key []byte, value []byte) error
	Ping(ctx context.Context) error
	Close() error
}

// dialTimeout bounds a single broker dial in Ping.
const dialTimeout = 2 * time.Second

// kafkaProducer implements the Producer interface
type kafkaProducer struct {
	writer  *kafka.Writer
	brokers []string
	dialer  *kafka.Dialer
	mu      sync.Mutex
	closed  bool
}

// NewProducer creates an asynchronous producer for cfg.Topic. Delivery
// failures are logged; Send only reports local errors.
func NewProducer(cfg config.KafkaConfig, logger *slog.Logger) (Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrInvalidBrokers
	}
	if cfg.Topic == "" {
		return nil, ErrInvalidTopic
	}
	if logger == nil {
		logger = slog.Default()
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: cfg.BatchTimeout,
		Compression:  kafka.Gzip,
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		Transport:    &kafka.Transport{ClientID: cfg.ClientID},
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Warn("kafka delivery failed", "topic", cfg.Topic, "messages", len(messages), "error", err)
			}
		},
	}

	return &kafkaProducer{
		writer:  writer,
		brokers: cfg.Brokers,
		dialer:  &kafka.Dialer{ClientID: cfg.ClientID, Timeout: dialTimeout},
	}, nil
}

// Send queues a message for the configured topic
func (p *kafkaProducer) Send(ctx context.Context, key []byte, value []byte) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrProducerClosed
	}
	p.mu.Unlock()

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   key,
		Value: value,
	})
}

// Ping dials the first reachable broker.
func (p *kafkaProducer) Ping(ctx context.Context) error {
	var lastErr error
	for _, broker := range p.brokers {
		conn, err := p.dialer.DialContext(ctx, "tcp", broker)
		if err != nil {
			lastErr = err
			continue
		}
		return conn.Close()
	}
	return fmt.Errorf("no broker reachable: %w", lastErr)
}

// Close flushes pending messages and closes the producer
func (p *kafkaProducer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}

	p.closed = true
	return p.writer.Close()
}

