package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
	"tradepost/pkg/events"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const processTimeout = 30 * time.Second

// EventHandler processes one decoded event.
type EventHandler func(ctx context.Context, event *events.Event) error

type Consumer struct {
	conn        *amqp.Connection
	channel     *amqp.Channel
	queueName   string
	serviceName string
	workers     int
}

// ConsumerConfig holds configuration for setting up a consumer
type ConsumerConfig struct {
	Exchange       string   // e.g., "tradepost.ledger"
	QueueName      string   // e.g., "receipts.transaction.committed.v1"
	RoutingKeys    []string // e.g., ["transaction.committed.v1"]
	ServiceName    string   // consumer tag
	PrefetchCount  int      // 0 = 10
	WorkerPoolSize int      // concurrent handlers, 0 = 1
}

func NewConsumer(url string, config ConsumerConfig) (*Consumer, error) {
	conn, err := dial(url)
	if err != nil {
		return nil, err
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := setupTopology(channel, config); err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}

	zap.L().Info("RabbitMQ consumer created successfully",
		zap.String("queue", config.QueueName),
		zap.String("exchange", config.Exchange),
		zap.Strings("routingKeys", config.RoutingKeys),
		zap.Int("workers", workerCount(config.WorkerPoolSize)),
	)

	return &Consumer{
		conn:        conn,
		channel:     channel,
		queueName:   config.QueueName,
		serviceName: config.ServiceName,
		workers:     workerCount(config.WorkerPoolSize),
	}, nil
}

// setupTopology declares the exchange, its dead letter exchange, the queue,
// its dead letter queue and all bindings.
func setupTopology(channel *amqp.Channel, config ConsumerConfig) error {
	prefetchCount := config.PrefetchCount
	if prefetchCount == 0 {
		prefetchCount = 10
	}
	if err := channel.Qos(prefetchCount, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	if err := declareTopicExchange(channel, config.Exchange); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	dlxName := config.Exchange + ".dlx"
	if err := declareTopicExchange(channel, dlxName); err != nil {
		return fmt.Errorf("failed to declare DLX: %w", err)
	}

	queue, err := channel.QueueDeclare(
		config.QueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		amqp.Table{"x-dead-letter-exchange": dlxName},
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	dlqName := config.QueueName + ".dlq"
	if _, err := channel.QueueDeclare(dlqName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare DLQ: %w", err)
	}

	for _, routingKey := range config.RoutingKeys {
		if err := channel.QueueBind(dlqName, routingKey, dlxName, false, nil); err != nil {
			return fmt.Errorf("failed to bind DLQ: %w", err)
		}
		if err := channel.QueueBind(queue.Name, routingKey, config.Exchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind queue: %w", err)
		}
	}

	return nil
}

func workerCount(size int) int {
	if size <= 0 {
		return 1
	}
	return size
}

// Consume dispatches deliveries to at most c.workers concurrent handlers
// until ctx is cancelled or the delivery channel closes. In-flight handlers
// are awaited before returning.
func (c *Consumer) Consume(ctx context.Context, handler EventHandler) error {
	msgs, err := c.channel.Consume(
		c.queueName,
		c.serviceName, // consumer tag
		false,         // auto-ack
		false,         // exclusive
		false,         // no-local
		false,         // no-wait
		nil,           // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	zap.L().Info("Started consuming messages", zap.String("queue", c.queueName))

	var wg sync.WaitGroup
	defer wg.Wait()

	slots := make(chan struct{}, c.workers)

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("Consumer context cancelled, stopping...")
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				zap.L().Warn("Message channel closed")
				return fmt.Errorf("message channel closed")
			}

			slots <- struct{}{}
			wg.Add(1)
			go func(msg amqp.Delivery) {
				defer func() {
					<-slots
					wg.Done()
				}()
				c.handleMessage(ctx, msg, handler)
			}(msg)
		}
	}
}

// Outcome of processing one delivery.
type disposition int

const (
	ack disposition = iota
	requeue
	deadLetter
)

// dispose decides what happens to a delivery after the handler ran. Failed
// deliveries get one redelivery; malformed payloads never do.
func dispose(err error, redelivered bool) disposition {
	switch {
	case err == nil:
		return ack
	case errors.Is(err, events.ErrMalformedPayload):
		return deadLetter
	case redelivered:
		return deadLetter
	default:
		return requeue
	}
}

func (c *Consumer) handleMessage(ctx context.Context, msg amqp.Delivery, handler EventHandler) {
	traceID := headerString(msg.Headers, traceIDHeader)

	zap.L().Info("Received message",
		zap.String("queue", c.queueName),
		zap.String("routingKey", msg.RoutingKey),
		zap.String("traceId", traceID),
		zap.String("correlationId", headerString(msg.Headers, correlationIDHeader)),
		zap.String("sourceService", headerString(msg.Headers, serviceHeader)),
		zap.Bool("redelivered", msg.Redelivered),
	)

	var event events.Event
	err := json.Unmarshal(msg.Body, &event)
	if err != nil {
		err = fmt.Errorf("%w: %w", events.ErrMalformedPayload, err)
	} else {
		if event.TerminalID == "" {
			event.TerminalID = headerString(msg.Headers, terminalIDHeader)
		}

		processCtx, cancel := context.WithTimeout(ctx, processTimeout)
		err = handler(processCtx, &event)
		cancel()
	}

	switch dispose(err, msg.Redelivered) {
	case ack:
		if ackErr := msg.Ack(false); ackErr != nil {
			zap.L().Error("Failed to acknowledge message", zap.Error(ackErr), zap.String("traceId", traceID))
			return
		}
		zap.L().Info("Successfully processed event",
			zap.String("event", event.Event),
			zap.String("traceId", traceID),
		)
	case requeue:
		zap.L().Warn("Failed to process event, requeueing",
			zap.Error(err),
			zap.String("event", event.Event),
			zap.String("traceId", traceID),
		)
		_ = msg.Nack(false, true)
	case deadLetter:
		zap.L().Error("Failed to process event, dead lettering",
			zap.Error(err),
			zap.String("event", event.Event),
			zap.String("traceId", traceID),
		)
		_ = msg.Nack(false, false)
	}
}

func (c *Consumer) Close() error {
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			zap.L().Error("Failed to close channel", zap.Error(err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			zap.L().Error("Failed to close connection", zap.Error(err))
			return err
		}
	}
	zap.L().Info("RabbitMQ consumer closed")
	return nil
}
