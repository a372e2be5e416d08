// Package rabbitmq publishes and consumes domain events over a topic exchange.
package rabbitmq

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/streadway/amqp"
)

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	// amqp channels are not safe for concurrent publishing.
	mu sync.Mutex
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL      string
	Exchange string
}

// NewClient connects to RabbitMQ, opens a channel and declares the durable topic exchange.
func NewClient(cfg Config) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		cfg.Exchange, // name
		"topic",      // kind
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", cfg.Exchange, err)
	}

	slog.Info("rabbitmq connected", slog.String("exchange", cfg.Exchange))

	return &Client{
		conn:    conn,
		channel: ch,
	}, nil
}

// Close closes the RabbitMQ channel and connection.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Publish sends a persistent JSON message to exchange with routingKey.
func (c *Client) Publish(exchange, routingKey string, body []byte) error {
	if c.channel == nil {
		return errors.New("rabbitmq channel is not available")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	err := c.channel.Publish(
		exchange,   // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", routingKey, err)
	}
	return nil
}

// Subscribe binds a private, server-named queue to exchange for bindingKey and hands every
// delivery to handler on a new goroutine. Each subscriber receives every matching message.
// Successfully handled deliveries are acked; failed ones are rejected without requeue.
// The goroutine exits when the channel is closed.
func (c *Client) Subscribe(exchange, bindingKey string, handler func(msg amqp.Delivery) error) error {
	if c.channel == nil {
		return errors.New("rabbitmq channel is not available for consumption")
	}

	c.mu.Lock()
	queue, err := c.channel.QueueDeclare(
		"",    // name: server generated
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err == nil {
		err = c.channel.QueueBind(queue.Name, bindingKey, exchange, false, nil)
	}
	var msgs <-chan amqp.Delivery
	if err == nil {
		msgs, err = c.channel.Consume(
			queue.Name, // queue
			"",         // consumer tag
			false,      // auto-ack
			true,       // exclusive
			false,      // no-local
			false,      // no-wait
			nil,        // args
		)
	}
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s on %s: %w", bindingKey, exchange, err)
	}

	slog.Info("rabbitmq subscription started",
		slog.String("exchange", exchange),
		slog.String("binding_key", bindingKey),
		slog.String("queue", queue.Name),
	)

	go func() {
		for msg := range msgs {
			if err := handler(msg); err != nil {
				slog.Error("failed to handle message",
					slog.String("routing_key", msg.RoutingKey),
					slog.Uint64("delivery_tag", msg.DeliveryTag),
					slog.String("error", err.Error()),
				)
				// A message that failed once would fail again; requeueing would spin.
				if nackErr := msg.Nack(false, false); nackErr != nil {
					slog.Error("failed to nack message", slog.String("error", nackErr.Error()))
				}
				continue
			}
			if ackErr := msg.Ack(false); ackErr != nil {
				slog.Error("failed to ack message", slog.String("error", ackErr.Error()))
			}
		}
		slog.Info("rabbitmq subscription stopped", slog.String("binding_key", bindingKey))
	}()

	return nil
}
