// Package rabbitmq is the AMQP-backed notification collaborator. Messages
// are fire-and-forget: callers log publish failures and move on.
package rabbitmq

import (
	"encoding/json"
	"fmt"
	"log"

	amqp "github.com/streadway/amqp"

	"storefront/internal/models"
)

// Queue names. All three are declared durable at connection time.
const (
	OrderEventsQueue    = "order_events"
	PaymentEventsQueue  = "payment_events"
	OperatorAlertsQueue = "operator_alerts"
)

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL string
}

// NewClient connects to RabbitMQ and declares the notification queues.
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

	for _, queue := range []string{OrderEventsQueue, PaymentEventsQueue, OperatorAlertsQueue} {
		_, err = ch.QueueDeclare(
			queue, // name
			true,  // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			nil,   // arguments
		)
		if err != nil {
			ch.Close()
			conn.Close()
			return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
		}
	}

	log.Println("RabbitMQ client connected and notification queues declared.")

	return &Client{conn: conn, channel: ch}, nil
}

// Close closes the RabbitMQ connection and channel.
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
	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred during RabbitMQ client close: %v", errs)
	}
	return nil
}

// publishJSON marshals payload and publishes it to the named queue via the
// default exchange.
func (c *Client) publishJSON(queue string, payload interface{}) error {
	if c == nil || c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message for queue %s: %w", queue, err)
	}

	err = c.channel.Publish(
		"",    // exchange: default
		queue, // routing key = queue name
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to queue %s: %w", queue, err)
	}
	return nil
}

// OrderCreated publishes the order confirmation event.
func (c *Client) OrderCreated(order *models.Order) error {
	return c.publishJSON(OrderEventsQueue, map[string]interface{}{
		"event":    "order.created",
		"order_id": order.ID,
		"email":    order.CustomerEmail,
		"status":   order.Status,
		"total":    order.Total().Format(),
	})
}

// PaymentApproved publishes the payment approval event.
func (c *Client) PaymentApproved(order *models.Order) error {
	return c.publishJSON(PaymentEventsQueue, map[string]interface{}{
		"event":    "payment.approved",
		"order_id": order.ID,
		"email":    order.CustomerEmail,
		"total":    order.Total().Format(),
	})
}

// OperatorAlert publishes a push alert for the store operators.
func (c *Client) OperatorAlert(subject, body string) error {
	return c.publishJSON(OperatorAlertsQueue, map[string]interface{}{
		"event":   "operator.alert",
		"subject": subject,
		"body":    body,
	})
}

// ConsumeOrderEvents starts consuming from the order events queue, invoking
// handler per delivery. The message is acknowledged when the handler
// returns nil and requeued otherwise.
func (c *Client) ConsumeOrderEvents(handler func(msg amqp.Delivery) error) error {
	msgs, err := c.channel.Consume(
		OrderEventsQueue, // queue
		"",               // consumer tag
		false,            // auto-ack
		false,            // exclusive
		false,            // no-local
		false,            // no-wait
		nil,              // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	for msg := range msgs {
		if err := handler(msg); err != nil {
			log.Printf("Failed to process message (tag %d): %v", msg.DeliveryTag, err)
			if nackErr := msg.Nack(false, true); nackErr != nil {
				log.Printf("Failed to nack message: %v", nackErr)
			}
			continue
		}
		if ackErr := msg.Ack(false); ackErr != nil {
			log.Printf("Failed to ack message: %v", ackErr)
		}
	}
	return nil
}
