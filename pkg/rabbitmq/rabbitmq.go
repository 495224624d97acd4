package rabbitmq

import (
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/streadway/amqp"
	"go.uber.org/zap"
)

// Routing keys of the events published on the order exchange.
const (
	Exchange                = "orders"
	RoutingOrderPlaced      = "order.placed"
	RoutingOrderStatus      = "order.status_changed"
	OrderEventsQueue        = "order_events"
	orderEventsBindingAllOf = "order.*"
)

// OrderEvent is the JSON payload of every order event.
type OrderEvent struct {
	Type       string    `json:"type"`
	OrderID    uint      `json:"order_id"`
	Number     string    `json:"number,omitempty"`
	UserID     uint      `json:"user_id,omitempty"`
	Status     string    `json:"status"`
	Total      string    `json:"total,omitempty"`
	ItemCount  int       `json:"item_count,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	log     *zap.Logger
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL string
}

// NewClient connects to RabbitMQ, declares the order exchange and binds the
// order events queue to it.
func NewClient(cfg Config, log *zap.Logger) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declareTopology(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	log.Info("rabbitmq client connected", zap.String("exchange", Exchange), zap.String("queue", OrderEventsQueue))

	return &Client{
		conn:    conn,
		channel: ch,
		log:     log,
	}, nil
}

func declareTopology(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", Exchange, err)
	}
	if _, err := ch.QueueDeclare(OrderEventsQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", OrderEventsQueue, err)
	}
	if err := ch.QueueBind(OrderEventsQueue, orderEventsBindingAllOf, Exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", OrderEventsQueue, err)
	}
	return nil
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

// PublishOrderEvent publishes a persistent JSON message on the order exchange,
// routed by the event type.
func (c *Client) PublishOrderEvent(event OrderEvent) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}

	body, err := Encode(event)
	if err != nil {
		return err
	}

	err = c.channel.Publish(
		Exchange,
		event.Type,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    event.OccurredAt,
		})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}

	c.log.Debug("order event published", zap.String("type", event.Type), zap.Uint("order_id", event.OrderID))
	return nil
}

// ConsumeOrderEvents delivers every message of the order events queue to
// handler from a single goroutine. Messages are acked when handler returns
// nil and requeued otherwise.
func (c *Client) ConsumeOrderEvents(handler func(OrderEvent) error) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}

	msgs, err := c.channel.Consume(OrderEventsQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	go func() {
		for msg := range msgs {
			c.handleDelivery(msg, handler)
		}
		c.log.Info("order event consumer stopped")
	}()

	return nil
}

func (c *Client) handleDelivery(msg amqp.Delivery, handler func(OrderEvent) error) {
	event, err := Decode(msg.Body)
	if err != nil {
		// Unparseable payloads would loop forever if requeued.
		c.log.Warn("dropping malformed order event", zap.Uint64("tag", msg.DeliveryTag), zap.Error(err))
		if nackErr := msg.Nack(false, false); nackErr != nil {
			c.log.Error("failed to nack message", zap.Uint64("tag", msg.DeliveryTag), zap.Error(nackErr))
		}
		return
	}

	if err := handler(event); err != nil {
		c.log.Warn("order event handler failed", zap.Uint64("tag", msg.DeliveryTag), zap.Error(err))
		if nackErr := msg.Nack(false, true); nackErr != nil {
			c.log.Error("failed to nack message", zap.Uint64("tag", msg.DeliveryTag), zap.Error(nackErr))
		}
		return
	}
	if ackErr := msg.Ack(false); ackErr != nil {
		c.log.Error("failed to ack message", zap.Uint64("tag", msg.DeliveryTag), zap.Error(ackErr))
	}
}

// Encode marshals an event to its wire form.
func Encode(event OrderEvent) ([]byte, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order event: %w", err)
	}
	return body, nil
}

// Decode parses an event from its wire form.
func Decode(body []byte) (OrderEvent, error) {
	var event OrderEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return OrderEvent{}, fmt.Errorf("failed to unmarshal order event: %w", err)
	}
	if event.Type == "" {
		return OrderEvent{}, fmt.Errorf("order event without type")
	}
	return event, nil
}
