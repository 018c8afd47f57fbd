package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"
)

// AMQP publishes alert lines to a durable queue so downstream consumers
// (the bot layer) can pick them up independently of Telegram delivery.
type AMQP struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
}

type alertEnvelope struct {
	Text string    `json:"text"`
	Time time.Time `json:"time"`
}

// NewAMQP dials the broker and declares the queue.
func NewAMQP(url, queue string) (*AMQP, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	_, err = ch.QueueDeclare(
		queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}
	log.Infof("alert queue %s declared", queue)
	return &AMQP{conn: conn, channel: ch, queue: queue}, nil
}

// Send implements Sender.
func (a *AMQP) Send(ctx context.Context, text string) error {
	body, err := json.Marshal(alertEnvelope{Text: text, Time: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}
	err = a.channel.PublishWithContext(ctx,
		"",      // exchange
		a.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("publish alert: %w", err)
	}
	return nil
}

// Close releases the channel and connection.
func (a *AMQP) Close() error {
	if a.channel != nil {
		a.channel.Close()
	}
	if a.conn != nil {
		return a.conn.Close()
	}
	return nil
}
