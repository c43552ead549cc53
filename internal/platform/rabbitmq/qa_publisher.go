package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"studynotes/internal/model"
)

// QAPublisher queues answered questions for asynchronous persistence on their note.
type QAPublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewQAPublisher(conn *amqp.Connection, queueName string) *QAPublisher {
	return &QAPublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *QAPublisher) Publish(ctx context.Context, msg model.QAMessage) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	if err := DeclareQueue(ch, p.queueName); err != nil {
		return err
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal qa payload failed: %w", err)
	}

	if err := ch.PublishWithContext(
		ctx,
		"",
		p.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         payload,
			DeliveryMode: amqp.Persistent,
		},
	); err != nil {
		return fmt.Errorf("publish qa message failed: %w", err)
	}
	return nil
}
