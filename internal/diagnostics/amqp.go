package diagnostics

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"
)

const FailureExchange = "extraction_failures"

type Publisher interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPSink publishes events on a fanout exchange, routed by task name.
type AMQPSink struct {
	ch       Publisher
	exchange string
}

func NewAMQPSink(ch Publisher, exchange string) *AMQPSink {
	return &AMQPSink{ch: ch, exchange: exchange}
}

// DeclareExchange declares the fanout exchange the sink publishes to.
func DeclareExchange(ch *amqp.Channel, exchange string) error {
	return ch.ExchangeDeclare(
		exchange,
		"fanout",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
}

func (s *AMQPSink) Record(_ context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return err
	}
	err = s.ch.Publish(
		s.exchange,
		fmt.Sprintf("failure.%s", e.Task),
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    e.ID,
			Timestamp:    e.OccurredAt,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish failure event: %w", err)
	}
	return nil
}
