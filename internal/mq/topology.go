package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

const (
	// ExchangeEvents — topic exchange для событий run.
	ExchangeEvents Exchange = "stairs.events"

	// QueueEventsTail — очередь для команды events (чтение всех событий).
	QueueEventsTail Queue = "stairs.events.tail"
)

// Routing keys: "run.<event>.<title>".
const (
	RoutingKeyAll RoutingKey = "run.#"
)

// RoutingKeyFor строит routing key для события runner с названием title.
func RoutingKeyFor(msgType MessageType, title string) RoutingKey {
	return RoutingKey(string(msgType) + "." + title)
}

// SetupTopology объявляет exchange событий. Очередь не создаётся:
// публикующей стороне она не нужна.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, declareExchange)
}

// SetupTailQueue объявляет exchange и очередь для чтения всех событий.
func SetupTailQueue(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		if err := declareExchange(ch); err != nil {
			return err
		}

		_, err := ch.QueueDeclare(
			string(QueueEventsTail), // name
			false,                   // durable
			true,                    // delete when unused
			false,                   // exclusive
			false,                   // no-wait
			nil,                     // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", QueueEventsTail, err)
		}

		err = ch.QueueBind(
			string(QueueEventsTail), // queue name
			string(RoutingKeyAll),   // routing key
			string(ExchangeEvents),  // exchange
			false,                   // no-wait
			nil,                     // arguments
		)
		if err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", QueueEventsTail, ExchangeEvents, err)
		}

		return nil
	})
}

// declareExchange создаёт topic exchange событий.
func declareExchange(ch *amqp.Channel) error {
	err := ch.ExchangeDeclare(
		string(ExchangeEvents), // name
		"topic",                // type
		true,                   // durable
		false,                  // auto-deleted
		false,                  // internal
		false,                  // no-wait
		nil,                    // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange %s: %w", ExchangeEvents, err)
	}
	return nil
}
