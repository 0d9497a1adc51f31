//go:build integration

package infra

import (
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/baechuer/real-time-ressys/services/account-harness/internal/infrastructure/messaging/rabbitmq"
)

const (
	ITExchange = rabbitmq.DefaultExchange
	ITQueue    = "it.harness.mail"
	ITBinding  = "auth.password.*"
)

// EnsureRabbitTopology declares the exchange and a durable queue bound to the
// reset routing key, then empties the queue. Tests only consume from it.
func EnsureRabbitTopology(rabbitURL string) error {
	conn, err := amqp.Dial(rabbitURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(ITExchange, "topic", true, false, false, false, nil); err != nil {
		return err
	}
	if _, err := ch.QueueDeclare(ITQueue, true, false, false, false, nil); err != nil {
		return err
	}
	if err := ch.QueueBind(ITQueue, ITBinding, ITExchange, false, nil); err != nil {
		return err
	}
	_, err = ch.QueuePurge(ITQueue, false)
	return err
}
