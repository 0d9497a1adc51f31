package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/baechuer/real-time-ressys/services/account-harness/internal/application/harness"
	"github.com/baechuer/real-time-ressys/services/account-harness/internal/domain"
	"github.com/baechuer/real-time-ressys/services/account-harness/internal/logger"
)

const (
	DefaultExchange = "city.events"

	RoutingKeyPasswordReset = "auth.password.reset.requested"

	defaultConfirmWait = 2 * time.Second
	// A mandatory Return is delivered before the Ack; give it a moment to land.
	returnGrace = 50 * time.Millisecond
)

// PasswordResetEvent is the payload the mail pipeline consumes.
type PasswordResetEvent struct {
	Email       string    `json:"email"`
	Token       string    `json:"token"`
	URL         string    `json:"url"`
	RequestedAt time.Time `json:"requested_at"`
}

// Publisher is a Notifier backed by a topic exchange. Publishes are mandatory
// and confirmed, so an unbound routing key surfaces as an error instead of a
// silently dropped mail.
type Publisher struct {
	url         string
	exchange    string
	confirmWait time.Duration

	mu sync.Mutex

	conn *amqp.Connection
	ch   *amqp.Channel

	confirmCh <-chan amqp.Confirmation
	returnCh  <-chan amqp.Return
}

var _ harness.Notifier = (*Publisher)(nil)

func NewPublisher(url, exchange string) (*Publisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	p := &Publisher{
		url:         url,
		exchange:    exchange,
		confirmWait: defaultConfirmWait,
	}
	if err := p.connect(); err != nil {
		return nil, domain.ErrRabbitUnavailable(err)
	}
	return p, nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetConn()
	return nil
}

func (p *Publisher) NotifyPasswordReset(ctx context.Context, msg harness.PasswordResetMail) error {
	body, err := encodePasswordReset(msg, time.Now())
	if err != nil {
		return domain.ErrInternal(err)
	}
	if err := p.publish(ctx, RoutingKeyPasswordReset, body); err != nil {
		return domain.ErrRabbitUnavailable(err)
	}
	logger.WithCtx(ctx).Debug().
		Str("email", msg.Email).
		Str("routing_key", RoutingKeyPasswordReset).
		Msg("reset mail published")
	return nil
}

func encodePasswordReset(msg harness.PasswordResetMail, at time.Time) ([]byte, error) {
	return json.Marshal(PasswordResetEvent{
		Email:       msg.Email,
		Token:       msg.Token,
		URL:         msg.URL,
		RequestedAt: at.UTC(),
	})
}

func (p *Publisher) connect() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		p.exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false,
		false,
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("exchange declare: %w", err)
	}

	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("confirm mode: %w", err)
	}

	p.confirmCh = ch.NotifyPublish(make(chan amqp.Confirmation, 1))
	p.returnCh = ch.NotifyReturn(make(chan amqp.Return, 1))
	p.conn = conn
	p.ch = ch
	return nil
}

func (p *Publisher) ensureConnected() error {
	if p.conn != nil && !p.conn.IsClosed() && p.ch != nil {
		return nil
	}
	p.resetConn()
	return p.connect()
}

func (p *Publisher) publish(ctx context.Context, routingKey string, body []byte) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.confirmWait)
		defer cancel()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureConnected(); err != nil {
		return err
	}
	drain(p.confirmCh, p.returnCh)

	if err := p.ch.PublishWithContext(
		ctx,
		p.exchange,
		routingKey,
		true,  // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	); err != nil {
		p.resetConn()
		return fmt.Errorf("publish failed: %w", err)
	}

	return awaitConfirm(ctx, routingKey, p.confirmCh, p.returnCh, p.confirmWait)
}

// drain discards confirmations and returns left over from an earlier publish.
func drain(confirms <-chan amqp.Confirmation, returns <-chan amqp.Return) {
	for {
		select {
		case <-confirms:
		case <-returns:
		default:
			return
		}
	}
}

// awaitConfirm waits for the broker's verdict on the last publish.
func awaitConfirm(ctx context.Context, routingKey string, confirms <-chan amqp.Confirmation, returns <-chan amqp.Return, wait time.Duration) error {
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case ret := <-returns:
		return unroutable(routingKey, ret)

	case conf := <-confirms:
		grace := time.NewTimer(returnGrace)
		defer grace.Stop()
		select {
		case ret := <-returns:
			return unroutable(routingKey, ret)
		case <-grace.C:
		}
		if !conf.Ack {
			return fmt.Errorf("rabbitmq nack: key=%s deliveryTag=%d", routingKey, conf.DeliveryTag)
		}
		return nil

	case <-timer.C:
		return fmt.Errorf("rabbitmq publish timeout: key=%s", routingKey)

	case <-ctx.Done():
		return ctx.Err()
	}
}

func unroutable(routingKey string, ret amqp.Return) error {
	return fmt.Errorf("rabbitmq unroutable: key=%s code=%d text=%s", routingKey, ret.ReplyCode, ret.ReplyText)
}

func (p *Publisher) resetConn() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}
