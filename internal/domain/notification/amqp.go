package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

// RoutingKeyConfirmation is the topic confirmations are published under.
const RoutingKeyConfirmation = "booking.confirmation"

type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// amqpLink is one connection plus the channel published on.
type amqpLink struct {
	pub      publisher
	isClosed func() bool
	close    func() error
}

// AMQPDispatcher publishes confirmations to a topic exchange for a separate
// mailer to deliver. A dropped connection is redialed on the next send.
type AMQPDispatcher struct {
	dial     func() (*amqpLink, error)
	exchange string
	salon    Salon

	mu   sync.Mutex
	link *amqpLink
}

// NewAMQPDispatcher connects eagerly so a bad URL fails at startup.
func NewAMQPDispatcher(url, exchange string, salon Salon) (*AMQPDispatcher, error) {
	d := &AMQPDispatcher{
		dial:     func() (*amqpLink, error) { return dialAMQP(url, exchange) },
		exchange: exchange,
		salon:    salon,
	}
	if _, err := d.channel(); err != nil {
		return nil, err
	}
	return d, nil
}

func dialAMQP(url, exchange string) (*amqpLink, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &amqpLink{
		pub:      ch,
		isClosed: func() bool { return conn.IsClosed() || ch.IsClosed() },
		close: func() error {
			_ = ch.Close()
			return conn.Close()
		},
	}, nil
}

// channel returns the live link, dialing a new one when there is none.
func (d *AMQPDispatcher) channel() (*amqpLink, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.link != nil && !d.link.isClosed() {
		return d.link, nil
	}
	if d.link != nil {
		_ = d.link.close()
		d.link = nil
		log.Warn().Str("exchange", d.exchange).Msg("amqp connection lost, redialing")
	}

	link, err := d.dial()
	if err != nil {
		return nil, err
	}
	d.link = link
	return link, nil
}

// drop forgets link after a failed publish so the next send redials.
func (d *AMQPDispatcher) drop(link *amqpLink) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.link == link {
		_ = link.close()
		d.link = nil
	}
}

type confirmationMessage struct {
	Confirmation
	Salon    Salon     `json:"salon"`
	QueuedAt time.Time `json:"queued_at"`
}

func (d *AMQPDispatcher) Send(ctx context.Context, c Confirmation) Result {
	body, err := json.Marshal(confirmationMessage{Confirmation: c, Salon: d.salon, QueuedAt: time.Now().UTC()})
	if err != nil {
		return rejected(fmt.Sprintf("encode confirmation: %v", err))
	}

	link, err := d.channel()
	if err != nil {
		return failed(fmt.Sprintf("connect: %v", err))
	}

	err = link.pub.PublishWithContext(ctx, d.exchange, RoutingKeyConfirmation, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		d.drop(link)
		return failed(fmt.Sprintf("publish confirmation: %v", err))
	}
	return ok("Confirmation queued")
}

func (d *AMQPDispatcher) Verify(context.Context) Result {
	if _, err := d.channel(); err != nil {
		return failed(fmt.Sprintf("amqp connection unavailable: %v", err))
	}
	return ok("AMQP connection ready")
}

func (d *AMQPDispatcher) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.link == nil {
		return nil
	}
	err := d.link.close()
	d.link = nil
	return err
}
