// Package rabbitmq queues order confirmation emails for the mailer.
package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/RaikyD/storefront-bff/internal/domain"
	"github.com/RaikyD/storefront-bff/internal/money"
	amqp "github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 5 * time.Second

// ConfirmationEmail is the message body the mailer consumes.
type ConfirmationEmail struct {
	To         string      `json:"to"`
	OrderID    int64       `json:"orderId"`
	Total      string      `json:"total"`
	TotalCents int64       `json:"totalCents"`
	Currency   string      `json:"currency"`
	ReceiptURL string      `json:"receiptUrl,omitempty"`
	Lines      []EmailLine `json:"lines"`
}

type EmailLine struct {
	Title     string `json:"title"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unitPrice"`
}

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type Publisher struct {
	conn  *amqp.Connection
	ch    amqpChannel
	queue string
}

// Dial connects and declares the durable queue.
func Dial(url, queue string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	q, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq declare %s: %w", queue, err)
	}
	return &Publisher{conn: conn, ch: ch, queue: q.Name}, nil
}

func (p *Publisher) Close() error {
	err := p.ch.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func (p *Publisher) PublishOrderPlaced(ctx context.Context, ev domain.OrderPlaced) error {
	body, err := json.Marshal(newConfirmationEmail(ev))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	return p.ch.PublishWithContext(ctx,
		"",      // exchange
		p.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    fmt.Sprintf("order-%d", ev.Order.OrderID),
			Timestamp:    time.Now(),
			Body:         body,
		})
}

func newConfirmationEmail(ev domain.OrderPlaced) ConfirmationEmail {
	t := ev.Order.Totals
	mail := ConfirmationEmail{
		To:         ev.Email,
		OrderID:    ev.Order.OrderID,
		Total:      money.Format(t.TotalCents, t.Currency),
		TotalCents: t.TotalCents,
		Currency:   t.Currency,
		ReceiptURL: ev.Payment.ReceiptURL,
		Lines:      make([]EmailLine, 0, len(ev.Order.LineItems)),
	}
	for _, l := range ev.Order.LineItems {
		mail.Lines = append(mail.Lines, EmailLine{
			Title:     l.Title,
			Quantity:  l.Quantity,
			UnitPrice: money.Format(l.UnitPriceCents, t.Currency),
		})
	}
	return mail
}
