package kafka

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/RaikyD/storefront-bff/internal/domain"
	"github.com/segmentio/kafka-go"
)

const eventOrderPlaced = "order.placed"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes order-placed events keyed by order id, so every event
// for one order lands on the same partition.
type Producer struct {
	w messageWriter
}

func NewProducer(brokersSTR, topic string) *Producer {
	brokers := strings.Split(brokersSTR, ",")

	return &Producer{
		w: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			Async:                  false,
			AllowAutoTopicCreation: true,
		},
	}
}

func (p *Producer) Close() error {
	return p.w.Close()
}

func (p *Producer) PublishOrderPlaced(ctx context.Context, ev domain.OrderPlaced) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	key := []byte(strconv.FormatInt(ev.Order.OrderID, 10))
	return p.w.WriteMessages(ctx, kafka.Message{
		Key:   key,
		Value: b,
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte("application/json")},
			{Key: "event-type", Value: []byte(eventOrderPlaced)},
		},
	})
}
