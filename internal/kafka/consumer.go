package kafka

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/RaikyD/storefront-bff/internal/domain"
	"github.com/RaikyD/storefront-bff/internal/logger"
	"github.com/segmentio/kafka-go"
)

type ConsumerConfig struct {
	Brokers string
	Topic   string
	GroupID string
}

// ReceiptRecorder must tolerate the same order being recorded twice: the
// instance that placed an order also reads its own event back.
type ReceiptRecorder interface {
	Record(ctx context.Context, r domain.Receipt) error
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

const defaultBackoff = 300 * time.Millisecond

// StartReceiptConsumer projects order-placed events into the local receipt
// store until ctx is done. Each instance should use its own group id.
func StartReceiptConsumer(ctx context.Context, rec ReceiptRecorder, cfg ConsumerConfig) (*kafka.Reader, error) {
	brokers := strings.Split(cfg.Brokers, ",")

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:         brokers,
		GroupID:         cfg.GroupID,
		Topic:           cfg.Topic,
		MinBytes:        1,
		MaxBytes:        10e6,
		CommitInterval:  0,
		StartOffset:     kafka.LastOffset,
		ReadLagInterval: -1,
	})

	logger.Info("kafka consumer starting", "brokers", cfg.Brokers, "topic", cfg.Topic, "group", cfg.GroupID)

	go consume(ctx, r, rec, defaultBackoff)
	return r, nil
}

func consume(ctx context.Context, r messageReader, rec ReceiptRecorder, backoff time.Duration) {
	defer r.Close()

	for {
		m, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("kafka fetch error", "err", err)
			sleep(ctx, backoff)
			continue
		}

		var ev domain.OrderPlaced
		if err = json.Unmarshal(m.Value, &ev); err != nil || ev.Order.OrderID == 0 {
			logger.Warn("kafka invalid order event. skip and commit", "offset", m.Offset, "err", err)
			commit(ctx, r, m)
			continue
		}

		receipt := domain.Receipt{ShopperID: ev.ShopperID, Email: ev.Email, Order: ev.Order, Payment: ev.Payment}
		for {
			if err = rec.Record(ctx, receipt); err == nil {
				break
			}
			logger.Warn("kafka receipt record failed, will retry", "order_id", ev.Order.OrderID, "err", err)
			sleep(ctx, backoff)
			if ctx.Err() != nil {
				return
			}
		}

		logger.Debug("receipt projected", "order_id", ev.Order.OrderID, "partition", m.Partition, "offset", m.Offset)
		commit(ctx, r, m)
	}
}

func commit(ctx context.Context, r messageReader, m kafka.Message) {
	if err := r.CommitMessages(ctx, m); err != nil {
		logger.Warn("[kafka] commit failed", "err", err)
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
