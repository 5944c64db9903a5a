package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/segmentio/kafka-go"
)

// PaymentConfirmer resolves a gateway confirmation to its recharge.
type PaymentConfirmer interface {
	CompleteRechargeByRef(ctx context.Context, externalRef string, succeeded bool) error
}

type Consumer struct {
	reader    *kafka.Reader
	confirmer PaymentConfirmer
}

func NewConsumer(brokers []string, topic, groupID string, confirmer PaymentConfirmer) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 10e3,
			MaxBytes: 10e6,
		}),
		confirmer: confirmer,
	}
}

func (c *Consumer) Consume(ctx context.Context) {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			slog.Error("failed to read kafka message", "topic", c.reader.Config().Topic, "error", err)
			continue
		}

		slog.Info("kafka message received", "topic", msg.Topic, "key", string(msg.Key))

		var event struct {
			ExternalRef string `json:"external_ref"`
			Status      string `json:"status"`
		}
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			slog.Error("failed to unmarshal payment confirmation", "error", err)
			continue
		}
		if event.ExternalRef == "" {
			slog.Error("payment confirmation missing external_ref")
			continue
		}

		var succeeded bool
		switch event.Status {
		case "succeeded":
			succeeded = true
		case "failed":
			succeeded = false
		default:
			slog.Error("unknown payment confirmation status", "status", event.Status)
			continue
		}

		if err := c.confirmer.CompleteRechargeByRef(ctx, event.ExternalRef, succeeded); err != nil {
			slog.Error("failed to apply payment confirmation",
				"external_ref", event.ExternalRef,
				"status", event.Status,
				"error", err,
			)
			// TODO: send to dead-letter queue
			continue
		}

		slog.Info("payment confirmation processed", "external_ref", event.ExternalRef, "status", event.Status)
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
