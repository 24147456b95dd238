// Package kafka publishes safety alerts to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/meteopt/aviso/internal/config"
	"github.com/meteopt/aviso/internal/monitor"
	kafkago "github.com/segmentio/kafka-go"
)

// Publisher produces safety-transition alerts to the configured topic.
// It implements monitor.Notifier.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the alert topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaAlertTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// Notify serializes and publishes one alert. Notifications are fire and
// forget: a publish failure is logged, never propagated, so a broker outage
// cannot affect safety evaluation.
func (p *Publisher) Notify(ctx context.Context, alert monitor.Alert) {
	msg, err := serializeAlert(alert)
	if err != nil {
		p.logger.Error("serialize alert failed", "error", err)
		return
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("publish alert failed", "error", err, "district", alert.District)
	}
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeAlert marshals an alert into a Kafka message keyed by warning
// area, so all alerts for one area land on the same partition in order.
func serializeAlert(alert monitor.Alert) (kafkago.Message, error) {
	data, err := json.Marshal(alert)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize alert: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(alert.AreaID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "transition", Value: []byte(alert.Transition)},
			{Key: "level", Value: []byte(alert.LevelName)},
			{Key: "published_at", Value: []byte(alert.EvaluatedAt.Format(time.RFC3339))},
		},
	}, nil
}
