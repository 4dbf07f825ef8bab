// Package kafka publishes finished WeatherIntel results to the sink topic
// consumed by the narrative summarizer and report renderer.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/storm-dol-engine/internal/config"
	"github.com/couchcryptid/storm-dol-engine/internal/domain"
)

// Writer produces WeatherIntel messages to a Kafka topic.
// It implements scheduler.IntelPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishIntel serializes and publishes one property's result, keyed by
// property id so a consumer compacting the topic keeps the latest run.
func (w *Writer) PublishIntel(ctx context.Context, propertyID string, intel domain.WeatherIntel) error {
	msg, err := serializeToMessage(propertyID, intel)
	if err != nil {
		return err
	}
	return w.writer.WriteMessages(ctx, msg)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a WeatherIntel into a Kafka message.
func serializeToMessage(propertyID string, intel domain.WeatherIntel) (kafkago.Message, error) {
	data, err := json.Marshal(intel)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize weather intel: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(propertyID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "property_id", Value: []byte(propertyID)},
			{Key: "generated_at", Value: []byte(intel.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
