// Package kafka publishes joined analysis rows to a sink topic so downstream
// consumers (archival, alerting) see every completed session.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/hidromet/rainfall-enso-etl/internal/config"
	"github.com/hidromet/rainfall-enso-etl/internal/domain"
	"github.com/hidromet/rainfall-enso-etl/internal/pipeline"
)

// Writer produces analysis rows to a Kafka topic.
// It implements httpadapter.RowSink.
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

// PublishRows serializes and publishes every joined row of a session in a
// single WriteMessages call. Messages are keyed by station id so one
// station's series lands on one partition in order.
func (w *Writer) PublishRows(ctx context.Context, result *pipeline.Result) error {
	if len(result.Rows) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(result.Rows))
	for i := range result.Rows {
		msg, err := serializeToMessage(result.Rows[i], result.SessionID, result.ProcessedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish session %s: %w", result.SessionID, err)
	}
	w.logger.Info("session rows published", "session_id", result.SessionID, "rows", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals one analysis row into a Kafka message.
func serializeToMessage(row domain.AnalysisRow, sessionID string, processedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(row)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize analysis row: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(row.StationID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "session_id", Value: []byte(sessionID)},
			{Key: "processed_at", Value: []byte(processedAt.Format(time.RFC3339))},
		},
	}, nil
}
