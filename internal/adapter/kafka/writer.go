package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/pgn-l0-service/internal/config"
	"github.com/couchcryptid/pgn-l0-service/internal/domain"
	"github.com/couchcryptid/pgn-l0-service/internal/observability"
	kafkago "github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer republishes loaded records to a Kafka topic.
// It implements pipeline.Publisher.
type Writer struct {
	writer    messageWriter
	batchSize int
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewWriter creates a Kafka producer for the configured topic.
func NewWriter(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchSize:    cfg.BatchSize,
	}
	return &Writer{writer: w, batchSize: max(cfg.BatchSize, 1), logger: logger, metrics: metrics}
}

// PublishDataset serializes every record of ds and writes them in chunks of
// the configured batch size. Records sharing a key land on one partition.
func (w *Writer) PublishDataset(ctx context.Context, ds *domain.Dataset) error {
	if ds == nil || ds.Len() == 0 {
		return nil
	}
	source := ds.Summary().Source
	loadedAt := ds.LoadedAt()
	batch := make([]kafkago.Message, 0, w.batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := w.writer.WriteMessages(ctx, batch...); err != nil {
			return fmt.Errorf("write %d records: %w", len(batch), err)
		}
		w.metrics.RecordsPublished.Add(float64(len(batch)))
		batch = batch[:0]
		return nil
	}

	for i := range ds.Len() {
		msg, err := serializeRecord(ds.Record(i), source, loadedAt)
		if err != nil {
			return err
		}
		batch = append(batch, msg)
		if len(batch) >= w.batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}
	w.logger.Info("dataset published", "source", source, "records", ds.Len())
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeRecord marshals a Record into a Kafka message keyed by routine
// code and timestamp.
func serializeRecord(rec domain.Record, source string, loadedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize record at line %d: %w", rec.Line, err)
	}
	ts := ""
	if rec.Timestamp.Valid {
		ts = rec.Timestamp.Time.UTC().Format(time.RFC3339)
	}
	return kafkago.Message{
		Key:   []byte(rec.RoutineCode + "|" + ts),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "routine_code", Value: []byte(rec.RoutineCode)},
			{Key: "source_file", Value: []byte(source)},
			{Key: "loaded_at", Value: []byte(loadedAt.Format(time.RFC3339))},
		},
	}, nil
}
