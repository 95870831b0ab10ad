//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/pgn-l0-service/internal/adapter/archive"
	"github.com/couchcryptid/pgn-l0-service/internal/adapter/kafka"
	"github.com/couchcryptid/pgn-l0-service/internal/config"
	"github.com/couchcryptid/pgn-l0-service/internal/domain"
	"github.com/couchcryptid/pgn-l0-service/internal/mockdata"
	"github.com/couchcryptid/pgn-l0-service/internal/observability"
	"github.com/couchcryptid/pgn-l0-service/internal/pipeline"
	"github.com/couchcryptid/pgn-l0-service/internal/session"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const testTopic = "test-pgn-l0-records"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node broker and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("pgn-l0-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     3,
		ReplicationFactor: 1,
	}))
}

// publishedMessage holds a deserialized record read back from the topic.
type publishedMessage struct {
	Record  map[string]any
	Key     string
	Headers map[string]string
}

func readPublished(ctx context.Context, t *testing.T, consumer *kafkago.Reader) publishedMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var rec map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &rec), "unmarshal record")
	return publishedMessage{Record: rec, Key: string(msg.Key), Headers: headers}
}

func newConsumer(t *testing.T, broker string) *kafkago.Reader {
	t.Helper()
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })
	return consumer
}

// TestWriterPublishesDataset verifies the Kafka adapter writes one message
// per record with the routine, source and load-time headers.
func TestWriterPublishesDataset(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	opts := mockdata.DefaultOptions()
	opts.Records = 7
	opts.Pixels = 400
	data, err := mockdata.Bytes(opts, false)
	require.NoError(t, err)
	ds, err := domain.Parse(domain.NewRawBlob(mockdata.FileName(opts), data), domain.DefaultParseConfig())
	require.NoError(t, err)

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaTopic: testTopic, BatchSize: 3}
	metrics := observability.NewMetricsForTesting()
	writer := kafka.NewWriter(cfg, discardLogger(), metrics)
	t.Cleanup(func() { _ = writer.Close() })

	require.NoError(t, writer.PublishDataset(ctx, ds))

	consumer := newConsumer(t, broker)
	codes := map[string]int{}
	for range 7 {
		pm := readPublished(ctx, t, consumer)
		codes[pm.Headers["routine_code"]]++
		assert.Equal(t, mockdata.FileName(opts), pm.Headers["source_file"])
		_, err := time.Parse(time.RFC3339, pm.Headers["loaded_at"])
		assert.NoError(t, err, "loaded_at should be valid RFC3339")
		assert.True(t, strings.HasPrefix(pm.Key, pm.Headers["routine_code"]+"|2021-01-01T"), pm.Key)

		bands, ok := pm.Record["bands"].([]any)
		require.True(t, ok)
		assert.Len(t, bands, 2)
	}
	assert.Equal(t, map[string]int{"SO": 4, "MS": 3}, codes)
}

// TestLoadFromArchiveEndToEnd wires archive client, cache, loader and Kafka
// writer against a fake file index and a real broker.
func TestLoadFromArchiveEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	opts := mockdata.DefaultOptions()
	opts.Records = 12
	compressed, err := mockdata.Bytes(opts, true)
	require.NoError(t, err)
	filePath := archive.FilesPath(opts.Location, opts.Device) + mockdata.FileName(opts) + ".bz2"

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/"+filePath {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(compressed)
	}))
	t.Cleanup(srv.Close)

	metrics := observability.NewMetricsForTesting()
	client := archive.NewClient(srv.URL, 10*time.Second, discardLogger(), metrics)
	cached := archive.NewCachedArchive(client, 4, metrics)

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaTopic: testTopic, BatchSize: 5}
	writer := kafka.NewWriter(cfg, discardLogger(), metrics)
	t.Cleanup(func() { _ = writer.Close() })

	store := session.NewStore()
	parseCfg := domain.DefaultParseConfig()
	parseCfg.Scan.Occurrence = 2
	loader := pipeline.New(cached, writer, store, parseCfg, 10*time.Second, discardLogger(), metrics)

	summary, err := loader.LoadPath(ctx, filePath)
	require.NoError(t, err)
	assert.Equal(t, domain.FormatBzip2, summary.Format)
	assert.Equal(t, 12, summary.RecordsKept)
	assert.Zero(t, summary.RecordsDropped)
	assert.Equal(t, 10, summary.BandCount)

	// A second load is served from the cache.
	_, err = loader.LoadPath(ctx, filePath)
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())

	ds, err := store.Current()
	require.NoError(t, err)
	series, err := ds.Series("Pixel 1-200")
	require.NoError(t, err)
	assert.Len(t, series, 12)

	consumer := newConsumer(t, broker)
	for range 24 {
		pm := readPublished(ctx, t, consumer)
		assert.NotEmpty(t, pm.Headers["routine_code"])
	}
}
