package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/pgn-l0-service/internal/domain"
	"github.com/couchcryptid/pgn-l0-service/internal/observability"
)

// Source fetches a raw L0 file by archive path.
type Source interface {
	Fetch(ctx context.Context, path string) (domain.RawBlob, error)
}

// Publisher forwards a freshly parsed dataset downstream.
type Publisher interface {
	PublishDataset(ctx context.Context, ds *domain.Dataset) error
}

// DatasetStore receives successfully loaded datasets.
type DatasetStore interface {
	Replace(ds *domain.Dataset)
}

// ErrFetch wraps failures from the Source.
var ErrFetch = errors.New("fetch failed")

// Loader runs fetch, parse, optional publish, and store replacement for one
// file at a time. The store only changes when every step succeeds.
type Loader struct {
	source       Source
	publisher    Publisher
	store        DatasetStore
	cfg          domain.ParseConfig
	fetchTimeout time.Duration
	logger       *slog.Logger
	metrics      *observability.Metrics
}

// New creates a Loader. source and publisher may be nil: without a source
// only LoadBlob works, without a publisher nothing is forwarded.
func New(source Source, publisher Publisher, store DatasetStore, cfg domain.ParseConfig, fetchTimeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Loader {
	return &Loader{
		source:       source,
		publisher:    publisher,
		store:        store,
		cfg:          cfg,
		fetchTimeout: fetchTimeout,
		logger:       logger,
		metrics:      metrics,
	}
}

// LoadPath fetches path from the source and loads it.
func (l *Loader) LoadPath(ctx context.Context, path string) (domain.LoadSummary, error) {
	if l.source == nil {
		return domain.LoadSummary{}, fmt.Errorf("%w: no archive source configured", ErrFetch)
	}
	start := time.Now()

	fetchCtx := ctx
	if l.fetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, l.fetchTimeout)
		defer cancel()
	}

	blob, err := l.source.Fetch(fetchCtx, path)
	if err != nil {
		l.metrics.Loads.WithLabelValues("fetch_error").Inc()
		l.logger.Error("fetch failed", "path", path, "error", err)
		return domain.LoadSummary{}, fmt.Errorf("%w: %s: %w", ErrFetch, path, err)
	}
	return l.load(ctx, blob, start)
}

// LoadBlob loads an already materialised blob, e.g. an upload.
func (l *Loader) LoadBlob(ctx context.Context, blob domain.RawBlob) (domain.LoadSummary, error) {
	return l.load(ctx, blob, time.Now())
}

func (l *Loader) load(ctx context.Context, blob domain.RawBlob, start time.Time) (domain.LoadSummary, error) {
	l.logger.Info("load started", "source", blob.Name, "format", blob.Format, "bytes", len(blob.Data))

	ds, err := domain.Parse(blob, l.cfg)
	if err != nil {
		return l.parseFailed(blob, err)
	}
	summary := ds.Summary()

	if summary.RecordsDropped > 0 {
		l.logger.Warn("records dropped",
			"source", blob.Name,
			"records_dropped", summary.RecordsDropped,
			"dropped_lines", summary.DroppedLines,
		)
	}
	if summary.PartialBandRecords > 0 {
		l.logger.Debug("trailing pixels ignored",
			"source", blob.Name,
			"partial_band_records", summary.PartialBandRecords,
			"band_width", l.cfg.BandWidth,
		)
	}

	if l.publisher != nil {
		if err := l.publisher.PublishDataset(ctx, ds); err != nil {
			l.metrics.Loads.WithLabelValues("publish_error").Inc()
			l.logger.Error("publish failed", "source", blob.Name, "error", err)
			return summary, fmt.Errorf("publish dataset: %w", err)
		}
	}

	l.store.Replace(ds)

	l.metrics.Loads.WithLabelValues("success").Inc()
	l.metrics.RecordsKept.Add(float64(summary.RecordsKept))
	l.metrics.RecordsDropped.Add(float64(summary.RecordsDropped))
	l.metrics.MissingFields.Add(float64(summary.MissingFields))
	l.metrics.DatasetRecords.Set(float64(summary.RecordsKept))
	l.metrics.DatasetBands.Set(float64(summary.BandCount))
	l.metrics.LoadDuration.Observe(time.Since(start).Seconds())

	l.logger.Info("load finished",
		"source", blob.Name,
		"lines_scanned", summary.LinesScanned,
		"data_start", summary.DataStart,
		"marker_found", summary.MarkerFound,
		"records_kept", summary.RecordsKept,
		"records_dropped", summary.RecordsDropped,
		"missing_fields", summary.MissingFields,
		"band_count", summary.BandCount,
		"duration", time.Since(start),
	)
	return summary, nil
}

func (l *Loader) parseFailed(blob domain.RawBlob, err error) (domain.LoadSummary, error) {
	var empty *domain.EmptyResultError
	switch {
	case errors.As(err, &empty):
		l.metrics.Loads.WithLabelValues("empty_result").Inc()
		l.metrics.RecordsDropped.Add(float64(empty.Summary.RecordsDropped))
		l.logger.Error("load produced no records",
			"source", blob.Name,
			"lines_scanned", empty.Summary.LinesScanned,
			"data_start", empty.Summary.DataStart,
			"marker_found", empty.Summary.MarkerFound,
			"records_dropped", empty.Summary.RecordsDropped,
		)
		return empty.Summary, err
	default:
		l.metrics.Loads.WithLabelValues("decode_error").Inc()
		l.logger.Error("decode failed", "source", blob.Name, "format", blob.Format, "error", err)
		return domain.LoadSummary{Source: blob.Name, Format: blob.Format}, err
	}
}
