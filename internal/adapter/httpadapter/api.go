package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/couchcryptid/pgn-l0-service/internal/adapter/archive"
	"github.com/couchcryptid/pgn-l0-service/internal/domain"
	"github.com/couchcryptid/pgn-l0-service/internal/pipeline"
	"github.com/couchcryptid/pgn-l0-service/internal/session"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

// MaxUploadSize caps the request body of an upload.
const MaxUploadSize = 256 << 20

const dateLayout = "2006-01-02"

var errBadRequest = errors.New("bad request")

type loadRequest struct {
	Path string `json:"path"`
}

type loadResponse struct {
	Summary domain.LoadSummary `json:"summary"`
}

type errorResponse struct {
	Error   string              `json:"error"`
	Summary *domain.LoadSummary `json:"summary,omitempty"`
}

type archiveResponse struct {
	Path    string   `json:"path"`
	Entries []string `json:"entries"`
}

type datasetResponse struct {
	Summary        domain.LoadSummary `json:"summary"`
	LoadedAt       time.Time          `json:"loaded_at"`
	Records        int                `json:"records"`
	Columns        []string           `json:"columns"`
	NumericColumns []string           `json:"numeric_columns"`
	BandLabels     []string           `json:"band_labels"`
	RoutineCodes   []string           `json:"routine_codes"`
}

type seriesResponse struct {
	Column  string         `json:"column"`
	Routine string         `json:"routine,omitempty"`
	Points  []domain.Point `json:"points"`
}

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("archive browsing is not configured"))
		return
	}
	path := r.URL.Query().Get("path")
	entries, err := s.archive.List(r.Context(), path)
	if err != nil {
		s.logger.Warn("archive listing failed", "path", path, "error", err)
		writeError(w, statusFor(fmt.Errorf("%w: %w", pipeline.ErrFetch, err)), err)
		return
	}
	if entries == nil {
		entries = []string{}
	}
	sharedobs.WriteJSON(w, http.StatusOK, archiveResponse{Path: path, Entries: entries})
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	var req loadRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if req.Path == "" {
		writeError(w, http.StatusBadRequest, errors.New("path is required"))
		return
	}
	summary, err := s.loader.LoadPath(r.Context(), req.Path)
	s.writeLoadResult(w, summary, err)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("filename")
	if name == "" {
		writeError(w, http.StatusBadRequest, errors.New("filename is required"))
		return
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxUploadSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Errorf("upload exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Errorf("read upload: %w", err))
		return
	}
	summary, err := s.loader.LoadBlob(r.Context(), domain.NewRawBlob(name, data))
	s.writeLoadResult(w, summary, err)
}

func (s *Server) writeLoadResult(w http.ResponseWriter, summary domain.LoadSummary, err error) {
	if err != nil {
		resp := errorResponse{Error: err.Error()}
		if errors.Is(err, domain.ErrEmptyResult) {
			resp.Summary = &summary
		}
		sharedobs.WriteJSON(w, statusFor(err), resp)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, loadResponse{Summary: summary})
}

func (s *Server) handleDataset(w http.ResponseWriter, _ *http.Request) {
	ds, err := s.datasets.Current()
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, datasetResponse{
		Summary:        ds.Summary(),
		LoadedAt:       ds.LoadedAt(),
		Records:        ds.Len(),
		Columns:        ds.Columns(),
		NumericColumns: ds.NumericColumns(),
		BandLabels:     ds.BandLabels(),
		RoutineCodes:   ds.RoutineCodes(),
	})
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	column, ds, err := s.query(r)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	points, err := ds.Series(column)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if points == nil {
		points = []domain.Point{}
	}
	sharedobs.WriteJSON(w, http.StatusOK, seriesResponse{
		Column:  column,
		Routine: r.URL.Query().Get("routine"),
		Points:  points,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	column, ds, err := s.query(r)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	stats, err := ds.Stats(column)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, stats)
}

// query resolves the column, routine and time-range parameters shared by
// the series and stats endpoints into a filtered view.
func (s *Server) query(r *http.Request) (string, *domain.Dataset, error) {
	q := r.URL.Query()
	column := q.Get("column")
	if column == "" {
		return "", nil, fmt.Errorf("%w: column is required", errBadRequest)
	}
	from, err := parseBound(q.Get("from"), false)
	if err != nil {
		return "", nil, err
	}
	to, err := parseBound(q.Get("to"), true)
	if err != nil {
		return "", nil, err
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return "", nil, fmt.Errorf("%w: to is before from", errBadRequest)
	}

	ds, err := s.datasets.Current()
	if err != nil {
		return "", nil, err
	}
	if routine := q.Get("routine"); routine != "" {
		ds = ds.FilterRoutine(routine)
	}
	if !from.IsZero() || !to.IsZero() {
		ds = ds.FilterTimeRange(from, to)
	}
	return column, ds, nil
}

// parseBound accepts RFC 3339 or a bare date. A bare upper bound covers the
// whole day.
func parseBound(v string, upper bool) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid time %q", errBadRequest, v)
	}
	if upper {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return t, nil
}

// statusFor maps load and query errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, archive.ErrInvalidPath),
		errors.Is(err, domain.ErrUnknownColumn),
		errors.Is(err, domain.ErrNotNumeric):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrNoDataset):
		return http.StatusConflict
	case errors.Is(err, archive.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrCorrupt),
		errors.Is(err, domain.ErrUnsupported),
		errors.Is(err, domain.ErrEmptyResult):
		return http.StatusUnprocessableEntity
	case errors.Is(err, pipeline.ErrFetch):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	sharedobs.WriteJSON(w, status, errorResponse{Error: err.Error()})
}
