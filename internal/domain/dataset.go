package domain

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"time"
)

// Dataset is an immutable table of parsed records. Filters return new
// datasets sharing the same band columns and summary.
type Dataset struct {
	records    []Record
	bandLabels []string
	summary    LoadSummary
	loadedAt   time.Time
}

// NewDataset builds a dataset from already-parsed records, with one band
// column per label.
func NewDataset(records []Record, bandLabels []string, summary LoadSummary) *Dataset {
	return &Dataset{
		records:    slices.Clone(records),
		bandLabels: slices.Clone(bandLabels),
		summary:    summary,
		loadedAt:   clock.Now(),
	}
}

// Point is one sample of a time series.
type Point struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// ColumnStats summarises the non-missing values of one column. Min, Max
// and Mean are missing when Count is zero.
type ColumnStats struct {
	Column  string    `json:"column"`
	Count   int       `json:"count"`
	Missing int       `json:"missing"`
	Min     NullFloat `json:"min"`
	Max     NullFloat `json:"max"`
	Mean    NullFloat `json:"mean"`
}

func (d *Dataset) Len() int { return len(d.records) }
func (d *Dataset) Summary() LoadSummary { return d.summary }
func (d *Dataset) LoadedAt() time.Time { return d.loadedAt }
func (d *Dataset) BandLabels() []string { return slices.Clone(d.bandLabels) }
func (d *Dataset) Record(i int) Record { return d.records[i] }
func (d *Dataset) Records() []Record { return slices.Clone(d.records) }

// Columns returns metadata column names followed by band labels.
func (d *Dataset) Columns() []string {
	cols := make([]string, 0, MetadataFieldCount+len(d.bandLabels))
	for _, f := range MetadataFields {
		cols = append(cols, f.Name)
	}
	return append(cols, d.bandLabels...)
}

// NumericColumns returns every column that Series accepts.
func (d *Dataset) NumericColumns() []string {
	cols := make([]string, 0, numericFieldCount+len(d.bandLabels))
	for _, f := range MetadataFields[2:] {
		cols = append(cols, f.Name)
	}
	return append(cols, d.bandLabels...)
}

// RoutineCodes returns the distinct routine codes in order of first
// appearance.
func (d *Dataset) RoutineCodes() []string {
	seen := make(map[string]struct{})
	var codes []string
	for _, r := range d.records {
		if _, ok := seen[r.RoutineCode]; ok {
			continue
		}
		seen[r.RoutineCode] = struct{}{}
		codes = append(codes, r.RoutineCode)
	}
	return codes
}

// FilterRoutine keeps records whose routine code equals code exactly.
func (d *Dataset) FilterRoutine(code string) *Dataset {
	return d.filter(func(r Record) bool { return r.RoutineCode == code })
}

// FilterTimeRange keeps records with from <= timestamp <= to. A zero bound
// is open. Records with a missing timestamp are always excluded.
func (d *Dataset) FilterTimeRange(from, to time.Time) *Dataset {
	return d.filter(func(r Record) bool {
		if !r.Timestamp.Valid {
			return false
		}
		t := r.Timestamp.Time
		if !from.IsZero() && t.Before(from) {
			return false
		}
		if !to.IsZero() && t.After(to) {
			return false
		}
		return true
	})
}

func (d *Dataset) filter(keep func(Record) bool) *Dataset {
	out := make([]Record, 0, len(d.records))
	for _, r := range d.records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return &Dataset{records: out, bandLabels: d.bandLabels, summary: d.summary, loadedAt: d.loadedAt}
}

// columnRef locates a numeric column: a metadata index, or a band index
// when band is true.
type columnRef struct {
	index int
	band  bool
}

func (d *Dataset) resolve(column string) (columnRef, error) {
	if i, ok := metadataIndex[column]; ok {
		if MetadataFields[i].Kind != KindFloat {
			return columnRef{}, fmt.Errorf("%w: %q", ErrNotNumeric, column)
		}
		return columnRef{index: i - 2}, nil
	}
	if i := slices.Index(d.bandLabels, column); i >= 0 {
		return columnRef{index: i, band: true}, nil
	}
	return columnRef{}, fmt.Errorf("%w: %q", ErrUnknownColumn, column)
}

func (ref columnRef) value(r Record) NullFloat {
	if !ref.band {
		return r.Numeric[ref.index]
	}
	if ref.index >= len(r.Bands) {
		return NullFloat{}
	}
	return r.Bands[ref.index].Mean
}

// Value returns the value of a numeric column for r.
func (d *Dataset) Value(r Record, column string) (NullFloat, error) {
	ref, err := d.resolve(column)
	if err != nil {
		return NullFloat{}, err
	}
	return ref.value(r), nil
}

// Series projects column against Timestamp, ordered by time. Records with
// a missing value or timestamp are skipped.
func (d *Dataset) Series(column string) ([]Point, error) {
	ref, err := d.resolve(column)
	if err != nil {
		return nil, err
	}
	points := make([]Point, 0, len(d.records))
	for _, r := range d.records {
		v := ref.value(r)
		if !v.Valid || !r.Timestamp.Valid {
			continue
		}
		points = append(points, Point{Time: r.Timestamp.Time, Value: v.Float64})
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Time.Before(points[j].Time) })
	return points, nil
}

// Stats reduces column over its non-missing values.
func (d *Dataset) Stats(column string) (ColumnStats, error) {
	ref, err := d.resolve(column)
	if err != nil {
		return ColumnStats{}, err
	}
	stats := ColumnStats{Column: column}
	var sum, lo, hi float64
	for _, r := range d.records {
		v := ref.value(r)
		if !v.Valid {
			stats.Missing++
			continue
		}
		if stats.Count == 0 {
			lo, hi = v.Float64, v.Float64
		}
		stats.Count++
		sum += v.Float64
		lo = math.Min(lo, v.Float64)
		hi = math.Max(hi, v.Float64)
	}
	if stats.Count == 0 {
		return stats, nil
	}
	stats.Min = Some(lo)
	stats.Max = Some(hi)
	stats.Mean = Some(sum / float64(stats.Count))
	return stats, nil
}
