package domain

import (
	"encoding/json"
	"time"
)

// Format identifies how a RawBlob is encoded.
type Format string

const (
	FormatPlain Format = "plain"
	FormatBzip2 Format = "bz2-compressed"
)

// RawBlob is file content as fetched or uploaded, before decoding.
type RawBlob struct {
	Name   string
	Data   []byte
	Format Format
}

// NewRawBlob builds a blob and infers its format from the filename.
func NewRawBlob(name string, data []byte) RawBlob {
	return RawBlob{Name: name, Data: data, Format: FormatFromFilename(name)}
}

// NullFloat is a float64 that may be missing. The zero value is missing.
type NullFloat struct {
	Float64 float64
	Valid   bool
}

// Some returns a present NullFloat.
func Some(v float64) NullFloat {
	return NullFloat{Float64: v, Valid: true}
}

func (n NullFloat) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Float64)
}

func (n *NullFloat) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*n = NullFloat{}
		return nil
	}
	if err := json.Unmarshal(b, &n.Float64); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

// NullTime is a timestamp that may be missing. The zero value is missing.
type NullTime struct {
	Time  time.Time
	Valid bool
}

func (n NullTime) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Time)
}

func (n *NullTime) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*n = NullTime{}
		return nil
	}
	if err := json.Unmarshal(b, &n.Time); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

// Band is one averaged pixel group.
type Band struct {
	Label string    `json:"label"`
	Mean  NullFloat `json:"mean"`
}

// Record is one parsed data line. Numeric holds the 22 numeric metadata
// fields in MetadataFields order, offset by two (Numeric[0] is field 2).
type Record struct {
	RoutineCode string                       `json:"routine_code"`
	Timestamp   NullTime                     `json:"timestamp"`
	Numeric     [numericFieldCount]NullFloat `json:"-"`
	Bands       []Band                       `json:"bands"`

	// Line is the 1-based line number in the decoded file.
	Line int `json:"line"`
	// MissingFields counts metadata fields coerced to missing.
	MissingFields int `json:"missing_fields,omitempty"`
}

// Metadata returns the numeric metadata fields keyed by column name.
func (r Record) Metadata() map[string]NullFloat {
	out := make(map[string]NullFloat, numericFieldCount)
	for i, v := range r.Numeric {
		out[MetadataFields[i+2].Name] = v
	}
	return out
}

func (r Record) MarshalJSON() ([]byte, error) {
	type alias Record
	return json.Marshal(struct {
		alias
		Metadata map[string]NullFloat `json:"metadata"`
	}{alias: alias(r), Metadata: r.Metadata()})
}

// LoadSummary tallies what happened during one parse.
type LoadSummary struct {
	Source             string `json:"source"`
	Format             Format `json:"format"`
	LinesScanned       int    `json:"lines_scanned"`
	DataStart          int    `json:"data_start"`
	MarkerFound        bool   `json:"marker_found"`
	CandidateLines     int    `json:"candidate_lines"`
	RecordsKept        int    `json:"records_kept"`
	RecordsDropped     int    `json:"records_dropped"`
	PartialBandRecords int    `json:"partial_band_records"`
	MissingFields      int    `json:"missing_fields"`
	BandCount          int    `json:"band_count"`

	// DroppedLines holds the line numbers of the first dropped records.
	DroppedLines []int `json:"dropped_lines,omitempty"`
}
