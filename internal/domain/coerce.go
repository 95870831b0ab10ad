package domain

import (
	"strings"
	"time"
)

// timestampLayouts are tried in order. The first is the native PGN form;
// fractional seconds after the seconds field are accepted by time.Parse.
var timestampLayouts = []string{
	"20060102T150405Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
}

// Coerce converts mapped fields into a typed Record. Every metadata field
// that fails to parse becomes missing and is counted in MissingFields; the
// record itself is always produced.
func Coerce(f Fields) Record {
	rec := Record{RoutineCode: f.Metadata[0]}

	rec.Timestamp = parseTimestamp(f.Metadata[1])
	if !rec.Timestamp.Valid {
		rec.MissingFields++
	}

	for i := range rec.Numeric {
		v, ok := parseFinite(f.Metadata[i+2])
		if !ok {
			rec.MissingFields++
			continue
		}
		rec.Numeric[i] = Some(v)
	}
	return rec
}

// parseTimestamp parses s as UTC using timestampLayouts.
func parseTimestamp(s string) NullTime {
	s = strings.TrimSpace(s)
	if s == "" {
		return NullTime{}
	}
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return NullTime{Time: t.UTC(), Valid: true}
		}
	}
	return NullTime{}
}
