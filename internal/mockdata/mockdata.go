// Package mockdata generates synthetic Pandora L0 files. The layout follows
// the archive files: a header block, a dashed marker, the column legend, a
// second marker, then one whitespace-separated data line per measurement.
package mockdata

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/pgn-l0-service/internal/domain"
	"github.com/dsnet/compress/bzip2"
)

// Options controls the generated file.
type Options struct {
	Device       string
	Location     string
	Start        time.Time
	Interval     time.Duration
	Records      int
	Pixels       int
	RoutineCodes []string
	Seed         uint64

	// GeneratedAt is written to the header. Zero uses the domain clock.
	GeneratedAt time.Time
}

// DefaultOptions returns a small two-routine file with 2048 pixels per line.
func DefaultOptions() Options {
	return Options{
		Device:       "Pandora57s1",
		Location:     "Boulder",
		Start:        time.Date(2021, time.January, 1, 12, 0, 0, 0, time.UTC),
		Interval:     90 * time.Second,
		Records:      20,
		Pixels:       2048,
		RoutineCodes: []string{"SO", "MS"},
		Seed:         1,
	}
}

// FileName returns the archive-style file name for opts.
func FileName(opts Options) string {
	return fmt.Sprintf("%s_%s_%s_L0.txt", opts.Device, opts.Location, opts.Start.UTC().Format("20060102"))
}

// Generate writes a plain-text L0 file.
func Generate(w io.Writer, opts Options) error {
	if opts.Records < 0 || opts.Pixels < 0 {
		return errors.New("records and pixels must not be negative")
	}
	codes := opts.RoutineCodes
	if len(codes) == 0 {
		codes = []string{"SO"}
	}
	generatedAt := opts.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = domain.Now()
	}
	marker := strings.Repeat("-", domain.DefaultMarkerLength)
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))

	var b strings.Builder
	fmt.Fprintf(&b, "File name: %s\n", FileName(opts))
	fmt.Fprintf(&b, "File generation date and time: %s\n", generatedAt.UTC().Format("20060102T150405Z"))
	b.WriteString("Instrument type: Pandora\n")
	fmt.Fprintf(&b, "Instrument number: %s\n", strings.TrimPrefix(opts.Device, "Pandora"))
	fmt.Fprintf(&b, "Location name: %s\n", opts.Location)
	b.WriteString(marker + "\n")
	for i, f := range domain.MetadataFields {
		fmt.Fprintf(&b, "Column %d: %s\n", i+1, f.Name)
	}
	if opts.Pixels > 0 {
		fmt.Fprintf(&b, "Column %d-%d: Raw counts for pixels 1 to %d\n",
			domain.MetadataFieldCount+1, domain.MetadataFieldCount+opts.Pixels, opts.Pixels)
	}
	b.WriteString(marker + "\n")
	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}

	for i := range opts.Records {
		b.Reset()
		ts := opts.Start.UTC().Add(time.Duration(i) * opts.Interval)
		writeMetadata(&b, rng, codes[i%len(codes)], ts, i)
		base := 2000 + rng.Float64()*30000
		for p := range opts.Pixels {
			shape := 1 - float64((p-opts.Pixels/2)*(p-opts.Pixels/2))/float64(opts.Pixels*opts.Pixels)
			b.WriteByte(' ')
			b.WriteString(strconv.FormatFloat(base*shape+rng.Float64()*50, 'f', 1, 64))
		}
		b.WriteByte('\n')
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
	}
	return nil
}

func writeMetadata(b *strings.Builder, rng *rand.Rand, code string, ts time.Time, i int) {
	zenith := 20 + rng.Float64()*50
	fields := []string{
		code,
		ts.Format("20060102T150405") + ".0Z",
		strconv.Itoa(i + 1),
		"1",
		strconv.FormatFloat(1+rng.Float64()*4, 'f', 2, 64),
		strconv.FormatFloat(2+rng.Float64()*400, 'f', 1, 64),
		strconv.Itoa(1 + rng.IntN(100)),
		strconv.FormatFloat(rng.Float64(), 'f', 3, 64),
		strconv.Itoa(1 + rng.IntN(9)),
		strconv.Itoa(1 + rng.IntN(9)),
		strconv.FormatFloat(zenith, 'f', 3, 64),
		"0",
		strconv.FormatFloat(rng.Float64()*360, 'f', 3, 64),
		"0",
		"0",
		"-9e99",
		strconv.FormatFloat(25+rng.Float64()*5, 'f', 2, 64),
		strconv.FormatFloat(14.9+rng.Float64()*0.2, 'f', 2, 64),
		strconv.FormatFloat(20+rng.Float64()*5, 'f', 2, 64),
		strconv.FormatFloat(25+rng.Float64()*10, 'f', 2, 64),
		strconv.FormatFloat(10+rng.Float64()*30, 'f', 1, 64),
		strconv.FormatFloat(830+rng.Float64()*10, 'f', 1, 64),
		"1",
		"0",
	}
	b.WriteString(strings.Join(fields, " "))
}

// Bytes returns the generated file, bzip2-compressed when compress is set.
func Bytes(opts Options, compress bool) ([]byte, error) {
	var plain bytes.Buffer
	if err := Generate(&plain, opts); err != nil {
		return nil, err
	}
	if !compress {
		return plain.Bytes(), nil
	}
	return Compress(plain.Bytes())
}

// Compress returns data compressed with bzip2.
func Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := bzip2.NewWriter(&buf, &bzip2.WriterConfig{Level: 9})
	if err != nil {
		return nil, fmt.Errorf("create bzip2 writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("compress: %w", err)
	}
	return buf.Bytes(), nil
}
