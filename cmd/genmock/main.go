// Command genmock writes a synthetic Pandora L0 file for local testing and
// demos. The output is bzip2-compressed when its name ends in .bz2. A fixed
// clock keeps the header reproducible across runs.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -out data/mock/Pandora57s1_Boulder_20210101_L0.txt.bz2 \
//	  -records 500 -pixels 2048
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/pgn-l0-service/internal/domain"
	"github.com/couchcryptid/pgn-l0-service/internal/mockdata"
	"github.com/jonboulle/clockwork"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	defaults := mockdata.DefaultOptions()
	out := flag.String("out", "", "output path (.bz2 suffix compresses)")
	device := flag.String("device", defaults.Device, "instrument and spectrometer name")
	location := flag.String("location", defaults.Location, "location name")
	start := flag.String("start", defaults.Start.Format(time.RFC3339), "timestamp of the first record (RFC 3339)")
	interval := flag.Duration("interval", defaults.Interval, "time between records")
	records := flag.Int("records", defaults.Records, "number of data lines")
	pixels := flag.Int("pixels", defaults.Pixels, "pixel values per data line")
	routines := flag.String("routines", strings.Join(defaults.RoutineCodes, ","), "comma-separated routine codes, cycled per line")
	seed := flag.Uint64("seed", defaults.Seed, "random seed")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	startAt, err := time.Parse(time.RFC3339, *start)
	if err != nil {
		return fmt.Errorf("invalid -start: %w", err)
	}

	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2024, time.April, 27, 6, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	opts := mockdata.Options{
		Device:       *device,
		Location:     *location,
		Start:        startAt,
		Interval:     *interval,
		Records:      *records,
		Pixels:       *pixels,
		RoutineCodes: strings.Split(*routines, ","),
		Seed:         *seed,
	}
	compress := domain.FormatFromFilename(*out) == domain.FormatBzip2
	data, err := mockdata.Bytes(opts, compress)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(*out, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", *out, err)
	}
	log.Printf("wrote %s: %d records, %d pixels, %d bytes", *out, *records, *pixels, len(data))
	return nil
}
