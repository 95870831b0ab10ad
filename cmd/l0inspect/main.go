// Command l0inspect parses local Pandora L0 files and reports, per file, the
// load summary and the statistics of every pixel band. Files are parsed in
// parallel. The exit code is non-zero if any file fails to load.
//
// Usage:
//
//	go run ./cmd/l0inspect -marker-occurrence 2 \
//	  data/Pandora57s1_Boulder_20210101_L0.txt.bz2 \
//	  data/Pandora57s1_Boulder_20210102_L0.txt.bz2
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/couchcryptid/pgn-l0-service/internal/domain"
	"golang.org/x/sync/errgroup"
)

// report holds the outcome of one file.
type report struct {
	path  string
	ds    *domain.Dataset
	err   error
	notes []string
}

func (r *report) notef(format string, args ...any) {
	r.notes = append(r.notes, fmt.Sprintf(format, args...))
}

func (r *report) passed() bool { return r.err == nil }

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("l0inspect", flag.ContinueOnError)
	fs.SetOutput(stderr)
	markerLen := fs.Int("marker-length", domain.DefaultMarkerLength, "minimum dash run that counts as a section marker")
	occurrence := fs.Int("marker-occurrence", 1, "marker after which data lines start")
	bandWidth := fs.Int("band-width", domain.DefaultBandWidth, "pixels averaged per band")
	maxBands := fs.Int("max-bands", 0, "cap on band columns (0 = unlimited)")
	parallel := fs.Int("parallel", runtime.GOMAXPROCS(0), "files parsed concurrently")
	failFast := fs.Bool("fail-fast", false, "stop at the first file that fails to load")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	cfg := domain.ParseConfig{
		Scan:      domain.ScanConfig{MinMarkerLength: *markerLen, Occurrence: *occurrence},
		BandWidth: *bandWidth,
		MaxBands:  *maxBands,
	}
	reports := inspectAll(ctx, fs.Args(), cfg, *parallel, *failFast)

	failed := 0
	for _, r := range reports {
		printReport(stdout, r)
		if !r.passed() {
			failed++
		}
	}

	fmt.Fprintln(stdout)
	if failed > 0 {
		fmt.Fprintf(stdout, "%d of %d files FAILED.\n", failed, len(reports))
		return 1
	}
	fmt.Fprintf(stdout, "All %d files loaded.\n", len(reports))
	return 0
}

// inspectAll parses every path with at most parallel workers. Reports keep
// the input order. With failFast the first failure cancels files that have
// not started yet.
func inspectAll(ctx context.Context, paths []string, cfg domain.ParseConfig, parallel int, failFast bool) []*report {
	reports := make([]*report, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(parallel, 1))

	for i, path := range paths {
		reports[i] = &report{path: path}
		g.Go(func() error {
			r := reports[i]
			if err := gctx.Err(); err != nil {
				r.err = fmt.Errorf("skipped: %w", err)
				return nil
			}
			r.ds, r.err = inspect(path, cfg)
			if r.err != nil && failFast {
				return r.err
			}
			return nil
		})
	}
	_ = g.Wait() // per-file errors live in the reports
	return reports
}

func inspect(path string, cfg domain.ParseConfig) (*domain.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ds, err := domain.Parse(domain.NewRawBlob(filepath.Base(path), data), cfg)
	if err != nil {
		return nil, err
	}
	return ds, nil
}

func printReport(w io.Writer, r *report) {
	status := "\033[32mPASS\033[0m"
	if !r.passed() {
		status = "\033[31mFAIL\033[0m"
	}
	fmt.Fprintf(w, "\n=== %s %s\n", r.path, status)
	if r.err != nil {
		fmt.Fprintf(w, "  error: %v\n", r.err)
		return
	}

	s := r.ds.Summary()
	if !s.MarkerFound {
		r.notef("no marker line found, data assumed to start at line 1")
	}
	if s.RecordsDropped > 0 {
		r.notef("%d lines dropped, first at %v", s.RecordsDropped, s.DroppedLines)
	}
	if s.PartialBandRecords > 0 {
		r.notef("%d records had trailing pixels outside a full band", s.PartialBandRecords)
	}

	fmt.Fprintf(w, "  format:          %s\n", s.Format)
	fmt.Fprintf(w, "  lines scanned:   %d (data from line %d)\n", s.LinesScanned, s.DataStart+1)
	fmt.Fprintf(w, "  records:         %d kept, %d dropped\n", s.RecordsKept, s.RecordsDropped)
	fmt.Fprintf(w, "  missing fields:  %d\n", s.MissingFields)
	fmt.Fprintf(w, "  routine codes:   %v\n", r.ds.RoutineCodes())
	fmt.Fprintf(w, "  bands:           %d\n", s.BandCount)

	for _, label := range r.ds.BandLabels() {
		st, err := r.ds.Stats(label)
		if err != nil {
			fmt.Fprintf(w, "    %-16s error: %v\n", label, err)
			continue
		}
		if st.Count == 0 {
			fmt.Fprintf(w, "    %-16s n=0      missing=%-4d no values\n", label, st.Missing)
			continue
		}
		fmt.Fprintf(w, "    %-16s n=%-6d missing=%-4d min=%-12.3f max=%-12.3f mean=%.3f\n",
			label, st.Count, st.Missing, st.Min.Float64, st.Max.Float64, st.Mean.Float64)
	}
	for i, n := range r.notes {
		fmt.Fprintf(w, "  [%d] %s\n", i+1, n)
	}
}
