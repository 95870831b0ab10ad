package domain

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_EndToEnd(t *testing.T) {
	fixed := time.Date(2024, 4, 26, 12, 30, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(fixed))
	t.Cleanup(func() { SetClock(nil) })

	body := strings.Join([]string{
		"File name: Pandora1s1_Test_20210101_L0.txt",
		testMarker,
		"# comment inside the data section",
		"",
		dataLine(testMetadata, pixels("1.0", 200), pixels("3.0", 200)),
	}, "\n")

	cfg := DefaultParseConfig()
	cfg.Scan.MinMarkerLength = 80

	ds, err := Parse(NewRawBlob(testSource, []byte(body)), cfg)
	require.NoError(t, err)
	require.Equal(t, 1, ds.Len())

	rec := ds.Record(0)
	assert.Equal(t, "ABC", rec.RoutineCode)
	require.True(t, rec.Timestamp.Valid)
	assert.Equal(t, time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), rec.Timestamp.Time)
	require.Len(t, rec.Bands, 2)
	assert.Equal(t, Band{Label: "Pixel 1-200", Mean: Some(1.0)}, rec.Bands[0])
	assert.Equal(t, Band{Label: "Pixel 201-400", Mean: Some(3.0)}, rec.Bands[1])
	assert.Equal(t, 5, rec.Line)
	assert.Zero(t, rec.MissingFields)

	want := LoadSummary{
		Source:         testSource,
		Format:         FormatPlain,
		LinesScanned:   5,
		DataStart:      2,
		MarkerFound:    true,
		CandidateLines: 1,
		RecordsKept:    1,
		BandCount:      2,
	}
	if diff := cmp.Diff(want, ds.Summary()); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, fixed, ds.LoadedAt())
	assert.Equal(t, []string{"Pixel 1-200", "Pixel 201-400"}, ds.BandLabels())
}

func TestParse_Bzip2(t *testing.T) {
	body := testMarker + "\n" + dataLine(testMetadata, pixels("2", 200))
	blob := NewRawBlob(testSource+".bz2", bz2Compress(t, []byte(body)))
	require.Equal(t, FormatBzip2, blob.Format)

	cfg := DefaultParseConfig()
	cfg.Scan.MinMarkerLength = 90

	ds, err := Parse(blob, cfg)
	require.NoError(t, err)
	require.Equal(t, 1, ds.Len())
	assert.Equal(t, Some(2), ds.Record(0).Bands[0].Mean)
	assert.Equal(t, FormatBzip2, ds.Summary().Format)
}

func TestParse_TokenCountInvariant(t *testing.T) {
	for _, bands := range []int{0, 1, 3, 10} {
		line := testMetadata
		if bands > 0 {
			line = dataLine(testMetadata, pixels("7", bands*DefaultBandWidth))
		}
		ds, err := ParseText("t", FormatPlain, line, DefaultParseConfig())
		require.NoError(t, err)

		rec := ds.Record(0)
		total := len(strings.Fields(line))
		assert.Equal(t, total, len(rec.Bands)*DefaultBandWidth+MetadataFieldCount, "bands=%d", bands)
		assert.Zero(t, ds.Summary().PartialBandRecords)
	}
}

func TestParse_PartialBandDropped(t *testing.T) {
	line := dataLine(testMetadata, pixels("1", 200), pixels("9", 150))
	ds, err := ParseText("t", FormatPlain, line, DefaultParseConfig())
	require.NoError(t, err)

	require.Len(t, ds.Record(0).Bands, 1)
	assert.Equal(t, Some(1), ds.Record(0).Bands[0].Mean)
	assert.Equal(t, 1, ds.Summary().PartialBandRecords)
	assert.Equal(t, 1, ds.Summary().BandCount)
}

func TestParse_ShortRecordDropped(t *testing.T) {
	body := strings.Join([]string{
		testMarker,
		"AB 2021-01-01T00:00:00 1 2 3 4 5 6 7 8",
		dataLine(testMetadata, pixels("1", 200)),
	}, "\n")

	ds, err := ParseText("t", FormatPlain, body, ParseConfig{Scan: ScanConfig{MinMarkerLength: 90, Occurrence: 1}})
	require.NoError(t, err)

	assert.Equal(t, 1, ds.Len())
	s := ds.Summary()
	assert.Equal(t, 2, s.CandidateLines)
	assert.Equal(t, 1, s.RecordsKept)
	assert.Equal(t, 1, s.RecordsDropped)
	assert.Equal(t, []int{2}, s.DroppedLines)
}

func TestParse_LinesScannedIgnoresFinalNewline(t *testing.T) {
	body := strings.Join([]string{
		"header",
		testMarker,
		dataLine(testMetadata, pixels("1.0", 200)),
	}, "\n")

	for _, text := range []string{body, body + "\n", strings.ReplaceAll(body, "\n", "\r\n") + "\r\n"} {
		ds, err := ParseText(testSource, FormatPlain, text, DefaultParseConfig())
		require.NoError(t, err)
		assert.Equal(t, 3, ds.Summary().LinesScanned)
		assert.Equal(t, 2, ds.Summary().DataStart)
		assert.Equal(t, 3, ds.Record(0).Line)
	}
}

func TestParse_EmptyResult(t *testing.T) {
	body := strings.Join([]string{
		"header",
		testMarker,
		"# only comments",
		"too few tokens here",
	}, "\n")

	_, err := ParseText("bad.txt", FormatPlain, body, DefaultParseConfig())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptyResult))

	var empty *EmptyResultError
	require.ErrorAs(t, err, &empty)
	assert.Equal(t, 4, empty.Summary.LinesScanned)
	assert.Equal(t, 2, empty.Summary.DataStart)
	assert.Equal(t, 1, empty.Summary.RecordsDropped)
	assert.Contains(t, err.Error(), "bad.txt")
}

func TestParse_NoMarkerTreatsAllAsData(t *testing.T) {
	ds, err := ParseText("t", FormatPlain, dataLine(testMetadata, pixels("4", 200)), DefaultParseConfig())
	require.NoError(t, err)
	assert.False(t, ds.Summary().MarkerFound)
	assert.Equal(t, 0, ds.Summary().DataStart)
	assert.Equal(t, 1, ds.Len())
}

func TestParse_SecondMarkerOccurrence(t *testing.T) {
	body := strings.Join([]string{
		"Instrument: Pandora 1s1",
		testMarker,
		"Column 1: Two letter code of measurement routine",
		"Column 2: UT date and time for beginning of measurement",
		testMarker,
		dataLine("SO 20210101T000012.3Z 1 1 5.0 100 1 0 1 1 45.0 0 90.0 0 1 10.0 20.1 20.2 20.3 20.4 50 900 1.0 0", pixels("5", 400)),
	}, "\n")

	cfg := DefaultParseConfig()
	cfg.Scan = ScanConfig{MinMarkerLength: 87, Occurrence: 2}
	ds, err := ParseText("t", FormatPlain, body, cfg)
	require.NoError(t, err)

	assert.Equal(t, 5, ds.Summary().DataStart)
	assert.Zero(t, ds.Summary().RecordsDropped)
	rec := ds.Record(0)
	assert.Equal(t, "SO", rec.RoutineCode)
	assert.Equal(t, time.Date(2021, 1, 1, 0, 0, 12, 300_000_000, time.UTC), rec.Timestamp.Time)
}

func TestParse_MaxBands(t *testing.T) {
	cfg := DefaultParseConfig()
	cfg.MaxBands = 2
	ds, err := ParseText("t", FormatPlain, dataLine(testMetadata, pixels("1", 1000)), cfg)
	require.NoError(t, err)
	assert.Len(t, ds.Record(0).Bands, 2)
	assert.Equal(t, 2, ds.Summary().BandCount)
}

func TestParse_UnevenBandCounts(t *testing.T) {
	body := strings.Join([]string{
		dataLine(testMetadata, pixels("1", 400)),
		dataLine(testMetadata, pixels("2", 200)),
	}, "\n")
	ds, err := ParseText("t", FormatPlain, body, DefaultParseConfig())
	require.NoError(t, err)

	assert.Equal(t, []string{"Pixel 1-200", "Pixel 201-400"}, ds.BandLabels())
	v, err := ds.Value(ds.Record(1), "Pixel 201-400")
	require.NoError(t, err)
	assert.False(t, v.Valid)
}

func TestParse_CRLF(t *testing.T) {
	body := testMarker + "\r\n" + dataLine(testMetadata, pixels("1", 200)) + "\r\n"
	cfg := DefaultParseConfig()
	cfg.Scan.MinMarkerLength = 90
	ds, err := ParseText("t", FormatPlain, body, cfg)
	require.NoError(t, err)
	assert.True(t, ds.Summary().MarkerFound)
	assert.Equal(t, 1, ds.Len())
}

func TestParse_CorruptBzip2(t *testing.T) {
	_, err := Parse(RawBlob{Name: "x.bz2", Data: []byte("definitely not bzip2"), Format: FormatBzip2}, DefaultParseConfig())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCorrupt)
}
