package domain

// maxDroppedLines bounds LoadSummary.DroppedLines.
const maxDroppedLines = 50

// ParseConfig controls a single parse.
type ParseConfig struct {
	Scan      ScanConfig
	BandWidth int
	// MaxBands caps the number of band columns. Zero means no cap.
	MaxBands int
}

// DefaultParseConfig returns the PGN defaults: first 87-dash marker and
// 200-pixel bands without a cap.
func DefaultParseConfig() ParseConfig {
	return ParseConfig{Scan: DefaultScanConfig(), BandWidth: DefaultBandWidth}
}

// Parse decodes blob and builds a Dataset. A decode failure is returned
// as-is. Short records are dropped and tallied, and unparseable fields
// become missing. If no record survives, a *EmptyResultError carrying the
// summary is returned.
func Parse(blob RawBlob, cfg ParseConfig) (*Dataset, error) {
	text, err := Decompress(blob)
	if err != nil {
		return nil, err
	}
	return ParseText(blob.Name, blob.Format, text, cfg)
}

// ParseText runs everything after decompression.
func ParseText(source string, format Format, text string, cfg ParseConfig) (*Dataset, error) {
	if cfg.BandWidth <= 0 {
		cfg.BandWidth = DefaultBandWidth
	}

	lines := SplitLines(text)
	start, found := FindDataStart(lines, cfg.Scan)
	candidates := Tokenize(lines[start:], start)

	summary := LoadSummary{
		Source:         source,
		Format:         format,
		LinesScanned:   len(lines),
		DataStart:      start,
		MarkerFound:    found,
		CandidateLines: len(candidates),
	}

	records := make([]Record, 0, len(candidates))
	maxBands := 0
	for _, tl := range candidates {
		fields, err := MapFields(tl.Tokens)
		if err != nil {
			summary.RecordsDropped++
			if len(summary.DroppedLines) < maxDroppedLines {
				summary.DroppedLines = append(summary.DroppedLines, tl.Line)
			}
			continue
		}
		if fields.Leftover(cfg.BandWidth) > 0 {
			summary.PartialBandRecords++
		}

		rec := Coerce(fields)
		rec.Line = tl.Line
		rec.Bands = AggregateBands(fields.Pixels, cfg.BandWidth)
		if cfg.MaxBands > 0 && len(rec.Bands) > cfg.MaxBands {
			rec.Bands = rec.Bands[:cfg.MaxBands]
		}
		if len(rec.Bands) > maxBands {
			maxBands = len(rec.Bands)
		}
		summary.MissingFields += rec.MissingFields
		records = append(records, rec)
	}

	summary.RecordsKept = len(records)
	summary.BandCount = maxBands
	if len(records) == 0 {
		return nil, &EmptyResultError{Summary: summary}
	}

	return &Dataset{
		records:    records,
		bandLabels: BandLabels(maxBands, cfg.BandWidth),
		summary:    summary,
		loadedAt:   clock.Now(),
	}, nil
}
