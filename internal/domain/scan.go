package domain

import "strings"

const (
	// DefaultMarkerLength is the dash count of the PGN section rule.
	DefaultMarkerLength = 87
	markerChar          = '-'
	commentChar         = '#'
)

// ScanConfig controls how the data body is located.
type ScanConfig struct {
	MinMarkerLength int
	// Occurrence selects which marker line opens the data body (1-based).
	Occurrence int
}

// DefaultScanConfig returns the first-marker, 87-dash configuration.
func DefaultScanConfig() ScanConfig {
	return ScanConfig{MinMarkerLength: DefaultMarkerLength, Occurrence: 1}
}

// TokenLine is one tokenized data line.
type TokenLine struct {
	Line   int // 1-based
	Tokens []string
}

// SplitLines splits decoded text on "\n", stripping a trailing "\r". A final
// "\n" terminates the last line rather than starting an empty one, so the
// result length is the number of lines in the file.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// IsMarkerLine reports whether the trimmed line is a dash run of at least
// minLen characters.
func IsMarkerLine(line string, minLen int) bool {
	line = strings.TrimSpace(line)
	if line == "" || len(line) < minLen {
		return false
	}
	for i := 0; i < len(line); i++ {
		if line[i] != markerChar {
			return false
		}
	}
	return true
}

// FindDataStart returns the index of the line after the configured marker
// occurrence. When the marker is absent it returns 0 and false: the whole
// input is treated as data.
func FindDataStart(lines []string, cfg ScanConfig) (int, bool) {
	want := cfg.Occurrence
	if want < 1 {
		want = 1
	}
	minLen := cfg.MinMarkerLength
	if minLen < 1 {
		minLen = 1
	}
	seen := 0
	for i, line := range lines {
		if !IsMarkerLine(line, minLen) {
			continue
		}
		seen++
		if seen == want {
			return i + 1, true
		}
	}
	return 0, false
}

// Tokenize splits lines into whitespace-separated tokens, skipping blank
// and comment lines. offset is the index of lines[0] in the file and is
// used only to number the output.
func Tokenize(lines []string, offset int) []TokenLine {
	out := make([]TokenLine, 0, len(lines))
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || trimmed[0] == commentChar {
			continue
		}
		out = append(out, TokenLine{Line: offset + i + 1, Tokens: strings.Fields(trimmed)})
	}
	return out
}
