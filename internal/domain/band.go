package domain

import (
	"fmt"
	"math"
	"strconv"
)

// DefaultBandWidth is the number of pixels averaged into one band.
const DefaultBandWidth = 200

// BandLabel returns the column label of band i (0-based), e.g.
// BandLabel(1, 200) == "Pixel 201-400".
func BandLabel(i, width int) string {
	start := 1 + i*width
	return fmt.Sprintf("Pixel %d-%d", start, start+width-1)
}

// BandLabels returns the labels of the first n bands.
func BandLabels(n, width int) []string {
	labels := make([]string, n)
	for i := range labels {
		labels[i] = BandLabel(i, width)
	}
	return labels
}

// AggregateBands cuts pixels into consecutive full chunks of width and
// averages each one. Tokens that do not parse are left out of the mean; a
// chunk with no parseable token is missing. A trailing partial chunk is
// dropped.
func AggregateBands(pixels []string, width int) []Band {
	if width <= 0 {
		return nil
	}
	n := len(pixels) / width
	bands := make([]Band, n)
	for i := 0; i < n; i++ {
		bands[i] = Band{
			Label: BandLabel(i, width),
			Mean:  mean(pixels[i*width : (i+1)*width]),
		}
	}
	return bands
}

func mean(tokens []string) NullFloat {
	var sum float64
	var count int
	for _, tok := range tokens {
		v, ok := parseFinite(tok)
		if !ok {
			continue
		}
		sum += v
		count++
	}
	if count == 0 {
		return NullFloat{}
	}
	return Some(sum / float64(count))
}

// parseFinite parses s as float64. NaN and infinities are treated as
// unparseable so they never masquerade as a measurement.
func parseFinite(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
