package domain

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dsnet/compress/bzip2"
	"github.com/stretchr/testify/require"
)

const (
	testMetadata = "ABC 2021-01-01T00:00:00 1 1 5.0 100 1 0 1 1 45.0 0 90.0 0 1 10.0 20.1 20.2 20.3 20.4 50 900 1.0 0"
	testSource   = "Pandora1s1_Test_20210101_L0.txt"
)

var testMarker = strings.Repeat("-", 90)

// pixels returns n copies of v joined by spaces.
func pixels(v string, n int) string {
	return strings.TrimSpace(strings.Repeat(v+" ", n))
}

// dataLine builds one data line from a metadata prefix and pixel groups.
func dataLine(meta string, groups ...string) string {
	parts := append([]string{meta}, groups...)
	return strings.Join(parts, " ")
}

func bz2Compress(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := bzip2.NewWriter(&buf, &bzip2.WriterConfig{Level: 9})
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}
