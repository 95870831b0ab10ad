package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/pgn-l0-service/internal/domain"
	"github.com/couchcryptid/pgn-l0-service/internal/mockdata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeMock(t *testing.T, dir string, compress bool) string {
	t.Helper()
	opts := mockdata.DefaultOptions()
	opts.Records = 4
	opts.Pixels = 600
	data, err := mockdata.Bytes(opts, compress)
	require.NoError(t, err)

	name := mockdata.FileName(opts)
	if compress {
		name += ".bz2"
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestRun_AllFilesLoad(t *testing.T) {
	dir := t.TempDir()
	plain := writeMock(t, dir, false)
	compressed := writeMock(t, dir, true)

	var out, errOut bytes.Buffer
	code := run(context.Background(), []string{"-marker-occurrence", "2", plain, compressed}, &out, &errOut)

	assert.Equal(t, 0, code, errOut.String())
	assert.Contains(t, out.String(), "bz2-compressed")
	assert.Contains(t, out.String(), "Pixel 401-600")
	assert.Contains(t, out.String(), "All 2 files loaded.")
}

func TestRun_FailureSetsExitCode(t *testing.T) {
	dir := t.TempDir()
	good := writeMock(t, dir, false)
	bad := filepath.Join(dir, "broken.txt.bz2")
	require.NoError(t, os.WriteFile(bad, []byte("BZh9 not really"), 0o600))

	var out, errOut bytes.Buffer
	code := run(context.Background(), []string{good, bad, filepath.Join(dir, "missing.txt")}, &out, &errOut)

	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "2 of 3 files FAILED.")
}

func TestRun_NoArgs(t *testing.T) {
	var out, errOut bytes.Buffer
	assert.Equal(t, 2, run(context.Background(), nil, &out, &errOut))
}

func TestInspectAll_KeepsInputOrder(t *testing.T) {
	dir := t.TempDir()
	paths := []string{writeMock(t, dir, true), filepath.Join(dir, "nope.txt"), writeMock(t, dir, false)}

	reports := inspectAll(context.Background(), paths, defaultTestConfig(), 3, false)
	require.Len(t, reports, 3)
	for i, r := range reports {
		assert.Equal(t, paths[i], r.path)
	}
	assert.True(t, reports[0].passed())
	assert.False(t, reports[1].passed())
	assert.True(t, reports[2].passed())
}

func defaultTestConfig() domain.ParseConfig {
	cfg := domain.DefaultParseConfig()
	cfg.Scan.Occurrence = 2
	return cfg
}
