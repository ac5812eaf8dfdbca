package scan

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-apfshunt/internal/tsk"
)

// fakeSigfindRunner puts a shell script named sigfind on PATH and returns a
// runner that resolves it.
func fakeSigfindRunner(t *testing.T, script string) *tsk.Runner {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "sigfind")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	t.Setenv("PATH", dir)
	return tsk.NewRunner(tsk.Discover(), 30*time.Second)
}

func TestSigfindScan(t *testing.T) {
	runner := fakeSigfindRunner(t, `
echo "Block: 249423 (-)"
echo "Block: 512000 (262577)"
echo "Block: 249423 (-262577)"
echo "not a hit line"
`)

	scanner := NewSigfindScanner(runner, DefaultBlockSize, 32)

	var found []int64
	var lastHits int64
	outPath, hits, err := scanner.Scan(context.Background(), "ignored.dd", func(block int64) {
		found = append(found, block)
	}, func(lines, hits int64) {
		lastHits = hits
	})
	if outPath != "" {
		defer os.Remove(outPath)
	}

	require.NoError(t, err)
	assert.Equal(t, int64(2), hits)
	assert.Equal(t, []int64{249423, 512000}, found)
	assert.LessOrEqual(t, lastHits, int64(2))
}

func TestSweepHitsRecoversTrailingLines(t *testing.T) {
	// Lines the tailer never delivered before sigfind exited must still be
	// forwarded from the output file.
	path := filepath.Join(t.TempDir(), "sigfind.txt")
	require.NoError(t, os.WriteFile(path, []byte(
		"Block: 249423 (-)\n"+
			"Block: 512000 (262577)\n"+
			"Block: 512000 (-)\n"+
			"garbage line\n"+
			"Block: 777 (265423)\n"), 0o644))

	seen := map[int64]struct{}{249423: {}}

	var found []int64
	hits, err := sweepHits(path, seen, func(block int64) {
		found = append(found, block)
	})

	require.NoError(t, err)
	assert.Equal(t, int64(2), hits)
	assert.Equal(t, []int64{512000, 777}, found)
	assert.Len(t, seen, 3)
}

func TestSigfindScanFailure(t *testing.T) {
	runner := fakeSigfindRunner(t, `exit 1`)

	scanner := NewSigfindScanner(runner, DefaultBlockSize, 32)
	outPath, hits, err := scanner.Scan(context.Background(), "ignored.dd", nil, nil)
	if outPath != "" {
		defer os.Remove(outPath)
	}

	assert.Error(t, err)
	assert.Zero(t, hits)
}

func TestSigfindScanCancelled(t *testing.T) {
	runner := fakeSigfindRunner(t, `
echo "Block: 100 (-)"
sleep 10
`)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	scanner := NewSigfindScanner(runner, DefaultBlockSize, 32)
	outPath, hits, err := scanner.Scan(ctx, "ignored.dd", nil, nil)
	if outPath != "" {
		defer os.Remove(outPath)
	}

	assert.Error(t, err)
	assert.Equal(t, int64(1), hits)
}

func TestParseHitLine(t *testing.T) {
	testCases := []struct {
		name          string
		line          string
		expectedBlock int64
		expectedOK    bool
	}{
		{"Plain hit", "Block: 249423 (-)", 249423, true},
		{"Hit with delta", "Block: 512000 (262577)", 512000, true},
		{"Leading whitespace", "  Block: 7 (-)", 7, true},
		{"Header line", "Block size: 4096", 0, false},
		{"Garbage", "nothing here", 0, false},
		{"Empty", "", 0, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			block, ok := ParseHitLine(tc.line)
			assert.Equal(t, tc.expectedOK, ok)
			assert.Equal(t, tc.expectedBlock, block)
		})
	}
}
