package validate

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

// fakeFsstatRunner puts a shell script named fsstat on PATH and returns a
// runner that resolves it.
func fakeFsstatRunner(t *testing.T, script string) *tsk.Runner {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "fsstat")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	t.Setenv("PATH", dir)
	return tsk.NewRunner(tsk.Discover(), 30*time.Second)
}

const apfsFsstatScript = `
echo "File System Type: APFS"
echo "Name (Role): Data (Data)"
echo "APSB oid: 1080"
echo "APSB xid: 845142"
`

func TestValidateConfirmedVolume(t *testing.T) {
	runner := fakeFsstatRunner(t, apfsFsstatScript)
	v := NewValidator(runner, "case.dmg")

	res := v.Validate(context.Background(), 249423)

	require.NoError(t, res.Err)
	require.NotNil(t, res.Info)
	assert.Equal(t, int64(249423), res.Block)
	assert.True(t, res.Info.Valid)
	assert.Equal(t, "Data (Data)", res.Info.Name)
}

func TestValidateRejectedBlock(t *testing.T) {
	// fsstat prints a diagnostic on stderr and exits non-zero for bad blocks.
	runner := fakeFsstatRunner(t, `
echo "Cannot determine file system type" >&2
exit 1
`)
	v := NewValidator(runner, "case.dmg")

	res := v.Validate(context.Background(), 7)

	require.NoError(t, res.Err)
	require.NotNil(t, res.Info)
	assert.False(t, res.Info.Valid)
}

func TestQueueProcessesAllBlocks(t *testing.T) {
	runner := fakeFsstatRunner(t, apfsFsstatScript)
	q := NewQueue(context.Background(), NewValidator(runner, "case.dmg"), 8)

	assert.True(t, q.Enqueue(1))
	assert.True(t, q.Enqueue(2))
	assert.False(t, q.Enqueue(1))
	q.Close()

	var blocks []int64
	for res := range q.Results() {
		require.NoError(t, res.Err)
		assert.True(t, res.Info.Valid)
		blocks = append(blocks, res.Block)
	}
	require.NoError(t, q.Wait())
	assert.Equal(t, []int64{1, 2}, blocks)
}

func TestQueueEnqueueDoesNotBlockAfterCancel(t *testing.T) {
	// A hit burst larger than the buffer must not hang producers once the
	// worker has stopped on cancellation.
	runner := fakeFsstatRunner(t, apfsFsstatScript)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	q := NewQueue(ctx, NewValidator(runner, "case.dmg"), 1)

	produced := make(chan struct{})
	go func() {
		defer close(produced)
		for b := int64(1); b <= 8; b++ {
			q.Enqueue(b)
		}
	}()

	select {
	case <-produced:
	case <-time.After(5 * time.Second):
		t.Fatal("Enqueue blocked after cancellation")
	}

	q.Close()
	for range q.Results() {
	}
	assert.ErrorIs(t, q.Wait(), context.Canceled)
}

func TestQueueStopsOnCancel(t *testing.T) {
	runner := fakeFsstatRunner(t, apfsFsstatScript)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	q := NewQueue(ctx, NewValidator(runner, "case.dmg"), 8)
	q.Enqueue(1)
	q.Close()

	for range q.Results() {
	}
	assert.ErrorIs(t, q.Wait(), context.Canceled)
}
