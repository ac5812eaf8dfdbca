package tsk

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func installFakeTool(t *testing.T, dir, name string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755))
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	installFakeTool(t, dir, Fls)
	installFakeTool(t, dir, Fsstat)
	t.Setenv("PATH", dir)

	ts := Discover()

	assert.True(t, ts.Available(Fls))
	assert.True(t, ts.Available(Fsstat))
	assert.False(t, ts.Available(Sigfind))
	assert.Equal(t, filepath.Join(dir, Fls), ts.Path(Fls))

	// Unresolved tools keep their bare name.
	assert.Equal(t, Sigfind, ts.Path(Sigfind))
}

func TestMissingSleuthKit(t *testing.T) {
	dir := t.TempDir()
	for _, name := range SleuthKitTools {
		installFakeTool(t, dir, name)
	}
	t.Setenv("PATH", dir)

	assert.Empty(t, Discover().MissingSleuthKit())
}

func TestMissingSleuthKitReportsSorted(t *testing.T) {
	dir := t.TempDir()
	installFakeTool(t, dir, Fls)
	installFakeTool(t, dir, Icat)
	t.Setenv("PATH", dir)

	missing := Discover().MissingSleuthKit()
	assert.Equal(t, []string{Fsstat, Istat, Pstat, Sigfind}, missing)
}
