package mount

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsArgs(t *testing.T) {
	testCases := []struct {
		name        string
		opts        Options
		expected    []string
		expectError bool
	}{
		{
			name: "EWF image",
			opts: Options{Format: FormatEWF, Image: "case.E01", MountPoint: "/mnt/xm"},
			expected: []string{
				"--in", "ewf", "case.E01", "--out", "dmg", "/mnt/xm",
			},
		},
		{
			name: "AFF4 image with cache",
			opts: Options{Format: FormatAFF4, Image: "case.aff4", MountPoint: "/mnt/xm", CacheFile: "/tmp/xm.cache"},
			expected: []string{
				"--in", "aff4", "case.aff4", "--out", "dmg", "--cache", "/tmp/xm.cache", "/mnt/xm",
			},
		},
		{
			name:        "Unknown format",
			opts:        Options{Format: Format("vmdk"), Image: "case.vmdk", MountPoint: "/mnt/xm"},
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			args, err := tc.opts.Args()
			if tc.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, args)
		})
	}
}

func TestFindDMG(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "case.info"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "case.dmg"), nil, 0o644))

	dmg, err := FindDMG(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "case.dmg"), dmg)
}

func TestFindDMGMissing(t *testing.T) {
	dir := t.TempDir()
	_, err := FindDMG(dir)
	assert.Error(t, err)
}
