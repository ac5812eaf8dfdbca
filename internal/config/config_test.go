package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, int64(4096), cfg.BlockSize)
	assert.Equal(t, int64(8), cfg.ScanStep)
	assert.Equal(t, 32, cfg.SigfindOffset)
	assert.Equal(t, int64(0), cfg.SectorOffset)
	assert.Equal(t, 30*time.Second, cfg.ToolTimeout)
	assert.Equal(t, 10*time.Minute, cfg.ExportTimeout)
	assert.Equal(t, "512KiB", cfg.MaxPreview)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("APFSHUNT_BLOCK_SIZE", "65536")
	t.Setenv("APFSHUNT_TOOL_TIMEOUT", "2m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, int64(65536), cfg.BlockSize)
	assert.Equal(t, 2*time.Minute, cfg.ToolTimeout)
}

func TestPreviewBytes(t *testing.T) {
	cfg := &Config{MaxPreview: "512KiB"}
	n, err := cfg.PreviewBytes()
	require.NoError(t, err)
	assert.Equal(t, int64(512*1024), n)

	cfg.MaxPreview = "not-a-size"
	_, err = cfg.PreviewBytes()
	assert.Error(t, err)
}
