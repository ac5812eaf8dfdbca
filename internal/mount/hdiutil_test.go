package mount

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttachArgs(t *testing.T) {
	testCases := []struct {
		name     string
		opts     AttachOptions
		expected []string
	}{
		{
			name:     "Default read-only",
			opts:     AttachOptions{},
			expected: []string{"attach", "-readonly", "case.dmg"},
		},
		{
			name:     "Shadow file",
			opts:     AttachOptions{Shadow: true},
			expected: []string{"attach", "-readonly", "-shadow", "case.dmg"},
		},
		{
			name:     "No mount",
			opts:     AttachOptions{NoMount: true},
			expected: []string{"attach", "-readonly", "-nomount", "case.dmg"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, AttachArgs("case.dmg", tc.opts))
		})
	}
}

func TestParseAttachOutput(t *testing.T) {
	output := `/dev/disk4          	GUID_partition_scheme
/dev/disk4s1        	Apple_APFS
/dev/disk5          	41504653-0000-11AA-AA11-00306543ECAC	/Volumes/Macintosh HD
`

	att := parseAttachOutput(output, false)
	require.NotNil(t, att)
	assert.Equal(t, "/dev/disk4", att.Device)
	assert.Equal(t, "", att.MountPoint)
}

func TestParseAttachOutputMountPoint(t *testing.T) {
	output := "/dev/disk5 41504653-0000-11AA-AA11-00306543ECAC /Volumes/Macintosh HD\n"

	att := parseAttachOutput(output, false)
	require.NotNil(t, att)
	assert.Equal(t, "/dev/disk5", att.Device)
	assert.Equal(t, "/Volumes/Macintosh HD", att.MountPoint)
}

func TestParseAttachOutputNoMount(t *testing.T) {
	output := "/dev/disk4 GUID_partition_scheme /Volumes/ignored\n"

	att := parseAttachOutput(output, true)
	require.NotNil(t, att)
	assert.Equal(t, "/dev/disk4", att.Device)
	assert.Empty(t, att.MountPoint)
}

func TestParseAttachOutputUnparseable(t *testing.T) {
	assert.Nil(t, parseAttachOutput("no devices here\n", false))
	assert.Nil(t, parseAttachOutput("", false))
}
