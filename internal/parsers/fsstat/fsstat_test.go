package fsstat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleVolumeOutput = `FILE SYSTEM INFORMATION
--------------------------------------------
File System Type: APFS
Volume UUID 8A3B79F2-5F11-4E9C-9D6B-0E2F31C7A844
Name (Role): Macintosh HD - Data (Data)
Capacity Consumed: 152384651264 B
Encrypted: No

APSB oid: 1080
APSB xid: 845142

Snapshots
--------------------------------------------
[249423] 2025-10-05 15:13:48.465854438 (CEST) com.apple.TimeMachine.2025-10-05-151348.local
[251007] 2025-10-06 09:02:11.120034551 (CEST) com.apple.TimeMachine.2025-10-06-090211.local

METADATA INFORMATION
--------------------------------------------
Root directory inode: 2
`

func TestParseVolumeFields(t *testing.T) {
	info := Parse(sampleVolumeOutput)

	require.True(t, info.Valid)
	assert.Equal(t, "Macintosh HD - Data (Data)", info.Name)
	assert.Equal(t, "8a3b79f2-5f11-4e9c-9d6b-0e2f31c7a844", info.UUID)
	assert.Equal(t, "1080", info.APSBOid)
	assert.Equal(t, "845142", info.APSBXid)
	assert.Equal(t, "No", info.Encrypted)
}

func TestParseSnapshots(t *testing.T) {
	info := Parse(sampleVolumeOutput)

	require.Len(t, info.Snapshots, 2)

	first := info.Snapshots[0]
	assert.Equal(t, uint64(249423), first.XID)
	assert.Equal(t, "2025-10-05 15:13:48.465854438 (CEST)", first.Timestamp)
	assert.Equal(t, "com.apple.TimeMachine.2025-10-05-151348.local", first.Name)

	second := info.Snapshots[1]
	assert.Equal(t, uint64(251007), second.XID)
	assert.Equal(t, "com.apple.TimeMachine.2025-10-06-090211.local", second.Name)
}

func TestParseSnapshotSectionAtEndOfOutput(t *testing.T) {
	output := "File System Type: APFS\n" +
		"Snapshots\n" +
		"----------\n" +
		"[42] 2025-01-01 00:00:00.000000000 (UTC) snap.one"

	info := Parse(output)
	require.Len(t, info.Snapshots, 1)
	assert.Equal(t, uint64(42), info.Snapshots[0].XID)
	assert.Equal(t, "snap.one", info.Snapshots[0].Name)
}

func TestParseMissingFields(t *testing.T) {
	testCases := []struct {
		name        string
		output      string
		expectValid bool
	}{
		{
			name:        "Not an APFS volume",
			output:      "Cannot determine file system type\n",
			expectValid: false,
		},
		{
			name:        "Empty output",
			output:      "",
			expectValid: false,
		},
		{
			name:        "Valid but sparse",
			output:      "File System Type: APFS\n",
			expectValid: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			info := Parse(tc.output)

			assert.Equal(t, tc.expectValid, info.Valid)
			assert.Equal(t, Unknown, info.Name)
			assert.Equal(t, Unknown, info.UUID)
			assert.Equal(t, Unknown, info.APSBOid)
			assert.Equal(t, Unknown, info.APSBXid)
			assert.Equal(t, Unknown, info.Encrypted)
			assert.Empty(t, info.Snapshots)
		})
	}
}

func TestParseEncryptedVolume(t *testing.T) {
	output := "File System Type: APFS\nEncrypted: Yes\n"

	info := Parse(output)
	assert.True(t, info.Valid)
	assert.Equal(t, "Yes", info.Encrypted)
}

func TestSplitEntry(t *testing.T) {
	testCases := []struct {
		name              string
		entry             string
		expectedTimestamp string
		expectedName      string
	}{
		{
			name:              "Full entry",
			entry:             "2025-10-05 15:13:48.465854438 (CEST) com.apple.TimeMachine.local",
			expectedTimestamp: "2025-10-05 15:13:48.465854438 (CEST)",
			expectedName:      "com.apple.TimeMachine.local",
		},
		{
			name:              "Name with spaces stays intact",
			entry:             "2025-10-05 15:13:48 (CEST) my snapshot name",
			expectedTimestamp: "2025-10-05 15:13:48 (CEST)",
			expectedName:      "my snapshot name",
		},
		{
			name:              "No timezone",
			entry:             "2025-10-05 15:13:48 snap",
			expectedTimestamp: "2025-10-05 15:13:48",
			expectedName:      "snap",
		},
		{
			name:              "Timestamp only",
			entry:             "2025-10-05 15:13:48",
			expectedTimestamp: "2025-10-05 15:13:48",
			expectedName:      "",
		},
		{
			name:              "Single token",
			entry:             "snap",
			expectedTimestamp: "snap",
			expectedName:      "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ts, name := splitEntry(tc.entry)
			assert.Equal(t, tc.expectedTimestamp, ts)
			assert.Equal(t, tc.expectedName, name)
		})
	}
}
