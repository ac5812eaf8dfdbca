package pstat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAPSBBlocks(t *testing.T) {
	testCases := []struct {
		name     string
		output   string
		expected []int64
	}{
		{
			name: "Two volumes",
			output: `POOL CONTAINER INFORMATION
--------------------------------------------
Volume Macintosh HD - Data
  APSB Block Number: 249423
Volume Preboot
  APSB Block Number: 512000
`,
			expected: []int64{249423, 512000},
		},
		{
			name: "Duplicates collapse, order preserved",
			output: `APSB Block Number: 512000
APSB Block Number: 249423
APSB Block Number: 512000
`,
			expected: []int64{512000, 249423},
		},
		{
			name:     "No blocks advertised",
			output:   "POOL CONTAINER INFORMATION\n",
			expected: nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, APSBBlocks(tc.output))
		})
	}
}
