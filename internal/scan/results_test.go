package scan

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResultSetDeduplicates(t *testing.T) {
	rs := NewResultSet()

	assert.True(t, rs.Add(42))
	assert.False(t, rs.Add(42))
	assert.True(t, rs.Add(7))

	assert.Equal(t, 2, rs.Len())
	assert.Equal(t, []int64{7, 42}, rs.Blocks())
}

func TestResultSetBlocksSorted(t *testing.T) {
	rs := NewResultSet()
	for _, b := range []int64{512000, 3, 249423, 3} {
		rs.Add(b)
	}

	assert.Equal(t, []int64{3, 249423, 512000}, rs.Blocks())
}

func TestResultSetConcurrentAdd(t *testing.T) {
	rs := NewResultSet()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for b := int64(0); b < 100; b++ {
				rs.Add(b)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, rs.Len())
}
