package scan

import (
	"sort"
	"sync"
)

// ResultSet collects candidate block numbers from the different discovery
// sources (internal scan, sigfind, pstat, manual entry) and de-duplicates
// them. Safe for concurrent use.
type ResultSet struct {
	mu     sync.Mutex
	seen   map[int64]struct{}
	blocks []int64
}

// NewResultSet returns an empty ResultSet.
func NewResultSet() *ResultSet {
	return &ResultSet{seen: make(map[int64]struct{})}
}

// Add records a block number, reporting whether it was new.
func (rs *ResultSet) Add(block int64) bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if _, dup := rs.seen[block]; dup {
		return false
	}
	rs.seen[block] = struct{}{}
	rs.blocks = append(rs.blocks, block)
	return true
}

// Len returns the number of distinct blocks recorded.
func (rs *ResultSet) Len() int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return len(rs.blocks)
}

// Blocks returns the recorded blocks in ascending order.
func (rs *ResultSet) Blocks() []int64 {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	out := make([]int64, len(rs.blocks))
	copy(out, rs.blocks)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
