package pstat

import (
	"regexp"
	"strconv"
	"strings"
)

var apsbBlockRe = regexp.MustCompile(`APSB Block Number:\s*(\d+)`)

// APSBBlocks extracts volume superblock block numbers advertised in pstat
// output, in order of appearance and without duplicates.
func APSBBlocks(output string) []int64 {
	seen := make(map[int64]struct{})
	var blocks []int64
	for _, line := range strings.Split(output, "\n") {
		m := apsbBlockRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		blk, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			continue
		}
		if _, dup := seen[blk]; dup {
			continue
		}
		seen[blk] = struct{}{}
		blocks = append(blocks, blk)
	}
	return blocks
}
