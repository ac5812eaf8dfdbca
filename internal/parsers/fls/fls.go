package fls

import (
	"regexp"
	"strconv"
	"strings"
)

// entryRe matches one fls line: a type pair like "r/r" or "d/d", the inode
// number, and the name (a path when fls ran recursively).
var entryRe = regexp.MustCompile(`^\s*([a-zA-Z-]/[a-zA-Z-])\s+(\d+):\s*(.+?)\s*$`)

// Kind classifies a directory entry.
type Kind string

const (
	KindFile Kind = "file"
	KindDir  Kind = "dir"
	KindLink Kind = "link"
)

// Entry is one file, directory, or link reported by fls.
type Entry struct {
	Name  string `json:"name" yaml:"name"`
	Inode uint64 `json:"inode" yaml:"inode"`
	Kind  Kind   `json:"kind" yaml:"kind"`
	Meta  string `json:"meta" yaml:"meta"`
}

// IsDir reports whether the entry is a directory.
func (e Entry) IsDir() bool {
	return e.Kind == KindDir
}

// ParseListing extracts entries from fls output, skipping lines that do not
// look like directory entries.
func ParseListing(text string) []Entry {
	var entries []Entry
	for _, line := range strings.Split(text, "\n") {
		m := entryRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		inode, err := strconv.ParseUint(m[2], 10, 64)
		if err != nil {
			continue
		}
		entries = append(entries, Entry{
			Name:  m[3],
			Inode: inode,
			Kind:  kindOf(m[1]),
			Meta:  m[1],
		})
	}
	return entries
}

func kindOf(meta string) Kind {
	switch {
	case strings.HasPrefix(meta, "d/"):
		return KindDir
	case strings.HasPrefix(strings.ToLower(meta), "l/"):
		return KindLink
	default:
		return KindFile
	}
}
