package fsstat

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// Anchored patterns for the fields fsstat prints for an APFS volume.
var (
	fsTypeRe   = regexp.MustCompile(`(?m)^File System Type:\s*APFS`)
	nameRoleRe = regexp.MustCompile(`(?m)^Name \(Role\):\s*(.+)$`)
	uuidRe     = regexp.MustCompile(`(?m)^Volume UUID\s+([0-9a-fA-F-]{36})`)
	apsbOidRe  = regexp.MustCompile(`(?m)^APSB oid:\s*(\d+)`)
	apsbXidRe  = regexp.MustCompile(`(?m)^APSB xid:\s*(\d+)`)
	encYesRe   = regexp.MustCompile(`(?m)^Encrypted:\s*Yes`)
	encNoRe    = regexp.MustCompile(`(?m)^Encrypted:\s*No`)

	// The snapshot section is headed "Snapshots" with a dashed underline and
	// runs until a blank line or the end of the output.
	snapshotSectionRe = regexp.MustCompile(`(?s)Snapshots\s*\n-+\n(.+?)(?:\n\n|\z)`)
	snapshotEntryRe   = regexp.MustCompile(`(?m)^\[(\d+)\]\s+(.+)$`)
)

// Unknown is reported for fields fsstat did not print.
const Unknown = "-"

// Snapshot is one entry of the volume's snapshot list, e.g.
// [249423] 2025-10-05 15:13:48.465854438 (CEST) com.apple.TimeMachine.2025-10-05-151348.local
type Snapshot struct {
	XID       uint64 `json:"xid" yaml:"xid"`
	Timestamp string `json:"timestamp" yaml:"timestamp"`
	Name      string `json:"name" yaml:"name"`
	Raw       string `json:"raw" yaml:"raw"`
}

// VolumeInfo holds the fields extracted from fsstat output for one volume
// superblock candidate.
type VolumeInfo struct {
	Valid     bool       `json:"valid" yaml:"valid"`
	Name      string     `json:"name" yaml:"name"`
	Encrypted string     `json:"encrypted" yaml:"encrypted"`
	UUID      string     `json:"uuid" yaml:"uuid"`
	APSBOid   string     `json:"apsb_oid" yaml:"apsb_oid"`
	APSBXid   string     `json:"apsb_xid" yaml:"apsb_xid"`
	Snapshots []Snapshot `json:"snapshots,omitempty" yaml:"snapshots,omitempty"`
}

// Parse extracts volume metadata and the snapshot list from fsstat output.
// Missing fields are reported as Unknown; Valid reflects whether fsstat
// recognized the block as an APFS volume superblock.
func Parse(output string) *VolumeInfo {
	info := &VolumeInfo{
		Valid:     fsTypeRe.MatchString(output),
		Name:      Unknown,
		Encrypted: Unknown,
		UUID:      Unknown,
		APSBOid:   Unknown,
		APSBXid:   Unknown,
	}

	if m := nameRoleRe.FindStringSubmatch(output); m != nil {
		info.Name = strings.TrimSpace(m[1])
	}
	if m := uuidRe.FindStringSubmatch(output); m != nil {
		if id, err := uuid.Parse(m[1]); err == nil {
			info.UUID = id.String()
		}
	}
	if m := apsbOidRe.FindStringSubmatch(output); m != nil {
		info.APSBOid = m[1]
	}
	if m := apsbXidRe.FindStringSubmatch(output); m != nil {
		info.APSBXid = m[1]
	}
	switch {
	case encYesRe.MatchString(output):
		info.Encrypted = "Yes"
	case encNoRe.MatchString(output):
		info.Encrypted = "No"
	}

	info.Snapshots = parseSnapshots(output)
	return info
}

func parseSnapshots(output string) []Snapshot {
	section := snapshotSectionRe.FindStringSubmatch(output)
	if section == nil {
		return nil
	}

	var snapshots []Snapshot
	for _, entry := range snapshotEntryRe.FindAllStringSubmatch(section[1], -1) {
		xid, err := strconv.ParseUint(entry[1], 10, 64)
		if err != nil {
			continue
		}
		rest := strings.TrimSpace(entry[2])
		ts, name := splitEntry(rest)
		snapshots = append(snapshots, Snapshot{
			XID:       xid,
			Timestamp: ts,
			Name:      name,
			Raw:       rest,
		})
	}
	return snapshots
}

// splitEntry separates the timestamp from the snapshot name. The full form is
// "<date> <time> (<tz>) <name>"; shorter entries degrade to a timestamp-only
// or raw-text result.
func splitEntry(rest string) (timestamp, name string) {
	parts := fieldsN(rest, 4)
	switch {
	case len(parts) >= 4:
		return strings.Join(parts[:3], " "), parts[3]
	case len(parts) == 3:
		return strings.Join(parts[:2], " "), parts[2]
	case len(parts) == 2:
		return strings.Join(parts, " "), ""
	default:
		return rest, ""
	}
}

// fieldsN splits on runs of whitespace into at most n fields, keeping the
// remainder intact in the final field.
func fieldsN(s string, n int) []string {
	var out []string
	s = strings.TrimSpace(s)
	for len(out) < n-1 {
		i := strings.IndexFunc(s, unicode.IsSpace)
		if i < 0 {
			break
		}
		out = append(out, s[:i])
		s = strings.TrimLeftFunc(s[i:], unicode.IsSpace)
	}
	if s != "" {
		out = append(out, s)
	}
	return out
}
