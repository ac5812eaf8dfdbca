package browse

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/deploymenttheory/go-apfshunt/internal/parsers/fls"
	"github.com/deploymenttheory/go-apfshunt/internal/tsk"
)

// RootInode addresses the volume root when no inode is known yet.
const RootInode int64 = -1

// Volume provides user-space access to one APFS volume inside an image via
// SleuthKit, addressed by its volume superblock block number. A non-zero
// SnapshotXID pins all operations to that snapshot.
type Volume struct {
	runner *tsk.Runner

	Image        string
	Block        int64
	SectorOffset int64
	SnapshotXID  uint64
}

// NewVolume returns a handle on the volume at the given superblock block.
func NewVolume(runner *tsk.Runner, image string, block int64) *Volume {
	return &Volume{runner: runner, Image: image, Block: block}
}

// WithSnapshot returns a copy of the handle pinned to a snapshot XID.
func (v *Volume) WithSnapshot(xid uint64) *Volume {
	vol := *v
	vol.SnapshotXID = xid
	return &vol
}

// baseArgs builds the selection arguments shared by fls, istat, and icat.
func (v *Volume) baseArgs() []string {
	var args []string
	if v.SectorOffset > 0 {
		args = append(args, "-o", strconv.FormatInt(v.SectorOffset, 10))
	}
	if v.Block != 0 {
		args = append(args, "-B", strconv.FormatInt(v.Block, 10))
	}
	if v.SnapshotXID != 0 {
		args = append(args, "-s", strconv.FormatUint(v.SnapshotXID, 10))
	}
	return args
}

// ListDir lists a directory. Pass RootInode for the volume root.
func (v *Volume) ListDir(ctx context.Context, inode int64) ([]fls.Entry, error) {
	args := v.baseArgs()
	if inode >= 0 {
		args = append(args, "-f", "apfs", v.Image, strconv.FormatInt(inode, 10))
	} else {
		args = append(args, v.Image)
	}

	out, err := v.runner.Run(ctx, tsk.Fls, args...)
	if err != nil {
		return nil, err
	}
	entries := fls.ParseListing(out)
	if entries == nil {
		// fls prints nothing for an empty directory; callers tell
		// directories from files by a non-nil listing.
		entries = []fls.Entry{}
	}
	return entries, nil
}

// ResolvePath walks an absolute path component by component through
// directory listings and returns the inode of the final component along with
// its listing. The listing is non-nil (possibly empty) when the final
// component is a directory and nil when it is a file.
func (v *Volume) ResolvePath(ctx context.Context, path string) (int64, []fls.Entry, error) {
	inode := RootInode
	entries, err := v.ListDir(ctx, inode)
	if err != nil {
		return 0, nil, err
	}

	parts := strings.FieldsFunc(path, func(r rune) bool { return r == '/' })
	for i, part := range parts {
		var found *fls.Entry
		for j := range entries {
			if entries[j].Name == part {
				found = &entries[j]
				break
			}
		}
		if found == nil {
			return 0, nil, fmt.Errorf("path component not found: %s", part)
		}
		inode = int64(found.Inode)
		if !found.IsDir() {
			if i != len(parts)-1 {
				return 0, nil, fmt.Errorf("not a directory: %s", part)
			}
			return inode, nil, nil
		}
		entries, err = v.ListDir(ctx, inode)
		if err != nil {
			return 0, nil, err
		}
	}
	return inode, entries, nil
}

// Stat returns the raw istat output for an inode.
func (v *Volume) Stat(ctx context.Context, inode int64) (string, error) {
	args := append(v.baseArgs(), v.Image, strconv.FormatInt(inode, 10))
	return v.runner.RunCombined(ctx, tsk.Istat, args...)
}

// ReadFile extracts file content via icat. maxBytes <= 0 reads the whole
// file; otherwise icat is stopped once the cap is reached.
func (v *Volume) ReadFile(ctx context.Context, inode int64, maxBytes int64) ([]byte, error) {
	args := append(v.baseArgs(), v.Image, strconv.FormatInt(inode, 10))
	return v.runner.RunLimited(ctx, maxBytes, tsk.Icat, args...)
}

// ExportFile writes a file's full content to dest.
func (v *Volume) ExportFile(ctx context.Context, inode int64, dest string) error {
	data, err := v.ReadFile(ctx, inode, 0)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}
	return nil
}

// ExportDir recursively exports a directory tree under outputDir, recreating
// the layout fls reports. Pass RootInode to export the whole volume. Files
// that fail to extract are skipped and logged; the count of exported files is
// returned.
func (v *Volume) ExportDir(ctx context.Context, inode int64, outputDir string) (int, error) {
	args := append(v.baseArgs(), "-r")
	if inode >= 0 {
		args = append(args, "-f", "apfs", v.Image, strconv.FormatInt(inode, 10))
	} else {
		args = append(args, v.Image)
	}
	out, err := v.runner.Run(ctx, tsk.Fls, args...)
	if err != nil {
		return 0, err
	}

	exported := 0
	for _, entry := range fls.ParseListing(out) {
		target := filepath.Join(outputDir, filepath.FromSlash(entry.Name))
		if entry.IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return exported, fmt.Errorf("failed to create %s: %w", target, err)
			}
			continue
		}
		if err := v.ExportFile(ctx, int64(entry.Inode), target); err != nil {
			if ctx.Err() != nil {
				return exported, ctx.Err()
			}
			logrus.Warnf("skipping %s (inode %d): %v", entry.Name, entry.Inode, err)
			continue
		}
		exported++
	}
	return exported, nil
}
