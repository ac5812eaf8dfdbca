package mount

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"al.essio.dev/pkg/shellescape"
	"github.com/sirupsen/logrus"

	"github.com/deploymenttheory/go-apfshunt/internal/tsk"
)

// Format selects the input format passed to xmount.
type Format string

const (
	FormatAFF4 Format = "aff4"
	FormatEWF  Format = "e01"
)

// xmountInput maps a Format to xmount's --in argument. EWF images are
// selected as "e01" by users but xmount calls the driver "ewf".
func xmountInput(f Format) (string, error) {
	switch f {
	case FormatAFF4:
		return "aff4", nil
	case FormatEWF:
		return "ewf", nil
	default:
		return "", fmt.Errorf("unsupported image format: %s", f)
	}
}

// Options configures an xmount conversion.
type Options struct {
	Format     Format
	Image      string
	MountPoint string
	CacheFile  string
}

// Args builds the xmount argument list for converting a forensic image to a
// virtual DMG at the mount point.
func (o Options) Args() ([]string, error) {
	in, err := xmountInput(o.Format)
	if err != nil {
		return nil, err
	}
	args := []string{"--in", in, o.Image, "--out", "dmg"}
	if o.CacheFile != "" {
		args = append(args, "--cache", o.CacheFile)
	}
	return append(args, o.MountPoint), nil
}

// Mount runs xmount and returns the path of the DMG it exposes under the
// mount point.
func Mount(ctx context.Context, runner *tsk.Runner, opts Options) (string, error) {
	if _, err := os.Stat(opts.Image); err != nil {
		return "", fmt.Errorf("image not accessible: %w", err)
	}
	if err := os.MkdirAll(opts.MountPoint, 0o755); err != nil {
		return "", fmt.Errorf("failed to create mount point: %w", err)
	}

	args, err := opts.Args()
	if err != nil {
		return "", err
	}
	if _, err := runner.Run(ctx, tsk.Xmount, args...); err != nil {
		return "", err
	}

	dmg, err := FindDMG(opts.MountPoint)
	if err != nil {
		return "", err
	}
	return dmg, nil
}

// FindDMG locates the virtual DMG file xmount creates under a mount point.
func FindDMG(mountPoint string) (string, error) {
	entries, err := os.ReadDir(mountPoint)
	if err != nil {
		return "", fmt.Errorf("failed to read mount point: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".dmg") {
			return filepath.Join(mountPoint, e.Name()), nil
		}
	}
	return "", fmt.Errorf("no DMG file found under %s", mountPoint)
}

// Unmount releases an xmount FUSE mount, preferring fusermount and falling
// back to umount.
func Unmount(ctx context.Context, mountPoint string) error {
	attempts := [][]string{
		{"fusermount", "-u", mountPoint},
		{"umount", mountPoint},
	}

	var lastErr error
	for _, attempt := range attempts {
		cmd := exec.CommandContext(ctx, attempt[0], attempt[1:]...)
		logrus.Debugf("running %s", shellescape.QuoteCommand(cmd.Args))
		out, err := cmd.CombinedOutput()
		if err == nil {
			return nil
		}
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			msg = err.Error()
		}
		lastErr = fmt.Errorf("%s failed: %s", attempt[0], msg)
		logrus.Debugf("%v", lastErr)
	}
	return fmt.Errorf("failed to unmount %s: %w", mountPoint, lastErr)
}

// IsMounted reports whether anything is mounted at the mount point,
// according to the system mount table.
func IsMounted(ctx context.Context, mountPoint string) bool {
	out, err := exec.CommandContext(ctx, "mount").Output()
	if err != nil {
		return false
	}
	return strings.Contains(string(out), mountPoint)
}
