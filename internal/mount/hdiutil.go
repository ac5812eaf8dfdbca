package mount

import (
	"context"
	"fmt"
	"strings"

	"github.com/deploymenttheory/go-apfshunt/internal/tsk"
)

// AttachOptions configures hdiutil attach. Attachments are always read-only.
type AttachOptions struct {
	// Shadow redirects writes to a temporary shadow file.
	Shadow bool
	// NoMount attaches the device without mounting any filesystem, leaving
	// kernel drivers out of the picture.
	NoMount bool
}

// Attachment describes an attached DMG. MountPoint is empty for -nomount
// attachments.
type Attachment struct {
	Device     string `json:"device" yaml:"device"`
	MountPoint string `json:"mount_point,omitempty" yaml:"mount_point,omitempty"`
}

// AttachArgs builds the hdiutil attach argument list.
func AttachArgs(image string, opts AttachOptions) []string {
	args := []string{"attach", "-readonly"}
	if opts.Shadow {
		args = append(args, "-shadow")
	}
	if opts.NoMount {
		args = append(args, "-nomount")
	}
	return append(args, image)
}

// Attach attaches a DMG via hdiutil and parses the device path (and mount
// point, unless -nomount) out of its output.
func Attach(ctx context.Context, runner *tsk.Runner, image string, opts AttachOptions) (*Attachment, error) {
	out, err := runner.Run(ctx, tsk.Hdiutil, AttachArgs(image, opts)...)
	if err != nil {
		return nil, err
	}

	att := parseAttachOutput(out, opts.NoMount)
	if att == nil {
		return nil, fmt.Errorf("could not parse hdiutil output:\n%s", strings.TrimSpace(out))
	}
	return att, nil
}

// parseAttachOutput scans hdiutil attach output for the first /dev/disk
// device line. Mount points may contain spaces, so the path is taken from
// the last "/Volumes/" occurrence on the line.
func parseAttachOutput(out string, noMount bool) *Attachment {
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 || !strings.HasPrefix(fields[0], "/dev/disk") {
			continue
		}
		att := &Attachment{Device: fields[0]}
		if !noMount {
			if idx := strings.LastIndex(line, "/Volumes/"); idx != -1 {
				att.MountPoint = strings.TrimSpace(line[idx:])
			}
		}
		return att
	}
	return nil
}

// Detach releases an hdiutil-attached device.
func Detach(ctx context.Context, runner *tsk.Runner, device string) error {
	if _, err := runner.Run(ctx, tsk.Hdiutil, "detach", device); err != nil {
		return err
	}
	return nil
}
