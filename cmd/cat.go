package cmd

import (
	"fmt"
	"os"

	"github.com/docker/go-units"
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-apfshunt/internal/browse"
	"github.com/deploymenttheory/go-apfshunt/internal/helpers"
)

var (
	catFlags   volumeFlags
	catInode   int64
	catPreview bool
	catMax     string
	catOutFile string
)

var catCmd = &cobra.Command{
	Use:   "cat [image-path] [path]",
	Short: "Extract or preview file content (icat)",
	Long: `Extract a file's content from a located volume. By default the raw
bytes are written to stdout. With --preview, at most the configured preview
size is read and binary content is rendered as a hex dump instead of raw
bytes, so terminals stay usable.

Examples:
  apfshunt cat case.dmg -B 249423 /Users/alice/note.txt
  apfshunt cat case.dmg -B 249423 --inode 4311 --preview
  apfshunt cat case.dmg -B 249423 /bin/ls --max 1MiB --file ls.bin`,

	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 2 {
			path = args[1]
		}
		return runCat(cmd, args[0], path)
	},
}

func init() {
	rootCmd.AddCommand(catCmd)

	catFlags.register(catCmd, true)
	catCmd.Flags().Int64VarP(&catInode, "inode", "i", browse.RootInode, "inode to extract")
	catCmd.Flags().BoolVarP(&catPreview, "preview", "p", false, "preview content (text, or hex dump for binary)")
	catCmd.Flags().StringVar(&catMax, "max", "", "read at most this many bytes (e.g. 1MiB)")
	catCmd.Flags().StringVarP(&catOutFile, "file", "f", "", "write content to this file instead of stdout")
}

func runCat(cmd *cobra.Command, image, path string) error {
	vol := catFlags.volume(image)

	inode := catInode
	if inode == browse.RootInode {
		if path == "" {
			return fmt.Errorf("either a path or --inode is required")
		}
		var err error
		inode, _, err = vol.ResolvePath(cmd.Context(), path)
		if err != nil {
			return err
		}
	}

	maxBytes, err := catMaxBytes()
	if err != nil {
		return err
	}

	data, err := vol.ReadFile(cmd.Context(), inode, maxBytes)
	if err != nil {
		return err
	}

	if catOutFile != "" {
		if err := os.WriteFile(catOutFile, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", catOutFile, err)
		}
		fmt.Printf("Wrote %s (%d bytes)\n", catOutFile, len(data))
		return nil
	}

	if catPreview {
		fmt.Print(helpers.Preview(data, len(data)))
		return nil
	}
	_, err = os.Stdout.Write(data)
	return err
}

// catMaxBytes resolves the read cap: --max wins, --preview falls back to the
// configured preview size, and plain cat reads everything.
func catMaxBytes() (int64, error) {
	if catMax != "" {
		n, err := units.RAMInBytes(catMax)
		if err != nil {
			return 0, fmt.Errorf("invalid --max value %q: %w", catMax, err)
		}
		return n, nil
	}
	if catPreview {
		return cfg.PreviewBytes()
	}
	return 0, nil
}
