package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-apfshunt/internal/browse"
	"github.com/deploymenttheory/go-apfshunt/internal/tsk"
)

var (
	exportFlags  volumeFlags
	exportInode  int64
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export [image-path] [path]",
	Short: "Recursively export a directory tree",
	Long: `Recursively export a directory of a located volume into a local output
directory, recreating the tree layout. Files that fail to extract are
skipped with a warning rather than aborting the export.

Recursive listings of large trees can take a while, so exports run under
their own timeout (export_timeout, default 10m).

Examples:
  apfshunt export case.dmg -B 249423 /Users/alice --to ./alice
  apfshunt export case.dmg -B 249423 --inode 4311 --to ./out`,

	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 2 {
			path = args[1]
		}
		return runExport(cmd, args[0], path)
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportFlags.register(exportCmd, true)
	exportCmd.Flags().Int64VarP(&exportInode, "inode", "i", browse.RootInode, "directory inode to export")
	exportCmd.Flags().StringVar(&exportOutput, "to", "", "output directory (required)")
	exportCmd.MarkFlagRequired("to")
}

func runExport(cmd *cobra.Command, image, path string) error {
	// Recursive listings need more headroom than single tool calls.
	exportRunner := tsk.NewRunner(tools, cfg.ExportTimeout)
	vol := exportFlags.volume(image)
	exportVol := browse.NewVolume(exportRunner, image, vol.Block)
	exportVol.SectorOffset = vol.SectorOffset
	exportVol.SnapshotXID = vol.SnapshotXID

	inode := exportInode
	if inode == browse.RootInode && path != "" {
		var err error
		inode, _, err = vol.ResolvePath(cmd.Context(), path)
		if err != nil {
			return err
		}
	}
	if inode == browse.RootInode {
		logrus.Info("no path or inode given, exporting the volume root")
	}

	count, err := exportVol.ExportDir(cmd.Context(), inode, exportOutput)
	if err != nil {
		return err
	}
	fmt.Printf("Exported %d files to %s\n", count, exportOutput)
	return nil
}
