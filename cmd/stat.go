package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-apfshunt/internal/browse"
)

var (
	statFlags volumeFlags
	statInode int64
)

var statCmd = &cobra.Command{
	Use:   "stat [image-path] [path]",
	Short: "Show inode metadata (istat)",
	Long: `Show the istat metadata report for an inode of a located volume. The
inode can be given directly with --inode, or a path can be resolved.

Examples:
  apfshunt stat case.dmg -B 249423 --inode 4311
  apfshunt stat case.dmg -B 249423 /Users/alice/.bash_history`,

	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 2 {
			path = args[1]
		}
		return runStat(cmd, args[0], path)
	},
}

func init() {
	rootCmd.AddCommand(statCmd)

	statFlags.register(statCmd, true)
	statCmd.Flags().Int64VarP(&statInode, "inode", "i", browse.RootInode, "inode to stat")
}

func runStat(cmd *cobra.Command, image, path string) error {
	vol := statFlags.volume(image)

	inode := statInode
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

	out, err := vol.Stat(cmd.Context(), inode)
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}
