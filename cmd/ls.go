package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-apfshunt/internal/browse"
	"github.com/deploymenttheory/go-apfshunt/internal/parsers/fls"
)

var (
	lsFlags volumeFlags
	lsInode int64
)

var lsCmd = &cobra.Command{
	Use:   "ls [image-path] [path]",
	Short: "List a directory of a located volume",
	Long: `List a directory of an APFS volume, addressed by the superblock block
number found by scan. With no path the volume root is listed; a path is
resolved component by component through directory listings.

Examples:
  apfshunt ls case.dmg -B 249423
  apfshunt ls case.dmg -B 249423 /Users/alice/Documents
  apfshunt ls case.dmg -B 249423 --inode 4311
  apfshunt ls case.dmg -B 249423 -s 845142 /private/var`,

	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 2 {
			path = args[1]
		}
		return runLs(cmd, args[0], path)
	},
}

func init() {
	rootCmd.AddCommand(lsCmd)

	lsFlags.register(lsCmd, true)
	lsCmd.Flags().Int64VarP(&lsInode, "inode", "i", browse.RootInode, "list this inode instead of resolving a path")
}

func runLs(cmd *cobra.Command, image, path string) error {
	vol := lsFlags.volume(image)

	var entries []fls.Entry
	var err error
	switch {
	case lsInode != browse.RootInode:
		entries, err = vol.ListDir(cmd.Context(), lsInode)
	case path != "":
		var inode int64
		inode, entries, err = vol.ResolvePath(cmd.Context(), path)
		if err == nil && entries == nil {
			return fmt.Errorf("not a directory: %s (inode %d)", path, inode)
		}
	default:
		entries, err = vol.ListDir(cmd.Context(), browse.RootInode)
	}
	if err != nil {
		return err
	}

	if done, err := emitStructured(entries); done {
		return err
	}

	if len(entries) == 0 {
		fmt.Println("Empty directory.")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintf(w, "META\tINODE\tTYPE\tNAME\n")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", e.Meta, e.Inode, e.Kind, e.Name)
	}
	return nil
}
