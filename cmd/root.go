package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-apfshunt/internal/config"
	"github.com/deploymenttheory/go-apfshunt/internal/tsk"
)

var (
	// Global output flags only
	verbose      bool
	quiet        bool
	outputFormat string
)

// Shared state initialized before any command runs.
var (
	cfg    *config.Config
	tools  *tsk.Toolset
	runner *tsk.Runner
)

var rootCmd = &cobra.Command{
	Use:   "apfshunt",
	Short: "Locate and browse APFS volumes in raw images via SleuthKit",
	Long: `apfshunt locates APFS volume superblocks (APSB) inside raw disk images
and browses their contents entirely in user space, by orchestrating the
SleuthKit command-line tools (sigfind, fsstat, fls, istat, icat, pstat).

No kernel mounting is involved, so images whose metadata still carries
"encrypted" flags after an already-decrypted acquisition remain accessible.

Commands:
  scan        Find APFS volume superblocks in an image
  ls          List a directory of a located volume
  stat        Show inode metadata (istat)
  cat         Extract or preview file content (icat)
  export      Recursively export a directory tree
  snapshots   List APFS snapshots of a volume
  pstat       Show partition information and advertised APSB blocks
  tools       Report availability of external tools
  convert     Expose a forensic image as a DMG via xmount
  attach      Attach a DMG via hdiutil
  detach      Detach an hdiutil-attached device`,
	Version:       "0.1.0-dev",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch {
		case quiet:
			logrus.SetLevel(logrus.ErrorLevel)
		case verbose:
			logrus.SetLevel(logrus.DebugLevel)
		default:
			logrus.SetLevel(logrus.InfoLevel)
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}

		tools = tsk.Discover()
		runner = tsk.NewRunner(tools, cfg.ToolTimeout)

		if missing := tools.MissingSleuthKit(); len(missing) > 0 {
			logrus.Warnf("missing SleuthKit tools: %v (install sleuthkit)", missing)
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	// Only global output control flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output except errors")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format (table, json, yaml)")
}
