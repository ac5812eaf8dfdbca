package cmd

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-apfshunt/internal/parsers/fsstat"
	"github.com/deploymenttheory/go-apfshunt/internal/tsk"
)

var snapshotsFlags volumeFlags

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots [image-path]",
	Short: "List APFS snapshots of a volume",
	Long: `List the snapshots of a located volume, as reported by fsstat. Snapshot
XIDs can be passed to ls, stat, cat, and export via --snapshot to browse the
volume as it was at that point in time.

Example:
  apfshunt snapshots case.dmg -B 249423`,

	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSnapshots(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(snapshotsCmd)

	snapshotsFlags.register(snapshotsCmd, false)
}

func runSnapshots(cmd *cobra.Command, image string) error {
	args := []string{}
	if off := snapshotsFlags.sectorOffset; off > 0 {
		args = append(args, "-o", strconv.FormatInt(off, 10))
	}
	if snapshotsFlags.block != 0 {
		args = append(args, "-B", strconv.FormatInt(snapshotsFlags.block, 10))
	}
	args = append(args, image)

	out, err := runner.RunCombined(cmd.Context(), tsk.Fsstat, args...)
	if err != nil {
		return err
	}

	info := fsstat.Parse(out)
	if !info.Valid {
		return fmt.Errorf("no APFS volume found at block %d", snapshotsFlags.block)
	}

	if done, err := emitStructured(info.Snapshots); done {
		return err
	}

	if len(info.Snapshots) == 0 {
		fmt.Printf("Volume %q has no snapshots.\n", info.Name)
		return nil
	}
	fmt.Printf("Snapshots of %q:\n", info.Name)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintf(w, "XID\tTIMESTAMP\tNAME\n")
	for _, s := range info.Snapshots {
		fmt.Fprintf(w, "%d\t%s\t%s\n", s.XID, s.Timestamp, s.Name)
	}
	return nil
}
