package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-apfshunt/internal/parsers/pstat"
	"github.com/deploymenttheory/go-apfshunt/internal/tsk"
)

var pstatBlocksOnly bool

var pstatCmd = &cobra.Command{
	Use:   "pstat [image-path]",
	Short: "Show partition information and advertised APSB blocks",
	Long: `Run SleuthKit's pstat against an image and show its report. With
--blocks only the APSB block numbers the report advertises are printed, one
per line, ready to feed into ls/stat/cat via -B.

Examples:
  apfshunt pstat case.dmg
  apfshunt pstat case.dmg --blocks`,

	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPstat(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(pstatCmd)

	pstatCmd.Flags().BoolVar(&pstatBlocksOnly, "blocks", false, "print only the advertised APSB block numbers")
}

func runPstat(cmd *cobra.Command, image string) error {
	out, err := runner.RunCombined(cmd.Context(), tsk.Pstat, image)
	if err != nil {
		return err
	}

	if pstatBlocksOnly {
		blocks := pstat.APSBBlocks(out)
		if done, err := emitStructured(blocks); done {
			return err
		}
		for _, blk := range blocks {
			fmt.Println(blk)
		}
		return nil
	}

	fmt.Print(out)
	return nil
}
