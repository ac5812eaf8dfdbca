package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-apfshunt/internal/tsk"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Report availability of external tools",
	Long: `Report which external tools were found on PATH. The SleuthKit utilities
are required for scanning and browsing; xmount and hdiutil are only needed
by the convert and attach commands.`,

	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTools()
	},
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}

// toolStatus is one row in the tools report.
type toolStatus struct {
	Name      string `json:"name" yaml:"name"`
	Path      string `json:"path,omitempty" yaml:"path,omitempty"`
	Available bool   `json:"available" yaml:"available"`
	Required  bool   `json:"required" yaml:"required"`
}

func runTools() error {
	required := make(map[string]bool, len(tsk.SleuthKitTools))
	for _, name := range tsk.SleuthKitTools {
		required[name] = true
	}

	names := append(append([]string{}, tsk.SleuthKitTools...), tsk.Xmount, tsk.Hdiutil)
	statuses := make([]toolStatus, 0, len(names))
	for _, name := range names {
		st := toolStatus{Name: name, Available: tools.Available(name), Required: required[name]}
		if st.Available {
			st.Path = tools.Path(name)
		}
		statuses = append(statuses, st)
	}

	if done, err := emitStructured(statuses); done {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintf(w, "TOOL\tSTATUS\tPATH\n")
	for _, st := range statuses {
		status := "missing"
		if st.Available {
			status = "found"
		} else if !st.Required {
			status = "missing (optional)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", st.Name, status, st.Path)
	}
	return nil
}
