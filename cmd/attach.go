package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-apfshunt/internal/mount"
	"github.com/deploymenttheory/go-apfshunt/internal/tsk"
)

var (
	attachShadow  bool
	attachNoMount bool
)

var attachCmd = &cobra.Command{
	Use:   "attach [dmg-path]",
	Short: "Attach a DMG read-only via hdiutil (macOS)",
	Long: `Attach a DMG read-only through hdiutil and report the device it landed
on. With --nomount the device is attached without mounting any filesystem,
which keeps kernel drivers away from the volume; the device node can then be
handed to the SleuthKit tools directly.

Examples:
  apfshunt attach case.dmg
  apfshunt attach case.dmg --nomount
  apfshunt attach case.dmg --shadow`,

	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAttach(cmd, args[0])
	},
}

var detachCmd = &cobra.Command{
	Use:   "detach [device]",
	Short: "Detach an hdiutil-attached device (macOS)",

	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !tools.Available(tsk.Hdiutil) {
			return fmt.Errorf("hdiutil not found on PATH (macOS only)")
		}
		if err := mount.Detach(cmd.Context(), runner, args[0]); err != nil {
			return err
		}
		fmt.Printf("Detached %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(attachCmd)
	rootCmd.AddCommand(detachCmd)

	attachCmd.Flags().BoolVar(&attachShadow, "shadow", false, "redirect writes to a shadow file")
	attachCmd.Flags().BoolVar(&attachNoMount, "nomount", false, "attach without mounting any filesystem")
}

func runAttach(cmd *cobra.Command, image string) error {
	if !tools.Available(tsk.Hdiutil) {
		return fmt.Errorf("hdiutil not found on PATH (macOS only)")
	}

	att, err := mount.Attach(cmd.Context(), runner, image, mount.AttachOptions{
		Shadow:  attachShadow,
		NoMount: attachNoMount,
	})
	if err != nil {
		return err
	}

	if done, err := emitStructured(att); done {
		return err
	}

	fmt.Printf("Device: %s\n", att.Device)
	if att.MountPoint != "" {
		fmt.Printf("Mounted at: %s\n", att.MountPoint)
	}
	return nil
}
