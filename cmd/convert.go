package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-apfshunt/internal/mount"
	"github.com/deploymenttheory/go-apfshunt/internal/tsk"
)

var (
	convertFormat string
	convertCache  string
)

var convertCmd = &cobra.Command{
	Use:   "convert [image-path] [mount-point]",
	Short: "Expose a forensic image as a DMG via xmount",
	Long: `Expose an AFF4 or EWF forensic image as a virtual DMG using xmount, so
the SleuthKit tools can read it like a raw image. The DMG appears under the
given mount point; pass its path to scan/ls/cat afterwards.

Use "convert unmount" to release the FUSE mount when done.

Examples:
  apfshunt convert evidence.aff4 /mnt/xm --format aff4
  apfshunt convert evidence.E01 /mnt/xm --format e01 --cache /tmp/xm.cache
  apfshunt convert unmount /mnt/xm`,

	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConvert(cmd, args[0], args[1])
	},
}

var unmountCmd = &cobra.Command{
	Use:   "unmount [mount-point]",
	Short: "Release an xmount FUSE mount",

	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mountPoint := args[0]
		if !mount.IsMounted(cmd.Context(), mountPoint) {
			fmt.Printf("Nothing mounted at %s\n", mountPoint)
			return nil
		}
		if err := mount.Unmount(cmd.Context(), mountPoint); err != nil {
			return err
		}
		fmt.Printf("Unmounted %s\n", mountPoint)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)
	convertCmd.AddCommand(unmountCmd)

	convertCmd.Flags().StringVar(&convertFormat, "format", "e01", "input image format (aff4, e01)")
	convertCmd.Flags().StringVar(&convertCache, "cache", "", "xmount cache file for write redirection")
}

func runConvert(cmd *cobra.Command, image, mountPoint string) error {
	if !tools.Available(tsk.Xmount) {
		return fmt.Errorf("xmount not found on PATH")
	}

	dmg, err := mount.Mount(cmd.Context(), runner, mount.Options{
		Format:     mount.Format(convertFormat),
		Image:      image,
		MountPoint: mountPoint,
		CacheFile:  convertCache,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Virtual DMG available at %s\n", dmg)
	return nil
}
