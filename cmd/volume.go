package cmd

import (
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-apfshunt/internal/browse"
)

// volumeFlags are the selection flags shared by every command that addresses
// a single volume inside an image.
type volumeFlags struct {
	block        int64
	sectorOffset int64
	snapshot     uint64
}

func (f *volumeFlags) register(cmd *cobra.Command, withSnapshot bool) {
	cmd.Flags().Int64VarP(&f.block, "block", "B", 0, "volume superblock block number (from scan)")
	cmd.Flags().Int64Var(&f.sectorOffset, "sector-offset", 0, "sector offset of the APFS container in the image")
	if withSnapshot {
		cmd.Flags().Uint64VarP(&f.snapshot, "snapshot", "s", 0, "pin operations to a snapshot XID")
	}
}

func (f *volumeFlags) volume(image string) *browse.Volume {
	vol := browse.NewVolume(runner, image, f.block)
	vol.SectorOffset = f.sectorOffset
	if f.sectorOffset == 0 {
		vol.SectorOffset = cfg.SectorOffset
	}
	if f.snapshot != 0 {
		vol = vol.WithSnapshot(f.snapshot)
	}
	return vol
}
