package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/docker/go-units"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-apfshunt/internal/parsers/fsstat"
	"github.com/deploymenttheory/go-apfshunt/internal/parsers/pstat"
	"github.com/deploymenttheory/go-apfshunt/internal/scan"
	"github.com/deploymenttheory/go-apfshunt/internal/tsk"
	"github.com/deploymenttheory/go-apfshunt/internal/validate"
	"github.com/deploymenttheory/go-apfshunt/pkg/progressbar"
)

var (
	scanMode      string
	scanBlockSize string
	scanStart     int64
	scanEnd       int64
	scanStep      int64
	scanNoVerify  bool
	scanBlocks    []int64
	scanUsePstat  bool
)

var scanCmd = &cobra.Command{
	Use:   "scan [image-path]",
	Short: "Find APFS volume superblocks in a raw image",
	Long: `Scan a raw or DMG image for APFS volume superblocks (APSB) and confirm
each candidate with fsstat.

Two scan modes are available:
  sigfind    delegate the search to SleuthKit's sigfind (fast, default)
  internal   stride over the image in-process (no sigfind dependency)

Examples:
  # Fast scan with validation
  apfshunt scan case.dmg

  # Internal scan of the first million blocks, stepping by 8
  apfshunt scan case.dd --mode internal --end 1000000 --step 8

  # Register known blocks without scanning
  apfshunt scan case.dmg --block 249423 --block 512000 --mode none

  # Let pstat suggest candidates as well
  apfshunt scan case.dmg --use-pstat`,

	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScan(args[0])
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVar(&scanMode, "mode", "sigfind", "scan mode (sigfind, internal, none)")
	scanCmd.Flags().StringVar(&scanBlockSize, "block-size", "", "filesystem block size (e.g. 4096, 4KiB)")
	scanCmd.Flags().Int64Var(&scanStart, "start", 0, "first block to scan (internal mode)")
	scanCmd.Flags().Int64Var(&scanEnd, "end", -1, "last block to scan, -1 for end of image (internal mode)")
	scanCmd.Flags().Int64Var(&scanStep, "step", 0, "block stride (internal mode)")
	scanCmd.Flags().BoolVar(&scanNoVerify, "no-validate", false, "skip fsstat validation of hits")
	scanCmd.Flags().Int64SliceVar(&scanBlocks, "block", nil, "register a known APSB block (repeatable)")
	scanCmd.Flags().BoolVar(&scanUsePstat, "use-pstat", false, "also register APSB blocks advertised by pstat")
}

// scanRow is one confirmed (or rejected) candidate in scan output.
type scanRow struct {
	Block     int64  `json:"block" yaml:"block"`
	Valid     bool   `json:"valid" yaml:"valid"`
	Name      string `json:"name" yaml:"name"`
	Encrypted string `json:"encrypted" yaml:"encrypted"`
	Snapshots int    `json:"snapshots" yaml:"snapshots"`
	UUID      string `json:"uuid" yaml:"uuid"`
	APSBOid   string `json:"apsb_oid" yaml:"apsb_oid"`
	APSBXid   string `json:"apsb_xid" yaml:"apsb_xid"`
}

func runScan(image string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	blockSize, err := blockSizeFlag()
	if err != nil {
		return err
	}
	step := scanStep
	if step == 0 {
		step = cfg.ScanStep
	}

	results := scan.NewResultSet()
	var queue *validate.Queue
	if !scanNoVerify {
		queue = validate.NewQueue(ctx, validate.NewValidator(runner, image), 64)
	}

	onHit := func(block int64) {
		if !results.Add(block) {
			return
		}
		logrus.Debugf("candidate volume superblock at block %d", block)
		if queue != nil {
			queue.Enqueue(block)
		}
	}

	// Collect validation results while the scan is still producing hits.
	rows := make(map[int64]scanRow)
	collected := make(chan struct{})
	if queue != nil {
		go func() {
			defer close(collected)
			for res := range queue.Results() {
				rows[res.Block] = toScanRow(res)
			}
		}()
	} else {
		close(collected)
	}

	// Non-scan sources first: manual blocks and pstat suggestions.
	for _, blk := range scanBlocks {
		onHit(blk)
	}
	if scanUsePstat {
		out, err := runner.RunCombined(ctx, tsk.Pstat, image)
		if err != nil {
			return err
		}
		for _, blk := range pstat.APSBBlocks(out) {
			onHit(blk)
		}
	}

	scanErr := runScanMode(ctx, image, blockSize, step, onHit)

	if queue != nil {
		queue.Close()
		<-collected
		if err := queue.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	}
	if scanErr != nil && !errors.Is(scanErr, context.Canceled) {
		return scanErr
	}
	if errors.Is(scanErr, context.Canceled) {
		logrus.Warn("scan aborted, reporting hits found so far")
	}

	return formatScanOutput(results, rows)
}

func runScanMode(ctx context.Context, image string, blockSize, step int64, onHit scan.HitFunc) error {
	switch scanMode {
	case "none":
		return nil

	case "sigfind":
		if !tools.Available(tsk.Sigfind) {
			return fmt.Errorf("sigfind not found on PATH; install sleuthkit or use --mode internal")
		}
		sf := scan.NewSigfindScanner(runner, blockSize, cfg.SigfindOffset)
		outPath, hits, err := sf.Scan(ctx, image, onHit, func(lines, hits int64) {
			logrus.Debugf("sigfind: %d lines, %d hits", lines, hits)
		})
		if outPath != "" {
			logrus.Debugf("sigfind output kept at %s", outPath)
		}
		if err != nil {
			return err
		}
		logrus.Infof("sigfind reported %d candidate blocks", hits)
		return nil

	case "internal":
		scanner := scan.NewScanner(scan.Options{
			BlockSize:  blockSize,
			StartBlock: scanStart,
			EndBlock:   scanEnd,
			Step:       step,
		})
		bar, err := progressbar.New(1)
		if err != nil {
			return err
		}
		bar.Start()
		hits, err := scanner.Scan(ctx, image, onHit, func(done, planned, hits int64) {
			bar.SetTotal(planned)
			bar.SetCurrent(done)
		})
		bar.Finish()
		if err != nil {
			return err
		}
		logrus.Infof("internal scan found %d volume superblocks", hits)
		return nil

	default:
		return fmt.Errorf("unknown scan mode: %s", scanMode)
	}
}

func toScanRow(res validate.Result) scanRow {
	row := scanRow{
		Block:     res.Block,
		Name:      "(invalid)",
		Encrypted: fsstat.Unknown,
		UUID:      fsstat.Unknown,
		APSBOid:   fsstat.Unknown,
		APSBXid:   fsstat.Unknown,
	}
	if res.Err != nil {
		logrus.Warnf("validation of block %d failed: %v", res.Block, res.Err)
		return row
	}
	if !res.Info.Valid {
		return row
	}
	row.Valid = true
	row.Name = res.Info.Name
	row.Encrypted = res.Info.Encrypted
	row.Snapshots = len(res.Info.Snapshots)
	row.UUID = res.Info.UUID
	row.APSBOid = res.Info.APSBOid
	row.APSBXid = res.Info.APSBXid
	return row
}

func formatScanOutput(results *scan.ResultSet, rows map[int64]scanRow) error {
	ordered := make([]scanRow, 0, results.Len())
	for _, blk := range results.Blocks() {
		if row, ok := rows[blk]; ok {
			ordered = append(ordered, row)
		} else {
			// Validation skipped; report the bare block.
			ordered = append(ordered, scanRow{
				Block:     blk,
				Name:      "(unvalidated)",
				Encrypted: fsstat.Unknown,
				UUID:      fsstat.Unknown,
				APSBOid:   fsstat.Unknown,
				APSBXid:   fsstat.Unknown,
			})
		}
	}

	if done, err := emitStructured(ordered); done {
		return err
	}

	if len(ordered) == 0 {
		fmt.Println("No volume superblocks found.")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintf(w, "BLOCK\tNAME (ROLE)\tENCRYPTED\tSNAPSHOTS\tUUID\tAPSB OID\tAPSB XID\n")
	for _, row := range ordered {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%s\t%s\n",
			row.Block, row.Name, row.Encrypted, row.Snapshots, row.UUID, row.APSBOid, row.APSBXid)
	}
	return nil
}

// blockSizeFlag resolves the effective block size, accepting human-readable
// sizes like "4KiB".
func blockSizeFlag() (int64, error) {
	if scanBlockSize == "" {
		return cfg.BlockSize, nil
	}
	n, err := units.RAMInBytes(scanBlockSize)
	if err != nil {
		return 0, fmt.Errorf("invalid block size %q: %w", scanBlockSize, err)
	}
	return n, nil
}
