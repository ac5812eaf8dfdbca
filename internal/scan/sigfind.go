package scan

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/nxadm/tail"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/deploymenttheory/go-apfshunt/internal/tsk"
)

// apsbHex is the APSB signature as sigfind expects it on the command line.
const apsbHex = "41505342"

// sigLineRe matches sigfind hit lines, e.g. "Block: 249423 (-)".
var sigLineRe = regexp.MustCompile(`^Block:\s*([0-9]+)`)

// SigfindScanner delegates the signature search to the SleuthKit sigfind
// tool. Sigfind's stdout is redirected to a temp file which is tailed for hit
// lines while the process runs, so hits surface incrementally on large
// images.
type SigfindScanner struct {
	runner    *tsk.Runner
	blockSize int64
	offset    int
}

// NewSigfindScanner returns a scanner invoking sigfind with the given block
// size and in-block signature offset (in bytes).
func NewSigfindScanner(runner *tsk.Runner, blockSize int64, offset int) *SigfindScanner {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	return &SigfindScanner{runner: runner, blockSize: blockSize, offset: offset}
}

// Scan runs sigfind over the image, forwarding each distinct block number to
// onHit. onProgress receives the number of output lines consumed and the hits
// so far. It returns the path of the output file (kept for inspection) and
// the hit count. Cancelling ctx terminates sigfind; hits collected so far are
// still reported.
func (s *SigfindScanner) Scan(ctx context.Context, imagePath string, onHit HitFunc, onProgress func(lines, hits int64)) (string, int64, error) {
	out, err := os.CreateTemp("", "sigfind_*.txt")
	if err != nil {
		return "", 0, fmt.Errorf("failed to create sigfind output file: %w", err)
	}
	outPath := out.Name()

	cmd, err := s.runner.StartToFile(ctx, out, tsk.Sigfind,
		"-o", strconv.Itoa(s.offset),
		"-b", strconv.FormatInt(s.blockSize, 10),
		apsbHex, imagePath)
	if err != nil {
		out.Close()
		os.Remove(outPath)
		return "", 0, err
	}

	t, err := tail.TailFile(outPath, tail.Config{
		Follow:    true,
		MustExist: true,
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		out.Close()
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return outPath, 0, fmt.Errorf("failed to tail sigfind output: %w", err)
	}

	var g errgroup.Group
	g.Go(func() error {
		waitErr := cmd.Wait()
		out.Close()
		_ = t.StopAtEOF()
		if waitErr != nil && ctx.Err() == nil {
			return fmt.Errorf("sigfind failed: %w", waitErr)
		}
		return nil
	})

	var lines, hits int64
	seen := make(map[int64]struct{})
	for line := range t.Lines {
		if line == nil {
			break
		}
		if line.Err != nil {
			logrus.Error(line.Err)
			continue
		}
		lines++
		m := sigLineRe.FindStringSubmatch(strings.TrimSpace(line.Text))
		if m == nil {
			if onProgress != nil {
				onProgress(lines, hits)
			}
			continue
		}
		blk, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			continue
		}
		if _, dup := seen[blk]; dup {
			continue
		}
		seen[blk] = struct{}{}
		hits++
		if onHit != nil {
			onHit(blk)
		}
		if onProgress != nil {
			onProgress(lines, hits)
		}
	}
	groupErr := g.Wait()

	// Stopping the tail at EOF can still cut off lines written just before
	// sigfind exited, so the output file is swept once more for hits the
	// tailer missed.
	swept, sweepErr := sweepHits(outPath, seen, onHit)
	hits += swept

	if groupErr != nil {
		return outPath, hits, groupErr
	}
	if err := ctx.Err(); err != nil {
		return outPath, hits, err
	}
	return outPath, hits, sweepErr
}

// sweepHits re-reads a sigfind output file and forwards hit lines absent from
// seen, returning how many new hits it found.
func sweepHits(path string, seen map[int64]struct{}, onHit HitFunc) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to reopen sigfind output: %w", err)
	}
	defer f.Close()

	var hits int64
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		blk, ok := ParseHitLine(sc.Text())
		if !ok {
			continue
		}
		if _, dup := seen[blk]; dup {
			continue
		}
		seen[blk] = struct{}{}
		hits++
		if onHit != nil {
			onHit(blk)
		}
	}
	return hits, sc.Err()
}

// ParseHitLine extracts the block number from a single sigfind output line.
// Exposed for reprocessing saved sigfind output files.
func ParseHitLine(line string) (int64, bool) {
	m := sigLineRe.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return 0, false
	}
	blk, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return blk, true
}
