package scan

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// APFS volume superblock (APSB) header layout, per the on-disk object header:
// the object type and subtype sit at fixed offsets in front of the 4-byte
// magic. Only these fields are inspected; no further APFS parsing happens
// here.
const (
	signatureOffset     = 0x20
	objectTypeOffset    = 0x18
	objectSubtypeOffset = 0x1C
	headerLen           = 0x60
	minHeaderLen        = 0x24

	volumeSuperblockType    = 0x0D
	volumeSuperblockSubtype = 0
)

var apsbSignature = []byte("APSB")

// Defaults for the block-strided scan.
const (
	DefaultBlockSize = 4096
	DefaultStep      = 8
)

// progressInterval controls how often the progress callback fires, in
// completed strides.
const progressInterval = 256

// Options configures a signature scan. EndBlock < 0 means "to the end of the
// image".
type Options struct {
	BlockSize  int64
	StartBlock int64
	EndBlock   int64
	Step       int64
}

// HitFunc receives each validated volume superblock block number.
type HitFunc func(block int64)

// ProgressFunc receives scan progress: strides completed, strides planned,
// and hits so far.
type ProgressFunc func(done, planned, hits int64)

// Scanner locates APFS volume superblocks by striding over an image file and
// testing the APSB signature at a fixed in-block offset.
type Scanner struct {
	opts Options
}

// NewScanner normalizes the options and returns a Scanner. Zero or negative
// block size and step fall back to the defaults.
func NewScanner(opts Options) *Scanner {
	if opts.BlockSize <= 0 {
		opts.BlockSize = DefaultBlockSize
	}
	if opts.Step <= 0 {
		opts.Step = 1
	}
	if opts.StartBlock < 0 {
		opts.StartBlock = 0
	}
	return &Scanner{opts: opts}
}

// Scan walks the image and reports every block whose header passes signature
// and type validation. It returns the number of hits. The scan stops early
// when ctx is cancelled, returning the hits found so far and ctx.Err().
func (s *Scanner) Scan(ctx context.Context, imagePath string, onHit HitFunc, onProgress ProgressFunc) (int64, error) {
	f, err := os.Open(imagePath)
	if err != nil {
		return 0, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat image: %w", err)
	}

	totalBlocks := st.Size() / s.opts.BlockSize
	if totalBlocks == 0 {
		return 0, fmt.Errorf("image smaller than one block (%d bytes)", s.opts.BlockSize)
	}

	start, end := s.opts.StartBlock, s.opts.EndBlock
	if end < 0 || end >= totalBlocks {
		end = totalBlocks - 1
	}
	if start > end {
		start, end = end, start
	}

	planned := (end-start)/s.opts.Step + 1
	var done, hits int64

	sig := make([]byte, len(apsbSignature))
	hdr := make([]byte, headerLen)

	for b := start; b <= end; b += s.opts.Step {
		if err := ctx.Err(); err != nil {
			return hits, err
		}

		base := b * s.opts.BlockSize
		n, err := f.ReadAt(sig, base+signatureOffset)
		if err != nil && err != io.EOF {
			return hits, fmt.Errorf("failed to read block %d: %w", b, err)
		}
		if n == len(sig) && bytes.Equal(sig, apsbSignature) {
			n, err := f.ReadAt(hdr, base)
			if err != nil && err != io.EOF {
				return hits, fmt.Errorf("failed to read block %d: %w", b, err)
			}
			if validateHeader(hdr[:n]) {
				hits++
				if onHit != nil {
					onHit(b)
				}
			}
		}

		done++
		if onProgress != nil && (done%progressInterval == 0 || done == planned) {
			onProgress(done, planned, hits)
		}
	}

	if onProgress != nil && done%progressInterval != 0 && done != planned {
		onProgress(done, planned, hits)
	}
	return hits, nil
}

// validateHeader confirms the APSB signature plus the object type and subtype
// fields of a candidate header.
func validateHeader(hdr []byte) bool {
	if len(hdr) < minHeaderLen {
		return false
	}
	if !bytes.Equal(hdr[signatureOffset:signatureOffset+4], apsbSignature) {
		return false
	}
	objType := binary.LittleEndian.Uint32(hdr[objectTypeOffset:])
	objSubtype := binary.LittleEndian.Uint32(hdr[objectSubtypeOffset:])
	return objType == volumeSuperblockType && objSubtype == volumeSuperblockSubtype
}

// VerifyBlock re-reads a single block's header and reports whether it is a
// valid volume superblock. Used when a block number arrives from pstat or
// manual entry rather than from a scan.
func VerifyBlock(r io.ReaderAt, block, blockSize int64) (bool, error) {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	hdr := make([]byte, headerLen)
	n, err := r.ReadAt(hdr, block*blockSize)
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("failed to read block %d: %w", block, err)
	}
	return validateHeader(hdr[:n]), nil
}
