package validate

import (
	"context"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/deploymenttheory/go-apfshunt/internal/parsers/fsstat"
	"github.com/deploymenttheory/go-apfshunt/internal/tsk"
)

// Result is the outcome of validating one candidate block with fsstat.
type Result struct {
	Block  int64
	Info   *fsstat.VolumeInfo
	Output string
	Err    error
}

// Validator confirms candidate blocks by running fsstat against them and
// parsing its diagnostic output.
type Validator struct {
	runner *tsk.Runner
	image  string
}

// NewValidator returns a Validator for one image.
func NewValidator(runner *tsk.Runner, image string) *Validator {
	return &Validator{runner: runner, image: image}
}

// Validate runs fsstat -B <block> against the image. fsstat reports some
// failures on stderr only, so combined output is parsed either way.
func (v *Validator) Validate(ctx context.Context, block int64) Result {
	out, err := v.runner.RunCombined(ctx, tsk.Fsstat, "-B", strconv.FormatInt(block, 10), v.image)
	if err != nil {
		return Result{Block: block, Err: err}
	}
	return Result{Block: block, Info: fsstat.Parse(out), Output: out}
}

// Queue validates candidate blocks sequentially on a single worker, so a
// scan producing hits faster than fsstat can confirm them never runs more
// than one fsstat at a time. Blocks are de-duplicated on enqueue.
type Queue struct {
	validator *Validator

	mu   sync.Mutex
	seen map[int64]struct{}

	jobs    chan int64
	results chan Result
	done    chan struct{}
	group   *errgroup.Group
}

// NewQueue creates a Queue and starts its worker. The caller must Close the
// queue when no more blocks will arrive, then drain Results and Wait.
func NewQueue(ctx context.Context, validator *Validator, buffer int) *Queue {
	if buffer <= 0 {
		buffer = 64
	}
	q := &Queue{
		validator: validator,
		seen:      make(map[int64]struct{}),
		jobs:      make(chan int64, buffer),
		results:   make(chan Result, buffer),
		done:      make(chan struct{}),
	}

	g, ctx := errgroup.WithContext(ctx)
	q.group = g
	g.Go(func() error {
		defer close(q.results)
		// Unblocks producers stuck on a full jobs buffer once the worker
		// stops accepting work.
		defer close(q.done)
		for blk := range q.jobs {
			if err := ctx.Err(); err != nil {
				return err
			}
			q.results <- q.validator.Validate(ctx, blk)
		}
		return nil
	})
	return q
}

// Enqueue submits a block for validation, reporting whether it was accepted.
// Duplicates are refused, as are blocks arriving after the worker has
// stopped, so producers never block on a cancelled queue.
func (q *Queue) Enqueue(block int64) bool {
	q.mu.Lock()
	if _, dup := q.seen[block]; dup {
		q.mu.Unlock()
		return false
	}
	q.seen[block] = struct{}{}
	q.mu.Unlock()

	select {
	case q.jobs <- block:
		return true
	case <-q.done:
		return false
	}
}

// Close signals that no further blocks will be enqueued.
func (q *Queue) Close() {
	close(q.jobs)
}

// Results returns the channel of validation results. It is closed after
// Close once the worker drains the queue.
func (q *Queue) Results() <-chan Result {
	return q.results
}

// Wait blocks until the worker has finished and returns its error, if any.
func (q *Queue) Wait() error {
	return q.group.Wait()
}
