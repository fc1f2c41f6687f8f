// Package batch runs independent analysis tasks on a bounded worker pool
// and aggregates their outcomes by task id.
package batch

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/sync/errgroup"
)

var log = logging.Logger("batch")

// ErrDuplicateID is recorded for every id shared by more than one task
var ErrDuplicateID = errors.New("duplicate task id")

// Task is one unit of work
type Task[T any] struct {
	ID  string
	Run func(ctx context.Context) (T, error)
}

// Report holds the outcome of every task, keyed by id. Each id is in
// exactly one of the two maps.
type Report[T any] struct {
	Results  map[string]T
	Failures map[string]error
}

type options struct {
	workers int
	timeout time.Duration
}

// Option configures Run
type Option func(*options)

// WithWorkers bounds the number of tasks running at once. The default is
// GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithTaskTimeout gives every task its own deadline
func WithTaskTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// Run executes tasks concurrently. A task that fails, panics or times out
// is recorded in Failures and never stops its siblings. Tasks sharing an
// id are not run; the id is recorded with ErrDuplicateID.
func Run[T any](ctx context.Context, tasks []Task[T], opts ...Option) *Report[T] {
	o := &options{workers: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		opt(o)
	}

	results := xsync.NewMapOf[string, T]()
	failures := xsync.NewMapOf[string, error]()

	count := make(map[string]int, len(tasks))
	for _, task := range tasks {
		count[task.ID]++
	}

	var g errgroup.Group
	g.SetLimit(o.workers)
	for _, task := range tasks {
		if count[task.ID] > 1 {
			failures.Store(task.ID, ErrDuplicateID)
			continue
		}
		g.Go(func() error {
			v, err := runOne(ctx, task, o.timeout)
			if err != nil {
				log.Warnf("task %s failed: %s", task.ID, err)
				failures.Store(task.ID, err)
				return nil
			}
			results.Store(task.ID, v)
			return nil
		})
	}
	_ = g.Wait()

	report := &Report[T]{
		Results:  make(map[string]T, results.Size()),
		Failures: make(map[string]error, failures.Size()),
	}
	results.Range(func(id string, v T) bool {
		report.Results[id] = v
		return true
	})
	failures.Range(func(id string, err error) bool {
		report.Failures[id] = err
		return true
	})
	log.Debugf("batch of %d tasks: %d results, %d failures", len(tasks), len(report.Results), len(report.Failures))
	return report
}

func runOne[T any](ctx context.Context, task Task[T], timeout time.Duration) (v T, err error) {
	if err := ctx.Err(); err != nil {
		return v, err
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return task.Run(ctx)
}
