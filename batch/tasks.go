package batch

import (
	"context"
	"sort"

	"github.com/ppopth/lfsr-analysis/cipher"
	"github.com/ppopth/lfsr-analysis/field"
	"github.com/ppopth/lfsr-analysis/order"
	"github.com/ppopth/lfsr-analysis/poly"
)

// OrderTasks returns one analysis task per polynomial, in id order
func OrderTasks(inputs map[string]*poly.Poly, opts ...order.Option) []Task[*order.Result] {
	ids := make([]string, 0, len(inputs))
	for id := range inputs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	tasks := make([]Task[*order.Result], 0, len(ids))
	for _, id := range ids {
		p := inputs[id]
		tasks = append(tasks, Task[*order.Result]{
			ID: id,
			Run: func(ctx context.Context) (*order.Result, error) {
				return order.Analyze(ctx, p, opts...)
			},
		})
	}
	return tasks
}

// KeystreamJob is one keystream request against a shared configuration
type KeystreamJob struct {
	ID     string
	Key    []field.Element
	IV     []field.Element
	Length int
}

// KeystreamTasks returns one task per job. Every task builds its own
// cipher from cfg.
func KeystreamTasks(cfg cipher.Config, jobs []KeystreamJob) []Task[cipher.Keystream] {
	tasks := make([]Task[cipher.Keystream], 0, len(jobs))
	for _, job := range jobs {
		tasks = append(tasks, Task[cipher.Keystream]{
			ID: job.ID,
			Run: func(ctx context.Context) (cipher.Keystream, error) {
				c, err := cipher.New(cfg)
				if err != nil {
					return nil, err
				}
				return c.GenerateKeystream(job.Key, job.IV, job.Length)
			},
		})
	}
	return tasks
}
