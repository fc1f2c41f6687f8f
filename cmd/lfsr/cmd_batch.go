package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppopth/lfsr-analysis/batch"
	"github.com/ppopth/lfsr-analysis/cipher"
	"github.com/ppopth/lfsr-analysis/order"
	"github.com/ppopth/lfsr-analysis/poly"
)

// batchFile is the input of the batch command
type batchFile struct {
	Polynomials map[string]order.Input `json:"polynomials"`
	Keystreams  []struct {
		ID     string `json:"id"`
		Key    string `json:"key"`
		IV     string `json:"iv"`
		Length int    `json:"length"`
	} `json:"keystreams"`
}

type batchSection[T any] struct {
	Results  map[string]T      `json:"results"`
	Failures map[string]string `json:"failures"`
}

type batchOutput struct {
	Analyses   batchSection[*order.Result] `json:"analyses"`
	Keystreams batchSection[string]        `json:"keystreams"`
}

func section[T, U any](r *batch.Report[T], conv func(T) U) batchSection[U] {
	s := batchSection[U]{Results: make(map[string]U), Failures: make(map[string]string)}
	for id, v := range r.Results {
		s.Results[id] = conv(v)
	}
	for id, err := range r.Failures {
		s.Failures[id] = err.Error()
	}
	return s
}

func newBatchCommand(g *globalOptions) *cobra.Command {
	var (
		workers     int
		taskTimeout time.Duration
		cacheSize   int
		strategy    string
	)
	cmd := &cobra.Command{
		Use:   "batch [flags] file.json",
		Short: "Analyse many polynomials and keystreams in parallel",
		Long: `
The "batch" command reads a JSON file of the form

  {
    "polynomials": {"r1": {"coefficients": [1, 1, 1, 0, 0, 1], "field_order": 2}},
    "keystreams": [{"id": "k1", "key": "0101...", "iv": "", "length": 64}]
  }

and runs every entry on a bounded pool of workers. A failing or timed out
entry is reported under its id and does not stop the others.
`,
		Args:              cobra.ExactArgs(1),
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var in batchFile
			if err := json.Unmarshal(data, &in); err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			st, err := order.ParseStrategy(strategy)
			if err != nil {
				return err
			}
			orderOpts := []order.Option{order.WithStrategy(st)}
			cache, err := newStore(cacheSize)
			if err != nil {
				return err
			}
			if cache != nil {
				orderOpts = append(orderOpts, order.WithCache(cache))
			}
			runOpts := []batch.Option{batch.WithWorkers(workers), batch.WithTaskTimeout(taskTimeout)}

			// malformed entries fail on their own, like any other task
			polys := make(map[string]*poly.Poly)
			invalid := make(map[string]error)
			for id, pin := range in.Polynomials {
				p, err := pin.Polynomial()
				if err != nil {
					invalid[id] = err
					continue
				}
				polys[id] = p
			}
			analyses := batch.Run(cmd.Context(), batch.OrderTasks(polys, orderOpts...), runOpts...)
			for id, err := range invalid {
				analyses.Failures[id] = err
			}

			cfg := cipher.ReferenceConfig()
			var jobs []batch.KeystreamJob
			keyInvalid := make(map[string]error)
			for _, k := range in.Keystreams {
				key, err := parseElements(cfg.Field, k.Key)
				if err != nil {
					keyInvalid[k.ID] = fmt.Errorf("key: %w", err)
					continue
				}
				iv, err := parseElements(cfg.Field, k.IV)
				if err != nil {
					keyInvalid[k.ID] = fmt.Errorf("iv: %w", err)
					continue
				}
				jobs = append(jobs, batch.KeystreamJob{ID: k.ID, Key: key, IV: iv, Length: k.Length})
			}
			keystreams := batch.Run(cmd.Context(), batch.KeystreamTasks(cfg, jobs), runOpts...)
			for id, err := range keyInvalid {
				keystreams.Failures[id] = err
			}

			out := batchOutput{
				Analyses:   section(analyses, func(r *order.Result) *order.Result { return r }),
				Keystreams: section(keystreams, cipher.Keystream.String),
			}
			return g.print(cmd.OutOrStdout(), out, formatBatch(out))
		},
	}
	f := cmd.Flags()
	f.IntVar(&workers, "workers", 0, "tasks running at once (default GOMAXPROCS)")
	f.DurationVar(&taskTimeout, "task-timeout", 0, "deadline of every task (0 means none)")
	f.IntVar(&cacheSize, "cache-size", 256, "remember this many analyses (0 disables)")
	f.StringVar(&strategy, "strategy", "auto", "order search: auto, exhaustive or divisor")
	return cmd
}

func formatBatch(out batchOutput) string {
	var lines []string
	for id, r := range out.Analyses.Results {
		lines = append(lines, fmt.Sprintf("%s: %s order %s primitive %v", id, r.Polynomial, r.PolynomialOrder, r.Primitive))
	}
	for id, err := range out.Analyses.Failures {
		lines = append(lines, fmt.Sprintf("%s: failed: %s", id, err))
	}
	for id, ks := range out.Keystreams.Results {
		lines = append(lines, fmt.Sprintf("%s: %s", id, ks))
	}
	for id, err := range out.Keystreams.Failures {
		lines = append(lines, fmt.Sprintf("%s: failed: %s", id, err))
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}
