package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppopth/lfsr-analysis/field"
	"github.com/ppopth/lfsr-analysis/order"
	"github.com/ppopth/lfsr-analysis/register"
)

type verifyOutput struct {
	Polynomial     string             `json:"polynomial"`
	Period         order.Value        `json:"period"`
	Measured       bool               `json:"measured"`
	Analysis       *order.Result      `json:"analysis"`
	Verification   order.Verification `json:"verification"`
	RegisterTaps   []int              `json:"taps,omitempty"`
	RegisterSize   int                `json:"size,omitempty"`
	InitialState   string             `json:"initial_state,omitempty"`
	MeasureSeconds float64            `json:"measure_seconds,omitempty"`
}

func newVerifyCommand(g *globalOptions) *cobra.Command {
	var (
		opts   orderOptions
		period string
		size   int
		taps   []int
		state  string
		limit  uint64
	)
	cmd := &cobra.Command{
		Use:   "verify [flags] [polynomial]",
		Short: "Compare a register period with the theoretical maximum",
		Long: `
The "verify" command compares a period with what the characteristic
polynomial predicts. Either give a polynomial and --period, or describe a
register with --size and --taps and let the period be measured by clocking
it from --state (default 100...0).
`,
		Example:           "  lfsr verify --period 15 't^4 + t + 1'\n  lfsr verify --size 4 --taps 2,3",
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			orderOpts, err := opts.options()
			if err != nil {
				return err
			}
			ctx, cancel := withTimeout(cmd.Context(), opts.Timeout)
			defer cancel()

			out := verifyOutput{}
			if size > 0 {
				if len(args) > 0 || len(opts.Coefficients) > 0 || period != "" {
					return fmt.Errorf("--size measures the period of a register; drop the polynomial and --period")
				}
				f, err := field.New(opts.FieldOrder)
				if err != nil {
					return err
				}
				r, err := register.New(f, size, taps)
				if err != nil {
					return err
				}
				initial, err := initialState(f, size, state)
				if err != nil {
					return err
				}
				if err := r.Load(initial); err != nil {
					return err
				}
				start := time.Now()
				if out.Period, err = r.Period(ctx, limit); err != nil {
					return err
				}
				out.Measured = true
				out.MeasureSeconds = time.Since(start).Seconds()
				out.RegisterSize = size
				out.RegisterTaps = r.Taps()
				out.InitialState = field.FormatElements(initial)
				if out.Analysis, err = order.Analyze(ctx, r.Characteristic(), orderOpts...); err != nil {
					return err
				}
			} else {
				if period == "" {
					return fmt.Errorf("--period is required unless the register is given with --size")
				}
				if out.Period, err = order.ParseValue(period); err != nil {
					return err
				}
				p, err := opts.polynomial(args)
				if err != nil {
					return err
				}
				if out.Analysis, err = order.Analyze(ctx, p, orderOpts...); err != nil {
					return err
				}
			}
			out.Polynomial = out.Analysis.Polynomial.String()
			out.Verification = out.Analysis.Verify(out.Period)

			text := fmt.Sprintf("%s: period %s, %s (%s)", out.Polynomial, out.Period, out.Verification.Verdict, out.Verification.Reason)
			return g.print(cmd.OutOrStdout(), out, text)
		},
	}
	opts.AddFlags(cmd)
	f := cmd.Flags()
	f.StringVar(&period, "period", "", "claimed period, or \"undefined\"")
	f.IntVar(&size, "size", 0, "register size, to measure the period")
	f.IntSliceVar(&taps, "taps", nil, "register taps, cell indices from 0")
	f.StringVar(&state, "state", "", "initial register state as bits or comma separated indices")
	f.Uint64Var(&limit, "limit", 0, "stop measuring after this many clocks (0 means q^size)")
	return cmd
}

func initialState(f field.Field, size int, s string) ([]field.Element, error) {
	if s == "" {
		state := make([]field.Element, size)
		for i := range state {
			state[i] = f.Zero()
		}
		state[0] = f.One()
		return state, nil
	}
	return parseElements(f, s)
}
