package main

import (
	"math/big"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppopth/lfsr-analysis/order"
)

type orderOutput struct {
	Polynomial           string      `json:"polynomial"`
	FieldOrder           uint64      `json:"field_order"`
	Order                order.Value `json:"order"`
	TheoreticalMaxPeriod *big.Int    `json:"theoretical_max_period"`
}

type orderOptions struct {
	polyFlags
	Strategy string
	Timeout  time.Duration
}

func (o *orderOptions) AddFlags(cmd *cobra.Command) {
	o.polyFlags.AddFlags(cmd.Flags())
	cmd.Flags().StringVar(&o.Strategy, "strategy", "auto", "order search: auto, exhaustive or divisor")
	cmd.Flags().DurationVar(&o.Timeout, "timeout", 0, "give up after this long (0 waits forever)")
}

func (o *orderOptions) options() ([]order.Option, error) {
	strategy, err := order.ParseStrategy(o.Strategy)
	if err != nil {
		return nil, err
	}
	return []order.Option{order.WithStrategy(strategy)}, nil
}

func newOrderCommand(g *globalOptions) *cobra.Command {
	var opts orderOptions
	cmd := &cobra.Command{
		Use:   "order [flags] [polynomial]",
		Short: "Compute the order of a polynomial",
		Long: `
The "order" command prints the smallest positive e with t^e = 1 modulo the
polynomial, which is the period of every non-zero state of a register with
that characteristic polynomial. A polynomial with zero constant term has no
order and prints "undefined".
`,
		Example:           "  lfsr order 't^4 + t + 1'\n  lfsr order -q 3 --coefficients 2,1,1",
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.polynomial(args)
			if err != nil {
				return err
			}
			orderOpts, err := opts.options()
			if err != nil {
				return err
			}
			ctx, cancel := withTimeout(cmd.Context(), opts.Timeout)
			defer cancel()

			v, err := order.Order(ctx, p, orderOpts...)
			if err != nil {
				return err
			}
			return g.print(cmd.OutOrStdout(), orderOutput{
				Polynomial:           p.String(),
				FieldOrder:           p.Field().Size(),
				Order:                v,
				TheoreticalMaxPeriod: order.MaxPeriod(p),
			}, v.String())
		},
	}
	opts.AddFlags(cmd)
	return cmd
}
