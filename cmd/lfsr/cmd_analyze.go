package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppopth/lfsr-analysis/order"
	"github.com/ppopth/lfsr-analysis/store"
)

func newAnalyzeCommand(g *globalOptions) *cobra.Command {
	var opts orderOptions
	cmd := &cobra.Command{
		Use:   "analyze [flags] [polynomial]",
		Short: "Factor a polynomial and report the order of every factor",
		Long: `
The "analyze" command reports irreducibility, the factorization with the
order of each factor, the order of the whole polynomial, the least common
multiple of the factor orders and whether the polynomial is primitive.
`,
		Example:           "  lfsr analyze 't^19 + t^5 + t^2 + t + 1'\n  lfsr analyze --json 't^4 + t^2 + 1'",
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

			r, err := order.Analyze(ctx, p, orderOpts...)
			if err != nil {
				return err
			}
			return g.print(cmd.OutOrStdout(), r, formatResult(r))
		},
	}
	opts.AddFlags(cmd)
	return cmd
}

func formatResult(r *order.Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "polynomial:             %s over GF(%d)\n", r.Polynomial, r.FieldOrder)
	fmt.Fprintf(&sb, "irreducible:            %v\n", r.Irreducible)
	fmt.Fprintf(&sb, "factors:\n")
	for _, f := range r.Factors {
		fmt.Fprintf(&sb, "  (%s)^%d  order %s", f.Poly, f.Multiplicity, f.Order)
		if f.Primitive {
			sb.WriteString("  primitive")
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "order:                  %s\n", r.PolynomialOrder)
	fmt.Fprintf(&sb, "lcm of factor orders:   %s\n", r.CombinedOrder)
	fmt.Fprintf(&sb, "primitive:              %v\n", r.Primitive)
	fmt.Fprintf(&sb, "theoretical max period: %s", r.TheoreticalMaxPeriod)
	return sb.String()
}

// newStore returns nil for a zero size
func newStore(size int) (*store.Store, error) {
	if size <= 0 {
		return nil, nil
	}
	return store.New(size)
}
