package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppopth/lfsr-analysis/cipher"
)

func newDescribeCommand(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:               "describe",
		Short:             "Show the structure of the reference cipher",
		Args:              cobra.NoArgs,
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := cipher.New(cipher.ReferenceConfig())
			if err != nil {
				return err
			}
			d := c.Describe()
			return g.print(cmd.OutOrStdout(), d, formatDescription(d))
		},
	}
}

func formatDescription(d cipher.Description) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "field %s, key %d, iv %d, warm-up %d, clock %s, combiner %s\n",
		d.Field, d.KeyLength, d.IVLength, d.WarmUp, d.ClockRule, d.Combiner)
	for i, r := range d.Registers {
		fmt.Fprintf(&sb, "R%d: %d cells, taps %v, clock cell %d, %s", i+1, r.Size, r.Taps, r.ClockIndex, r.Characteristic)
		if i < len(d.Registers)-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
