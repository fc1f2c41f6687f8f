package main

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppopth/lfsr-analysis/field"
	"github.com/ppopth/lfsr-analysis/host"
	"github.com/ppopth/lfsr-analysis/order"
	"github.com/ppopth/lfsr-analysis/service"
)

type submitOptions struct {
	Server  string
	Timeout time.Duration
	Retries uint64
}

// connect dials the server from a fresh host with a random identity
func (o *submitOptions) connect(ctx context.Context) (*service.Client, func(), error) {
	addr, err := net.ResolveUDPAddr("udp", o.Server)
	if err != nil {
		return nil, nil, err
	}
	h, err := host.New(host.WithAddrPort(netip.MustParseAddrPort("0.0.0.0:0")))
	if err != nil {
		return nil, nil, err
	}
	c, err := service.Dial(ctx, h, addr, service.WithDialRetries(o.Retries))
	if err != nil {
		h.Close()
		return nil, nil, err
	}
	return c, func() {
		c.Close()
		h.Close()
	}, nil
}

// run calls fn with a connected client under the --timeout bound
func (o *submitOptions) run(cmd *cobra.Command, fn func(context.Context, *service.Client) error) error {
	ctx, cancel := withTimeout(cmd.Context(), o.Timeout)
	defer cancel()
	c, done, err := o.connect(ctx)
	if err != nil {
		return err
	}
	defer done()
	return fn(ctx, c)
}

func newSubmitCommand(g *globalOptions) *cobra.Command {
	var opts submitOptions
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Send a request to a running server",
		Long: `
The "submit" commands send one request to a server started with "lfsr serve"
and print the answer the way the local command would.
`,
		DisableAutoGenTag: true,
	}
	f := cmd.PersistentFlags()
	f.StringVar(&opts.Server, "server", fmt.Sprintf("127.0.0.1:%d", host.DefaultPort), "server `address:port`")
	f.DurationVar(&opts.Timeout, "timeout", time.Minute, "give up after this long (0 waits forever)")
	f.Uint64Var(&opts.Retries, "retries", 5, "dial retries")

	cmd.AddCommand(
		newSubmitAnalyzeCommand(g, &opts),
		newSubmitOrderCommand(g, &opts),
		newSubmitKeystreamCommand(g, &opts),
		newSubmitDescribeCommand(g, &opts),
	)
	return cmd
}

func newSubmitAnalyzeCommand(g *globalOptions, opts *submitOptions) *cobra.Command {
	var (
		pf       polyFlags
		strategy string
	)
	cmd := &cobra.Command{
		Use:   "analyze [flags] [polynomial]",
		Short: "Analyse a polynomial on the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := pf.input(args)
			if err != nil {
				return err
			}
			st, err := order.ParseStrategy(strategy)
			if err != nil {
				return err
			}
			return opts.run(cmd, func(ctx context.Context, c *service.Client) error {
				r, err := c.Analyze(ctx, in, st)
				if err != nil {
					return err
				}
				return g.print(cmd.OutOrStdout(), r, formatResult(r))
			})
		},
	}
	pf.AddFlags(cmd.Flags())
	cmd.Flags().StringVar(&strategy, "strategy", "auto", "order search: auto, exhaustive or divisor")
	return cmd
}

func newSubmitOrderCommand(g *globalOptions, opts *submitOptions) *cobra.Command {
	var (
		pf       polyFlags
		strategy string
	)
	cmd := &cobra.Command{
		Use:   "order [flags] [polynomial]",
		Short: "Compute the order of a polynomial on the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := pf.input(args)
			if err != nil {
				return err
			}
			p, err := in.Polynomial()
			if err != nil {
				return err
			}
			st, err := order.ParseStrategy(strategy)
			if err != nil {
				return err
			}
			return opts.run(cmd, func(ctx context.Context, c *service.Client) error {
				v, err := c.Order(ctx, in, st)
				if err != nil {
					return err
				}
				return g.print(cmd.OutOrStdout(), orderOutput{
					Polynomial:           p.String(),
					FieldOrder:           in.FieldOrder,
					Order:                v,
					TheoreticalMaxPeriod: order.MaxPeriod(p),
				}, v.String())
			})
		},
	}
	pf.AddFlags(cmd.Flags())
	cmd.Flags().StringVar(&strategy, "strategy", "auto", "order search: auto, exhaustive or divisor")
	return cmd
}

func newSubmitKeystreamCommand(g *globalOptions, opts *submitOptions) *cobra.Command {
	var (
		key, iv string
		length  int
	)
	cmd := &cobra.Command{
		Use:   "keystream [flags]",
		Short: "Generate keystream on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := field.NewGF2()
			keyElems, err := parseElements(f, key)
			if err != nil {
				return err
			}
			ivElems, err := parseElements(f, iv)
			if err != nil {
				return err
			}
			var ivValues []uint64
			if ivElems != nil {
				ivValues = field.ToUint64s(ivElems)
			}
			return opts.run(cmd, func(ctx context.Context, c *service.Client) error {
				ks, err := c.Keystream(ctx, field.ToUint64s(keyElems), ivValues, length)
				if err != nil {
					return err
				}
				s := field.FormatElements(field.FromUint64s(f, ks))
				return g.print(cmd.OutOrStdout(), keystreamOutput{Keystream: s, Length: len(ks)}, s)
			})
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "key bits, one per register cell")
	cmd.Flags().StringVar(&iv, "iv", "", "IV bits (default all zero)")
	cmd.Flags().IntVarP(&length, "length", "n", 100, "number of keystream elements")
	return cmd
}

func newSubmitDescribeCommand(g *globalOptions, opts *submitOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "describe",
		Short: "Show the structure of the server's cipher",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, c *service.Client) error {
				d, err := c.Describe(ctx)
				if err != nil {
					return err
				}
				return g.print(cmd.OutOrStdout(), d, formatDescription(d))
			})
		},
	}
}
