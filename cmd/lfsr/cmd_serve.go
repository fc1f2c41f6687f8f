package main

import (
	"fmt"
	"net/netip"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppopth/lfsr-analysis/host"
	"github.com/ppopth/lfsr-analysis/service"
)

func newServeCommand(g *globalOptions) *cobra.Command {
	var (
		listen         string
		identity       string
		concurrency    int
		dedupTTL       time.Duration
		cacheSize      int
		requestTimeout time.Duration
		maxKeystream   int
	)
	cmd := &cobra.Command{
		Use:   "serve [flags]",
		Short: "Answer analysis and keystream requests over QUIC",
		Long: `
The "serve" command listens for peers and answers analyze, order, keystream
and describe requests until it is interrupted. Peers are identified by the
ed25519 key of their TLS certificate.
`,
		Args:              cobra.NoArgs,
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ep, err := netip.ParseAddrPort(listen)
			if err != nil {
				return fmt.Errorf("invalid listen address: %w", err)
			}
			hostOpts := []host.HostOption{host.WithAddrPort(ep)}
			if identity != "" {
				sk, err := host.LoadIdentity(identity)
				if err != nil {
					return err
				}
				hostOpts = append(hostOpts, host.WithIdentity(sk))
			}
			h, err := host.New(hostOpts...)
			if err != nil {
				return err
			}
			defer h.Close()

			serverOpts := []service.Option{
				service.WithConcurrency(concurrency),
				service.WithDedupTTL(dedupTTL),
				service.WithRequestTimeout(requestTimeout),
				service.WithMaxKeystream(maxKeystream),
			}
			cache, err := newStore(cacheSize)
			if err != nil {
				return err
			}
			if cache != nil {
				serverOpts = append(serverOpts, service.WithCache(cache))
			}
			s, err := service.NewServer(h, serverOpts...)
			if err != nil {
				return err
			}
			defer s.Close()

			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "serving as %s on %s\n", h.ID(), h.LocalAddr())
			<-cmd.Context().Done()
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "shutting down, sent %d and received %d bytes\n", h.BytesSent(), h.BytesReceived())
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&listen, "listen", fmt.Sprintf("0.0.0.0:%d", host.DefaultPort), "UDP `address:port` to listen on")
	f.StringVar(&identity, "identity", "", "PEM file with the ed25519 identity key, created when missing")
	f.IntVar(&concurrency, "concurrency", service.DefaultConcurrency, "requests processed at once")
	f.DurationVar(&dedupTTL, "dedup-ttl", service.DefaultDedupTTL, "how long request ids are remembered")
	f.IntVar(&cacheSize, "cache-size", 1024, "remember this many analyses (0 disables)")
	f.DurationVar(&requestTimeout, "request-timeout", time.Minute, "processing bound of a request (0 means none)")
	f.IntVar(&maxKeystream, "max-keystream", service.DefaultMaxKeystream, "longest keystream served")
	return cmd
}
