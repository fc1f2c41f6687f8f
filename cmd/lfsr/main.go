// Command lfsr analyses linear feedback shift registers and runs the
// irregularly clocked keystream generator built from them.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"
)

var version = "0.1.0-dev"

func init() {
	// don't import `go.uber.org/automaxprocs` to disable the log output
	_, _ = maxprocs.Set()
}

type globalOptions struct {
	LogLevel   string
	JSON       bool
	CPUProfile string
	MemProfile string

	prof interface{ Stop() }
}

func (opts *globalOptions) AddFlags(f *pflag.FlagSet) {
	f.StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	f.BoolVar(&opts.JSON, "json", false, "print results as JSON")
	f.StringVar(&opts.CPUProfile, "cpu-profile", "", "write a cpu profile to `dir`")
	f.StringVar(&opts.MemProfile, "mem-profile", "", "write a memory profile to `dir`")
}

func (opts *globalOptions) PreRun() error {
	level, err := logging.LevelFromString(opts.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", opts.LogLevel, err)
	}
	logging.SetAllLoggers(level)

	if opts.CPUProfile != "" && opts.MemProfile != "" {
		return fmt.Errorf("only one profile (memory or CPU) may be activated at the same time")
	}
	switch {
	case opts.MemProfile != "":
		opts.prof = profile.Start(profile.Quiet, profile.NoShutdownHook, profile.MemProfile, profile.ProfilePath(opts.MemProfile))
	case opts.CPUProfile != "":
		opts.prof = profile.Start(profile.Quiet, profile.NoShutdownHook, profile.CPUProfile, profile.ProfilePath(opts.CPUProfile))
	}
	return nil
}

func (opts *globalOptions) PostRun() {
	if opts.prof != nil {
		opts.prof.Stop()
		opts.prof = nil
	}
}

// print writes v as indented JSON with --json and text otherwise
func (opts *globalOptions) print(w io.Writer, v any, text string) error {
	if opts.JSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprintln(w, text)
	return err
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}
	cmd := &cobra.Command{
		Use:   "lfsr",
		Short: "Analyse linear feedback shift registers",
		Long: `
lfsr computes the order of characteristic polynomials over finite fields,
checks measured register periods against the theoretical maximum, and runs
a majority clocked keystream generator built from three registers.
`,
		SilenceErrors:     true,
		SilenceUsage:      true,
		DisableAutoGenTag: true,

		PersistentPreRunE: func(*cobra.Command, []string) error {
			return opts.PreRun()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			opts.PostRun()
		},
	}
	opts.AddFlags(cmd.PersistentFlags())
	cmd.CompletionOptions.DisableDefaultCmd = true

	cmd.AddCommand(
		newOrderCommand(opts),
		newAnalyzeCommand(opts),
		newVerifyCommand(opts),
		newKeystreamCommand(opts),
		newDescribeCommand(opts),
		newBatchCommand(opts),
		newServeCommand(opts),
		newSubmitCommand(opts),
		newVersionCommand(),
	)
	return cmd
}

// withTimeout bounds ctx when d is positive
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d > 0 {
		return context.WithTimeout(ctx, d)
	}
	return context.WithCancel(ctx)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Fatal: %v\n", err)
		os.Exit(1)
	}
}
