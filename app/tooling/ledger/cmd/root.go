// Package cmd contains the ledger command line tool.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/ardanlabs/bookledger/foundation/blockchain/state"
	"github.com/ardanlabs/bookledger/foundation/logger"
	"github.com/spf13/cobra"
)

var (
	maxAttempts uint64
	verbose     bool
	plain       bool
)

func init() {
	rootCmd.PersistentFlags().Uint64VarP(&maxAttempts, "max-attempts", "m", 0, "Maximum nonces to try per block, 0 for no limit.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log mining events.")
	rootCmd.PersistentFlags().BoolVar(&plain, "plain", false, "Print the chain without styling.")
}

var rootCmd = &cobra.Command{
	Use:           "ledger",
	Short:         "Record book checkouts in a proof of work ledger",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(1)
	}
}

// newLedger constructs a ledger at the specified difficulty. Mining events
// are logged when verbose is set.
func newLedger(ctx context.Context, difficulty uint) (*state.State, func(), error) {
	cfg := state.Config{
		Difficulty:  difficulty,
		MaxAttempts: maxAttempts,
	}

	done := func() {}
	if verbose {
		log, err := logger.New("LEDGER", "stderr")
		if err != nil {
			return nil, nil, err
		}
		cfg.EvHandler = func(v string, args ...any) {
			log.Infow(fmt.Sprintf(v, args...))
		}
		done = func() { log.Sync() }
	}

	st, err := state.New(ctx, cfg)
	if err != nil {
		done()
		return nil, nil, err
	}

	return st, done, nil
}
