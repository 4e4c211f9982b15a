package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/ardanlabs/bookledger/foundation/blockchain/database"
	"github.com/spf13/cobra"
)

var demoCmd = &cobra.Command{
	Use:   "demo <difficulty>",
	Short: "Checkout two books into a new ledger and print it.",
	Args:  cobra.ExactArgs(1),
	RunE:  demoRun,
}

func init() {
	rootCmd.AddCommand(demoCmd)
}

func demoRun(cmd *cobra.Command, args []string) error {
	difficulty, err := parseDifficulty(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	st, done, err := newLedger(ctx, difficulty)
	if err != nil {
		return err
	}
	defer done()

	start := time.Now()

	if _, err := st.Append(ctx, database.NewBook("Book1", "123456").Checkout("User1")); err != nil {
		return err
	}

	if _, err := st.Append(ctx, database.NewBook("Book2", "7890").Checkout("User2")); err != nil {
		return err
	}

	elapsed := time.Since(start)

	if err := st.Validate(); err != nil {
		return fmt.Errorf("invalid chain: %w", err)
	}

	out := cmd.OutOrStdout()
	if err := render(out, st); err != nil {
		return err
	}
	success(out, "Time needed: %v", elapsed)

	return nil
}

// parseDifficulty rejects anything that is not a difficulty a ledger can
// be built with.
func parseDifficulty(s string) (uint, error) {
	d, err := strconv.ParseUint(s, 10, 0)
	if err != nil {
		return 0, fmt.Errorf("invalid difficulty %q: %w", s, err)
	}

	if d > database.MaxDifficulty {
		return 0, fmt.Errorf("difficulty %d: %w", d, database.ErrInvalidDifficulty)
	}

	return uint(d), nil
}
