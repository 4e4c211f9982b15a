package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ardanlabs/bookledger/foundation/blockchain/database"
	"github.com/spf13/cobra"
)

var errBookSpec = errors.New("book must be given as title:isbn")

var (
	difficulty uint
	user       string
)

var checkoutCmd = &cobra.Command{
	Use:   "checkout title:isbn...",
	Short: "Checkout each book for the user into a new ledger and print it.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  checkoutRun,
}

func init() {
	rootCmd.AddCommand(checkoutCmd)
	checkoutCmd.Flags().UintVarP(&difficulty, "difficulty", "d", 1, "Number of leading zeros required in each block hash.")
	checkoutCmd.Flags().StringVarP(&user, "user", "u", "", "User checking out the books.")
	checkoutCmd.MarkFlagRequired("user")
}

func checkoutRun(cmd *cobra.Command, args []string) error {
	books, err := parseBooks(args)
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
	for _, book := range books {
		if _, err := st.Append(ctx, book.Checkout(user)); err != nil {
			return fmt.Errorf("checkout %q: %w", book.Title, err)
		}
	}
	elapsed := time.Since(start)

	if err := st.Validate(); err != nil {
		return fmt.Errorf("invalid chain: %w", err)
	}

	out := cmd.OutOrStdout()
	if err := render(out, st); err != nil {
		return err
	}
	success(out, "Mined %d checkouts in %v", len(books), elapsed)

	return nil
}

func parseBooks(args []string) ([]database.Book, error) {
	books := make([]database.Book, 0, len(args))
	for _, arg := range args {
		title, isbn, ok := strings.Cut(arg, ":")
		if !ok || title == "" || isbn == "" {
			return nil, fmt.Errorf("%q: %w", arg, errBookSpec)
		}
		books = append(books, database.NewBook(title, isbn))
	}
	return books, nil
}
