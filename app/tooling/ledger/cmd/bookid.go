package cmd

import (
	"fmt"

	"github.com/ardanlabs/bookledger/foundation/blockchain/database"
	"github.com/spf13/cobra"
)

var bookIDCmd = &cobra.Command{
	Use:   "bookid <title> <isbn>",
	Short: "Print the id derived for a book.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), database.DeriveBookID(args[0], args[1]))
		return err
	},
}

func init() {
	rootCmd.AddCommand(bookIDCmd)
}
