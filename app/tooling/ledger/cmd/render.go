package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/ardanlabs/bookledger/foundation/blockchain/database"
	"github.com/ardanlabs/bookledger/foundation/blockchain/state"
	"github.com/pterm/pterm"
	"golang.org/x/term"
)

// styled reports if output should use pterm styling. Styling is skipped
// when asked for or when stdout is not a terminal.
func styled() bool {
	return !plain && term.IsTerminal(int(os.Stdout.Fd()))
}

// render writes the chain, one block per row.
func render(w io.Writer, st *state.State) error {
	if !styled() {
		_, err := fmt.Fprint(w, st.Render())
		return err
	}

	data := pterm.TableData{
		{"Block", "Hash", "Prev. Hash", "Nonce", "Book ID", "User", "Checkout date", "Genesis"},
	}
	for _, blk := range st.RetrieveBlocks() {
		data = append(data, []string{
			fmt.Sprint(blk.Header.Number),
			blk.Hash(),
			blk.Header.PrevBlockHash,
			database.EncodeNonce(blk.Header.Nonce),
			blk.Data.BookID,
			blk.Data.User,
			blk.Data.CheckoutTimestamp,
			fmt.Sprint(blk.Data.IsGenesis),
		})
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Srender()
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, table)
	return err
}

// success prints a summary line.
func success(w io.Writer, format string, args ...any) {
	if !styled() {
		fmt.Fprintf(w, format+"\n", args...)
		return
	}
	fmt.Fprint(w, pterm.Success.Sprintfln(format, args...))
}
