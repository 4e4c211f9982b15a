// This program runs the book checkout ledger from the command line.
package main

import "github.com/ardanlabs/bookledger/app/tooling/ledger/cmd"

func main() {
	cmd.Execute()
}
