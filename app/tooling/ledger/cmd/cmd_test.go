package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/ardanlabs/bookledger/foundation/blockchain/database"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--plain"))

	err := rootCmd.Execute()
	return out.String(), err
}

func Test_Demo(t *testing.T) {
	out, err := execute(t, "demo", "1")
	if err != nil {
		t.Fatalf("Should be able to run the demo: %v", err)
	}

	for _, exp := range []string{"Block #0", "Block #1", "Block #2", "User1", "User2", "Time needed"} {
		if !strings.Contains(out, exp) {
			t.Fatalf("Should print %q in:\n%s", exp, out)
		}
	}
}

func Test_DemoInvalidDifficulty(t *testing.T) {
	if _, err := execute(t, "demo", "abc"); err == nil {
		t.Fatal("Should reject a difficulty that is not a number.")
	}

	if _, err := execute(t, "demo", "65"); !errors.Is(err, database.ErrInvalidDifficulty) {
		t.Fatalf("Should reject a difficulty above the maximum: %v", err)
	}
}

func Test_Checkout(t *testing.T) {
	out, err := execute(t, "checkout", "--user", "User1", "--difficulty", "1", "Book1:123456", "Book2:7890")
	if err != nil {
		t.Fatalf("Should be able to checkout books: %v", err)
	}

	if !strings.Contains(out, database.DeriveBookID("Book2", "7890")) {
		t.Fatalf("Should print the checked out book in:\n%s", out)
	}

	if _, err := execute(t, "checkout", "--user", "User1", "Book1"); !errors.Is(err, errBookSpec) {
		t.Fatalf("Should reject a book without an isbn: %v", err)
	}
}

func Test_BookID(t *testing.T) {
	out, err := execute(t, "bookid", "Book1", "123456")
	if err != nil {
		t.Fatalf("Should be able to derive a book id: %v", err)
	}

	if strings.TrimSpace(out) != database.DeriveBookID("Book1", "123456") {
		t.Fatalf("Should print the derived id, got %q", out)
	}
}
