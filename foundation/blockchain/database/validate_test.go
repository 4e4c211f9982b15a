package database

import (
	"context"
	"errors"
	"testing"
)

func newTestLedger(t *testing.T, users ...string) *Database {
	t.Helper()

	db, err := New(context.Background(), Config{Difficulty: 1})
	if err != nil {
		t.Fatalf("Should be able to construct the ledger: %v", err)
	}

	for _, user := range users {
		if _, err := db.Append(context.Background(), NewCheckout("book", user)); err != nil {
			t.Fatalf("Should be able to append a checkout for %s: %v", user, err)
		}
	}

	return db
}

func Test_ValidateCorruption(t *testing.T) {
	type table struct {
		name      string
		tamper    func(db *Database)
		index     int
		violation Violation
	}

	tt := []table{
		{
			name:      "genesis-data",
			tamper:    func(db *Database) { db.blocks[0].Data.User = "Mallory" },
			index:     0,
			violation: ViolationSelfHash,
		},
		{
			name:      "checkout-data",
			tamper:    func(db *Database) { db.blocks[2].Data.BookID = "forged" },
			index:     2,
			violation: ViolationSelfHash,
		},
		{
			name:      "stored-hash",
			tamper:    func(db *Database) { db.blocks[1].hash = db.blocks[2].hash },
			index:     1,
			violation: ViolationSelfHash,
		},
		{
			name: "relinked",
			tamper: func(db *Database) {
				db.blocks[1].Header.PrevBlockHash = "00"
				db.blocks[1].hash = db.blocks[1].ContentHash()
			},
			index:     1,
			violation: ViolationLinkage,
		},
	}

	for _, tst := range tt {
		f := func(t *testing.T) {
			db := newTestLedger(t, "User1", "User2")
			if !db.IsValid() {
				t.Fatal("Should start with a valid ledger.")
			}

			tst.tamper(db)

			err := db.Validate()

			var ce *CorruptionError
			if !errors.As(err, &ce) {
				t.Fatalf("Should detect the corruption, got %v", err)
			}

			if ce.Index != tst.index || ce.Violation != tst.violation {
				t.Fatalf("Should report block %d %s, got block %d %s", tst.index, tst.violation, ce.Index, ce.Violation)
			}

			if db.IsValid() {
				t.Fatal("Should not report the ledger as valid.")
			}
		}

		t.Run(tst.name, f)
	}
}

func Test_AppendRecomputesPreviousHash(t *testing.T) {
	db := newTestLedger(t, "User1")

	// A stale stored hash on the latest block means the recomputed hash used
	// for mining can't match the stored one, so the candidate is rejected.
	db.blocks[1].hash = "stale"

	_, err := db.Append(context.Background(), NewCheckout("book", "User2"))
	if !errors.Is(err, ErrLinkageMismatch) {
		t.Fatalf("Should reject the candidate with a linkage mismatch, got %v", err)
	}

	if db.Length() != 2 {
		t.Fatalf("Should leave the chain unchanged, got %d blocks.", db.Length())
	}
}

func Test_EmptyLedgerPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("Should panic when the ledger has no blocks.")
		}
	}()

	var db Database
	db.LatestBlock()
}
