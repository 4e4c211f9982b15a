package database_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ardanlabs/bookledger/foundation/blockchain/database"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// =============================================================================

func Test_DeriveBookID(t *testing.T) {
	t.Log("Given the need to derive a book id from the title and isbn.")
	{
		const exp = "9cdeca7d8b0af5d35dbfb50c7aa18ff0"

		id := database.DeriveBookID("Book1", "123456")
		if id != exp {
			t.Logf("\t%s\tgot: %s", failed, id)
			t.Logf("\t%s\texp: %s", failed, exp)
			t.Fatalf("\t%s\tShould get the md5 of the title and isbn.", failed)
		}
		t.Logf("\t%s\tShould get the md5 of the title and isbn.", success)

		if database.DeriveBookID("Book1", "123456") != id {
			t.Fatalf("\t%s\tShould get the same id on every call.", failed)
		}
		t.Logf("\t%s\tShould get the same id on every call.", success)

		book := database.NewBook("Book1", "123456")
		if book.ID != exp {
			t.Fatalf("\t%s\tShould construct the book with the derived id.", failed)
		}
		t.Logf("\t%s\tShould construct the book with the derived id.", success)

		cr := book.Checkout("User1")
		if cr.BookID != exp || cr.User != "User1" || cr.IsGenesis || cr.CheckoutTimestamp == "" {
			t.Fatalf("\t%s\tShould construct a checkout for the book: %+v", failed, cr)
		}
		t.Logf("\t%s\tShould construct a checkout for the book.", success)
	}
}

func Test_ContentHash(t *testing.T) {
	type table struct {
		name string
		data database.BlockData
		exp  string
	}

	tt := []table{
		{
			name: "genesis",
			data: database.BlockData{
				Header: database.BlockHeader{Number: 0, TimeStamp: 1700000000, Nonce: 0},
				Data:   database.NewGenesis(),
			},
			exp: "5591d015b211f2cd52c4c735547918a4d59ea62de37da8d0d4432e1c39e79fe4",
		},
		{
			name: "checkout",
			data: database.BlockData{
				Header: database.BlockHeader{Number: 5, TimeStamp: 1700000123, PrevBlockHash: "00ff", Nonce: 26},
				Data: database.CheckoutRecord{
					BookID:            "abc",
					User:              "User1",
					CheckoutTimestamp: "1700000100",
				},
			},
			exp: "63321cb20d4373eb4e485c786e5af11113d872a8c892b4b0e6779a7a235cc90a",
		},
	}

	t.Log("Given the need to hash the content of a block.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen handling a %s block.", testID, tst.name)
				{
					block := database.ToBlock(tst.data)

					hash := block.ContentHash()
					if hash != tst.exp {
						t.Logf("\t%s\tTest %d:\tgot: %s", failed, testID, hash)
						t.Logf("\t%s\tTest %d:\texp: %s", failed, testID, tst.exp)
						t.Fatalf("\t%s\tTest %d:\tShould get the expected hash.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould get the expected hash.", success, testID)

					if block.ContentHash() != hash {
						t.Fatalf("\t%s\tTest %d:\tShould get the same hash on every call.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould get the same hash on every call.", success, testID)
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_POW(t *testing.T) {
	type table struct {
		name       string
		difficulty uint
	}

	tt := []table{
		{name: "zero", difficulty: 0},
		{name: "one", difficulty: 1},
		{name: "two", difficulty: 2},
		{name: "three", difficulty: 3},
	}

	t.Log("Given the need to mine blocks at different difficulties.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen mining at difficulty %d.", testID, tst.difficulty)
				{
					block, err := database.POW(context.Background(), database.POWArgs{
						Number:        1,
						PrevBlockHash: "0abc",
						Difficulty:    tst.difficulty,
						Data:          database.NewCheckout("book", "user"),
					})
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to mine the block: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to mine the block.", success, testID)

					if !strings.HasPrefix(block.Hash(), strings.Repeat("0", int(tst.difficulty))) {
						t.Fatalf("\t%s\tTest %d:\tShould have %d leading zeros: %s", failed, testID, tst.difficulty, block.Hash())
					}
					t.Logf("\t%s\tTest %d:\tShould have %d leading zeros.", success, testID, tst.difficulty)

					if block.ContentHash() != block.Hash() {
						t.Fatalf("\t%s\tTest %d:\tShould have a stored hash matching the content.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould have a stored hash matching the content.", success, testID)

					if tst.difficulty == 0 && block.Header.Nonce != 0 {
						t.Fatalf("\t%s\tTest %d:\tShould accept the first nonce, got %d.", failed, testID, block.Header.Nonce)
					}
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_POWExhausted(t *testing.T) {
	t.Log("Given the need to bound the mining work.")
	{
		block, err := database.POW(context.Background(), database.POWArgs{
			Number:      1,
			Difficulty:  database.MaxDifficulty,
			MaxAttempts: 10,
			Data:        database.NewCheckout("book", "user"),
		})
		if !errors.Is(err, database.ErrMiningExhausted) {
			t.Fatalf("\t%s\tShould get ErrMiningExhausted: %v", failed, err)
		}
		t.Logf("\t%s\tShould get ErrMiningExhausted.", success)

		if block.Header.Nonce != 9 || block.ContentHash() != block.Hash() {
			t.Fatalf("\t%s\tShould get back the last block tried: nonce[%d]", failed, block.Header.Nonce)
		}
		t.Logf("\t%s\tShould get back the last block tried.", success)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err = database.POW(ctx, database.POWArgs{
			Number:     1,
			Difficulty: database.MaxDifficulty,
			Data:       database.NewCheckout("book", "user"),
		})
		if !errors.Is(err, database.ErrMiningExhausted) || !errors.Is(err, context.Canceled) {
			t.Fatalf("\t%s\tShould stop mining when the context is done: %v", failed, err)
		}
		t.Logf("\t%s\tShould stop mining when the context is done.", success)

		if _, err := database.POW(context.Background(), database.POWArgs{Difficulty: database.MaxDifficulty + 1}); !errors.Is(err, database.ErrInvalidDifficulty) {
			t.Fatalf("\t%s\tShould reject a difficulty that can't be solved: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject a difficulty that can't be solved.", success)
	}
}

func Test_IsHashSolved(t *testing.T) {
	type table struct {
		difficulty uint
		hash       string
		exp        bool
	}

	tt := []table{
		{0, "ffff", true},
		{1, "0fff", true},
		{2, "0fff", false},
		{3, "000f", true},
		{4, "000f", false},
		{database.MaxDifficulty + 1, strings.Repeat("0", 65), false},
	}

	for _, tst := range tt {
		if got := database.IsHashSolved(tst.difficulty, tst.hash); got != tst.exp {
			t.Errorf("IsHashSolved(%d, %s) = %t, exp %t", tst.difficulty, tst.hash, got, tst.exp)
		}
	}
}

func Test_Genesis(t *testing.T) {
	block, err := database.Genesis(context.Background(), nil)
	if err != nil {
		t.Fatalf("Should be able to mine the genesis block: %v", err)
	}

	if block.Header.Number != 0 || block.Header.PrevBlockHash != "" || !block.Data.IsGenesis {
		t.Fatalf("Should construct a genesis block: %s", block)
	}

	if !database.IsHashSolved(database.GenesisDifficulty, block.Hash()) {
		t.Fatalf("Should solve the genesis block at difficulty 1: %s", block.Hash())
	}
}

func Test_Chain(t *testing.T) {
	ctx := context.Background()

	t.Log("Given the need to record book checkouts.")
	{
		t.Logf("\tTest 0:\tWhen appending a checkout for two users.")
		{
			db, err := database.New(ctx, database.Config{Difficulty: 1})
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to construct the ledger: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to construct the ledger.", success)

			if !db.IsValid() {
				t.Fatalf("\t%s\tTest 0:\tShould have a valid ledger with only genesis.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould have a valid ledger with only genesis.", success)

			if _, err := db.Append(ctx, database.NewBook("Book1", "123456").Checkout("User1")); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to append the first checkout: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to append the first checkout.", success)

			if _, err := db.Append(ctx, database.NewBook("Book2", "7890").Checkout("User2")); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to append the second checkout: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to append the second checkout.", success)

			if db.Length() != 3 {
				t.Fatalf("\t%s\tTest 0:\tShould have 3 blocks, got %d.", failed, db.Length())
			}
			t.Logf("\t%s\tTest 0:\tShould have 3 blocks.", success)

			if err := db.Validate(); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould have a valid ledger: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould have a valid ledger.", success)

			blocks := db.Blocks()
			for i := 1; i < len(blocks); i++ {
				if blocks[i].Header.PrevBlockHash != blocks[i-1].Hash() {
					t.Fatalf("\t%s\tTest 0:\tShould link block %d to block %d.", failed, i, i-1)
				}
				if blocks[i].Header.Number != uint64(i) {
					t.Fatalf("\t%s\tTest 0:\tShould number block %d in order, got %d.", failed, i, blocks[i].Header.Number)
				}
			}
			t.Logf("\t%s\tTest 0:\tShould link every block to the one before it.", success)

			if blocks[2].Data.User != "User2" || db.LatestBlock().Hash() != blocks[2].Hash() {
				t.Fatalf("\t%s\tTest 0:\tShould have User2 as the latest checkout.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould have User2 as the latest checkout.", success)

			if lines := strings.Count(db.String(), "\n"); lines != 3 {
				t.Fatalf("\t%s\tTest 0:\tShould render one line per block, got %d.", failed, lines)
			}
			t.Logf("\t%s\tTest 0:\tShould render one line per block.", success)
		}
	}
}

func Test_NewDifficulty(t *testing.T) {
	ctx := context.Background()

	for _, d := range []uint{0, 1, 2, 3} {
		db, err := database.New(ctx, database.Config{Difficulty: d})
		if err != nil {
			t.Fatalf("Should be able to construct a ledger at difficulty %d: %v", d, err)
		}

		if !db.IsValid() || db.Length() != 1 || db.Difficulty() != d {
			t.Fatalf("Should get a valid ledger with genesis at difficulty %d.", d)
		}

		if !database.IsHashSolved(database.GenesisDifficulty, db.LatestBlock().Hash()) {
			t.Fatalf("Should mine genesis at difficulty 1 for a ledger at difficulty %d.", d)
		}

		block, err := db.Append(ctx, database.NewCheckout("book", "user"))
		if err != nil {
			t.Fatalf("Should be able to append at difficulty %d: %v", d, err)
		}

		if !database.IsHashSolved(d, block.Hash()) {
			t.Fatalf("Should mine the block at difficulty %d: %s", d, block.Hash())
		}
	}

	if _, err := database.New(ctx, database.Config{Difficulty: database.MaxDifficulty + 1}); !errors.Is(err, database.ErrInvalidDifficulty) {
		t.Fatalf("Should reject an invalid difficulty: %v", err)
	}
}

func Test_AppendRejected(t *testing.T) {
	ctx := context.Background()

	db, err := database.New(ctx, database.Config{Difficulty: 1})
	if err != nil {
		t.Fatalf("Should be able to construct the ledger: %v", err)
	}
	if _, err := db.Append(ctx, database.NewCheckout("book", "User1")); err != nil {
		t.Fatalf("Should be able to append a checkout: %v", err)
	}

	latest := db.LatestBlock()

	type table struct {
		name   string
		args   database.POWArgs
		reason database.RejectReason
		target error
	}

	tt := []table{
		{
			name:   "forged",
			args:   database.POWArgs{Number: latest.Header.Number + 1, PrevBlockHash: strings.Repeat("0", 64), Difficulty: 1},
			reason: database.LinkageMismatch,
			target: database.ErrLinkageMismatch,
		},
		{
			name:   "skipped",
			args:   database.POWArgs{Number: latest.Header.Number + 2, PrevBlockHash: latest.Hash(), Difficulty: 1},
			reason: database.IndexMismatch,
			target: database.ErrIndexMismatch,
		},
		{
			name:   "replayed",
			args:   database.POWArgs{Number: latest.Header.Number, PrevBlockHash: latest.Header.PrevBlockHash, Difficulty: 1},
			reason: database.IndexMismatch,
			target: database.ErrIndexMismatch,
		},
	}

	t.Log("Given the need to reject blocks that don't extend the chain.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				tst.args.Data = database.NewCheckout("book", "Mallory")

				candidate, err := database.POW(ctx, tst.args)
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to mine the candidate: %v", failed, testID, err)
				}

				length := db.Length()

				err = db.AppendBlock(candidate)
				if !errors.Is(err, tst.target) {
					t.Fatalf("\t%s\tTest %d:\tShould reject the candidate with %v, got %v", failed, testID, tst.target, err)
				}
				t.Logf("\t%s\tTest %d:\tShould reject the candidate.", success, testID)

				var are *database.AppendRejectedError
				if !errors.As(err, &are) || are.Reason != tst.reason {
					t.Fatalf("\t%s\tTest %d:\tShould report the %s reason: %v", failed, testID, tst.reason, err)
				}
				t.Logf("\t%s\tTest %d:\tShould report the %s reason.", success, testID, tst.reason)

				if db.Length() != length || !db.IsValid() {
					t.Fatalf("\t%s\tTest %d:\tShould leave the chain unchanged.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould leave the chain unchanged.", success, testID)
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_AppendTampered(t *testing.T) {
	ctx := context.Background()

	db, err := database.New(ctx, database.Config{Difficulty: 1})
	if err != nil {
		t.Fatalf("Should be able to construct the ledger: %v", err)
	}

	candidate, err := database.POW(ctx, database.POWArgs{
		Number:        1,
		PrevBlockHash: db.LatestBlock().Hash(),
		Difficulty:    1,
		Data:          database.NewCheckout("book", "User1"),
	})
	if err != nil {
		t.Fatalf("Should be able to mine the candidate: %v", err)
	}

	candidate.Data.User = "Mallory"

	if err := db.AppendBlock(candidate); !errors.Is(err, database.ErrHashMismatch) {
		t.Fatalf("Should reject a block whose content changed after mining: %v", err)
	}

	if db.Length() != 1 {
		t.Fatalf("Should leave the chain unchanged, got %d blocks.", db.Length())
	}
}

func Test_AppendExhausted(t *testing.T) {
	ctx := context.Background()

	db, err := database.New(ctx, database.Config{Difficulty: database.MaxDifficulty, MaxAttempts: 5})
	if err != nil {
		t.Fatalf("Should be able to construct the ledger: %v", err)
	}

	if _, err := db.Append(ctx, database.NewCheckout("book", "User1")); !errors.Is(err, database.ErrMiningExhausted) {
		t.Fatalf("Should get ErrMiningExhausted: %v", err)
	}

	if db.Length() != 1 {
		t.Fatalf("Should not append an unsolved block, got %d blocks.", db.Length())
	}
}
