// Package database maintains the in memory book checkout ledger. Blocks are
// sealed with proof of work and chained together by their hashes.
package database

import (
	"context"
	"fmt"
	"strings"
)

// Config represents the configuration required to construct a ledger.
type Config struct {
	Difficulty  uint
	MaxAttempts uint64
	EvHandler   func(v string, args ...any)
}

// Database manages the ordered sequence of blocks starting with the genesis
// block. A Database is not safe for concurrent use.
type Database struct {
	blocks      []Block
	difficulty  uint
	maxAttempts uint64
	evHandler   func(v string, args ...any)
}

// New validates the configuration and constructs a ledger holding only the
// genesis block.
func New(ctx context.Context, cfg Config) (*Database, error) {
	if cfg.Difficulty > MaxDifficulty {
		return nil, fmt.Errorf("difficulty %d: %w", cfg.Difficulty, ErrInvalidDifficulty)
	}

	ev := cfg.EvHandler
	if ev == nil {
		ev = func(v string, args ...any) {}
	}

	genesis, err := Genesis(ctx, ev)
	if err != nil {
		return nil, fmt.Errorf("mining genesis: %w", err)
	}

	db := Database{
		blocks:      []Block{genesis},
		difficulty:  cfg.Difficulty,
		maxAttempts: cfg.MaxAttempts,
		evHandler:   ev,
	}

	return &db, nil
}

// Difficulty returns the difficulty new blocks are mined at.
func (db *Database) Difficulty() uint {
	return db.difficulty
}

// Length returns the number of blocks including genesis.
func (db *Database) Length() int {
	return len(db.blocks)
}

// LatestBlock returns the last block in the chain.
func (db *Database) LatestBlock() Block {
	return db.blocks[db.lastIndex()]
}

// GetBlock returns the block at the specified position.
func (db *Database) GetBlock(num uint64) (Block, bool) {
	if num >= uint64(len(db.blocks)) {
		return Block{}, false
	}
	return db.blocks[num], true
}

// Blocks returns a copy of the blocks in chain order.
func (db *Database) Blocks() []Block {
	blocks := make([]Block, len(db.blocks))
	copy(blocks, db.blocks)
	return blocks
}

// Append mines a new block for the checkout data on top of the latest block
// and admits it to the chain. The chain is unchanged when an error is
// returned.
func (db *Database) Append(ctx context.Context, data CheckoutRecord) (Block, error) {
	latest := db.LatestBlock()

	// The previous hash is recomputed from the latest block's content
	// instead of trusting the stored value.
	block, err := POW(ctx, POWArgs{
		Number:        latest.Header.Number + 1,
		PrevBlockHash: latest.ContentHash(),
		Difficulty:    db.difficulty,
		MaxAttempts:   db.maxAttempts,
		Data:          data,
		EvHandler:     db.evHandler,
	})
	if err != nil {
		return Block{}, err
	}

	if err := db.AppendBlock(block); err != nil {
		return Block{}, err
	}

	return block, nil
}

// AppendBlock validates the candidate block against the latest block and
// adds it to the chain. An *AppendRejectedError is returned when the block
// is not admitted.
func (db *Database) AppendBlock(block Block) error {
	if err := block.ValidateBlock(db.LatestBlock(), db.evHandler); err != nil {
		db.evHandler("database: AppendBlock: REJECTED: %s", err)
		return err
	}

	db.blocks = append(db.blocks, block)
	db.evHandler("database: AppendBlock: blk[%d]: appended: hash[%s]", block.Header.Number, block.Hash())

	return nil
}

// Validate walks the entire chain in order. The genesis block is only
// checked against its own content. Every other block must also link to the
// block before it. The first failure is returned as a *CorruptionError.
func (db *Database) Validate() error {
	db.lastIndex()

	for i, block := range db.blocks {
		if i > 0 && block.Header.PrevBlockHash != db.blocks[i-1].Hash() {
			return &CorruptionError{Index: i, Violation: ViolationLinkage}
		}

		if block.ContentHash() != block.Hash() {
			return &CorruptionError{Index: i, Violation: ViolationSelfHash}
		}
	}

	return nil
}

// IsValid reports whether the chain passes Validate.
func (db *Database) IsValid() bool {
	return db.Validate() == nil
}

// String implements the fmt.Stringer interface, one block per line.
func (db *Database) String() string {
	var sb strings.Builder
	for _, block := range db.blocks {
		sb.WriteString(block.String())
		sb.WriteString("\n")
	}
	return sb.String()
}

// lastIndex returns the position of the latest block. A ledger always holds
// at least the genesis block, anything else is a programming error.
func (db *Database) lastIndex() int {
	if len(db.blocks) == 0 {
		panic("database: ledger has no blocks, genesis block is missing")
	}
	return len(db.blocks) - 1
}
