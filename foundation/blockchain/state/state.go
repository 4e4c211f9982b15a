// Package state is the core API for the book ledger. It owns the chain and
// serializes every change to it so the ledger can be shared across
// goroutines.
package state

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ardanlabs/bookledger/foundation/blockchain/database"
)

// Set of error variables for the ledger state.
var (
	ErrNotFound   = errors.New("block not found")
	ErrNotSolved  = errors.New("block hash does not meet the ledger difficulty")
	ErrBusyMining = errors.New("ledger busy mining")
)

// EventHandler defines a function that is called when events
// occur in the processing of mining and appending blocks.
type EventHandler func(v string, args ...any)

// =============================================================================

// Config represents the configuration required to start the ledger.
type Config struct {
	Difficulty    uint
	MaxAttempts   uint64
	MiningTimeout time.Duration // Zero means mining is only bounded by MaxAttempts.
	PrivateKey    *ecdsa.PrivateKey
	EvHandler     EventHandler
}

// State manages the ledger. Appends hold the write lock for the full mining
// operation so only one block is ever mined at a time.
type State struct {
	mu sync.RWMutex

	evHandler     EventHandler
	miningTimeout time.Duration
	privateKey    *ecdsa.PrivateKey
	db            *database.Database
}

// New constructs a ledger with only the genesis block.
func New(ctx context.Context, cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	db, err := database.New(ctx, database.Config{
		Difficulty:  cfg.Difficulty,
		MaxAttempts: cfg.MaxAttempts,
		EvHandler:   ev,
	})
	if err != nil {
		return nil, err
	}

	state := State{
		evHandler:     ev,
		miningTimeout: cfg.MiningTimeout,
		privateKey:    cfg.PrivateKey,
		db:            db,
	}

	ev("state: New: ledger started: difficulty[%d]: genesis[%s]", cfg.Difficulty, db.LatestBlock().Hash())

	return &state, nil
}

// Checkout records the checkout of the specified book by the user.
func (s *State) Checkout(ctx context.Context, bookID string, user string) (database.Block, error) {
	return s.Append(ctx, database.NewCheckout(bookID, user))
}

// Append mines the record into a new block and adds it to the ledger. The
// mining timeout starts once the lock is held, so time spent queued behind
// another append does not count against it.
func (s *State) Append(ctx context.Context, record database.CheckoutRecord) (database.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.miningTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.miningTimeout)
		defer cancel()
	}

	s.evHandler("state: Append: started: book[%s]: user[%s]", record.BookID, record.User)

	block, err := s.db.Append(ctx, record)
	if err != nil {
		s.evHandler("state: Append: ERROR: %s", err)
		return database.Block{}, fmt.Errorf("append checkout: %w", err)
	}

	s.evHandler("state: Append: completed: blk[%d]", block.Header.Number)

	return block, nil
}

// Submit admits a block that was mined outside of this ledger. On top of
// the append checks the block hash must solve the ledger difficulty.
func (s *State) Submit(block database.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !database.IsHashSolved(s.db.Difficulty(), block.Hash()) {
		s.evHandler("state: Submit: REJECTED: blk[%d]: hash[%s]", block.Header.Number, block.Hash())
		return fmt.Errorf("blk[%d]: %w", block.Header.Number, ErrNotSolved)
	}

	if err := s.db.AppendBlock(block); err != nil {
		return fmt.Errorf("submit block: %w", err)
	}

	s.evHandler("state: Submit: completed: blk[%d]", block.Header.Number)

	return nil
}

// =============================================================================

// Difficulty returns the difficulty new blocks are mined at.
func (s *State) Difficulty() uint {
	return s.db.Difficulty()
}

// Length returns the number of blocks in the ledger, including genesis.
func (s *State) Length() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.db.Length()
}

// RetrieveBlocks returns a copy of every block in chain order.
func (s *State) RetrieveBlocks() []database.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.db.Blocks()
}

// RetrieveBlock returns the block with the specified number.
func (s *State) RetrieveBlock(num uint64) (database.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	block, exists := s.db.GetBlock(num)
	if !exists {
		return database.Block{}, fmt.Errorf("blk[%d]: %w", num, ErrNotFound)
	}

	return block, nil
}

// RetrieveLatestBlock returns the last block in the ledger.
func (s *State) RetrieveLatestBlock() database.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.db.LatestBlock()
}

// Validate checks the entire ledger and returns the first corruption.
func (s *State) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.db.Validate()
}

// StatusCheck validates the ledger and returns its length. A mine holds the
// lock for up to the mining timeout, so the check gives up with
// ErrBusyMining once ctx is done.
func (s *State) StatusCheck(ctx context.Context) (int, error) {
	type result struct {
		length int
		err    error
	}

	ch := make(chan result, 1)
	go func() {
		s.mu.RLock()
		defer s.mu.RUnlock()

		ch <- result{length: s.db.Length(), err: s.db.Validate()}
	}()

	select {
	case res := <-ch:
		return res.length, res.err
	case <-ctx.Done():
		return 0, fmt.Errorf("%w: %w", ErrBusyMining, ctx.Err())
	}
}

// Render returns the textual dump of the ledger.
func (s *State) Render() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.db.String()
}
