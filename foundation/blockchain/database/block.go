package database

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ardanlabs/bookledger/foundation/blockchain/signature"
)

// MaxDifficulty is the number of hex characters in a SHA-256 hash. No hash
// can have more leading zeros than this.
const MaxDifficulty = 64

// GenesisDifficulty is the difficulty the genesis block is always mined at,
// regardless of the difficulty configured for the chain.
const GenesisDifficulty = 1

// =============================================================================

// BlockHeader represents the information that is hashed alongside the
// checkout data.
type BlockHeader struct {
	Number        uint64 `json:"number"`          // Position of the block in the chain, genesis is 0.
	TimeStamp     uint64 `json:"timestamp"`       // Time mining started, seconds since epoch.
	PrevBlockHash string `json:"prev_block_hash"` // Hash of the previous block, empty for genesis.
	Nonce         uint64 `json:"nonce"`           // Value identified to solve the hash solution.
}

// Block represents a sealed checkout event. A block is only constructed by
// the POW function, which sets the hash once the puzzle is solved.
type Block struct {
	Header BlockHeader
	Data   CheckoutRecord
	hash   string
}

// POWArgs represents the set of arguments required to run POW.
type POWArgs struct {
	Number        uint64
	PrevBlockHash string
	Difficulty    uint
	MaxAttempts   uint64 // Zero means the full nonce space is searched.
	Data          CheckoutRecord
	EvHandler     func(v string, args ...any)
}

// POW constructs a new Block and performs the work to find a nonce that
// solves the cryptographic POW puzzle. If the attempts run out or the
// context is done, the last block tried is returned along with
// ErrMiningExhausted. That block does not solve the puzzle.
func POW(ctx context.Context, args POWArgs) (Block, error) {
	if args.Difficulty > MaxDifficulty {
		return Block{}, ErrInvalidDifficulty
	}

	ev := args.EvHandler
	if ev == nil {
		ev = func(v string, args ...any) {}
	}

	// The timestamp is captured once and stays the same for every attempt.
	nb := Block{
		Header: BlockHeader{
			Number:        args.Number,
			TimeStamp:     uint64(time.Now().UTC().Unix()),
			PrevBlockHash: args.PrevBlockHash,
			Nonce:         0,
		},
		Data: args.Data,
	}

	if err := nb.performPOW(ctx, args.Difficulty, args.MaxAttempts, ev); err != nil {
		return nb, err
	}

	return nb, nil
}

// Genesis mines the first block of a chain.
func Genesis(ctx context.Context, evHandler func(v string, args ...any)) (Block, error) {
	return POW(ctx, POWArgs{
		Number:     0,
		Difficulty: GenesisDifficulty,
		Data:       NewGenesis(),
		EvHandler:  evHandler,
	})
}

// performPOW does the work of mining to find a valid hash for the block.
// Pointer semantics are being used since a nonce is being discovered.
func (b *Block) performPOW(ctx context.Context, difficulty uint, maxAttempts uint64, ev func(v string, args ...any)) error {
	ev("database: PerformPOW: MINING: blk[%d]: started: difficulty[%d]", b.Header.Number, difficulty)
	defer ev("database: PerformPOW: MINING: blk[%d]: completed", b.Header.Number)

	var attempts uint64
	for {
		attempts++
		if attempts%1_000_000 == 0 {
			ev("database: PerformPOW: MINING: blk[%d]: attempts[%d]", b.Header.Number, attempts)
		}

		// Hash the block and check if we have solved the puzzle.
		b.hash = b.ContentHash()
		if IsHashSolved(difficulty, b.hash) {
			ev("database: PerformPOW: MINING: SOLVED: blk[%d]: prevBlk[%s]: newBlk[%s]: attempts[%d]", b.Header.Number, b.Header.PrevBlockHash, b.hash, attempts)
			return nil
		}

		if err := ctx.Err(); err != nil {
			ev("database: PerformPOW: MINING: blk[%d]: CANCELLED: attempts[%d]", b.Header.Number, attempts)
			return fmt.Errorf("%w: blk[%d]: attempts[%d]: %w", ErrMiningExhausted, b.Header.Number, attempts, err)
		}

		if attempts == maxAttempts || b.Header.Nonce == math.MaxUint64 {
			ev("database: PerformPOW: MINING: blk[%d]: EXHAUSTED: attempts[%d]", b.Header.Number, attempts)
			return fmt.Errorf("%w: blk[%d]: attempts[%d]", ErrMiningExhausted, b.Header.Number, attempts)
		}

		b.Header.Nonce++
	}
}

// Hash returns the hash that was stored when the block was mined.
func (b Block) Hash() string {
	return b.hash
}

// ContentHash recomputes the hash from the current field values. The input
// is the number, timestamp, canonical checkout data, previous hash and the
// nonce in lowercase hex, concatenated in that order.
func (b Block) ContentHash() string {
	var sb strings.Builder
	sb.WriteString(strconv.FormatUint(b.Header.Number, 10))
	sb.WriteString(strconv.FormatUint(b.Header.TimeStamp, 10))
	sb.WriteString(b.Data.Canonical())
	sb.WriteString(b.Header.PrevBlockHash)
	sb.WriteString(EncodeNonce(b.Header.Nonce))

	return signature.SHA256(sb.String())
}

// ValidateBlock takes a candidate block and validates it can be appended
// after the specified previous block.
func (b Block) ValidateBlock(previousBlock Block, evHandler func(v string, args ...any)) error {
	evHandler("database: ValidateBlock: validate: blk[%d]: check: block number is the next number", b.Header.Number)

	nextNumber := previousBlock.Header.Number + 1
	if b.Header.Number != nextNumber {
		return &AppendRejectedError{
			Reason: IndexMismatch,
			Number: b.Header.Number,
			Detail: fmt.Sprintf("got %d, exp %d", b.Header.Number, nextNumber),
		}
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: parent hash does match parent block", b.Header.Number)

	if b.Header.PrevBlockHash != previousBlock.Hash() {
		return &AppendRejectedError{
			Reason: LinkageMismatch,
			Number: b.Header.Number,
			Detail: fmt.Sprintf("got %s, exp %s", b.Header.PrevBlockHash, previousBlock.Hash()),
		}
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: block hash matches content", b.Header.Number)

	if hash := b.ContentHash(); hash != b.hash {
		return &AppendRejectedError{
			Reason: HashMismatch,
			Number: b.Header.Number,
			Detail: fmt.Sprintf("got %s, exp %s", b.hash, hash),
		}
	}

	return nil
}

// String implements the fmt.Stringer interface for display.
func (b Block) String() string {
	return fmt.Sprintf("Block #%d [Hash: %s, Prev. Hash: %s, Nonce: %s, Checkout data: %s]",
		b.Header.Number, b.hash, b.Header.PrevBlockHash, EncodeNonce(b.Header.Nonce), b.Data)
}

// EncodeNonce returns the textual form of the nonce that is hashed, which
// is lowercase hex without a prefix.
func EncodeNonce(nonce uint64) string {
	return strconv.FormatUint(nonce, 16)
}

// IsHashSolved checks the hash to make sure it complies with the POW
// rules. We need to match a difficulty number of leading 0's.
func IsHashSolved(difficulty uint, hash string) bool {
	if difficulty > MaxDifficulty {
		return false
	}

	return strings.HasPrefix(hash, strings.Repeat("0", int(difficulty)))
}

// =============================================================================

// BlockData represents the flat form of a block used when a block leaves
// the process, such as in API responses.
type BlockData struct {
	Hash   string         `json:"hash"`
	Header BlockHeader    `json:"block"`
	Data   CheckoutRecord `json:"data"`
}

// NewBlockData constructs the value to serialize.
func NewBlockData(block Block) BlockData {
	return BlockData{
		Hash:   block.Hash(),
		Header: block.Header,
		Data:   block.Data,
	}
}

// ToBlock converts a BlockData into a Block. The stored hash is taken as
// is so it can be checked against the content.
func ToBlock(blockData BlockData) Block {
	return Block{
		Header: blockData.Header,
		Data:   blockData.Data,
		hash:   blockData.Hash,
	}
}
