package database

import (
	"errors"
	"fmt"
)

// Set of errors the ledger can return.
var (
	ErrInvalidDifficulty = fmt.Errorf("difficulty must be between 0 and %d", MaxDifficulty)
	ErrMiningExhausted   = errors.New("mining exhausted before a solution was found")
	ErrIndexMismatch     = errors.New("block is not the next number")
	ErrLinkageMismatch   = errors.New("previous block hash doesn't match our latest block")
	ErrHashMismatch      = errors.New("block hash doesn't match its content")
)

// =============================================================================

// RejectReason identifies which admission check a candidate block failed.
type RejectReason int

// Set of reasons a candidate block can be rejected.
const (
	IndexMismatch RejectReason = iota + 1
	LinkageMismatch
	HashMismatch
)

var reasons = map[RejectReason]error{
	IndexMismatch:   ErrIndexMismatch,
	LinkageMismatch: ErrLinkageMismatch,
	HashMismatch:    ErrHashMismatch,
}

// String implements the fmt.Stringer interface.
func (r RejectReason) String() string {
	switch r {
	case IndexMismatch:
		return "IndexMismatch"
	case LinkageMismatch:
		return "LinkageMismatch"
	case HashMismatch:
		return "HashMismatch"
	}
	return fmt.Sprintf("RejectReason(%d)", int(r))
}

// AppendRejectedError is returned when a candidate block is not admitted
// to the chain. The chain is left unchanged.
type AppendRejectedError struct {
	Reason RejectReason
	Number uint64
	Detail string
}

// Error implements the error interface.
func (are *AppendRejectedError) Error() string {
	return fmt.Sprintf("append rejected: blk[%d]: %s: %s", are.Number, are.Reason, are.Detail)
}

// Unwrap exposes the sentinel error for the reason so errors.Is works.
func (are *AppendRejectedError) Unwrap() error {
	return reasons[are.Reason]
}

// =============================================================================

// Violation identifies which chain invariant a block breaks.
type Violation int

// Set of chain invariants checked during validation.
const (
	ViolationLinkage Violation = iota + 1
	ViolationSelfHash
)

// String implements the fmt.Stringer interface.
func (v Violation) String() string {
	switch v {
	case ViolationLinkage:
		return "linkage"
	case ViolationSelfHash:
		return "self-hash"
	}
	return fmt.Sprintf("Violation(%d)", int(v))
}

// CorruptionError reports the first block that fails chain validation.
type CorruptionError struct {
	Index     int
	Violation Violation
}

// Error implements the error interface.
func (ce *CorruptionError) Error() string {
	return fmt.Sprintf("chain corrupted at block %d: %s violation", ce.Index, ce.Violation)
}

// IsCorruption checks if the error is a CorruptionError.
func IsCorruption(err error) bool {
	var ce *CorruptionError
	return errors.As(err, &ce)
}

// IsAppendRejected checks if the error is an AppendRejectedError.
func IsAppendRejected(err error) bool {
	var are *AppendRejectedError
	return errors.As(err, &are)
}
