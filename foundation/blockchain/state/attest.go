package state

import (
	"errors"
	"fmt"
	"time"

	"github.com/ardanlabs/bookledger/foundation/blockchain/signature"
)

// ErrNoSigningKey is returned when an attestation is requested from a
// ledger that was started without a private key.
var ErrNoSigningKey = errors.New("ledger has no signing key")

// Head represents the summary of the ledger that gets signed.
type Head struct {
	Length     int    `json:"length"`
	LatestHash string `json:"latest_hash"`
	Difficulty uint   `json:"difficulty"`
	Valid      bool   `json:"valid"`
	TimeStamp  uint64 `json:"timestamp"`
}

// Attestation is a signed statement of the ledger head. Anyone holding a
// copy of the chain can compare it against the head and check the signer.
type Attestation struct {
	ID        string `json:"id"` // Content address of the head.
	Head      Head   `json:"head"`
	Signer    string `json:"signer"`
	Signature string `json:"signature"`
}

// Attest signs the current head of the ledger with the node's private key.
func (s *State) Attest() (Attestation, error) {
	if s.privateKey == nil {
		return Attestation{}, ErrNoSigningKey
	}

	s.mu.RLock()
	head := Head{
		Length:     s.db.Length(),
		LatestHash: s.db.LatestBlock().Hash(),
		Difficulty: s.db.Difficulty(),
		Valid:      s.db.IsValid(),
		TimeStamp:  uint64(time.Now().UTC().Unix()),
	}
	s.mu.RUnlock()

	sig, err := signature.Sign(head, s.privateKey)
	if err != nil {
		return Attestation{}, fmt.Errorf("signing head: %w", err)
	}

	att := Attestation{
		ID:        signature.Hash(head),
		Head:      head,
		Signer:    signature.Address(s.privateKey),
		Signature: sig,
	}

	s.evHandler("state: Attest: signed: id[%s]: length[%d]: latest[%s]: signer[%s]", att.ID, head.Length, head.LatestHash, att.Signer)

	return att, nil
}

// VerifyAttestation checks the id matches the head and the signature on the
// attestation was produced by the account named as the signer.
func VerifyAttestation(att Attestation) error {
	if id := signature.Hash(att.Head); id != att.ID {
		return fmt.Errorf("id mismatch, got %s, exp %s", id, att.ID)
	}

	addr, err := signature.Recover(att.Head, att.Signature)
	if err != nil {
		return fmt.Errorf("recovering signer: %w", err)
	}

	if addr != att.Signer {
		return fmt.Errorf("signer mismatch, got %s, exp %s", addr, att.Signer)
	}

	return nil
}
