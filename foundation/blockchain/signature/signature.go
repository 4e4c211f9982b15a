// Package signature provides helper functions for the hashing and signing
// needs of the ledger.
package signature

import (
	"crypto/ecdsa"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// ledgerID is added to the recovery id of every signature this package
// produces. This marks the signature as coming from the book ledger.
const ledgerID = 29

// =============================================================================

// SHA256 returns the lowercase hex encoding of the SHA-256 digest of the
// string. There is no 0x prefix so leading zeros can be counted directly.
func SHA256(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// MD5 returns the lowercase hex encoding of the MD5 digest of the string.
func MD5(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Hash returns a unique 0x prefixed string for the value based on its
// JSON representation.
func Hash(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return hexutil.Encode(make([]byte, sha256.Size))
	}

	hash := sha256.Sum256(data)
	return hexutil.Encode(hash[:])
}

// =============================================================================

// Sign uses the specified private key to sign the value and returns the
// signature as a 0x prefixed hex string in the [R|S|V] format.
func Sign(value any, privateKey *ecdsa.PrivateKey) (string, error) {
	data, err := stamp(value)
	if err != nil {
		return "", err
	}

	sig, err := crypto.Sign(data, privateKey)
	if err != nil {
		return "", err
	}

	// Make sure the key we signed with can be recovered from the signature.
	publicKey, err := crypto.SigToPub(data, sig)
	if err != nil {
		return "", err
	}

	rs := sig[:crypto.RecoveryIDOffset]
	if !crypto.VerifySignature(crypto.FromECDSAPub(publicKey), data, rs) {
		return "", errors.New("invalid signature")
	}

	sig[crypto.RecoveryIDOffset] += ledgerID

	return hexutil.Encode(sig), nil
}

// Recover validates the signature for the specified value and returns the
// address of the account that produced it.
func Recover(value any, sigHex string) (string, error) {
	sig, err := hexutil.Decode(sigHex)
	if err != nil {
		return "", fmt.Errorf("decoding signature: %w", err)
	}

	if len(sig) != crypto.SignatureLength {
		return "", fmt.Errorf("invalid signature length, got %d, exp %d", len(sig), crypto.SignatureLength)
	}

	v := sig[crypto.RecoveryIDOffset] - ledgerID
	if v != 0 && v != 1 {
		return "", errors.New("invalid recovery id")
	}

	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:64])
	if !crypto.ValidateSignatureValues(v, r, s, false) {
		return "", errors.New("invalid signature values")
	}

	// NOTE: If the exact value that was signed is not provided we will
	// recover the wrong address. The public key is extracted from the
	// data and the signature.
	data, err := stamp(value)
	if err != nil {
		return "", err
	}

	raw := make([]byte, crypto.SignatureLength)
	copy(raw, sig)
	raw[crypto.RecoveryIDOffset] = v

	publicKey, err := crypto.SigToPub(data, raw)
	if err != nil {
		return "", err
	}

	return crypto.PubkeyToAddress(*publicKey).String(), nil
}

// Address returns the account address for the private key.
func Address(privateKey *ecdsa.PrivateKey) string {
	return crypto.PubkeyToAddress(privateKey.PublicKey).String()
}

// =============================================================================

// stamp returns a 32 byte hash of the value with the ledger stamp embedded
// so signatures produced here can't be replayed as generic messages.
func stamp(value any) ([]byte, error) {
	v, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	valueHash := crypto.Keccak256(v)
	stamp := []byte("\x19Book Ledger Signed Message:\n32")

	return crypto.Keccak256(stamp, valueHash), nil
}
