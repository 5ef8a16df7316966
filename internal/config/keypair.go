package config

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"os"

	"github.com/blocto/solana-go-sdk/types"
)

// LoadKeypair restores the operator keypair from a solana-keygen style
// file: a JSON array holding the 64-byte ed25519 secret key.
func LoadKeypair(path string) (types.Account, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Account{}, fmt.Errorf("%w: read %s: %v", ErrKeyLoad, path, err)
	}

	keyBytes, err := decodeKeypairJSON(data)
	if err != nil {
		return types.Account{}, fmt.Errorf("%w: %v", ErrKeyLoad, err)
	}

	acc, err := types.AccountFromBytes(keyBytes)
	if err != nil {
		return types.Account{}, fmt.Errorf("%w: AccountFromBytes: %v", ErrKeyLoad, err)
	}
	return acc, nil
}

// decodeKeypairJSON accepts the canonical [u8;64] array. For backward
// compatibility a base64 string payload (json []byte) is also accepted.
func decodeKeypairJSON(data []byte) ([]byte, error) {
	var keyBytes []byte
	if err := json.Unmarshal(data, &keyBytes); err == nil {
		if len(keyBytes) == ed25519.PrivateKeySize {
			return keyBytes, nil
		}
	}

	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return nil, fmt.Errorf("unmarshal keypair json: %w", err)
	}
	if len(ints) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("unexpected secret key length: got %d, want %d", len(ints), ed25519.PrivateKeySize)
	}

	keyBytes = make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("byte out of range at index %d: %d", i, v)
		}
		keyBytes[i] = byte(v)
	}
	return keyBytes, nil
}
