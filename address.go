// Copyright (C) 2021-2025, Persistence One. All rights reserved.
// Licensed under the Apache License, Version 2.0

package ledger_persistence_go

import (
	"crypto/sha256"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // required by the address format
)

// CompressedPubkeyLen is the length of a compressed secp256k1 public key.
const CompressedPubkeyLen = 33

// Bech32FromPublicKey encodes a compressed secp256k1 public key as a bech32
// address with the given prefix: sha256, then ripemd160, then bech32.
func Bech32FromPublicKey(prefix string, pubkey []byte) (string, error) {
	if len(pubkey) != CompressedPubkeyLen {
		return "", fmt.Errorf("expected a %d byte compressed public key, got %d bytes", CompressedPubkeyLen, len(pubkey))
	}

	sum := sha256.Sum256(pubkey)
	hasher := ripemd160.New()
	hasher.Write(sum[:])

	converted, err := bech32.ConvertBits(hasher.Sum(nil), 8, 5, true)
	if err != nil {
		return "", err
	}
	return bech32.Encode(prefix, converted)
}
