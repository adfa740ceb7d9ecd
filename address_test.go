// Copyright (C) 2021-2025, Persistence One. All rights reserved.
// Licensed under the Apache License, Version 2.0

package ledger_persistence_go

import (
	"crypto/sha256"
	"testing"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // required by the address format
)

func TestBech32FromPublicKey(t *testing.T) {
	require := require.New(t)

	pubkey := testPubkey(0)
	address, err := Bech32FromPublicKey("persistence", pubkey)
	require.NoError(err)

	hrp, data, err := bech32.Decode(address)
	require.NoError(err)
	require.Equal("persistence", hrp)

	// The payload must be ripemd160(sha256(pubkey)).
	decoded, err := bech32.ConvertBits(data, 5, 8, false)
	require.NoError(err)
	sum := sha256.Sum256(pubkey)
	hasher := ripemd160.New()
	hasher.Write(sum[:])
	require.Equal(hasher.Sum(nil), decoded)
}

func TestBech32FromPublicKeyPrefix(t *testing.T) {
	require := require.New(t)

	address, err := Bech32FromPublicKey("cosmos", testPubkey(0))
	require.NoError(err)

	hrp, _, err := bech32.Decode(address)
	require.NoError(err)
	require.Equal("cosmos", hrp)
}

func TestBech32FromPublicKeyWrongLength(t *testing.T) {
	require := require.New(t)

	_, err := Bech32FromPublicKey("persistence", []byte{0x02, 0x01})
	require.Error(err)

	_, err = Bech32FromPublicKey("persistence", nil)
	require.Error(err)
}
