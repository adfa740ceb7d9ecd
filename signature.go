// Copyright (C) 2021-2025, Persistence One. All rights reserved.
// Licensed under the Apache License, Version 2.0

package ledger_persistence_go

import (
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// SignatureLen is the length of a fixed-form secp256k1 signature, 32 bytes of
// R followed by 32 bytes of S.
const SignatureLen = 64

// SignatureFromDER converts the DER encoded signature returned by the device
// into the fixed 64 byte form used by the chain.
func SignatureFromDER(der []byte) ([]byte, error) {
	sig, err := ecdsa.ParseDERSignature(der)
	if err != nil {
		return nil, fmt.Errorf("malformed DER signature: %w", err)
	}

	r := sig.R()
	s := sig.S()
	rBytes := r.Bytes()
	sBytes := s.Bytes()

	out := make([]byte, SignatureLen)
	copy(out[:32], rBytes[:])
	copy(out[32:], sBytes[:])
	return out, nil
}
