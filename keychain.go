// Copyright (C) 2021-2025, Persistence One. All rights reserved.
// Licensed under the Apache License, Version 2.0

package ledger_persistence_go

import (
	"errors"
	"fmt"
)

// ErrUnknownAddress is returned when a signing request names an address that
// none of the configured paths derive.
var ErrUnknownAddress = errors.New("address is not derived by this keychain")

// Account pairs a derived address with its public key and derivation path.
type Account struct {
	Address string
	PubKey  []byte
	Path    DerivationPath
}

// Keychain exposes a session's configured paths as a fixed set of signing
// accounts, the shape wallet frameworks expect from an offline signer. The
// account list is derived once and cached; the underlying session still
// re-runs its compatibility gate on every signature.
//
// Like the session it wraps, a Keychain is not safe for concurrent use.
type Keychain struct {
	session       *DeviceSession
	accounts      []Account
	pathByAddress map[string]DerivationPath
}

func NewKeychain(session *DeviceSession) *Keychain {
	return &Keychain{session: session}
}

// Accounts derives one account per configured path, in order. The first call
// talks to the device; later calls return the cached list.
func (k *Keychain) Accounts() ([]Account, error) {
	if k.accounts != nil {
		return k.accounts, nil
	}

	pubkeys, err := k.session.GetPubkeys()
	if err != nil {
		return nil, err
	}

	accounts := make([]Account, len(pubkeys))
	pathByAddress := make(map[string]DerivationPath, len(pubkeys))
	for i, pubkey := range pubkeys {
		address, err := k.session.GetAddress(pubkey)
		if err != nil {
			return nil, err
		}
		accounts[i] = Account{Address: address, PubKey: pubkey, Path: k.session.paths[i]}
		pathByAddress[address] = k.session.paths[i]
	}

	k.accounts = accounts
	k.pathByAddress = pathByAddress
	return accounts, nil
}

// SignAmino signs the canonical sign doc bytes with the account that owns
// address.
func (k *Keychain) SignAmino(address string, signDoc []byte) ([]byte, error) {
	if _, err := k.Accounts(); err != nil {
		return nil, err
	}
	path, ok := k.pathByAddress[address]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAddress, address)
	}
	return k.session.Sign(signDoc, path)
}
