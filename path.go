// Copyright (C) 2021-2025, Persistence One. All rights reserved.
// Licensed under the Apache License, Version 2.0

package ledger_persistence_go

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// PathPurpose is set to 44 to indicate use of the BIP-0044 specification.
	PathPurpose uint32 = 44
	// PathCoinType is 750, the number registered for Persistence in SLIP-0044.
	PathCoinType uint32 = 750
	// PathAccount is the default account index.
	PathAccount uint32 = 0
	// PathChange indicates an external chain.
	PathChange uint32 = 0
	// PathIndex is the default address index.
	PathIndex uint32 = 0

	// hardenedBit marks a derivation step that cannot be performed from a
	// public key alone.
	hardenedBit uint32 = 0x80000000
)

// DerivationPath is an ordered sequence of BIP-0032 derivation indices.
// Hardened components carry the high bit.
type DerivationPath []uint32

// DefaultDerivationPath returns m/44'/750'/0'/0/0.
func DefaultDerivationPath() DerivationPath {
	return DerivationPath{
		PathPurpose | hardenedBit,
		PathCoinType | hardenedBit,
		PathAccount | hardenedBit,
		PathChange,
		PathIndex,
	}
}

// ParseDerivationPath converts a path string such as "m/44'/750'/0'/0/0"
// into its numeric form. Both ' and h mark a hardened component.
func ParseDerivationPath(path string) (DerivationPath, error) {
	components := strings.Split(path, "/")
	if strings.TrimSpace(components[0]) != "m" {
		return nil, fmt.Errorf("path %q should start with \"m/\"", path)
	}
	components = components[1:]
	if len(components) == 0 {
		return nil, fmt.Errorf("path %q does not contain any components", path)
	}

	result := make(DerivationPath, 0, len(components))
	for _, component := range components {
		component = strings.TrimSpace(component)

		var hardened bool
		if strings.HasSuffix(component, "'") || strings.HasSuffix(component, "h") {
			hardened = true
			component = strings.TrimSpace(component[:len(component)-1])
		}

		value, err := strconv.ParseUint(component, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid path component %q: %w", component, err)
		}
		index := uint32(value)
		if index&hardenedBit != 0 {
			return nil, fmt.Errorf("path component %q out of range", component)
		}
		if hardened {
			index |= hardenedBit
		}
		result = append(result, index)
	}
	return result, nil
}

// Unharden strips the hardened bit from every component. The Persistence app
// hardens the first three levels on-device and expects plain indices on the
// wire, so the leading components must match what the app will itself harden.
func (p DerivationPath) Unharden() []uint32 {
	out := make([]uint32, len(p))
	for i, component := range p {
		out[i] = component &^ hardenedBit
	}
	return out
}

func (p DerivationPath) String() string {
	var b strings.Builder
	b.WriteString("m")
	for _, component := range p {
		fmt.Fprintf(&b, "/%d", component&^hardenedBit)
		if component&hardenedBit != 0 {
			b.WriteString("'")
		}
	}
	return b.String()
}
