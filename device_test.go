// Copyright (C) 2021-2025, Persistence One. All rights reserved.
// Licensed under the Apache License, Version 2.0

package ledger_persistence_go

import (
	"errors"
	"fmt"
)

// fakeDevice scripts APDU responses keyed by instruction so tests can drive
// a DeviceSession without hardware. Zero-valued status fields answer with
// success; set one to make that operation fail with the given status word.
type fakeDevice struct {
	appName        string
	versionPayload []byte
	basePubkey     []byte
	signatureDER   []byte

	appInfoStatus uint16
	versionStatus uint16
	pubkeyStatus  uint16
	showStatus    uint16
	signStatus    uint16

	// failPubkeyAfter fails every public key request after this many
	// successes; 0 disables.
	failPubkeyAfter int

	calls       []string
	pubkeyCalls int
	pubkeyPaths [][]byte
	showData    []byte
	signChunks  [][]byte
	signP1s     []byte
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		appName:        "Persistence",
		versionPayload: []byte{0, 1, 2, 3},
		basePubkey:     testPubkey(0),
		signatureDER:   testDERSignature(),
	}
}

func (d *fakeDevice) Exchange(command []byte) ([]byte, error) {
	if len(command) < 5 {
		return nil, errors.New("short command")
	}
	cla, ins, p1 := command[0], command[1], command[2]
	data := append([]byte{}, command[5:5+int(command[4])]...)

	switch {
	case cla == claBolos && ins == insGetAppInfo:
		d.calls = append(d.calls, "appInfo")
		if d.appInfoStatus != 0 {
			return statusResponse(d.appInfoStatus), nil
		}
		return appInfoResponse(d.appName), nil

	case cla == claPersistence && ins == insGetVersion:
		d.calls = append(d.calls, "version")
		if d.versionStatus != 0 {
			return statusResponse(d.versionStatus), nil
		}
		return okResponse(d.versionPayload), nil

	case cla == claPersistence && ins == insGetAddrSecp256k1 && p1 == p1Retrieve:
		d.calls = append(d.calls, "pubkey")
		d.pubkeyCalls++
		d.pubkeyPaths = append(d.pubkeyPaths, data)
		if d.failPubkeyAfter > 0 && d.pubkeyCalls > d.failPubkeyAfter {
			return statusResponse(swExecutionError), nil
		}
		if d.pubkeyStatus != 0 {
			return statusResponse(d.pubkeyStatus), nil
		}
		// Tag each key with the request ordinal so order is observable.
		return okResponse(testPubkey(byte(d.pubkeyCalls))), nil

	case cla == claPersistence && ins == insGetAddrSecp256k1 && p1 == p1ShowInDevice:
		d.calls = append(d.calls, "showAddr")
		d.showData = data
		if d.showStatus != 0 {
			return statusResponse(d.showStatus), nil
		}
		payload := append(append([]byte{}, d.basePubkey...), d.appName...)
		return okResponse(payload), nil

	case cla == claPersistence && ins == insSign:
		d.calls = append(d.calls, "sign")
		d.signChunks = append(d.signChunks, data)
		d.signP1s = append(d.signP1s, p1)
		if d.signStatus != 0 {
			return statusResponse(d.signStatus), nil
		}
		if p1 == payloadLast {
			return okResponse(d.signatureDER), nil
		}
		return statusResponse(swNoErrors), nil
	}

	return nil, fmt.Errorf("unexpected command % x", command)
}

func (d *fakeDevice) Close() error {
	return nil
}

func statusResponse(status uint16) []byte {
	return []byte{byte(status >> 8), byte(status)}
}

func okResponse(payload []byte) []byte {
	return append(append([]byte{}, payload...), statusResponse(swNoErrors)...)
}

func appInfoResponse(name string) []byte {
	payload := []byte{1, byte(len(name))}
	payload = append(payload, name...)
	payload = append(payload, 0) // empty version string
	return okResponse(payload)
}

// testPubkey returns a 33 byte compressed key whose last byte carries tag.
func testPubkey(tag byte) []byte {
	pk := make([]byte, CompressedPubkeyLen)
	pk[0] = 0x02
	for i := 1; i < len(pk); i++ {
		pk[i] = byte(i)
	}
	pk[len(pk)-1] = tag
	return pk
}

// testDERSignature is a minimal DER encoding of (testSigR, testSigS).
func testDERSignature() []byte {
	der := []byte{0x30, 0x44, 0x02, 0x20}
	der = append(der, testSigR()...)
	der = append(der, 0x02, 0x20)
	der = append(der, testSigS()...)
	return der
}

func testSigR() []byte {
	r := make([]byte, 32)
	for i := range r {
		r[i] = byte(i + 1)
	}
	return r
}

func testSigS() []byte {
	s := make([]byte, 32)
	for i := range s {
		s[i] = 0x33
	}
	return s
}
