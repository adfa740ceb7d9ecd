// Copyright (C) 2021-2025, Persistence One. All rights reserved.
// Licensed under the Apache License, Version 2.0

package ledger_persistence_go

import (
	"encoding/binary"
	"fmt"
)

const (
	claPersistence = 0x55
	claBolos       = 0xB0

	insGetVersion       = 0x00
	insGetAppInfo       = 0x01
	insSign             = 0x02
	insGetAddrSecp256k1 = 0x04

	p1Retrieve     = 0x00
	p1ShowInDevice = 0x01

	payloadInit byte = 0x00
	payloadAdd  byte = 0x01
	payloadLast byte = 0x02

	messageChunkSize = 250
	pathComponents   = 5
)

// PersistenceApp drives the Persistence app running on a Ledger device. It
// owns the APDU shapes; callers receive typed responses, or a *DeviceError
// when the device reports a non-success status word.
//
// The app hardens the first three path levels on-device, so every method
// takes plain, unhardened indices.
type PersistenceApp struct {
	device LedgerDevice
}

func NewPersistenceApp(device LedgerDevice) *PersistenceApp {
	return &PersistenceApp{device: device}
}

// ShowAddressResponse is what the device reports while it displays an
// address for visual confirmation.
type ShowAddressResponse struct {
	AppName      string
	CompressedPK []byte
}

// exchange sends one command and splits the response into payload and status
// word, decoding the status into a *DeviceError once.
func (app *PersistenceApp) exchange(command []byte) ([]byte, error) {
	response, err := app.device.Exchange(command)
	if err != nil {
		return nil, err
	}
	if len(response) < 2 {
		return nil, &DeviceError{Message: fmt.Sprintf("response too short: %d bytes", len(response))}
	}

	payload := response[:len(response)-2]
	status := binary.BigEndian.Uint16(response[len(response)-2:])
	if devErr := deviceErrorFromStatus(status); devErr != nil {
		return nil, devErr
	}
	return payload, nil
}

// GetVersion asks the app for its version. Payload byte 0 is the test mode
// flag and bytes 1 to 3 the version triple; newer firmware appends a byte
// reporting whether the device is locked.
func (app *PersistenceApp) GetVersion() (VersionInfo, error) {
	payload, err := app.exchange([]byte{claPersistence, insGetVersion, 0, 0, 0})
	if err != nil {
		return VersionInfo{}, err
	}
	if len(payload) < 4 {
		return VersionInfo{}, &DeviceError{Message: fmt.Sprintf("invalid version response: %d bytes", len(payload))}
	}
	if len(payload) > 4 && payload[4] == 1 {
		return VersionInfo{}, &DeviceError{Message: msgDeviceLocked, Locked: true}
	}

	return VersionInfo{
		TestMode: payload[0] != 0,
		Major:    payload[1],
		Minor:    payload[2],
		Patch:    payload[3],
	}, nil
}

// AppInfo reports the name of the application currently in the foreground.
// This is a BOLOS command, so it also answers from the dashboard, which is
// how the session detects that no app is open.
func (app *PersistenceApp) AppInfo() (string, error) {
	payload, err := app.exchange([]byte{claBolos, insGetAppInfo, 0, 0, 0})
	if err != nil {
		return "", err
	}
	if len(payload) < 2 || payload[0] != 1 {
		return "", &DeviceError{Message: "invalid app info response format"}
	}
	nameLen := int(payload[1])
	if len(payload) < 2+nameLen {
		return "", &DeviceError{Message: "invalid app info response length"}
	}
	return string(payload[2 : 2+nameLen]), nil
}

// PublicKey retrieves the compressed secp256k1 public key for the path,
// without any on-device confirmation.
func (app *PersistenceApp) PublicKey(path []uint32) ([]byte, error) {
	pathBytes, err := serializePath(path)
	if err != nil {
		return nil, err
	}

	command := append([]byte{claPersistence, insGetAddrSecp256k1, p1Retrieve, 0, byte(len(pathBytes))}, pathBytes...)
	payload, err := app.exchange(command)
	if err != nil {
		return nil, err
	}
	if len(payload) < CompressedPubkeyLen {
		return nil, &DeviceError{Message: fmt.Sprintf("invalid public key response: %d bytes", len(payload))}
	}
	return payload[:CompressedPubkeyLen], nil
}

// ShowAddressAndPubKey makes the device display the address derived for the
// path so the user can check it against the host, and returns the raw
// response for the host to show alongside.
func (app *PersistenceApp) ShowAddressAndPubKey(path []uint32, chainID string) (ShowAddressResponse, error) {
	pathBytes, err := serializePath(path)
	if err != nil {
		return ShowAddressResponse{}, err
	}

	data := make([]byte, 0, 1+len(chainID)+len(pathBytes))
	data = append(data, byte(len(chainID)))
	data = append(data, chainID...)
	data = append(data, pathBytes...)

	command := append([]byte{claPersistence, insGetAddrSecp256k1, p1ShowInDevice, 0, byte(len(data))}, data...)
	payload, err := app.exchange(command)
	if err != nil {
		return ShowAddressResponse{}, err
	}
	if len(payload) < CompressedPubkeyLen {
		return ShowAddressResponse{}, &DeviceError{Message: fmt.Sprintf("invalid address response: %d bytes", len(payload))}
	}

	return ShowAddressResponse{
		CompressedPK: payload[:CompressedPubkeyLen],
		AppName:      string(payload[CompressedPubkeyLen:]),
	}, nil
}

// Sign sends the path and the text to sign in chunks and returns the DER
// encoded signature once the user approves on the device.
func (app *PersistenceApp) Sign(path []uint32, message []byte) ([]byte, error) {
	pathBytes, err := serializePath(path)
	if err != nil {
		return nil, err
	}

	chunks := [][]byte{pathBytes}
	for start := 0; start < len(message); start += messageChunkSize {
		end := start + messageChunkSize
		if end > len(message) {
			end = len(message)
		}
		chunks = append(chunks, message[start:end])
	}

	var signature []byte
	for i, chunk := range chunks {
		p1 := payloadAdd
		switch i {
		case len(chunks) - 1:
			p1 = payloadLast
		case 0:
			p1 = payloadInit
		}

		command := append([]byte{claPersistence, insSign, p1, 0, byte(len(chunk))}, chunk...)
		payload, err := app.exchange(command)
		if err != nil {
			return nil, err
		}
		signature = payload
	}

	if len(signature) == 0 {
		return nil, &DeviceError{Message: "empty signature response"}
	}
	return signature, nil
}

func serializePath(path []uint32) ([]byte, error) {
	if len(path) != pathComponents {
		return nil, fmt.Errorf("path should contain %d components, got %d", pathComponents, len(path))
	}
	buf := make([]byte, 4*len(path))
	for i, component := range path {
		binary.LittleEndian.PutUint32(buf[4*i:], component)
	}
	return buf, nil
}
