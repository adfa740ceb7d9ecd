// Copyright (C) 2021-2025, Persistence One. All rights reserved.
// Licensed under the Apache License, Version 2.0

package ledger_persistence_go

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// appName is what the device reports while the Persistence app is in
	// the foreground.
	appName = "Persistence"
	// dashboardName is reported from the home screen, where no app runs.
	dashboardName = "dashboard"
	// chainID identifies the chain during on-device address verification.
	chainID = "persistence"

	// DefaultAddressPrefix is the bech32 human readable part for
	// Persistence addresses.
	DefaultAddressPrefix = "persistence"
)

// Config fixes a session's behavior at construction time. Zero values take
// the package defaults.
type Config struct {
	// DerivationPaths lists the accounts the session exposes, in order.
	// Defaults to a single DefaultDerivationPath.
	DerivationPaths []DerivationPath
	// AddressPrefix is the bech32 prefix for derived addresses.
	AddressPrefix string
	// AllowTestMode accepts test mode app builds. Never enable this
	// against real funds.
	AllowTestMode bool
}

// DeviceSession sequences compatibility checks and data requests against a
// single Ledger device running the Persistence app.
//
// The session keeps no verified state between calls: every data producing
// operation re-runs the full compatibility gate, so the user may freely
// switch apps on the device between operations at the cost of a few extra
// round trips.
//
// A session is not safe for concurrent use. The device processes one command
// at a time, so callers must serialize operations.
type DeviceSession struct {
	app           *PersistenceApp
	paths         []DerivationPath
	prefix        string
	allowTestMode bool
}

// NewDeviceSession wraps a device transport handle. It does not contact the
// device.
func NewDeviceSession(device LedgerDevice, config Config) *DeviceSession {
	paths := config.DerivationPaths
	if len(paths) == 0 {
		paths = []DerivationPath{DefaultDerivationPath()}
	}
	prefix := config.AddressPrefix
	if prefix == "" {
		prefix = DefaultAddressPrefix
	}
	return &DeviceSession{
		app:           NewPersistenceApp(device),
		paths:         paths,
		prefix:        prefix,
		allowTestMode: config.AllowTestMode,
	}
}

// GetAppVersion returns the open app's version as a dotted triple, refusing
// test mode builds unless the session allows them.
func (s *DeviceSession) GetAppVersion() (string, error) {
	// Only the app-open half of the gate; the version half would recurse.
	if err := s.VerifyAppIsOpen(); err != nil {
		return "", err
	}
	version, err := s.appVersion()
	if err != nil {
		return "", err
	}
	return version.String(), nil
}

func (s *DeviceSession) appVersion() (VersionInfo, error) {
	version, err := s.app.GetVersion()
	if err != nil {
		return VersionInfo{}, translateDeviceError(err, defaultRejectionMessage)
	}
	if version.TestMode && !s.allowTestMode {
		return VersionInfo{}, ErrTestModeRejected
	}
	return version, nil
}

// VerifyAppVersion fails with ErrOutdatedApp when the open app is older than
// RequiredAppVersion.
func (s *DeviceSession) VerifyAppVersion() error {
	if err := s.VerifyAppIsOpen(); err != nil {
		return err
	}
	version, err := s.appVersion()
	if err != nil {
		return err
	}
	if !version.AtLeast(RequiredAppVersion) {
		return ErrOutdatedApp
	}
	return nil
}

// GetOpenAppName reports which application is currently running on the
// device.
func (s *DeviceSession) GetOpenAppName() (string, error) {
	name, err := s.app.AppInfo()
	if err != nil {
		return "", translateDeviceError(err, defaultRejectionMessage)
	}
	return name, nil
}

// VerifyAppIsOpen fails unless the Persistence app is in the foreground,
// distinguishing the home screen from some other app being open.
func (s *DeviceSession) VerifyAppIsOpen() error {
	name, err := s.GetOpenAppName()
	if err != nil {
		return err
	}
	switch {
	case strings.EqualFold(name, dashboardName):
		return ErrWrongScreen
	case !strings.EqualFold(name, appName):
		return &Error{
			Kind:    KindWrongAppOpen,
			Message: fmt.Sprintf("The %s app is open on the Ledger device. Please open the %s app instead", name, appName),
		}
	}
	return nil
}

// VerifyDeviceReady is the compatibility gate run before every data
// producing operation: app version first, then the open app check.
func (s *DeviceSession) VerifyDeviceReady() error {
	if err := s.VerifyAppVersion(); err != nil {
		return err
	}
	return s.VerifyAppIsOpen()
}

// GetPubkey retrieves the compressed public key for path, or for the first
// configured path when path is nil.
func (s *DeviceSession) GetPubkey(path DerivationPath) ([]byte, error) {
	if err := s.VerifyDeviceReady(); err != nil {
		return nil, err
	}
	if path == nil {
		path = s.paths[0]
	}
	pubkey, err := s.app.PublicKey(path.Unharden())
	if err != nil {
		return nil, translateDeviceError(err, defaultRejectionMessage)
	}
	return pubkey, nil
}

// GetPubkeys retrieves one public key per configured path, preserving order.
// The device handles a single request at a time, so the calls are
// sequential, and the first failure aborts the batch with no partial result.
func (s *DeviceSession) GetPubkeys() ([][]byte, error) {
	pubkeys := make([][]byte, 0, len(s.paths))
	for _, path := range s.paths {
		pubkey, err := s.GetPubkey(path)
		if err != nil {
			return nil, err
		}
		pubkeys = append(pubkeys, pubkey)
	}
	return pubkeys, nil
}

// GetAddress encodes pubkey as a bech32 address under the configured prefix,
// first fetching the default path's key when pubkey is nil. With a key given
// there is no device round trip.
func (s *DeviceSession) GetAddress(pubkey []byte) (string, error) {
	if pubkey == nil {
		var err error
		pubkey, err = s.GetPubkey(nil)
		if err != nil {
			return "", err
		}
	}
	return Bech32FromPublicKey(s.prefix, pubkey)
}

// Sign asks the device to sign message under path (the first configured path
// when nil) and returns the fixed 64 byte signature. The app signs human
// readable text, so message must be valid UTF-8.
func (s *DeviceSession) Sign(message []byte, path DerivationPath) ([]byte, error) {
	if err := s.VerifyDeviceReady(); err != nil {
		return nil, err
	}
	if path == nil {
		path = s.paths[0]
	}
	if !utf8.Valid(message) {
		return nil, errors.New("message to sign is not valid UTF-8 text")
	}

	der, err := s.app.Sign(path.Unharden(), message)
	if err != nil {
		return nil, translateDeviceError(err, signRejectionMessage)
	}
	return SignatureFromDER(der)
}

// VerifyAddress makes the device display the address derived for path so the
// user can check it on the device screen, and returns the raw device
// response for the host to display next to it.
func (s *DeviceSession) VerifyAddress(path DerivationPath) (ShowAddressResponse, error) {
	if err := s.VerifyDeviceReady(); err != nil {
		return ShowAddressResponse{}, err
	}
	response, err := s.app.ShowAddressAndPubKey(path.Unharden(), chainID)
	if err != nil {
		return ShowAddressResponse{}, translateDeviceError(err, defaultRejectionMessage)
	}
	return response, nil
}
