// Copyright (C) 2021-2025, Persistence One. All rights reserved.
// Licensed under the Apache License, Version 2.0

package ledger_persistence_go

import (
	"errors"
	"fmt"
)

// APDU status words returned by the Persistence app or the BOLOS dashboard.
const (
	swNoErrors             uint16 = 0x9000
	swDeviceBusy           uint16 = 0x9001
	swDeviceLocked         uint16 = 0x5515
	swExecutionError       uint16 = 0x6400
	swWrongLength          uint16 = 0x6700
	swErrorDerivingKeys    uint16 = 0x6802
	swDeviceLockedLegacy   uint16 = 0x6804
	swEmptyBuffer          uint16 = 0x6982
	swOutputBufferTooSmall uint16 = 0x6983
	swDataInvalid          uint16 = 0x6984
	swCommandNotAllowed    uint16 = 0x6985
	swTransactionRejected  uint16 = 0x6986
	swBadKeyHandle         uint16 = 0x6a80
	swInvalidP1P2          uint16 = 0x6b00
	swInsNotSupported      uint16 = 0x6d00
	swAppNotOpen           uint16 = 0x6e00
	swAppNotOpenAlt        uint16 = 0x6e01
	swUnknownError         uint16 = 0x6f00
	swSignVerifyError      uint16 = 0x6f01
)

// Raw error texts shared between the status table and the translation table.
const (
	msgNoErrors            = "No errors"
	msgTimeout             = "U2F: Timeout"
	msgAppNotOpen          = "Persistence app does not seem to be open"
	msgCommandNotAllowed   = "Command not allowed"
	msgTransactionRejected = "Transaction rejected"
	msgInsNotSupported     = "Instruction not supported"
	msgDeviceLocked        = "Device is locked"
)

// DeviceError is the raw failure reported by a single APDU exchange, before
// translation into an actionable Error. Locked is set when the response
// itself flags the device as locked, independently of the message text.
type DeviceError struct {
	Message string
	Locked  bool
}

func (e *DeviceError) Error() string {
	return e.Message
}

// deviceErrorFromStatus maps a status word to its raw error, or nil for the
// success word.
func deviceErrorFromStatus(status uint16) *DeviceError {
	switch status {
	case swNoErrors:
		return nil
	case swDeviceLocked:
		return &DeviceError{Message: msgDeviceLocked, Locked: true}
	case swDeviceBusy:
		return &DeviceError{Message: "Device is busy"}
	case swExecutionError:
		return &DeviceError{Message: "Execution error"}
	case swWrongLength:
		return &DeviceError{Message: "Wrong length"}
	case swErrorDerivingKeys:
		return &DeviceError{Message: "Error deriving keys"}
	case swEmptyBuffer:
		return &DeviceError{Message: "Empty buffer"}
	case swOutputBufferTooSmall:
		return &DeviceError{Message: "Output buffer too small"}
	case swDataInvalid:
		return &DeviceError{Message: "Data is invalid"}
	case swCommandNotAllowed:
		return &DeviceError{Message: msgCommandNotAllowed}
	case swTransactionRejected:
		return &DeviceError{Message: msgTransactionRejected}
	case swBadKeyHandle:
		return &DeviceError{Message: "Bad key handle"}
	case swInvalidP1P2:
		return &DeviceError{Message: "Invalid P1/P2"}
	case swInsNotSupported:
		return &DeviceError{Message: msgInsNotSupported}
	case swAppNotOpen, swAppNotOpenAlt:
		return &DeviceError{Message: msgAppNotOpen}
	case swUnknownError:
		return &DeviceError{Message: "Unknown error"}
	case swSignVerifyError:
		return &DeviceError{Message: "Sign/verify error"}
	default:
		return &DeviceError{Message: fmt.Sprintf("Unknown Status Code: %d", status)}
	}
}

// ErrorKind is the failure category of a device operation.
type ErrorKind uint8

const (
	KindDeviceLocked ErrorKind = iota + 1
	KindConnectionTimeout
	KindAppNotOpen
	KindTransactionRejected
	KindUserRejected
	KindOutdatedApp
	KindTestModeRejected
	KindWrongScreen
	KindWrongAppOpen
	KindUnknownDevice
)

// Error is a classified device failure with a user-facing message. Callers
// branch on the category with errors.Is against the exported Err* values.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches by kind, so errors.Is(err, ErrUserRejected) holds for every
// user rejection regardless of the message it carries.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

const defaultRejectionMessage = "Request was rejected by the user"

// signRejectionMessage replaces the generic rejection text while signing.
const signRejectionMessage = "Transaction signing request was rejected by the user"

var (
	ErrDeviceLocked        = &Error{KindDeviceLocked, "Ledger device is locked. Unlock it and try again"}
	ErrConnectionTimeout   = &Error{KindConnectionTimeout, "Connection to the Ledger device timed out. Please try again"}
	ErrAppNotOpen          = &Error{KindAppNotOpen, "The Persistence app does not seem to be open on the Ledger device"}
	ErrTransactionRejected = &Error{KindTransactionRejected, "The request was not allowed by the Ledger device"}
	ErrUserRejected        = &Error{KindUserRejected, defaultRejectionMessage}
	ErrOutdatedApp         = &Error{KindOutdatedApp, fmt.Sprintf("Outdated Persistence app. Please update to version %s or newer", RequiredAppVersion)}
	ErrTestModeRejected    = &Error{KindTestModeRejected, "The Persistence app is running in test mode, which is not allowed"}
	ErrWrongScreen         = &Error{KindWrongScreen, "The Ledger device is on its home screen. Please open the Persistence app"}
	ErrWrongAppOpen        = &Error{KindWrongAppOpen, "A different app is open on the Ledger device"}
	ErrUnknownDevice       = &Error{KindUnknownDevice, "The Ledger device returned an unknown error"}
)

// translateDeviceError classifies the raw failure of one exchange. The locked
// flag wins over any message text since both can be set on the same response;
// after that, exact message matches in table order, and anything unrecognized
// surfaces with the raw text attached. rejection is the message to use when
// the user declined the request on the device.
func translateDeviceError(err error, rejection string) error {
	if err == nil {
		return nil
	}

	var devErr *DeviceError
	if !errors.As(err, &devErr) {
		return &Error{Kind: KindUnknownDevice, Message: fmt.Sprintf("Ledger device error: %s. Please try again", err)}
	}

	if devErr.Locked {
		return ErrDeviceLocked
	}

	switch devErr.Message {
	case "", msgNoErrors:
		return nil
	case msgTimeout:
		return ErrConnectionTimeout
	case msgAppNotOpen:
		return ErrAppNotOpen
	case msgCommandNotAllowed:
		return ErrTransactionRejected
	case msgTransactionRejected:
		return &Error{Kind: KindUserRejected, Message: rejection}
	case fmt.Sprintf("Unknown Status Code: %d", swDeviceLockedLegacy):
		// 26628 is how older firmware reports the lock screen.
		return ErrDeviceLocked
	case msgInsNotSupported:
		return ErrOutdatedApp
	default:
		return &Error{Kind: KindUnknownDevice, Message: fmt.Sprintf("Ledger device error: %s. Please try again", devErr.Message)}
	}
}
