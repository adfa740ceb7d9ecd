// Copyright (C) 2021-2025, Persistence One. All rights reserved.
// Forked from github.com/zondax/ledger-go
// Licensed under the Apache License, Version 2.0

package ledger_persistence_go

// LedgerAdmin enumerates and connects to attached Ledger devices.
type LedgerAdmin interface {
	CountDevices() int
	ListDevices() ([]string, error)
	Connect(deviceIndex int) (LedgerDevice, error)
}

// LedgerDevice is a single opened Ledger device. Exchange sends one APDU
// command and blocks until the full response, including the trailing status
// word, has been read back.
type LedgerDevice interface {
	Exchange(command []byte) ([]byte, error)
	Close() error
}
