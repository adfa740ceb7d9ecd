// Copyright (C) 2021-2025, Persistence One. All rights reserved.
// Forked from github.com/zondax/ledger-go
// Licensed under the Apache License, Version 2.0

package ledger_persistence_go

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// apduTag marks an APDU payload packet on the Ledger HID channel.
const apduTag = 0x05

// WrapCommandAPDU splits an APDU command into fixed size packets for HID
// transport. Every packet starts with the channel, the tag and a sequence
// number; the sequence 0 packet additionally carries the total command length.
func WrapCommandAPDU(channel uint16, command []byte, packetSize int) ([][]byte, error) {
	if packetSize < 8 {
		return nil, errors.New("packet size must be at least 8")
	}

	var packets [][]byte
	var sequence uint16
	offset := 0
	for offset < len(command) || sequence == 0 {
		packet := make([]byte, packetSize)
		binary.BigEndian.PutUint16(packet[0:], channel)
		packet[2] = apduTag
		binary.BigEndian.PutUint16(packet[3:], sequence)

		dataOffset := 5
		if sequence == 0 {
			binary.BigEndian.PutUint16(packet[5:], uint16(len(command)))
			dataOffset = 7
		}

		offset += copy(packet[dataOffset:], command[offset:])
		packets = append(packets, packet)
		sequence++
	}

	return packets, nil
}

// UnwrapResponsePacket validates a single packet read from HID transport and
// returns its payload. For the sequence 0 packet, totalLen is the length of
// the complete response; for continuation packets it is -1 and the caller
// keeps accumulating until the announced length is reached.
func UnwrapResponsePacket(channel uint16, packet []byte) (data []byte, totalLen int, err error) {
	if len(packet) < 5 {
		return nil, 0, fmt.Errorf("response packet too short: %d bytes", len(packet))
	}
	if got := binary.BigEndian.Uint16(packet[0:]); got != channel {
		return nil, 0, fmt.Errorf("unexpected channel: got %#x, want %#x", got, channel)
	}
	if packet[2] != apduTag {
		return nil, 0, fmt.Errorf("unexpected tag: got %#x, want %#x", packet[2], apduTag)
	}

	sequence := binary.BigEndian.Uint16(packet[3:])
	if sequence != 0 {
		return packet[5:], -1, nil
	}
	if len(packet) < 7 {
		return nil, 0, fmt.Errorf("first response packet too short: %d bytes", len(packet))
	}
	return packet[7:], int(binary.BigEndian.Uint16(packet[5:])), nil
}
