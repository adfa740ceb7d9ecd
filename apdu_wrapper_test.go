// Copyright (C) 2021-2025, Persistence One. All rights reserved.
// Forked from github.com/zondax/ledger-go
// Licensed under the Apache License, Version 2.0

package ledger_persistence_go

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrapCommandAPDU(t *testing.T) {
	require := require.New(t)

	command := make([]byte, 200)
	for i := range command {
		command[i] = byte(i)
	}

	packets, err := WrapCommandAPDU(Channel, command, PacketSize)
	require.NoError(err)
	// 57 bytes fit in the first packet, 59 in each continuation.
	require.Len(packets, 4)

	for i, packet := range packets {
		require.Len(packet, PacketSize)
		require.Equal(uint16(Channel), binary.BigEndian.Uint16(packet[0:]))
		require.Equal(byte(apduTag), packet[2])
		require.Equal(uint16(i), binary.BigEndian.Uint16(packet[3:]))
	}
	require.Equal(uint16(len(command)), binary.BigEndian.Uint16(packets[0][5:]))
	require.Equal(command[:57], packets[0][7:])
}

func TestWrapCommandAPDUSinglePacket(t *testing.T) {
	require := require.New(t)

	packets, err := WrapCommandAPDU(Channel, []byte{0x55, 0x00, 0, 0, 0}, PacketSize)
	require.NoError(err)
	require.Len(packets, 1)
	require.Equal(uint16(5), binary.BigEndian.Uint16(packets[0][5:]))
}

func TestWrapCommandAPDUPacketSizeTooSmall(t *testing.T) {
	_, err := WrapCommandAPDU(Channel, []byte{1, 2, 3}, 7)
	require.Error(t, err)
}

func TestWrapUnwrapRoundTrip(t *testing.T) {
	require := require.New(t)

	payload := make([]byte, 180)
	for i := range payload {
		payload[i] = byte(255 - i)
	}

	packets, err := WrapCommandAPDU(Channel, payload, PacketSize)
	require.NoError(err)

	var response []byte
	totalLen := -1
	for _, packet := range packets {
		data, packetLen, err := UnwrapResponsePacket(Channel, packet)
		require.NoError(err)
		if packetLen >= 0 {
			totalLen = packetLen
		}
		response = append(response, data...)
	}
	require.Equal(len(payload), totalLen)
	require.Equal(payload, response[:totalLen])
}

func TestUnwrapResponsePacketErrors(t *testing.T) {
	require := require.New(t)

	valid, err := WrapCommandAPDU(Channel, []byte{1, 2, 3, 4, 5}, PacketSize)
	require.NoError(err)

	// Too short.
	_, _, err = UnwrapResponsePacket(Channel, []byte{0x01, 0x01})
	require.Error(err)

	// Wrong channel.
	_, _, err = UnwrapResponsePacket(0x0202, valid[0])
	require.Error(err)

	// Wrong tag.
	corrupted := append([]byte{}, valid[0]...)
	corrupted[2] = 0x06
	_, _, err = UnwrapResponsePacket(Channel, corrupted)
	require.Error(err)
}
