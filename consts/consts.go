// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package consts

const (
	AddressLen       = 32
	HashLen          = 32
	DiscriminatorLen = 8
	ByteLen          = 1
	Uint32Len        = 4
	Uint64Len        = 8
	MaxUint8         = ^uint8(0)
	MaxUint32        = ^uint32(0)
	MaxUint64        = ^uint64(0)

	// Derived address limits.
	MaxSeeds   = 16
	MaxSeedLen = 32
)
