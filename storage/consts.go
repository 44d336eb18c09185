// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import "github.com/ava-labs/hyperprog/consts"

const (
	accountPrefix byte = 0x0

	accountKeyLen = consts.ByteLen + consts.AddressLen
)
