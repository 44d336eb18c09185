// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package transfer

import (
	"fmt"

	"github.com/ava-labs/hyperprog/codec"
)

// TransferArgsSize is the encoded size of [TransferArgs].
const TransferArgsSize = 8

// TransferArgs is the instruction payload of every entry.
type TransferArgs struct {
	Amount uint64
}

// TransferRequest is what the derived authority asks the token program to
// move. Decimals always come from the mint account.
type TransferRequest struct {
	Amount   uint64
	Decimals uint8
}

func (a *TransferArgs) Encode() []byte {
	b, err := codec.Serialize(*a)
	if err != nil {
		// A single u64 always encodes.
		panic(err)
	}
	return b
}

func DecodeArgs(data []byte) (*TransferArgs, error) {
	args, err := codec.DeserializeExact[TransferArgs](data, TransferArgsSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInstructionData, err)
	}
	return args, nil
}
