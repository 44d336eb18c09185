// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package counter

import (
	"github.com/ava-labs/hyperprog/account"
	"github.com/ava-labs/hyperprog/codec"
	"github.com/ava-labs/hyperprog/instruction"
	"github.com/ava-labs/hyperprog/runtime"
)

// NewInitialize creates [counter] with [payer] as its authority. Both must
// sign.
func NewInitialize(programID, counter, payer, systemProgram codec.Address) *runtime.Instruction {
	return &runtime.Instruction{
		ProgramID: programID,
		Entry:     InitializeEntry,
		Accounts: []account.Meta{
			{Address: counter, IsSigner: true, IsWritable: true},
			{Address: payer, IsSigner: true, IsWritable: true},
			{Address: systemProgram},
		},
	}
}

// NewUpdate applies [ix] to [counter]. [authority] is only passed in
// validated mode.
func NewUpdate(programID codec.Address, layout Layout, counter, authority codec.Address, ix *instruction.Instruction) (*runtime.Instruction, error) {
	data, err := instruction.Encode(ix, layout.Width)
	if err != nil {
		return nil, err
	}
	metas := []account.Meta{{Address: counter, IsWritable: true}}
	if layout.Mode == Validated {
		metas = append(metas, account.Meta{Address: authority, IsSigner: true})
	}
	return &runtime.Instruction{
		ProgramID: programID,
		Accounts:  metas,
		Data:      data,
	}, nil
}
