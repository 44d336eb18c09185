// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package system

import (
	"fmt"

	"github.com/ava-labs/hyperprog/account"
	"github.com/ava-labs/hyperprog/codec"
	"github.com/ava-labs/hyperprog/consts"
	"github.com/ava-labs/hyperprog/runtime"
)

// Instruction tags are little-endian u32s.
const (
	CreateAccount uint32 = 0
	Assign        uint32 = 1
	Transfer      uint32 = 2
)

// MaxPermittedDataLength bounds the space CreateAccount may allocate.
const MaxPermittedDataLength = 10 * 1024 * 1024

type CreateAccountArgs struct {
	Tag      uint32
	Lamports uint64
	Space    uint64
	Owner    codec.Address
}

type AssignArgs struct {
	Tag   uint32
	Owner codec.Address
}

type TransferArgs struct {
	Tag      uint32
	Lamports uint64
}

const (
	createAccountSize = consts.Uint32Len + 2*consts.Uint64Len + consts.AddressLen
	assignSize        = consts.Uint32Len + consts.AddressLen
	transferSize      = consts.Uint32Len + consts.Uint64Len
)

// Tag returns the instruction tag of [data].
func Tag(data []byte) (uint32, error) {
	if len(data) < consts.Uint32Len {
		return 0, fmt.Errorf("%w: %d bytes", ErrInvalidInstruction, len(data))
	}
	tag, err := codec.Deserialize[uint32](data[:consts.Uint32Len])
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidInstruction, err)
	}
	return *tag, nil
}

func decode[T any](data []byte, size int) (*T, error) {
	args, err := codec.DeserializeExact[T](data, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInstruction, err)
	}
	return args, nil
}

// NewCreateAccount funds [to] from [from], allocates [space] bytes and
// assigns it to [owner]. Both accounts sign.
func NewCreateAccount(programID, from, to codec.Address, lamports, space uint64, owner codec.Address) (*runtime.Instruction, error) {
	data, err := codec.Serialize(CreateAccountArgs{
		Tag:      CreateAccount,
		Lamports: lamports,
		Space:    space,
		Owner:    owner,
	})
	if err != nil {
		return nil, err
	}
	return &runtime.Instruction{
		ProgramID: programID,
		Accounts: []account.Meta{
			{Address: from, IsSigner: true, IsWritable: true},
			{Address: to, IsSigner: true, IsWritable: true},
		},
		Data: data,
	}, nil
}

func NewAssign(programID, target, owner codec.Address) (*runtime.Instruction, error) {
	data, err := codec.Serialize(AssignArgs{Tag: Assign, Owner: owner})
	if err != nil {
		return nil, err
	}
	return &runtime.Instruction{
		ProgramID: programID,
		Accounts:  []account.Meta{{Address: target, IsSigner: true, IsWritable: true}},
		Data:      data,
	}, nil
}

func NewTransfer(programID, from, to codec.Address, lamports uint64) (*runtime.Instruction, error) {
	data, err := codec.Serialize(TransferArgs{Tag: Transfer, Lamports: lamports})
	if err != nil {
		return nil, err
	}
	return &runtime.Instruction{
		ProgramID: programID,
		Accounts: []account.Meta{
			{Address: from, IsSigner: true, IsWritable: true},
			{Address: to, IsWritable: true},
		},
		Data: data,
	}, nil
}
