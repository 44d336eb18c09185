// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package token

import (
	"fmt"

	"github.com/ava-labs/hyperprog/account"
	"github.com/ava-labs/hyperprog/codec"
	"github.com/ava-labs/hyperprog/consts"
	"github.com/ava-labs/hyperprog/runtime"
)

// Instruction tags follow the SPL token numbering.
const (
	Transfer           uint8 = 3
	MintTo             uint8 = 7
	TransferChecked    uint8 = 12
	InitializeAccount3 uint8 = 18
	InitializeMint2    uint8 = 20
)

type amountArgs struct {
	Tag    uint8
	Amount uint64
}

type transferCheckedArgs struct {
	Tag      uint8
	Amount   uint64
	Decimals uint8
}

type initializeAccountArgs struct {
	Tag   uint8
	Owner codec.Address
}

const (
	amountArgsSize          = consts.ByteLen + consts.Uint64Len
	transferCheckedArgsSize = amountArgsSize + consts.ByteLen
	initializeAccountSize   = consts.ByteLen + consts.AddressLen
	initializeMintSize      = 2*consts.ByteLen + consts.AddressLen
)

func decode[T any](data []byte, size int) (*T, error) {
	args, err := codec.DeserializeExact[T](data, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInstruction, err)
	}
	return args, nil
}

type initializeMintArgs struct {
	Decimals        uint8
	MintAuthority   codec.Address
	FreezeAuthority *codec.Address
}

// SPL encodes the freeze authority as a one byte option followed by the key
// only when present.
func encodeInitializeMint(args *initializeMintArgs) []byte {
	b := make([]byte, 0, initializeMintSize+consts.AddressLen+consts.ByteLen)
	b = append(b, InitializeMint2, args.Decimals)
	b = append(b, args.MintAuthority[:]...)
	if args.FreezeAuthority == nil {
		return append(b, 0)
	}
	b = append(b, 1)
	return append(b, args.FreezeAuthority[:]...)
}

func decodeInitializeMint(data []byte) (*initializeMintArgs, error) {
	if len(data) != initializeMintSize+consts.ByteLen && len(data) != initializeMintSize+consts.ByteLen+consts.AddressLen {
		return nil, fmt.Errorf("%w: initialize mint takes %d or %d bytes, got %d",
			ErrInvalidInstruction, initializeMintSize+consts.ByteLen, initializeMintSize+consts.ByteLen+consts.AddressLen, len(data))
	}
	args := &initializeMintArgs{Decimals: data[1]}
	copy(args.MintAuthority[:], data[2:initializeMintSize])
	switch data[initializeMintSize] {
	case 0:
		if len(data) != initializeMintSize+consts.ByteLen {
			return nil, fmt.Errorf("%w: trailing freeze authority", ErrInvalidInstruction)
		}
	case 1:
		if len(data) != initializeMintSize+consts.ByteLen+consts.AddressLen {
			return nil, fmt.Errorf("%w: missing freeze authority", ErrInvalidInstruction)
		}
		freeze, err := codec.ToAddress(data[initializeMintSize+consts.ByteLen:])
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInstruction, err)
		}
		args.FreezeAuthority = &freeze
	default:
		return nil, fmt.Errorf("%w: bad option tag %d", ErrInvalidInstruction, data[initializeMintSize])
	}
	return args, nil
}

func newInstruction(programID codec.Address, data []byte, metas ...account.Meta) *runtime.Instruction {
	return &runtime.Instruction{ProgramID: programID, Accounts: metas, Data: data}
}

// NewInitializeMint initializes [mint] with [decimals]. A nil
// [freezeAuthority] leaves the mint without one.
func NewInitializeMint(programID, mint, mintAuthority codec.Address, freezeAuthority *codec.Address, decimals uint8) *runtime.Instruction {
	data := encodeInitializeMint(&initializeMintArgs{
		Decimals:        decimals,
		MintAuthority:   mintAuthority,
		FreezeAuthority: freezeAuthority,
	})
	return newInstruction(programID, data, account.Meta{Address: mint, IsWritable: true})
}

func NewInitializeAccount(programID, tokenAccount, mint, owner codec.Address) (*runtime.Instruction, error) {
	data, err := codec.Serialize(initializeAccountArgs{Tag: InitializeAccount3, Owner: owner})
	if err != nil {
		return nil, err
	}
	return newInstruction(programID, data,
		account.Meta{Address: tokenAccount, IsWritable: true},
		account.Meta{Address: mint},
	), nil
}

func NewMintTo(programID, mint, destination, mintAuthority codec.Address, amount uint64) (*runtime.Instruction, error) {
	data, err := codec.Serialize(amountArgs{Tag: MintTo, Amount: amount})
	if err != nil {
		return nil, err
	}
	return newInstruction(programID, data,
		account.Meta{Address: mint, IsWritable: true},
		account.Meta{Address: destination, IsWritable: true},
		account.Meta{Address: mintAuthority, IsSigner: true},
	), nil
}

func NewTransfer(programID, source, destination, authority codec.Address, amount uint64) (*runtime.Instruction, error) {
	data, err := codec.Serialize(amountArgs{Tag: Transfer, Amount: amount})
	if err != nil {
		return nil, err
	}
	return newInstruction(programID, data,
		account.Meta{Address: source, IsWritable: true},
		account.Meta{Address: destination, IsWritable: true},
		account.Meta{Address: authority, IsSigner: true},
	), nil
}

// NewTransferChecked moves [amount] from [source] to [destination]. The
// token program rejects the call unless [decimals] matches the mint.
func NewTransferChecked(programID, source, mint, destination, authority codec.Address, amount uint64, decimals uint8) (*runtime.Instruction, error) {
	data, err := codec.Serialize(transferCheckedArgs{Tag: TransferChecked, Amount: amount, Decimals: decimals})
	if err != nil {
		return nil, err
	}
	return newInstruction(programID, data,
		account.Meta{Address: source, IsWritable: true},
		account.Meta{Address: mint},
		account.Meta{Address: destination, IsWritable: true},
		account.Meta{Address: authority, IsSigner: true},
	), nil
}
