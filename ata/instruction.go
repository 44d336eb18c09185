// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ata

import (
	"github.com/ava-labs/hyperprog/account"
	"github.com/ava-labs/hyperprog/codec"
	"github.com/ava-labs/hyperprog/pda"
	"github.com/ava-labs/hyperprog/runtime"
)

// Instruction tags. Empty instruction data means Create.
const (
	Create           uint8 = 0
	CreateIdempotent uint8 = 1
)

// Seeds are the derivation seeds of the token account [wallet] holds for
// [mint] under [tokenProgram].
func Seeds(wallet, tokenProgram, mint codec.Address) [][]byte {
	return [][]byte{wallet[:], tokenProgram[:], mint[:]}
}

// Find derives the associated token account of [wallet] for [mint].
func Find(programID, wallet, tokenProgram, mint codec.Address) (*pda.Authority, error) {
	return pda.Find(Seeds(wallet, tokenProgram, mint), programID)
}

// Address is Find without the bump.
func Address(programID, wallet, tokenProgram, mint codec.Address) (codec.Address, error) {
	auth, err := Find(programID, wallet, tokenProgram, mint)
	if err != nil {
		return codec.EmptyAddress, err
	}
	return auth.Address, nil
}

// NewCreate creates the associated token account of [wallet] for [mint],
// paid by [payer]. With [idempotent] set an existing matching account is
// accepted.
func NewCreate(programID, payer, wallet, mint, systemProgram, tokenProgram codec.Address, idempotent bool) (*runtime.Instruction, error) {
	addr, err := Address(programID, wallet, tokenProgram, mint)
	if err != nil {
		return nil, err
	}
	tag := Create
	if idempotent {
		tag = CreateIdempotent
	}
	return &runtime.Instruction{
		ProgramID: programID,
		Accounts: []account.Meta{
			{Address: payer, IsSigner: true, IsWritable: true},
			{Address: addr, IsWritable: true},
			{Address: wallet},
			{Address: mint},
			{Address: systemProgram},
			{Address: tokenProgram},
		},
		Data: []byte{tag},
	}, nil
}
