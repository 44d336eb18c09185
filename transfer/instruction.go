// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package transfer

import (
	"github.com/ava-labs/hyperprog/account"
	"github.com/ava-labs/hyperprog/ata"
	"github.com/ava-labs/hyperprog/codec"
	"github.com/ava-labs/hyperprog/runtime"
)

func newInstruction(programID codec.Address, entry string, amount uint64, metas ...account.Meta) *runtime.Instruction {
	args := &TransferArgs{Amount: amount}
	return &runtime.Instruction{
		ProgramID: programID,
		Entry:     entry,
		Accounts:  metas,
		Data:      args.Encode(),
	}
}

// NewDerivedTransfer moves [amount] out of [source], a token account owned
// by the program's derived authority.
func NewDerivedTransfer(programID, source, mint, destination, tokenProgram codec.Address, amount uint64) (*runtime.Instruction, error) {
	authority, err := AuthorityAddress(programID)
	if err != nil {
		return nil, err
	}
	return newInstruction(programID, runtime.DefaultEntry, amount,
		account.Meta{Address: source, IsWritable: true},
		account.Meta{Address: mint},
		account.Meta{Address: destination, IsWritable: true},
		account.Meta{Address: authority},
		account.Meta{Address: tokenProgram},
	), nil
}

func NewSolTransfer(programID, from, to, systemProgram codec.Address, amount uint64) *runtime.Instruction {
	return newInstruction(programID, SolTransferEntry, amount,
		account.Meta{Address: from, IsSigner: true, IsWritable: true},
		account.Meta{Address: to, IsWritable: true},
		account.Meta{Address: systemProgram},
	)
}

// NewTokenTransfer moves [amount] of [mint] from [sender]'s associated token
// account to [recipient]'s. The recipient's account is created, paid by
// [sender], if it does not exist yet.
func NewTokenTransfer(programID, sender, recipient, mint, tokenProgram, ataProgram, systemProgram codec.Address, amount uint64) (*runtime.Instruction, error) {
	senderToken, err := ata.Address(ataProgram, sender, tokenProgram, mint)
	if err != nil {
		return nil, err
	}
	recipientToken, err := ata.Address(ataProgram, recipient, tokenProgram, mint)
	if err != nil {
		return nil, err
	}
	return newInstruction(programID, TokenTransferEntry, amount,
		account.Meta{Address: sender, IsSigner: true, IsWritable: true},
		account.Meta{Address: recipient},
		account.Meta{Address: mint},
		account.Meta{Address: senderToken, IsWritable: true},
		account.Meta{Address: recipientToken, IsWritable: true},
		account.Meta{Address: tokenProgram},
		account.Meta{Address: ataProgram},
		account.Meta{Address: systemProgram},
	), nil
}
