// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ata creates token accounts at addresses derived from a wallet, a
// token program and a mint, so anyone can locate a wallet's account for a
// mint without an index.
package ata

import (
	"context"
	"fmt"

	"github.com/ava-labs/avalanchego/utils/logging"
	"go.uber.org/zap"

	"github.com/ava-labs/hyperprog/account"
	"github.com/ava-labs/hyperprog/authority"
	"github.com/ava-labs/hyperprog/codec"
	"github.com/ava-labs/hyperprog/runtime"
	"github.com/ava-labs/hyperprog/system"
	"github.com/ava-labs/hyperprog/token"
)

var _ runtime.Program = (*Program)(nil)

type Config struct {
	SystemProgramID codec.Address
	TokenProgramID  codec.Address
}

type Program struct {
	cfg Config
	log logging.Logger
}

func New(cfg Config, log logging.Logger) *Program {
	return &Program{cfg: cfg, log: log}
}

func (p *Program) Process(ctx context.Context, cc *runtime.CallContext) error {
	if cc.Entry != runtime.DefaultEntry {
		return fmt.Errorf("%w: %q", runtime.ErrUnknownEntry, cc.Entry)
	}
	switch {
	case len(cc.Data) == 0:
		return p.create(ctx, cc, false)
	case len(cc.Data) == 1 && cc.Data[0] == Create:
		return p.create(ctx, cc, false)
	case len(cc.Data) == 1 && cc.Data[0] == CreateIdempotent:
		return p.create(ctx, cc, true)
	default:
		return fmt.Errorf("%w: %x", ErrInvalidInstruction, cc.Data)
	}
}

func checkProgram(acct *account.Account, expected codec.Address) error {
	if acct.Address != expected {
		return fmt.Errorf("%w: expected %s, got %s", ErrIncorrectProgramID, expected, acct.Address)
	}
	return nil
}

// create allocates and initializes the associated token account. Accounts:
// payer (signer), associated account, wallet, mint, system program, token
// program.
func (p *Program) create(ctx context.Context, cc *runtime.CallContext, idempotent bool) error {
	accts := make([]*account.Account, 6)
	for i := range accts {
		var err error
		if accts[i], err = cc.Accounts.Next(); err != nil {
			return err
		}
	}
	payer, assoc, wallet, mint, systemProgram, tokenProgram := accts[0], accts[1], accts[2], accts[3], accts[4], accts[5]

	if err := checkProgram(systemProgram, p.cfg.SystemProgramID); err != nil {
		return err
	}
	if err := checkProgram(tokenProgram, p.cfg.TokenProgramID); err != nil {
		return err
	}
	derived := authority.Derived(assoc, Seeds(wallet.Address, tokenProgram.Address, mint.Address), cc.ProgramID)
	if err := authority.All(derived, authority.Writable(assoc)); err != nil {
		return err
	}

	if assoc.Owner == tokenProgram.Address {
		if !idempotent {
			return fmt.Errorf("%w: %s", ErrAccountExists, assoc.Address)
		}
		return matches(assoc, wallet.Address, mint.Address)
	}

	if err := authority.All(authority.Signer(payer), authority.Writable(payer)); err != nil {
		return err
	}
	ix, err := system.NewCreateAccount(systemProgram.Address, payer.Address, assoc.Address, 0, token.AccountSize, tokenProgram.Address)
	if err != nil {
		return err
	}
	if err := cc.Invoker.InvokeSigned(ctx, ix, [][][]byte{derived.Authority.SignerSeeds()}); err != nil {
		return err
	}
	ix, err = token.NewInitializeAccount(tokenProgram.Address, assoc.Address, mint.Address, wallet.Address)
	if err != nil {
		return err
	}
	if err := cc.Invoker.Invoke(ctx, ix); err != nil {
		return err
	}
	p.log.Debug("created associated token account",
		zap.Stringer("address", assoc.Address),
		zap.Stringer("wallet", wallet.Address),
		zap.Stringer("mint", mint.Address),
		zap.Stringer("payer", payer.Address),
	)
	return nil
}

func matches(assoc *account.Account, wallet, mint codec.Address) error {
	data, release, err := assoc.BorrowData()
	if err != nil {
		return err
	}
	defer release()
	ta, err := token.UnpackAccount(data)
	if err != nil {
		return err
	}
	if ta.Owner != wallet || ta.Mint != mint {
		return fmt.Errorf("%w: %s", ErrAccountMismatch, assoc.Address)
	}
	return nil
}
