// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package system implements the native program that creates accounts and
// moves balance between them.
package system

import (
	"context"
	"fmt"

	"github.com/ava-labs/avalanchego/utils/logging"
	"go.uber.org/zap"

	"github.com/ava-labs/hyperprog/account"
	"github.com/ava-labs/hyperprog/authority"
	"github.com/ava-labs/hyperprog/runtime"

	smath "github.com/ava-labs/avalanchego/utils/math"
)

var _ runtime.Program = (*Program)(nil)

type Program struct {
	log logging.Logger
}

func New(log logging.Logger) *Program {
	return &Program{log: log}
}

func (p *Program) Process(_ context.Context, cc *runtime.CallContext) error {
	tag, err := Tag(cc.Data)
	if err != nil {
		return err
	}
	switch tag {
	case CreateAccount:
		args, err := decode[CreateAccountArgs](cc.Data, createAccountSize)
		if err != nil {
			return err
		}
		return p.createAccount(cc, args)
	case Assign:
		args, err := decode[AssignArgs](cc.Data, assignSize)
		if err != nil {
			return err
		}
		return p.assign(cc, args)
	case Transfer:
		args, err := decode[TransferArgs](cc.Data, transferSize)
		if err != nil {
			return err
		}
		return p.transfer(cc, args)
	default:
		return fmt.Errorf("%w: unknown tag %d", ErrInvalidInstruction, tag)
	}
}

func (p *Program) createAccount(cc *runtime.CallContext, args *CreateAccountArgs) error {
	from, err := cc.Accounts.Next()
	if err != nil {
		return err
	}
	to, err := cc.Accounts.Next()
	if err != nil {
		return err
	}
	if err := authority.All(
		authority.Signer(from),
		authority.Writable(from),
		authority.Signer(to),
		authority.Writable(to),
	); err != nil {
		return err
	}
	if to.Owner != cc.ProgramID || len(to.Data) != 0 || to.Balance != 0 {
		return fmt.Errorf("%w: %s", ErrAccountAlreadyInUse, to.Address)
	}
	if args.Space > MaxPermittedDataLength {
		return fmt.Errorf("%w: %d > %d", ErrInvalidSpace, args.Space, MaxPermittedDataLength)
	}
	if err := move(from, to, args.Lamports); err != nil {
		return err
	}
	if err := to.Allocate(int(args.Space)); err != nil {
		return err
	}
	if err := to.Assign(args.Owner); err != nil {
		return err
	}
	p.log.Debug("created account",
		zap.Stringer("address", to.Address),
		zap.Stringer("owner", args.Owner),
		zap.Uint64("space", args.Space),
	)
	return nil
}

func (*Program) assign(cc *runtime.CallContext, args *AssignArgs) error {
	target, err := cc.Accounts.Next()
	if err != nil {
		return err
	}
	if err := authority.Signer(target).Check(); err != nil {
		return err
	}
	if target.Owner == args.Owner {
		return nil
	}
	if err := authority.Owner(target, cc.ProgramID).Check(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOwner, err)
	}
	return target.Assign(args.Owner)
}

func (*Program) transfer(cc *runtime.CallContext, args *TransferArgs) error {
	from, err := cc.Accounts.Next()
	if err != nil {
		return err
	}
	to, err := cc.Accounts.Next()
	if err != nil {
		return err
	}
	if err := authority.All(
		authority.Signer(from),
		authority.Writable(from),
		authority.Writable(to),
	); err != nil {
		return err
	}
	if len(from.Data) != 0 {
		return fmt.Errorf("%w: %s", ErrFromMustNotCarryData, from.Address)
	}
	if err := authority.Owner(from, cc.ProgramID).Check(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOwner, err)
	}
	return move(from, to, args.Lamports)
}

// move debits [from] and credits [to]. Nothing changes unless both sides
// succeed.
func move(from, to *account.Account, lamports uint64) error {
	if from == to {
		if from.Balance < lamports {
			return fmt.Errorf("%w: %d < %d", ErrInsufficientFunds, from.Balance, lamports)
		}
		return nil
	}
	debited, err := smath.Sub(from.Balance, lamports)
	if err != nil {
		return fmt.Errorf("%w: %d < %d", ErrInsufficientFunds, from.Balance, lamports)
	}
	credited, err := smath.Add64(to.Balance, lamports)
	if err != nil {
		return err
	}
	if err := from.SetBalance(debited); err != nil {
		return err
	}
	return to.SetBalance(credited)
}
