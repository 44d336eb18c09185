// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package token implements the subset of the SPL token program that
// delegated transfers rely on.
package token

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
	if len(cc.Data) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidInstruction)
	}
	switch cc.Data[0] {
	case InitializeMint2:
		args, err := decodeInitializeMint(cc.Data)
		if err != nil {
			return err
		}
		return p.initializeMint(cc, args)
	case InitializeAccount3:
		args, err := decode[initializeAccountArgs](cc.Data, initializeAccountSize)
		if err != nil {
			return err
		}
		return p.initializeAccount(cc, args)
	case MintTo:
		args, err := decode[amountArgs](cc.Data, amountArgsSize)
		if err != nil {
			return err
		}
		return p.mintTo(cc, args.Amount)
	case Transfer:
		args, err := decode[amountArgs](cc.Data, amountArgsSize)
		if err != nil {
			return err
		}
		return p.transfer(cc, args.Amount, nil)
	case TransferChecked:
		args, err := decode[transferCheckedArgs](cc.Data, transferCheckedArgsSize)
		if err != nil {
			return err
		}
		return p.transfer(cc, args.Amount, &args.Decimals)
	default:
		return fmt.Errorf("%w: unknown tag %d", ErrInvalidInstruction, cc.Data[0])
	}
}

func owned(cc *runtime.CallContext, a *account.Account) error {
	if a.Owner != cc.ProgramID {
		return fmt.Errorf("%w: %s is owned by %s", ErrIncorrectProgramID, a.Address, a.Owner)
	}
	return nil
}

func read[T any](cc *runtime.CallContext, a *account.Account, unpack func([]byte) (*T, error)) (*T, error) {
	if err := owned(cc, a); err != nil {
		return nil, err
	}
	data, release, err := a.BorrowData()
	if err != nil {
		return nil, err
	}
	defer release()
	return unpack(data)
}

func write(a *account.Account, packed []byte) error {
	data, release, err := a.BorrowMutData()
	if err != nil {
		return err
	}
	defer release()
	copy(data, packed)
	return nil
}

func (*Program) initializeMint(cc *runtime.CallContext, args *initializeMintArgs) error {
	mintAcct, err := cc.Accounts.Next()
	if err != nil {
		return err
	}
	existing, err := read(cc, mintAcct, func(b []byte) (*Mint, error) { return unpack[Mint](b, MintSize) })
	if err != nil {
		return err
	}
	if existing.IsInitialized {
		return fmt.Errorf("%w: %s", ErrAlreadyInUse, mintAcct.Address)
	}

	mint := &Mint{
		MintAuthorityOption: some,
		MintAuthority:       args.MintAuthority,
		Decimals:            args.Decimals,
		IsInitialized:       true,
	}
	if args.FreezeAuthority != nil {
		mint.FreezeAuthorityOption = some
		mint.FreezeAuthority = *args.FreezeAuthority
	}
	packed, err := PackMint(mint)
	if err != nil {
		return err
	}
	return write(mintAcct, packed)
}

func (*Program) initializeAccount(cc *runtime.CallContext, args *initializeAccountArgs) error {
	tokenAcct, err := cc.Accounts.Next()
	if err != nil {
		return err
	}
	mintAcct, err := cc.Accounts.Next()
	if err != nil {
		return err
	}
	existing, err := read(cc, tokenAcct, func(b []byte) (*Account, error) { return unpack[Account](b, AccountSize) })
	if err != nil {
		return err
	}
	if existing.State != Uninitialized {
		return fmt.Errorf("%w: %s", ErrAlreadyInUse, tokenAcct.Address)
	}
	if _, err := read(cc, mintAcct, UnpackMint); err != nil {
		return err
	}

	packed, err := PackAccount(&Account{
		Mint:  mintAcct.Address,
		Owner: args.Owner,
		State: Initialized,
	})
	if err != nil {
		return err
	}
	return write(tokenAcct, packed)
}

func (*Program) mintTo(cc *runtime.CallContext, amount uint64) error {
	mintAcct, err := cc.Accounts.Next()
	if err != nil {
		return err
	}
	destAcct, err := cc.Accounts.Next()
	if err != nil {
		return err
	}
	authAcct, err := cc.Accounts.Next()
	if err != nil {
		return err
	}

	mint, err := read(cc, mintAcct, UnpackMint)
	if err != nil {
		return err
	}
	dest, err := read(cc, destAcct, UnpackAccount)
	if err != nil {
		return err
	}
	if dest.IsFrozen() {
		return fmt.Errorf("%w: %s", ErrAccountFrozen, destAcct.Address)
	}
	if dest.Mint != mintAcct.Address {
		return fmt.Errorf("%w: %s", ErrMintMismatch, destAcct.Address)
	}
	if !mint.HasMintAuthority() {
		return ErrFixedSupply
	}
	if authAcct.Address != mint.MintAuthority {
		return fmt.Errorf("%w: mint authority is %s", ErrOwnerMismatch, mint.MintAuthority)
	}
	if err := authority.All(
		authority.Signer(authAcct),
		authority.Writable(mintAcct),
		authority.Writable(destAcct),
	); err != nil {
		return err
	}

	if mint.Supply, err = smath.Add64(mint.Supply, amount); err != nil {
		return fmt.Errorf("%w: supply", ErrOverflow)
	}
	if dest.Amount, err = smath.Add64(dest.Amount, amount); err != nil {
		return fmt.Errorf("%w: amount", ErrOverflow)
	}
	packedMint, err := PackMint(mint)
	if err != nil {
		return err
	}
	packedDest, err := PackAccount(dest)
	if err != nil {
		return err
	}
	if err := write(mintAcct, packedMint); err != nil {
		return err
	}
	return write(destAcct, packedDest)
}

// transfer handles Transfer and, when [decimals] is set, TransferChecked,
// which also names the mint.
func (p *Program) transfer(cc *runtime.CallContext, amount uint64, decimals *uint8) error {
	srcAcct, err := cc.Accounts.Next()
	if err != nil {
		return err
	}
	var mintAcct *account.Account
	if decimals != nil {
		if mintAcct, err = cc.Accounts.Next(); err != nil {
			return err
		}
	}
	dstAcct, err := cc.Accounts.Next()
	if err != nil {
		return err
	}
	authAcct, err := cc.Accounts.Next()
	if err != nil {
		return err
	}

	src, err := read(cc, srcAcct, UnpackAccount)
	if err != nil {
		return err
	}
	dst, err := read(cc, dstAcct, UnpackAccount)
	if err != nil {
		return err
	}
	if src.IsFrozen() || dst.IsFrozen() {
		return ErrAccountFrozen
	}
	if src.Mint != dst.Mint {
		return fmt.Errorf("%w: %s and %s", ErrMintMismatch, src.Mint, dst.Mint)
	}
	if decimals != nil {
		if mintAcct.Address != src.Mint {
			return fmt.Errorf("%w: %s", ErrMintMismatch, mintAcct.Address)
		}
		mint, err := read(cc, mintAcct, UnpackMint)
		if err != nil {
			return err
		}
		if *decimals != mint.Decimals {
			return fmt.Errorf("%w: expected %d, got %d", ErrMintDecimalsMismatch, mint.Decimals, *decimals)
		}
	}
	if authAcct.Address != src.Owner {
		return fmt.Errorf("%w: %s owns %s, not %s", ErrOwnerMismatch, src.Owner, srcAcct.Address, authAcct.Address)
	}
	if err := authority.All(
		authority.Signer(authAcct),
		authority.Writable(srcAcct),
		authority.Writable(dstAcct),
	); err != nil {
		return err
	}
	if src.Amount, err = smath.Sub(src.Amount, amount); err != nil {
		return fmt.Errorf("%w: %s", ErrInsufficientFunds, srcAcct.Address)
	}
	if srcAcct.Address == dstAcct.Address {
		return nil
	}
	if dst.Amount, err = smath.Add64(dst.Amount, amount); err != nil {
		return fmt.Errorf("%w: amount", ErrOverflow)
	}

	packedSrc, err := PackAccount(src)
	if err != nil {
		return err
	}
	packedDst, err := PackAccount(dst)
	if err != nil {
		return err
	}
	if err := write(srcAcct, packedSrc); err != nil {
		return err
	}
	if err := write(dstAcct, packedDst); err != nil {
		return err
	}
	p.log.Debug("transferred tokens",
		zap.Stringer("source", srcAcct.Address),
		zap.Stringer("destination", dstAcct.Address),
		zap.Uint64("amount", amount),
	)
	return nil
}
