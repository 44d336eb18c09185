// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package transfer moves tokens out of accounts controlled by an address the
// program derives for itself, plus plain signer-based transfers of native
// value and tokens.
package transfer

import (
	"context"
	"fmt"

	"github.com/ava-labs/avalanchego/utils/logging"
	"go.uber.org/zap"

	"github.com/ava-labs/hyperprog/account"
	"github.com/ava-labs/hyperprog/ata"
	"github.com/ava-labs/hyperprog/authority"
	"github.com/ava-labs/hyperprog/codec"
	"github.com/ava-labs/hyperprog/pda"
	"github.com/ava-labs/hyperprog/runtime"
	"github.com/ava-labs/hyperprog/system"
	"github.com/ava-labs/hyperprog/token"
)

const (
	SolTransferEntry   = "sol_transfer"
	TokenTransferEntry = "token_transfer"
)

// AuthoritySeed is the only seed of the program's transfer authority.
var AuthoritySeed = []byte("authority")

var _ runtime.Program = (*Program)(nil)

type Config struct {
	TokenProgramID           codec.Address
	SystemProgramID          codec.Address
	AssociatedTokenProgramID codec.Address
}

type Option func(*Program)

// WithTransferer replaces the cross-program token transfer.
func WithTransferer(f func(runtime.Invoker) Transferer) Option {
	return func(p *Program) {
		p.transferer = f
	}
}

type Program struct {
	cfg        Config
	log        logging.Logger
	transferer func(runtime.Invoker) Transferer
}

func New(cfg Config, log logging.Logger, opts ...Option) *Program {
	p := &Program{
		cfg: cfg,
		log: log,
		transferer: func(invoker runtime.Invoker) Transferer {
			return &CPITransferer{Invoker: invoker}
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// AuthorityAddress returns the address [programID] signs for when moving
// tokens.
func AuthorityAddress(programID codec.Address) (codec.Address, error) {
	auth, err := pda.Find(AuthoritySeeds(), programID)
	if err != nil {
		return codec.EmptyAddress, err
	}
	return auth.Address, nil
}

func AuthoritySeeds() [][]byte {
	return [][]byte{AuthoritySeed}
}

func (p *Program) Process(ctx context.Context, cc *runtime.CallContext) error {
	switch cc.Entry {
	case runtime.DefaultEntry:
		return p.derivedTransfer(ctx, cc)
	case SolTransferEntry:
		return p.solTransfer(ctx, cc)
	case TokenTransferEntry:
		return p.tokenTransfer(ctx, cc)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEntry, cc.Entry)
	}
}

func (p *Program) checkProgram(acct *account.Account, expected codec.Address) error {
	if acct.Address != expected {
		return fmt.Errorf("%w: expected %s, got %s", ErrIncorrectProgramID, expected, acct.Address)
	}
	return nil
}

func readMint(acct *account.Account, tokenProgram codec.Address) (*token.Mint, error) {
	if acct.Owner != tokenProgram {
		return nil, fmt.Errorf("%w: mint %s owned by %s", ErrIncorrectProgramID, acct.Address, acct.Owner)
	}
	data, release, err := acct.BorrowData()
	if err != nil {
		return nil, err
	}
	defer release()
	return token.UnpackMint(data)
}

func readTokenAccount(acct *account.Account, tokenProgram codec.Address) (*token.Account, error) {
	if acct.Owner != tokenProgram {
		return nil, fmt.Errorf("%w: token account %s owned by %s", ErrIncorrectProgramID, acct.Address, acct.Owner)
	}
	data, release, err := acct.BorrowData()
	if err != nil {
		return nil, err
	}
	defer release()
	return token.UnpackAccount(data)
}

// derivedTransfer moves tokens out of an account owned by the program's
// derived authority. Accounts: source, mint, destination, authority, token
// program.
func (p *Program) derivedTransfer(ctx context.Context, cc *runtime.CallContext) error {
	source, err := cc.Accounts.Next()
	if err != nil {
		return err
	}
	mint, err := cc.Accounts.Next()
	if err != nil {
		return err
	}
	destination, err := cc.Accounts.Next()
	if err != nil {
		return err
	}
	authAcct, err := cc.Accounts.Next()
	if err != nil {
		return err
	}
	tokenProgram, err := cc.Accounts.Next()
	if err != nil {
		return err
	}

	derived := authority.Derived(authAcct, AuthoritySeeds(), cc.ProgramID)
	if err := authority.All(
		derived,
		authority.Writable(source),
		authority.Writable(destination),
	); err != nil {
		return err
	}
	auth := derived.Authority
	args, err := DecodeArgs(cc.Data)
	if err != nil {
		return err
	}
	if err := p.checkProgram(tokenProgram, p.cfg.TokenProgramID); err != nil {
		return err
	}
	m, err := readMint(mint, tokenProgram.Address)
	if err != nil {
		return err
	}

	req := &TransferChecked{
		TokenProgram: tokenProgram.Address,
		Source:       source.Address,
		Mint:         mint.Address,
		Destination:  destination.Address,
		Authority:    auth.Address,
		TransferRequest: TransferRequest{
			Amount:   args.Amount,
			Decimals: m.Decimals,
		},
	}
	if err := p.transferer(cc.Invoker).TransferChecked(ctx, req, [][][]byte{auth.SignerSeeds()}); err != nil {
		return fmt.Errorf("%w: %w", ErrDownstreamTransferFailure, err)
	}
	p.log.Debug("derived transfer",
		zap.Stringer("source", source.Address),
		zap.Stringer("destination", destination.Address),
		zap.Uint64("amount", args.Amount),
		zap.Uint8("decimals", m.Decimals),
		zap.Uint8("bump", auth.Bump),
	)
	return nil
}

// solTransfer moves native value between two accounts. Accounts: from
// (signer), to, system program.
func (p *Program) solTransfer(ctx context.Context, cc *runtime.CallContext) error {
	args, err := DecodeArgs(cc.Data)
	if err != nil {
		return err
	}
	from, err := cc.Accounts.Next()
	if err != nil {
		return err
	}
	to, err := cc.Accounts.Next()
	if err != nil {
		return err
	}
	systemProgram, err := cc.Accounts.Next()
	if err != nil {
		return err
	}

	if err := p.checkProgram(systemProgram, p.cfg.SystemProgramID); err != nil {
		return err
	}
	if err := authority.All(
		authority.Signer(from),
		authority.Writable(from),
		authority.Writable(to),
	); err != nil {
		return err
	}

	ix, err := system.NewTransfer(systemProgram.Address, from.Address, to.Address, args.Amount)
	if err != nil {
		return err
	}
	if err := cc.Invoker.Invoke(ctx, ix); err != nil {
		return fmt.Errorf("%w: %w", ErrDownstreamTransferFailure, err)
	}
	p.log.Debug("native transfer",
		zap.Stringer("from", from.Address),
		zap.Stringer("to", to.Address),
		zap.Uint64("amount", args.Amount),
	)
	return nil
}

// tokenTransfer moves tokens between the associated token accounts of two
// wallets, creating the recipient's account at the sender's expense when it
// does not exist yet. Accounts: sender (signer), recipient, mint, sender
// token account, recipient token account, token program, associated token
// program, system program.
func (p *Program) tokenTransfer(ctx context.Context, cc *runtime.CallContext) error {
	args, err := DecodeArgs(cc.Data)
	if err != nil {
		return err
	}
	accts := make([]*account.Account, 8)
	for i := range accts {
		if accts[i], err = cc.Accounts.Next(); err != nil {
			return err
		}
	}
	sender, recipient, mint, senderToken, recipientToken := accts[0], accts[1], accts[2], accts[3], accts[4]
	tokenProgram, ataProgram, systemProgram := accts[5], accts[6], accts[7]

	for _, check := range []struct {
		acct     *account.Account
		expected codec.Address
	}{
		{acct: tokenProgram, expected: p.cfg.TokenProgramID},
		{acct: ataProgram, expected: p.cfg.AssociatedTokenProgramID},
		{acct: systemProgram, expected: p.cfg.SystemProgramID},
	} {
		if err := p.checkProgram(check.acct, check.expected); err != nil {
			return err
		}
	}
	if err := authority.Signer(sender).Check(); err != nil {
		return err
	}
	m, err := readMint(mint, tokenProgram.Address)
	if err != nil {
		return err
	}
	pairs := []struct {
		wallet *account.Account
		token  *account.Account
	}{
		{wallet: sender, token: senderToken},
		{wallet: recipient, token: recipientToken},
	}
	for _, pair := range pairs {
		addr, err := ata.Address(ataProgram.Address, pair.wallet.Address, tokenProgram.Address, mint.Address)
		if err != nil {
			return err
		}
		if pair.token.Address != addr {
			return fmt.Errorf("%w: %s is not the associated %s account of %s", ErrTokenAccountMismatch, pair.token.Address, mint.Address, pair.wallet.Address)
		}
	}

	if recipientToken.Owner != tokenProgram.Address {
		ix, err := ata.NewCreate(ataProgram.Address, sender.Address, recipient.Address, mint.Address, systemProgram.Address, tokenProgram.Address, true)
		if err != nil {
			return err
		}
		if err := cc.Invoker.Invoke(ctx, ix); err != nil {
			return fmt.Errorf("%w: %w", ErrRecipientAccountCreation, err)
		}
		p.log.Debug("created recipient token account",
			zap.Stringer("recipient", recipient.Address),
			zap.Stringer("account", recipientToken.Address),
		)
	}
	for _, pair := range pairs {
		ta, err := readTokenAccount(pair.token, tokenProgram.Address)
		if err != nil {
			return err
		}
		if ta.Mint != mint.Address || ta.Owner != pair.wallet.Address {
			return fmt.Errorf("%w: %s is not the %s account of %s", ErrTokenAccountMismatch, pair.token.Address, mint.Address, pair.wallet.Address)
		}
	}

	ix, err := token.NewTransferChecked(tokenProgram.Address, senderToken.Address, mint.Address, recipientToken.Address, sender.Address, args.Amount, m.Decimals)
	if err != nil {
		return err
	}
	if err := cc.Invoker.Invoke(ctx, ix); err != nil {
		return fmt.Errorf("%w: %w", ErrDownstreamTransferFailure, err)
	}
	p.log.Debug("token transfer",
		zap.Stringer("sender", sender.Address),
		zap.Stringer("recipient", recipient.Address),
		zap.Uint64("amount", args.Amount),
	)
	return nil
}
