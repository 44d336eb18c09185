// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package counter

import (
	"context"
	"fmt"

	"github.com/ava-labs/avalanchego/utils/logging"
	"go.uber.org/zap"

	"github.com/ava-labs/hyperprog/account"
	"github.com/ava-labs/hyperprog/authority"
	"github.com/ava-labs/hyperprog/codec"
	"github.com/ava-labs/hyperprog/instruction"
	"github.com/ava-labs/hyperprog/runtime"
	"github.com/ava-labs/hyperprog/system"
)

// InitializeEntry creates a counter. Every other instruction goes through
// the default entry.
const InitializeEntry = "initialize"

var _ runtime.Program = (*Program)(nil)

type Config struct {
	Mode            Mode
	Width           instruction.Width
	SystemProgramID codec.Address
}

type Program struct {
	layout          Layout
	systemProgramID codec.Address
	log             logging.Logger
}

func New(cfg Config, log logging.Logger) (*Program, error) {
	if !cfg.Width.Valid() {
		return nil, fmt.Errorf("%w: %d", instruction.ErrInvalidWidth, cfg.Width)
	}
	switch cfg.Mode {
	case Validated:
	case Unvalidated:
		log.Warn("counter authority is not enforced, any caller may mutate any counter",
			zap.Stringer("mode", cfg.Mode),
		)
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidMode, cfg.Mode)
	}
	return &Program{
		layout:          Layout{Mode: cfg.Mode, Width: cfg.Width},
		systemProgramID: cfg.SystemProgramID,
		log:             log,
	}, nil
}

func (p *Program) Layout() Layout {
	return p.layout
}

func (p *Program) Process(ctx context.Context, cc *runtime.CallContext) error {
	switch cc.Entry {
	case runtime.DefaultEntry:
		return p.update(cc)
	case InitializeEntry:
		return p.initialize(ctx, cc)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEntry, cc.Entry)
	}
}

func (p *Program) read(a *account.Account) (*State, error) {
	data, release, err := a.BorrowData()
	if err != nil {
		return nil, err
	}
	defer release()
	return p.layout.Decode(data)
}

func (p *Program) write(a *account.Account, s *State) error {
	encoded, err := p.layout.Encode(s)
	if err != nil {
		return err
	}
	data, release, err := a.BorrowMutData()
	if err != nil {
		return err
	}
	defer release()
	copy(data, encoded)
	return nil
}

// update applies one instruction. Accounts: counter, then the authority in
// validated mode.
func (p *Program) update(cc *runtime.CallContext) error {
	cc.Log.Debug("gm!", zap.Stringer("program", cc.ProgramID))

	ix, err := instruction.Decode(cc.Data, p.layout.Width)
	if err != nil {
		return err
	}

	counterAcct, err := cc.Accounts.Next()
	if err != nil {
		return err
	}
	var authAcct *account.Account
	if p.layout.Mode == Validated {
		if authAcct, err = cc.Accounts.Next(); err != nil {
			return err
		}
	}

	if err := authority.All(
		authority.Owner(counterAcct, cc.ProgramID),
		authority.Writable(counterAcct),
	); err != nil {
		return err
	}
	state, err := p.read(counterAcct)
	if err != nil {
		return err
	}
	if p.layout.Mode == Validated {
		if err := authority.HasOne(authAcct, state.Authority).Check(); err != nil {
			return err
		}
	}

	next := Apply(*state, ix, p.layout.Width)
	if err := p.write(counterAcct, &next); err != nil {
		return err
	}
	p.log.Debug("counter updated",
		zap.Stringer("counter", counterAcct.Address),
		zap.Stringer("instruction", ix),
		zap.Uint64("value", next.Value),
	)
	return nil
}

// initialize creates the counter account through the system program and
// records the payer as its authority. Accounts: counter, payer, system
// program.
func (p *Program) initialize(ctx context.Context, cc *runtime.CallContext) error {
	counterAcct, err := cc.Accounts.Next()
	if err != nil {
		return err
	}
	payer, err := cc.Accounts.Next()
	if err != nil {
		return err
	}
	systemAcct, err := cc.Accounts.Next()
	if err != nil {
		return err
	}

	if systemAcct.Address != p.systemProgramID {
		return fmt.Errorf("%w: expected system program %s, got %s", ErrIncorrectProgramID, p.systemProgramID, systemAcct.Address)
	}
	if counterAcct.Owner == cc.ProgramID {
		return fmt.Errorf("%w: %s", ErrAlreadyInitialized, counterAcct.Address)
	}
	if err := authority.All(
		authority.Signer(payer),
		authority.Writable(payer),
		authority.Signer(counterAcct),
		authority.Writable(counterAcct),
	); err != nil {
		return err
	}

	create, err := system.NewCreateAccount(p.systemProgramID, payer.Address, counterAcct.Address, 0, uint64(p.layout.Size()), cc.ProgramID)
	if err != nil {
		return err
	}
	if err := cc.Invoker.Invoke(ctx, create); err != nil {
		return err
	}

	state := &State{}
	if p.layout.Mode == Validated {
		state.Authority = payer.Address
	}
	if err := p.write(counterAcct, state); err != nil {
		return err
	}
	p.log.Debug("counter initialized",
		zap.Stringer("counter", counterAcct.Address),
		zap.Stringer("authority", state.Authority),
		zap.Stringer("mode", p.layout.Mode),
	)
	return nil
}
