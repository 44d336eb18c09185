// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package runtime

import (
	"context"

	"github.com/ava-labs/avalanchego/utils/logging"

	"github.com/ava-labs/hyperprog/account"
	"github.com/ava-labs/hyperprog/codec"
)

// DefaultEntry is the entry selected when a caller does not name one.
const DefaultEntry = ""

// Program is a state-transition component hosted by the Runtime.
type Program interface {
	Process(ctx context.Context, cc *CallContext) error
}

// ProgramFunc adapts a function to Program.
type ProgramFunc func(ctx context.Context, cc *CallContext) error

func (f ProgramFunc) Process(ctx context.Context, cc *CallContext) error {
	return f(ctx, cc)
}

// CallContext is everything a program sees during one invocation.
type CallContext struct {
	// ProgramID is the identity of the running program. Addresses the
	// program derives are derived from it.
	ProgramID codec.Address
	Accounts  *account.Context
	Data      []byte
	// Entry selects a handler on programs that expose more than one.
	Entry   string
	Invoker Invoker
	Log     logging.Logger
	Depth   int
}

// Instruction describes a cross-program invocation.
type Instruction struct {
	ProgramID codec.Address
	Entry     string
	Accounts  []account.Meta
	Data      []byte
}

// Invoker runs another program with a subset of the caller's accounts.
type Invoker interface {
	// Invoke calls [ix] with the caller's own privileges.
	Invoke(ctx context.Context, ix *Instruction) error
	// InvokeSigned additionally grants signer privileges to every address
	// derived from [signerSeeds] and the caller's program ID.
	InvokeSigned(ctx context.Context, ix *Instruction, signerSeeds [][][]byte) error
}
