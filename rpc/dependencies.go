// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"context"

	"github.com/ava-labs/avalanchego/trace"
	"github.com/ava-labs/avalanchego/utils/logging"

	"github.com/ava-labs/hyperprog/account"
	"github.com/ava-labs/hyperprog/codec"
	"github.com/ava-labs/hyperprog/counter"
	"github.com/ava-labs/hyperprog/runtime"
)

type Node interface {
	Logger() logging.Logger
	Tracer() trace.Tracer
	Programs() []codec.Address
	ProgramName(id codec.Address) (string, bool)
	CounterLayout() counter.Layout
	GetAccount(ctx context.Context, addr codec.Address) (*account.Account, error)
	Execute(ctx context.Context, tx *runtime.Transaction) error
	Stats() (executed uint64, failed uint64)
}
