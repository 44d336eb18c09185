// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package transfer

import (
	"context"

	"github.com/ava-labs/hyperprog/codec"
	"github.com/ava-labs/hyperprog/runtime"
	"github.com/ava-labs/hyperprog/token"
)

var _ Transferer = (*CPITransferer)(nil)

// TransferChecked names every account of a checked token transfer.
type TransferChecked struct {
	TokenProgram codec.Address
	Source       codec.Address
	Mint         codec.Address
	Destination  codec.Address
	Authority    codec.Address
	TransferRequest
}

// Transferer moves tokens on behalf of the calling program. [signerSeeds]
// prove the caller controls Authority.
type Transferer interface {
	TransferChecked(ctx context.Context, req *TransferChecked, signerSeeds [][][]byte) error
}

// CPITransferer performs the transfer as a cross-program invocation of the
// token program.
type CPITransferer struct {
	Invoker runtime.Invoker
}

func (c *CPITransferer) TransferChecked(ctx context.Context, req *TransferChecked, signerSeeds [][][]byte) error {
	ix, err := token.NewTransferChecked(
		req.TokenProgram,
		req.Source,
		req.Mint,
		req.Destination,
		req.Authority,
		req.Amount,
		req.Decimals,
	)
	if err != nil {
		return err
	}
	return c.Invoker.InvokeSigned(ctx, ix, signerSeeds)
}
