// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package transfer

import (
	"errors"

	"github.com/ava-labs/hyperprog/authority"
	"github.com/ava-labs/hyperprog/runtime"
)

var (
	ErrDownstreamTransferFailure = errors.New("downstream transfer failed")
	ErrInvalidInstructionData    = errors.New("invalid instruction data")
	ErrIncorrectProgramID        = errors.New("incorrect program id")
	ErrTokenAccountMismatch      = errors.New("token account does not match")
	ErrRecipientAccountCreation  = errors.New("unable to create recipient token account")

	ErrInvalidSeeds = authority.ErrInvalidSeeds
	ErrUnknownEntry = runtime.ErrUnknownEntry
)
