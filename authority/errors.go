// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package authority

import (
	"errors"

	"github.com/ava-labs/hyperprog/account"
	"github.com/ava-labs/hyperprog/pda"
)

var (
	ErrSignerIsNotAuthority     = errors.New("signer is not authority")
	ErrMissingRequiredSignature = errors.New("missing required signature")
	ErrIllegalOwner             = errors.New("account is not owned by program")

	// Re-exported so callers can match every validation failure from here.
	ErrInvalidSeeds       = pda.ErrInvalidSeeds
	ErrAccountNotWritable = account.ErrAccountNotWritable
)
