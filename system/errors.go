// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package system

import "errors"

var (
	ErrInvalidInstruction   = errors.New("invalid system instruction")
	ErrAccountAlreadyInUse  = errors.New("account already in use")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInvalidSpace         = errors.New("requested space too large")
	ErrFromMustNotCarryData = errors.New("from account must not carry data")
	ErrInvalidOwner         = errors.New("account not owned by the system program")
)
