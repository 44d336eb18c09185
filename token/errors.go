// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package token

import "errors"

var (
	ErrInvalidInstruction   = errors.New("invalid token instruction")
	ErrInvalidAccountData   = errors.New("invalid token account data")
	ErrUninitializedAccount = errors.New("uninitialized token account")
	ErrAlreadyInUse         = errors.New("token account already in use")
	ErrIncorrectProgramID   = errors.New("incorrect token program id")
	ErrMintMismatch         = errors.New("account not associated with this mint")
	ErrMintDecimalsMismatch = errors.New("mint decimals mismatch")
	ErrOwnerMismatch        = errors.New("owner does not match")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrAccountFrozen        = errors.New("account is frozen")
	ErrFixedSupply          = errors.New("mint has no mint authority")
	ErrOverflow             = errors.New("operation overflowed")
)
