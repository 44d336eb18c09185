// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ata

import (
	"errors"

	"github.com/ava-labs/hyperprog/authority"
)

var (
	ErrInvalidInstruction = errors.New("invalid associated token instruction")
	ErrIncorrectProgramID = errors.New("incorrect program id")
	ErrAccountExists      = errors.New("associated token account already exists")
	ErrAccountMismatch    = errors.New("existing token account does not match wallet and mint")

	ErrInvalidSeeds = authority.ErrInvalidSeeds
)
