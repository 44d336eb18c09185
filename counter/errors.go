// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package counter

import (
	"errors"

	"github.com/ava-labs/hyperprog/runtime"
)

var (
	ErrInvalidAccountData = errors.New("invalid counter account data")
	ErrAlreadyInitialized = errors.New("counter already initialized")
	ErrInvalidMode        = errors.New("invalid counter mode")
	ErrIncorrectProgramID = errors.New("incorrect program id")

	ErrUnknownEntry = runtime.ErrUnknownEntry
)
