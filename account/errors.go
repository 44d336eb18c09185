// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package account

import "errors"

var (
	ErrMissingAccount     = errors.New("missing account")
	ErrAccountBorrowed    = errors.New("account data already borrowed")
	ErrAccountNotWritable = errors.New("account is not writable")
)
