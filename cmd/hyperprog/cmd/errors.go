// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import "errors"

var (
	ErrEmptyPlan           = errors.New("plan has no steps")
	ErrInvalidOp           = errors.New("invalid step op")
	ErrInvalidSigner       = errors.New("invalid step signer")
	ErrAssertionFailed     = errors.New("assertion failed")
	ErrInvalidConfigFormat = errors.New("plan is neither JSON nor YAML")
)
