// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pda

import "errors"

var (
	ErrInvalidSeeds   = errors.New("invalid seeds")
	ErrOnCurve        = errors.New("derived address is on the ed25519 curve")
	ErrNoViableBump   = errors.New("unable to find a viable bump seed")
	ErrTooManySeeds   = errors.New("too many seeds")
	ErrSeedTooLong    = errors.New("seed too long")
	ErrMissingOnCurve = errors.New("deriver has no curve predicate")
)
