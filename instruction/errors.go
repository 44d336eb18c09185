// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package instruction

import "errors"

var (
	ErrMalformedInstruction = errors.New("malformed instruction")
	ErrEmptyInstruction     = errors.New("empty instruction")
	ErrUnknownOpcode        = errors.New("unknown opcode")
	ErrInvalidPayload       = errors.New("invalid payload")
	ErrValueTooLarge        = errors.New("value does not fit counter width")
	ErrInvalidWidth         = errors.New("invalid counter width")
)
