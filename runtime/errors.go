// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package runtime

import "errors"

var (
	ErrUnknownProgram      = errors.New("unknown program")
	ErrProgramRegistered   = errors.New("program already registered")
	ErrMaxDepthExceeded    = errors.New("max invoke depth exceeded")
	ErrPrivilegeEscalation = errors.New("privilege escalation")
	ErrUnknownEntry        = errors.New("unknown entry")
	ErrMissingSignature    = errors.New("missing signature")
	ErrInvalidSignature    = errors.New("invalid signature")
)
