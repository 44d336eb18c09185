// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package counter

import (
	"github.com/ava-labs/hyperprog/instruction"

	smath "github.com/ava-labs/avalanchego/utils/math"
)

// Apply returns the state after [ix]. Increment saturates at the width's
// maximum and Decrement at zero; neither wraps.
func Apply(s State, ix *instruction.Instruction, w instruction.Width) State {
	switch ix.Opcode {
	case instruction.Increment:
		v, err := smath.Add64(s.Value, ix.Value)
		if err != nil || v > w.Max() {
			v = w.Max()
		}
		s.Value = v
	case instruction.Decrement:
		v, err := smath.Sub(s.Value, ix.Value)
		if err != nil {
			v = 0
		}
		s.Value = v
	case instruction.Update:
		s.Value = ix.Value
	case instruction.Reset:
		s.Value = 0
	}
	return s
}
