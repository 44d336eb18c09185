// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package counter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ava-labs/hyperprog/instruction"
)

func TestApply(t *testing.T) {
	tests := []struct {
		name     string
		start    uint64
		ix       *instruction.Instruction
		width    instruction.Width
		expected uint64
	}{
		{
			name:     "increment",
			start:    1,
			ix:       instruction.NewIncrement(20),
			width:    instruction.Width64,
			expected: 21,
		},
		{
			name:     "increment saturates at u64",
			start:    math.MaxUint64 - 1,
			ix:       instruction.NewIncrement(5),
			width:    instruction.Width64,
			expected: math.MaxUint64,
		},
		{
			name:     "increment saturates at u32",
			start:    math.MaxUint32 - 1,
			ix:       instruction.NewIncrement(5),
			width:    instruction.Width32,
			expected: math.MaxUint32,
		},
		{
			name:     "decrement",
			start:    21,
			ix:       instruction.NewDecrement(20),
			width:    instruction.Width32,
			expected: 1,
		},
		{
			name:     "decrement floors at zero",
			start:    21,
			ix:       instruction.NewDecrement(22),
			width:    instruction.Width64,
			expected: 0,
		},
		{
			name:     "update",
			start:    3,
			ix:       instruction.NewUpdate(69),
			width:    instruction.Width64,
			expected: 69,
		},
		{
			name:     "reset",
			start:    69,
			ix:       instruction.NewReset(),
			width:    instruction.Width32,
			expected: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Apply(State{Value: tt.start}, tt.ix, tt.width)
			require.Equal(t, tt.expected, s.Value)
		})
	}
}

func TestApplyKeepsAuthority(t *testing.T) {
	s := State{Value: 1, Authority: [32]byte{1}}
	require.Equal(t, s.Authority, Apply(s, instruction.NewReset(), instruction.Width64).Authority)
}

func TestDecrementFloor(t *testing.T) {
	require := require.New(t)
	for v := uint64(0); v < 64; v += 7 {
		for n := v + 1; n < v+64; n += 5 {
			s := Apply(State{Value: v}, instruction.NewDecrement(n), instruction.Width32)
			require.Zero(s.Value, "value=%d n=%d", v, n)
		}
	}
}

func TestIncrementDecrementInverse(t *testing.T) {
	require := require.New(t)
	values := []uint64{0, 1, 21, 1 << 20, math.MaxUint32 - 100}
	amounts := []uint64{0, 1, 22, 100}
	for _, w := range []instruction.Width{instruction.Width32, instruction.Width64} {
		for _, v := range values {
			for _, n := range amounts {
				s := Apply(State{Value: v}, instruction.NewIncrement(n), w)
				s = Apply(s, instruction.NewDecrement(n), w)
				require.Equal(v, s.Value, "width=%d value=%d n=%d", w, v, n)
			}
		}
	}
}

func TestUpdateResetIdempotent(t *testing.T) {
	require := require.New(t)
	for _, ix := range []*instruction.Instruction{instruction.NewUpdate(69), instruction.NewReset()} {
		once := Apply(State{Value: 5}, ix, instruction.Width64)
		twice := Apply(once, ix, instruction.Width64)
		require.Equal(once, twice)
	}
}
