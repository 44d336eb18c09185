// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package instruction

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 21, 69, math.MaxUint32}
	for _, w := range []Width{Width32, Width64} {
		for _, v := range values {
			for _, ix := range []*Instruction{NewIncrement(v), NewDecrement(v), NewUpdate(v)} {
				require := require.New(t)
				b, err := Encode(ix, w)
				require.NoError(err)
				require.Len(b, 1+int(w))

				decoded, err := Decode(b, w)
				require.NoError(err)
				require.Equal(ix, decoded)
			}
		}
		b, err := Encode(NewReset(), w)
		require.NoError(t, err)
		require.Equal(t, []byte{byte(Reset)}, b)
		decoded, err := Decode(b, w)
		require.NoError(t, err)
		require.Equal(t, NewReset(), decoded)
	}

	b, err := Encode(NewUpdate(math.MaxUint64), Width64)
	require.NoError(t, err)
	decoded, err := Decode(b, Width64)
	require.NoError(t, err)
	require.Equal(t, uint64(math.MaxUint64), decoded.Value)
}

func TestDecodeWireFormat(t *testing.T) {
	require := require.New(t)

	ix, err := Decode([]byte{0, 21, 0, 0, 0}, Width32)
	require.NoError(err)
	require.Equal(NewIncrement(21), ix)

	ix, err = Decode([]byte{2, 69, 0, 0, 0, 0, 0, 0, 0}, Width64)
	require.NoError(err)
	require.Equal(NewUpdate(69), ix)

	ix, err = Decode([]byte{1, 0x01, 0x01, 0, 0}, Width32)
	require.NoError(err)
	require.Equal(NewDecrement(257), ix)
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name        string
		input       []byte
		width       Width
		expectedErr error
	}{
		{
			name:        "empty",
			input:       []byte{},
			width:       Width32,
			expectedErr: ErrEmptyInstruction,
		},
		{
			name:        "nil",
			input:       nil,
			width:       Width64,
			expectedErr: ErrEmptyInstruction,
		},
		{
			name:        "unknown opcode",
			input:       []byte{9, 1, 0, 0, 0},
			width:       Width32,
			expectedErr: ErrUnknownOpcode,
		},
		{
			name:        "opcode just past reset",
			input:       []byte{4},
			width:       Width32,
			expectedErr: ErrUnknownOpcode,
		},
		{
			name:        "missing payload",
			input:       []byte{0},
			width:       Width32,
			expectedErr: ErrInvalidPayload,
		},
		{
			name:        "short payload",
			input:       []byte{1, 1, 0, 0},
			width:       Width32,
			expectedErr: ErrInvalidPayload,
		},
		{
			name:        "long payload",
			input:       []byte{2, 1, 0, 0, 0, 0},
			width:       Width32,
			expectedErr: ErrInvalidPayload,
		},
		{
			name:        "narrow payload for wide counter",
			input:       []byte{2, 1, 0, 0, 0},
			width:       Width64,
			expectedErr: ErrInvalidPayload,
		},
		{
			name:        "reset with payload",
			input:       []byte{3, 0},
			width:       Width32,
			expectedErr: ErrInvalidPayload,
		},
		{
			name:        "unsupported width",
			input:       []byte{3},
			width:       Width(2),
			expectedErr: ErrInvalidWidth,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			_, err := Decode(tt.input, tt.width)
			require.ErrorIs(err, ErrMalformedInstruction)
			require.ErrorIs(err, tt.expectedErr)
		})
	}
}

func TestEncodeMalformed(t *testing.T) {
	require := require.New(t)

	_, err := Encode(NewIncrement(math.MaxUint32+1), Width32)
	require.ErrorIs(err, ErrMalformedInstruction)
	require.ErrorIs(err, ErrValueTooLarge)

	_, err = Encode(&Instruction{Opcode: 9}, Width32)
	require.ErrorIs(err, ErrUnknownOpcode)

	_, err = Encode(&Instruction{Opcode: Reset, Value: 1}, Width64)
	require.ErrorIs(err, ErrInvalidPayload)
}

func TestOpcodeString(t *testing.T) {
	require := require.New(t)
	require.Equal("increment(21)", NewIncrement(21).String())
	require.Equal("reset", NewReset().String())
	require.Equal("opcode(9)", Opcode(9).String())
}
