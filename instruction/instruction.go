// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package instruction

import (
	"fmt"

	"github.com/ava-labs/hyperprog/codec"
	"github.com/ava-labs/hyperprog/consts"
)

// Opcode is the first byte of every counter instruction.
type Opcode uint8

const (
	Increment Opcode = iota
	Decrement
	Update
	Reset
)

func (o Opcode) String() string {
	switch o {
	case Increment:
		return "increment"
	case Decrement:
		return "decrement"
	case Update:
		return "update"
	case Reset:
		return "reset"
	default:
		return fmt.Sprintf("opcode(%d)", uint8(o))
	}
}

// HasPayload reports whether [o] carries a value.
func (o Opcode) HasPayload() bool {
	return o == Increment || o == Decrement || o == Update
}

func (o Opcode) valid() bool {
	return o <= Reset
}

// Width is the byte size of the counter, and therefore of every payload.
type Width uint8

const (
	Width32 Width = consts.Uint32Len
	Width64 Width = consts.Uint64Len
)

// Valid reports whether [w] is a supported counter width.
func (w Width) Valid() bool {
	return w == Width32 || w == Width64
}

// Max is the largest value representable in [w].
func (w Width) Max() uint64 {
	if w == Width32 {
		return uint64(consts.MaxUint32)
	}
	return consts.MaxUint64
}

// Instruction is a decoded counter instruction. Value is zero for Reset.
type Instruction struct {
	Opcode Opcode
	Value  uint64
}

func NewIncrement(v uint64) *Instruction { return &Instruction{Opcode: Increment, Value: v} }

func NewDecrement(v uint64) *Instruction { return &Instruction{Opcode: Decrement, Value: v} }

func NewUpdate(v uint64) *Instruction { return &Instruction{Opcode: Update, Value: v} }

func NewReset() *Instruction { return &Instruction{Opcode: Reset} }

func (i *Instruction) String() string {
	if !i.Opcode.HasPayload() {
		return i.Opcode.String()
	}
	return fmt.Sprintf("%s(%d)", i.Opcode, i.Value)
}

func malformed(err error, format string, args ...any) error {
	return fmt.Errorf("%w: %w: %s", ErrMalformedInstruction, err, fmt.Sprintf(format, args...))
}

// Decode parses [b] as opcode || payload. The payload must be exactly [w]
// little-endian bytes for Increment, Decrement and Update, and empty for
// Reset.
func Decode(b []byte, w Width) (*Instruction, error) {
	if !w.Valid() {
		return nil, malformed(ErrInvalidWidth, "%d", w)
	}
	if len(b) == 0 {
		return nil, malformed(ErrEmptyInstruction, "no opcode")
	}
	op, payload := Opcode(b[0]), b[1:]
	if !op.valid() {
		return nil, malformed(ErrUnknownOpcode, "%d", b[0])
	}
	if !op.HasPayload() {
		if len(payload) != 0 {
			return nil, malformed(ErrInvalidPayload, "%s takes no payload, got %d bytes", op, len(payload))
		}
		return &Instruction{Opcode: op}, nil
	}

	var value uint64
	switch w {
	case Width32:
		v, err := codec.DeserializeExact[uint32](payload, int(w))
		if err != nil {
			return nil, malformed(ErrInvalidPayload, "%s: %v", op, err)
		}
		value = uint64(*v)
	case Width64:
		v, err := codec.DeserializeExact[uint64](payload, int(w))
		if err != nil {
			return nil, malformed(ErrInvalidPayload, "%s: %v", op, err)
		}
		value = *v
	}
	return &Instruction{Opcode: op, Value: value}, nil
}

// Encode is the inverse of Decode.
func Encode(i *Instruction, w Width) ([]byte, error) {
	if !w.Valid() {
		return nil, malformed(ErrInvalidWidth, "%d", w)
	}
	if !i.Opcode.valid() {
		return nil, malformed(ErrUnknownOpcode, "%d", uint8(i.Opcode))
	}
	if !i.Opcode.HasPayload() {
		if i.Value != 0 {
			return nil, malformed(ErrInvalidPayload, "%s takes no value", i.Opcode)
		}
		return []byte{byte(i.Opcode)}, nil
	}
	if i.Value > w.Max() {
		return nil, malformed(ErrValueTooLarge, "%d > %d", i.Value, w.Max())
	}

	var (
		payload []byte
		err     error
	)
	if w == Width32 {
		payload, err = codec.Serialize(uint32(i.Value))
	} else {
		payload, err = codec.Serialize(i.Value)
	}
	if err != nil {
		return nil, err
	}
	b := make([]byte, 0, 1+len(payload))
	b = append(b, byte(i.Opcode))
	return append(b, payload...), nil
}

// MustEncode is Encode for instructions known to be valid.
func MustEncode(i *Instruction, w Width) []byte {
	b, err := Encode(i, w)
	if err != nil {
		panic(err)
	}
	return b
}
