// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package counter

import (
	"bytes"
	"fmt"

	"github.com/ava-labs/avalanchego/utils/hashing"

	"github.com/ava-labs/hyperprog/codec"
	"github.com/ava-labs/hyperprog/consts"
	"github.com/ava-labs/hyperprog/instruction"
)

// Mode selects the persisted layout and whether an authority is enforced.
type Mode uint8

const (
	// Validated records an authority next to the value and requires it to
	// sign every mutation.
	Validated Mode = iota
	// Unvalidated stores the bare value. Any caller may mutate it.
	Unvalidated
)

func (m Mode) String() string {
	switch m {
	case Validated:
		return "validated"
	case Unvalidated:
		return "unvalidated"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

func ParseMode(s string) (Mode, error) {
	switch s {
	case "validated":
		return Validated, nil
	case "unvalidated":
		return Unvalidated, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// Discriminator tags validated counter accounts.
var Discriminator = discriminator("CounterAccount")

func discriminator(name string) [consts.DiscriminatorLen]byte {
	h := hashing.ComputeHash256Array([]byte("account:" + name))
	var d [consts.DiscriminatorLen]byte
	copy(d[:], h[:consts.DiscriminatorLen])
	return d
}

// State is the decoded counter. Authority is empty in unvalidated mode.
type State struct {
	Value     uint64
	Authority codec.Address
}

// Layout is the fixed byte layout of a counter account:
//
//	validated:   discriminator | value | authority
//	unvalidated: value
//
// The value is little-endian and Width bytes wide.
type Layout struct {
	Mode  Mode
	Width instruction.Width
}

func (l Layout) Size() int {
	if l.Mode == Unvalidated {
		return int(l.Width)
	}
	return consts.DiscriminatorLen + int(l.Width) + consts.AddressLen
}

func (l Layout) encodeValue(v uint64) ([]byte, error) {
	if v > l.Width.Max() {
		return nil, fmt.Errorf("%w: %d does not fit in %d bytes", ErrInvalidAccountData, v, l.Width)
	}
	if l.Width == instruction.Width32 {
		return codec.Serialize(uint32(v))
	}
	return codec.Serialize(v)
}

func (l Layout) decodeValue(b []byte) (uint64, error) {
	if l.Width == instruction.Width32 {
		v, err := codec.DeserializeExact[uint32](b, int(l.Width))
		if err != nil {
			return 0, err
		}
		return uint64(*v), nil
	}
	v, err := codec.DeserializeExact[uint64](b, int(l.Width))
	if err != nil {
		return 0, err
	}
	return *v, nil
}

func (l Layout) Encode(s *State) ([]byte, error) {
	value, err := l.encodeValue(s.Value)
	if err != nil {
		return nil, err
	}
	if l.Mode == Unvalidated {
		return value, nil
	}
	b := make([]byte, 0, l.Size())
	b = append(b, Discriminator[:]...)
	b = append(b, value...)
	return append(b, s.Authority[:]...), nil
}

func (l Layout) Decode(b []byte) (*State, error) {
	if len(b) != l.Size() {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidAccountData, l.Size(), len(b))
	}
	if l.Mode == Unvalidated {
		v, err := l.decodeValue(b)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidAccountData, err)
		}
		return &State{Value: v}, nil
	}
	if !bytes.Equal(b[:consts.DiscriminatorLen], Discriminator[:]) {
		return nil, fmt.Errorf("%w: bad discriminator", ErrInvalidAccountData)
	}
	end := consts.DiscriminatorLen + int(l.Width)
	v, err := l.decodeValue(b[consts.DiscriminatorLen:end])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAccountData, err)
	}
	auth, err := codec.ToAddress(b[end:])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAccountData, err)
	}
	return &State{Value: v, Authority: auth}, nil
}

// Initialized reports whether [b] already holds a validated counter.
func (l Layout) Initialized(b []byte) bool {
	return l.Mode == Validated &&
		len(b) >= consts.DiscriminatorLen &&
		bytes.Equal(b[:consts.DiscriminatorLen], Discriminator[:])
}
