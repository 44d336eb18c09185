// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package pda derives program addresses: account addresses that are a pure
// function of a program identity and a list of seeds, and that are guaranteed
// to have no ed25519 private key. A program proves authority over such an
// address by presenting the seeds it was derived from.
package pda

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/utils/hashing"

	"github.com/ava-labs/hyperprog/codec"
	"github.com/ava-labs/hyperprog/consts"
	"github.com/ava-labs/hyperprog/crypto/ed25519"
)

const (
	// Marker is appended after the program identity so a derived address
	// can never collide with the hash of a plain concatenation.
	Marker = "ProgramDerivedAddress"

	// MaxBump is where the bump search starts.
	MaxBump = consts.MaxUint8
)

// Default uses the ed25519 point decoder to reject on-curve candidates.
var Default = Deriver{OnCurve: ed25519.IsOnCurve}

// Deriver computes derived addresses. OnCurve decides whether a candidate
// could have a private key; candidates for which it returns true are
// rejected.
type Deriver struct {
	OnCurve func([32]byte) bool
}

// Authority is the result of a bump search. SignerSeeds is the proof a
// program presents to act on behalf of Address.
type Authority struct {
	Seeds     [][]byte
	ProgramID codec.Address
	Bump      uint8
	Address   codec.Address
}

// SignerSeeds returns the seeds followed by the bump.
func (a *Authority) SignerSeeds() [][]byte {
	seeds := make([][]byte, 0, len(a.Seeds)+1)
	for _, s := range a.Seeds {
		seeds = append(seeds, bytes.Clone(s))
	}
	return append(seeds, []byte{a.Bump})
}

func checkSeeds(seeds [][]byte, limit int) error {
	if len(seeds) > limit {
		return fmt.Errorf("%w: %w: %d > %d", ErrInvalidSeeds, ErrTooManySeeds, len(seeds), limit)
	}
	for i, s := range seeds {
		if len(s) > consts.MaxSeedLen {
			return fmt.Errorf("%w: %w: seed %d has %d bytes", ErrInvalidSeeds, ErrSeedTooLong, i, len(s))
		}
	}
	return nil
}

// CreateAddress hashes [seeds], [programID] and Marker. It fails with
// ErrOnCurve if the digest is a valid curve point.
func (d Deriver) CreateAddress(seeds [][]byte, programID codec.Address) (codec.Address, error) {
	if d.OnCurve == nil {
		return codec.EmptyAddress, ErrMissingOnCurve
	}
	if err := checkSeeds(seeds, consts.MaxSeeds); err != nil {
		return codec.EmptyAddress, err
	}
	buf := bytes.Join(seeds, nil)
	buf = append(buf, programID[:]...)
	buf = append(buf, Marker...)

	digest := hashing.ComputeHash256Array(buf)
	if d.OnCurve(digest) {
		return codec.EmptyAddress, ErrOnCurve
	}
	return codec.Address(digest), nil
}

// Find searches bump values from MaxBump downward and returns the first
// off-curve address for seeds+[bump]. The result is deterministic for a
// given (seeds, programID).
func (d Deriver) Find(seeds [][]byte, programID codec.Address) (*Authority, error) {
	// One slot is reserved for the bump.
	if err := checkSeeds(seeds, consts.MaxSeeds-1); err != nil {
		return nil, err
	}
	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)
	bump := []byte{0}
	for b := int(MaxBump); b > 0; b-- {
		bump[0] = uint8(b)
		withBump[len(seeds)] = bump
		addr, err := d.CreateAddress(withBump, programID)
		switch {
		case err == nil:
			return &Authority{
				Seeds:     seeds,
				ProgramID: programID,
				Bump:      uint8(b),
				Address:   addr,
			}, nil
		case errors.Is(err, ErrOnCurve):
			continue
		default:
			return nil, err
		}
	}
	return nil, ErrNoViableBump
}

// Verify recomputes the derivation for (seeds, programID) using the same bump
// search as Find and requires it to equal [expected] exactly.
func (d Deriver) Verify(seeds [][]byte, programID codec.Address, expected codec.Address) (*Authority, error) {
	auth, err := d.Find(seeds, programID)
	if err != nil {
		return nil, err
	}
	if auth.Address != expected {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrInvalidSeeds, auth.Address, expected)
	}
	return auth, nil
}

// CreateAddress calls Default.CreateAddress.
func CreateAddress(seeds [][]byte, programID codec.Address) (codec.Address, error) {
	return Default.CreateAddress(seeds, programID)
}

// Find calls Default.Find.
func Find(seeds [][]byte, programID codec.Address) (*Authority, error) {
	return Default.Find(seeds, programID)
}

// Verify calls Default.Verify.
func Verify(seeds [][]byte, programID codec.Address, expected codec.Address) (*Authority, error) {
	return Default.Verify(seeds, programID, expected)
}
