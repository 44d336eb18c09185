// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ed25519 holds the signing keys of accounts. Signatures are
// verified under ZIP-215 (https://zips.z.cash/zip-0215) so every node
// accepts the same set regardless of how the signer encoded its points.
package ed25519

import (
	"bytes"
	"crypto/ed25519"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/hdevalence/ed25519consensus"
	"github.com/mr-tron/base58"

	"github.com/ava-labs/hyperprog/codec"
)

const (
	PublicKeyLen  = ed25519.PublicKeySize
	PrivateKeyLen = ed25519.PrivateKeySize
	SignatureLen  = ed25519.SignatureSize
	// A private key is seed || public key.
	PrivateKeySeedLen = ed25519.SeedSize
)

type (
	PublicKey  [PublicKeyLen]byte
	PrivateKey [PrivateKeyLen]byte
	Signature  [SignatureLen]byte
)

var (
	EmptyPrivateKey = PrivateKey{}
	EmptySignature  = Signature{}
)

func GeneratePrivateKey() (PrivateKey, error) {
	_, k, err := ed25519.GenerateKey(nil)
	if err != nil {
		return EmptyPrivateKey, err
	}
	return PrivateKey(k), nil
}

// ParsePrivateKey decodes the base58 form produced by [PrivateKey.String]
// and checks that the embedded public key belongs to the seed.
func ParsePrivateKey(s string) (PrivateKey, error) {
	b, err := base58.Decode(s)
	if err != nil {
		return EmptyPrivateKey, fmt.Errorf("%w: %w", ErrInvalidPrivateKey, err)
	}
	if len(b) != PrivateKeyLen {
		return EmptyPrivateKey, fmt.Errorf("%w: %d bytes", ErrInvalidPrivateKey, len(b))
	}
	expected := ed25519.NewKeyFromSeed(b[:PrivateKeySeedLen])
	if !bytes.Equal(expected, b) {
		return EmptyPrivateKey, fmt.Errorf("%w: public key does not match seed", ErrInvalidPrivateKey)
	}
	return PrivateKey(b), nil
}

func (p PrivateKey) String() string {
	return base58.Encode(p[:])
}

func (p PrivateKey) PublicKey() PublicKey {
	return PublicKey(p[PrivateKeySeedLen:])
}

// Address is the account controlled by p. Accounts are named by their raw
// public key.
func (p PublicKey) Address() codec.Address {
	return codec.Address(p)
}

func Sign(msg []byte, pk PrivateKey) Signature {
	return Signature(ed25519.Sign(pk[:], msg))
}

func Verify(msg []byte, p PublicKey, s Signature) bool {
	return ed25519consensus.Verify(p[:], msg, s[:])
}

// IsOnCurve reports whether [b] decodes to a point on the ed25519 curve.
// Non-canonical encodings of valid points are accepted, matching the
// decompression rule used by signature verification.
func IsOnCurve(b [32]byte) bool {
	_, err := new(edwards25519.Point).SetBytes(b[:])
	return err == nil
}
