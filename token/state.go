// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package token

import (
	"fmt"

	"github.com/ava-labs/hyperprog/codec"
)

const (
	MintSize    = 82
	AccountSize = 165
)

// Token account lifecycle.
const (
	Uninitialized uint8 = iota
	Initialized
	Frozen
)

// COption tags are little-endian u32s.
const (
	none uint32 = 0
	some uint32 = 1
)

// Mint describes a token. Decimals is the only source of truth for how
// many base units make up one token.
type Mint struct {
	MintAuthorityOption   uint32
	MintAuthority         codec.Address
	Supply                uint64
	Decimals              uint8
	IsInitialized         bool
	FreezeAuthorityOption uint32
	FreezeAuthority       codec.Address
}

func (m *Mint) HasMintAuthority() bool {
	return m.MintAuthorityOption == some
}

// Account holds a balance of one mint for one owner.
type Account struct {
	Mint                 codec.Address
	Owner                codec.Address
	Amount               uint64
	DelegateOption       uint32
	Delegate             codec.Address
	State                uint8
	IsNativeOption       uint32
	IsNative             uint64
	DelegatedAmount      uint64
	CloseAuthorityOption uint32
	CloseAuthority       codec.Address
}

func (a *Account) IsFrozen() bool {
	return a.State == Frozen
}

func unpack[T any](data []byte, size int) (*T, error) {
	v, err := codec.DeserializeExact[T](data, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAccountData, err)
	}
	return v, nil
}

// UnpackMint decodes an initialized mint.
func UnpackMint(data []byte) (*Mint, error) {
	m, err := unpack[Mint](data, MintSize)
	if err != nil {
		return nil, err
	}
	if !m.IsInitialized {
		return nil, ErrUninitializedAccount
	}
	return m, nil
}

// UnpackAccount decodes an initialized token account.
func UnpackAccount(data []byte) (*Account, error) {
	a, err := unpack[Account](data, AccountSize)
	if err != nil {
		return nil, err
	}
	if a.State == Uninitialized {
		return nil, ErrUninitializedAccount
	}
	return a, nil
}

func PackMint(m *Mint) ([]byte, error) {
	return codec.Serialize(*m)
}

func PackAccount(a *Account) ([]byte, error) {
	return codec.Serialize(*a)
}
