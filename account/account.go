// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package account

import (
	"bytes"
	"fmt"

	"github.com/ava-labs/hyperprog/codec"
)

// Meta references an account from inside an instruction.
type Meta struct {
	Address    codec.Address `json:"address"`
	IsSigner   bool          `json:"isSigner"`
	IsWritable bool          `json:"isWritable"`
}

// Account is one slot of persisted state handed to an invocation. The host
// owns it; a program may only touch Data and Balance through the borrow
// methods and must not keep references after it returns.
type Account struct {
	Address    codec.Address
	Owner      codec.Address
	Balance    uint64
	Data       []byte
	Executable bool

	IsSigner   bool
	IsWritable bool

	// number of outstanding shared borrows, -1 when mutably borrowed
	borrows int
}

// Meta returns the reference form of a.
func (a *Account) Meta() Meta {
	return Meta{Address: a.Address, IsSigner: a.IsSigner, IsWritable: a.IsWritable}
}

// BorrowData returns a read-only view of the data. The view is valid until
// release is called.
func (a *Account) BorrowData() (data []byte, release func(), err error) {
	if a.borrows < 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrAccountBorrowed, a.Address)
	}
	a.borrows++
	return a.Data, a.releaser(func() { a.borrows-- }), nil
}

// BorrowMutData returns exclusive mutable access to the data.
func (a *Account) BorrowMutData() (data []byte, release func(), err error) {
	if !a.IsWritable {
		return nil, nil, fmt.Errorf("%w: %s", ErrAccountNotWritable, a.Address)
	}
	if a.borrows != 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrAccountBorrowed, a.Address)
	}
	a.borrows = -1
	return a.Data, a.releaser(func() { a.borrows = 0 }), nil
}

// releaser makes [f] safe to call more than once.
func (*Account) releaser(f func()) func() {
	released := false
	return func() {
		if released {
			return
		}
		released = true
		f()
	}
}

// SetBalance replaces the balance of a writable account.
func (a *Account) SetBalance(balance uint64) error {
	if !a.IsWritable {
		return fmt.Errorf("%w: %s", ErrAccountNotWritable, a.Address)
	}
	a.Balance = balance
	return nil
}

// Assign hands a writable account to [owner].
func (a *Account) Assign(owner codec.Address) error {
	if !a.IsWritable {
		return fmt.Errorf("%w: %s", ErrAccountNotWritable, a.Address)
	}
	a.Owner = owner
	return nil
}

// Allocate replaces the data of a writable account with [space] zero bytes.
func (a *Account) Allocate(space int) error {
	if !a.IsWritable {
		return fmt.Errorf("%w: %s", ErrAccountNotWritable, a.Address)
	}
	if a.borrows != 0 {
		return fmt.Errorf("%w: %s", ErrAccountBorrowed, a.Address)
	}
	a.Data = make([]byte, space)
	return nil
}

// Snapshot captures the mutable parts of an account.
type Snapshot struct {
	acct    *Account
	owner   codec.Address
	balance uint64
	data    []byte
	signer  bool
	borrows int
}

// Snapshot copies the owner, data and balance so they can be restored after a
// failed invocation.
func (a *Account) Snapshot() *Snapshot {
	return &Snapshot{
		acct:    a,
		owner:   a.Owner,
		balance: a.Balance,
		data:    bytes.Clone(a.Data),
		signer:  a.IsSigner,
		borrows: a.borrows,
	}
}

// Restore writes the captured state back.
func (s *Snapshot) Restore() {
	s.acct.Owner = s.owner
	s.acct.Balance = s.balance
	s.acct.IsSigner = s.signer
	if len(s.acct.Data) == len(s.data) {
		copy(s.acct.Data, s.data)
	} else {
		s.acct.Data = bytes.Clone(s.data)
	}
	s.acct.borrows = s.borrows
}

// Changed reports whether the owner, data or balance differ from the snapshot.
func (s *Snapshot) Changed() bool {
	return s.acct.Owner != s.owner ||
		s.acct.Balance != s.balance ||
		!bytes.Equal(s.acct.Data, s.data)
}
