// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package authority holds the checks a program composes before it mutates
// any account. Each check is a value; All runs them in order and stops at
// the first failure.
package authority

import (
	"fmt"

	"github.com/ava-labs/hyperprog/account"
	"github.com/ava-labs/hyperprog/codec"
	"github.com/ava-labs/hyperprog/pda"
)

// Check is a single validation against the accounts of an invocation.
type Check interface {
	Check() error
}

// CheckFunc adapts a function to Check.
type CheckFunc func() error

func (f CheckFunc) Check() error {
	return f()
}

// All runs [checks] in order.
func All(checks ...Check) error {
	for _, c := range checks {
		if err := c.Check(); err != nil {
			return err
		}
	}
	return nil
}

// Signer requires [acct] to have signed the invocation.
func Signer(acct *account.Account) Check {
	return CheckFunc(func() error {
		if !acct.IsSigner {
			return fmt.Errorf("%w: %s", ErrMissingRequiredSignature, acct.Address)
		}
		return nil
	})
}

// Writable requires [acct] to be writable.
func Writable(acct *account.Account) Check {
	return CheckFunc(func() error {
		if !acct.IsWritable {
			return fmt.Errorf("%w: %s", ErrAccountNotWritable, acct.Address)
		}
		return nil
	})
}

// Owner requires [acct] to be owned by [programID].
func Owner(acct *account.Account, programID codec.Address) Check {
	return CheckFunc(func() error {
		if acct.Owner != programID {
			return fmt.Errorf("%w: %s owned by %s, not %s", ErrIllegalOwner, acct.Address, acct.Owner, programID)
		}
		return nil
	})
}

// HasOne requires [authority] to be a signer whose address equals the
// authority [recorded] in the target state.
func HasOne(authority *account.Account, recorded codec.Address) Check {
	return CheckFunc(func() error {
		if !authority.IsSigner {
			return fmt.Errorf("%w: %s did not sign", ErrSignerIsNotAuthority, authority.Address)
		}
		if authority.Address != recorded {
			return fmt.Errorf("%w: expected %s, got %s", ErrSignerIsNotAuthority, recorded, authority.Address)
		}
		return nil
	})
}

// DerivedCheck requires an account to be the address derived from a seed
// list and a program. Once it passes, Authority carries the bump needed to
// sign for that address.
type DerivedCheck struct {
	acct      *account.Account
	seeds     [][]byte
	programID codec.Address

	Authority *pda.Authority
}

// Derived requires [acct] to be the address derived from [seeds] and
// [programID].
func Derived(acct *account.Account, seeds [][]byte, programID codec.Address) *DerivedCheck {
	return &DerivedCheck{acct: acct, seeds: seeds, programID: programID}
}

func (d *DerivedCheck) Check() error {
	auth, err := VerifyDerived(d.acct, d.seeds, d.programID)
	if err != nil {
		return err
	}
	d.Authority = auth
	return nil
}

// VerifyDerived recomputes the derived authority for (seeds, programID) and
// requires an exact match with [acct].
func VerifyDerived(acct *account.Account, seeds [][]byte, programID codec.Address) (*pda.Authority, error) {
	auth, err := pda.Verify(seeds, programID, acct.Address)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, acct.Address)
	}
	return auth, nil
}
