// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package authority

import (
	"errors"
	"testing"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/hyperprog/account"
	"github.com/ava-labs/hyperprog/codec"
	"github.com/ava-labs/hyperprog/consts"
	"github.com/ava-labs/hyperprog/pda"
)

func TestHasOne(t *testing.T) {
	recorded := codec.Address(ids.GenerateTestID())
	tests := []struct {
		name        string
		authority   *account.Account
		expectedErr error
	}{
		{
			name:      "recorded signer",
			authority: &account.Account{Address: recorded, IsSigner: true},
		},
		{
			name:        "recorded but unsigned",
			authority:   &account.Account{Address: recorded},
			expectedErr: ErrSignerIsNotAuthority,
		},
		{
			name:        "different signer",
			authority:   &account.Account{Address: codec.Address(ids.GenerateTestID()), IsSigner: true},
			expectedErr: ErrSignerIsNotAuthority,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, HasOne(tt.authority, recorded).Check(), tt.expectedErr)
		})
	}
}

func TestAccountChecks(t *testing.T) {
	require := require.New(t)
	programID := codec.Address(ids.GenerateTestID())
	acct := &account.Account{Address: codec.Address(ids.GenerateTestID()), Owner: programID}

	require.ErrorIs(Signer(acct).Check(), ErrMissingRequiredSignature)
	require.ErrorIs(Writable(acct).Check(), ErrAccountNotWritable)
	require.NoError(Owner(acct, programID).Check())
	require.ErrorIs(Owner(acct, codec.EmptyAddress).Check(), ErrIllegalOwner)

	acct.IsSigner = true
	acct.IsWritable = true
	require.NoError(All(Signer(acct), Writable(acct), Owner(acct, programID)))
}

func TestAllStopsAtFirstFailure(t *testing.T) {
	require := require.New(t)
	errFirst := errors.New("first")
	ran := false

	err := All(
		CheckFunc(func() error { return errFirst }),
		CheckFunc(func() error { ran = true; return nil }),
	)
	require.ErrorIs(err, errFirst)
	require.False(ran)
	require.NoError(All())
}

func TestDerived(t *testing.T) {
	require := require.New(t)
	programID := codec.Address(ids.GenerateTestID())
	seeds := [][]byte{[]byte("authority")}

	expected, err := pda.Find(seeds, programID)
	require.NoError(err)

	good := &account.Account{Address: expected.Address, IsWritable: true}
	auth, err := VerifyDerived(good, seeds, programID)
	require.NoError(err)
	require.Equal(expected.Bump, auth.Bump)
	check := Derived(good, seeds, programID)
	require.NoError(All(check, Writable(good)))
	require.Equal(expected, check.Authority)

	bad := &account.Account{Address: codec.Address(ids.GenerateTestID())}
	check = Derived(bad, seeds, programID)
	require.ErrorIs(check.Check(), ErrInvalidSeeds)
	require.Nil(check.Authority)

	// Seed limits surface unchanged.
	tooMany := make([][]byte, consts.MaxSeeds)
	require.ErrorIs(Derived(good, tooMany, programID).Check(), pda.ErrTooManySeeds)

	// The same address under another program identity is rejected.
	require.ErrorIs(Derived(good, seeds, codec.Address(ids.GenerateTestID())).Check(), ErrInvalidSeeds)
}
