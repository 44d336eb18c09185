// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package transfer

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ava-labs/hyperprog/account"
	"github.com/ava-labs/hyperprog/ata"
	"github.com/ava-labs/hyperprog/authority"
	"github.com/ava-labs/hyperprog/codec"
	"github.com/ava-labs/hyperprog/pda"
	"github.com/ava-labs/hyperprog/runtime"
	"github.com/ava-labs/hyperprog/system"
	"github.com/ava-labs/hyperprog/token"
	"github.com/ava-labs/hyperprog/trace"
)

const decimals = 9

var (
	programID       = codec.Address(ids.GenerateTestID())
	tokenProgramID  = codec.Address(ids.GenerateTestID())
	ataProgramID    = codec.Address(ids.GenerateTestID())
	systemProgramID = codec.EmptyAddress

	errDownstream = errors.New("downstream")
)

func newAccount(owner codec.Address, size int) *account.Account {
	return &account.Account{
		Address:    codec.Address(ids.GenerateTestID()),
		Owner:      owner,
		Data:       make([]byte, size),
		IsWritable: true,
	}
}

type fixture struct {
	r         *runtime.Runtime
	authority *pda.Authority

	mint         *account.Account
	mintAuth     *account.Account
	source       *account.Account
	destination  *account.Account
	derived      *account.Account
	tokenProgram *account.Account
	ataProgram   *account.Account
	system       *account.Account

	addresses map[codec.Address]*account.Account
}

func (f *fixture) add(accts ...*account.Account) {
	for _, a := range accts {
		f.addresses[a.Address] = a
	}
}

// setup runs [ix] directly against the token program.
func (f *fixture) setup(t *testing.T, ix *runtime.Instruction) {
	accounts := make([]*account.Account, len(ix.Accounts))
	for i, m := range ix.Accounts {
		accounts[i] = f.addresses[m.Address]
	}
	require.NoError(t, f.r.Invoke(context.Background(), ix.ProgramID, runtime.DefaultEntry, accounts, ix.Data))
}

func (f *fixture) transfer(entry string, amount uint64, accounts ...*account.Account) error {
	args := &TransferArgs{Amount: amount}
	return f.r.Invoke(context.Background(), programID, entry, accounts, args.Encode())
}

func (f *fixture) derivedAccounts() []*account.Account {
	return []*account.Account{f.source, f.mint, f.destination, f.derived, f.tokenProgram}
}

func (f *fixture) amount(t *testing.T, a *account.Account) uint64 {
	ta, err := token.UnpackAccount(a.Data)
	require.NoError(t, err)
	return ta.Amount
}

func (f *fixture) tokenAccount(t *testing.T, owner codec.Address, funded uint64) *account.Account {
	require := require.New(t)
	a := newAccount(tokenProgramID, token.AccountSize)
	f.add(a)
	ix, err := token.NewInitializeAccount(tokenProgramID, a.Address, f.mint.Address, owner)
	require.NoError(err)
	f.setup(t, ix)
	if funded > 0 {
		ix, err = token.NewMintTo(tokenProgramID, f.mint.Address, a.Address, f.mintAuth.Address, funded)
		require.NoError(err)
		f.setup(t, ix)
	}
	return a
}

// associated returns the empty account at [wallet]'s derived token account
// address for the fixture mint.
func (f *fixture) associated(t *testing.T, wallet *account.Account) *account.Account {
	addr, err := ata.Address(ataProgramID, wallet.Address, tokenProgramID, f.mint.Address)
	require.NoError(t, err)
	a := &account.Account{Address: addr, Owner: systemProgramID, IsWritable: true}
	f.add(a)
	return a
}

// createAssociated creates and funds [wallet]'s token account through the
// associated token program.
func (f *fixture) createAssociated(t *testing.T, wallet *account.Account, funded uint64) *account.Account {
	require := require.New(t)
	a := f.associated(t, wallet)
	ix, err := ata.NewCreate(ataProgramID, f.mintAuth.Address, wallet.Address, f.mint.Address, systemProgramID, tokenProgramID, false)
	require.NoError(err)
	f.setup(t, ix)
	if funded > 0 {
		ix, err = token.NewMintTo(tokenProgramID, f.mint.Address, a.Address, f.mintAuth.Address, funded)
		require.NoError(err)
		f.setup(t, ix)
	}
	return a
}

// newFixture registers the transfer, token and system programs and funds a
// token account owned by the program's derived authority.
func newFixture(t *testing.T, funded uint64, opts ...Option) *fixture {
	require := require.New(t)
	r, err := runtime.New(runtime.NewDefaultConfig(), logging.NoLog{}, trace.Noop(), prometheus.NewRegistry())
	require.NoError(err)
	cfg := Config{
		TokenProgramID:           tokenProgramID,
		SystemProgramID:          systemProgramID,
		AssociatedTokenProgramID: ataProgramID,
	}
	require.NoError(r.Register(programID, New(cfg, logging.NoLog{}, opts...)))
	require.NoError(r.Register(tokenProgramID, token.New(logging.NoLog{})))
	require.NoError(r.Register(systemProgramID, system.New(logging.NoLog{})))
	require.NoError(r.Register(ataProgramID, ata.New(ata.Config{
		SystemProgramID: systemProgramID,
		TokenProgramID:  tokenProgramID,
	}, logging.NoLog{})))

	auth, err := pda.Find(AuthoritySeeds(), programID)
	require.NoError(err)

	f := &fixture{
		r:            r,
		authority:    auth,
		mint:         newAccount(tokenProgramID, token.MintSize),
		mintAuth:     newAccount(systemProgramID, 0),
		derived:      &account.Account{Address: auth.Address, Owner: systemProgramID},
		tokenProgram: &account.Account{Address: tokenProgramID, Executable: true},
		ataProgram:   &account.Account{Address: ataProgramID, Executable: true},
		system:       &account.Account{Address: systemProgramID, Executable: true},
		addresses:    map[codec.Address]*account.Account{},
	}
	f.mintAuth.IsSigner = true
	f.add(f.mint, f.mintAuth, f.derived, f.tokenProgram, f.ataProgram, f.system)
	f.setup(t, token.NewInitializeMint(tokenProgramID, f.mint.Address, f.mintAuth.Address, nil, decimals))
	f.source = f.tokenAccount(t, auth.Address, funded)
	f.destination = f.tokenAccount(t, codec.Address(ids.GenerateTestID()), 0)
	return f
}

func TestAuthorityAddress(t *testing.T) {
	require := require.New(t)

	addr, err := AuthorityAddress(programID)
	require.NoError(err)
	again, err := AuthorityAddress(programID)
	require.NoError(err)
	require.Equal(addr, again)

	other, err := AuthorityAddress(codec.Address(ids.GenerateTestID()))
	require.NoError(err)
	require.NotEqual(addr, other)
}

func TestDerivedTransfer(t *testing.T) {
	require := require.New(t)
	f := newFixture(t, 100)

	require.NoError(f.transfer(runtime.DefaultEntry, 40, f.derivedAccounts()...))
	require.Equal(uint64(60), f.amount(t, f.source))
	require.Equal(uint64(40), f.amount(t, f.destination))

	// The derived authority never signed in the caller's view.
	require.False(f.derived.IsSigner)

	require.NoError(f.transfer(runtime.DefaultEntry, 60, f.derivedAccounts()...))
	require.Zero(f.amount(t, f.source))
	require.Equal(uint64(100), f.amount(t, f.destination))
}

func TestDerivedTransferFailures(t *testing.T) {
	tests := []struct {
		name        string
		amount      uint64
		data        []byte
		modify      func(*fixture) []*account.Account
		expectedErr error
	}{
		{
			name:   "authority not derived from program",
			amount: 1,
			modify: func(f *fixture) []*account.Account {
				impostor := newAccount(systemProgramID, 0)
				impostor.IsSigner = true
				f.add(impostor)
				return []*account.Account{f.source, f.mint, f.destination, impostor, f.tokenProgram}
			},
			expectedErr: ErrInvalidSeeds,
		},
		{
			name:   "missing token program",
			amount: 1,
			modify: func(f *fixture) []*account.Account {
				return []*account.Account{f.source, f.mint, f.destination, f.derived}
			},
			expectedErr: account.ErrMissingAccount,
		},
		{
			name:   "unexpected token program",
			amount: 1,
			modify: func(f *fixture) []*account.Account {
				return []*account.Account{f.source, f.mint, f.destination, f.derived, f.mintAuth}
			},
			expectedErr: ErrIncorrectProgramID,
		},
		{
			name:        "short arguments",
			data:        []byte{1, 2, 3},
			expectedErr: ErrInvalidInstructionData,
		},
		{
			name:        "insufficient funds",
			amount:      101,
			expectedErr: token.ErrInsufficientFunds,
		},
		{
			name:   "source not owned by authority",
			amount: 1,
			modify: func(f *fixture) []*account.Account {
				return []*account.Account{f.destination, f.mint, f.source, f.derived, f.tokenProgram}
			},
			expectedErr: token.ErrOwnerMismatch,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			f := newFixture(t, 100)

			accounts := f.derivedAccounts()
			if tt.modify != nil {
				accounts = tt.modify(f)
			}
			var err error
			if tt.data != nil {
				err = f.r.Invoke(context.Background(), programID, runtime.DefaultEntry, accounts, tt.data)
			} else {
				err = f.transfer(runtime.DefaultEntry, tt.amount, accounts...)
			}
			require.ErrorIs(err, tt.expectedErr)
			require.Equal(uint64(100), f.amount(t, f.source))
			require.Zero(f.amount(t, f.destination))
		})
	}
}

func TestDownstreamFailureIsWrapped(t *testing.T) {
	require := require.New(t)
	f := newFixture(t, 10)

	err := f.transfer(runtime.DefaultEntry, 11, f.derivedAccounts()...)
	require.ErrorIs(err, ErrDownstreamTransferFailure)
	require.ErrorIs(err, token.ErrInsufficientFunds)
}

func TestTransfererRequest(t *testing.T) {
	require := require.New(t)
	ctrl := gomock.NewController(t)

	transferer := NewMockTransferer(ctrl)
	f := newFixture(t, 100, WithTransferer(func(runtime.Invoker) Transferer {
		return transferer
	}))

	expected := &TransferChecked{
		TokenProgram: tokenProgramID,
		Source:       f.source.Address,
		Mint:         f.mint.Address,
		Destination:  f.destination.Address,
		Authority:    f.authority.Address,
		TransferRequest: TransferRequest{
			Amount:   25,
			Decimals: decimals,
		},
	}
	seeds := [][][]byte{{AuthoritySeed, {f.authority.Bump}}}
	transferer.EXPECT().TransferChecked(gomock.Any(), expected, seeds).Return(nil).Times(1)

	require.NoError(f.transfer(runtime.DefaultEntry, 25, f.derivedAccounts()...))

	// Nothing moved because the transfer was mocked.
	require.Equal(uint64(100), f.amount(t, f.source))
}

func TestTransfererFailure(t *testing.T) {
	require := require.New(t)
	ctrl := gomock.NewController(t)

	transferer := NewMockTransferer(ctrl)
	f := newFixture(t, 100, WithTransferer(func(runtime.Invoker) Transferer {
		return transferer
	}))
	transferer.EXPECT().TransferChecked(gomock.Any(), gomock.Any(), gomock.Any()).Return(errDownstream).Times(1)

	err := f.transfer(runtime.DefaultEntry, 1, f.derivedAccounts()...)
	require.ErrorIs(err, ErrDownstreamTransferFailure)
	require.ErrorIs(err, errDownstream)
}

func TestTransfererNotCalledOnInvalidSeeds(t *testing.T) {
	require := require.New(t)
	ctrl := gomock.NewController(t)

	transferer := NewMockTransferer(ctrl)
	f := newFixture(t, 100, WithTransferer(func(runtime.Invoker) Transferer {
		return transferer
	}))
	transferer.EXPECT().TransferChecked(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	impostor := newAccount(systemProgramID, 0)
	err := f.transfer(runtime.DefaultEntry, 1, f.source, f.mint, f.destination, impostor, f.tokenProgram)
	require.ErrorIs(err, authority.ErrInvalidSeeds)
}

func TestSolTransfer(t *testing.T) {
	tests := []struct {
		name        string
		amount      uint64
		modify      func(from, to, sys *account.Account) []*account.Account
		expectedErr error
		expectedTo  uint64
	}{
		{
			name:       "moves value",
			amount:     30,
			expectedTo: 30,
		},
		{
			name:        "insufficient funds",
			amount:      51,
			expectedErr: system.ErrInsufficientFunds,
		},
		{
			name:   "sender did not sign",
			amount: 1,
			modify: func(from, to, sys *account.Account) []*account.Account {
				from.IsSigner = false
				return []*account.Account{from, to, sys}
			},
			expectedErr: authority.ErrMissingRequiredSignature,
		},
		{
			name:   "unexpected system program",
			amount: 1,
			modify: func(from, to, _ *account.Account) []*account.Account {
				return []*account.Account{from, to, to}
			},
			expectedErr: ErrIncorrectProgramID,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			f := newFixture(t, 0)

			from := newAccount(systemProgramID, 0)
			from.IsSigner = true
			from.Balance = 50
			to := newAccount(systemProgramID, 0)
			sys := &account.Account{Address: systemProgramID, Executable: true}

			accounts := []*account.Account{from, to, sys}
			if tt.modify != nil {
				accounts = tt.modify(from, to, sys)
			}
			require.ErrorIs(f.transfer(SolTransferEntry, tt.amount, accounts...), tt.expectedErr)
			require.Equal(tt.expectedTo, to.Balance)
			require.Equal(50-tt.expectedTo, from.Balance)
		})
	}
}

type tokenTransferSetup struct {
	sender         *account.Account
	recipient      *account.Account
	senderToken    *account.Account
	recipientToken *account.Account
}

func newTokenTransferSetup(t *testing.T, f *fixture, recipientExists bool) *tokenTransferSetup {
	s := &tokenTransferSetup{
		sender:    newAccount(systemProgramID, 0),
		recipient: newAccount(systemProgramID, 0),
	}
	s.sender.IsSigner = true
	f.add(s.sender, s.recipient)
	s.senderToken = f.createAssociated(t, s.sender, 80)
	if recipientExists {
		s.recipientToken = f.createAssociated(t, s.recipient, 0)
	} else {
		s.recipientToken = f.associated(t, s.recipient)
	}
	return s
}

func (s *tokenTransferSetup) accounts(f *fixture) []*account.Account {
	return []*account.Account{
		s.sender, s.recipient, f.mint, s.senderToken, s.recipientToken,
		f.tokenProgram, f.ataProgram, f.system,
	}
}

func TestTokenTransfer(t *testing.T) {
	for _, recipientExists := range []bool{true, false} {
		t.Run(fmt.Sprintf("recipient exists=%v", recipientExists), func(t *testing.T) {
			require := require.New(t)
			f := newFixture(t, 0)
			s := newTokenTransferSetup(t, f, recipientExists)

			require.NoError(f.transfer(TokenTransferEntry, 30, s.accounts(f)...))
			require.Equal(uint64(50), f.amount(t, s.senderToken))
			require.Equal(uint64(30), f.amount(t, s.recipientToken))

			require.Equal(tokenProgramID, s.recipientToken.Owner)
			ta, err := token.UnpackAccount(s.recipientToken.Data)
			require.NoError(err)
			require.Equal(s.recipient.Address, ta.Owner)
			require.Equal(f.mint.Address, ta.Mint)

			require.NoError(f.transfer(TokenTransferEntry, 50, s.accounts(f)...))
			require.Zero(f.amount(t, s.senderToken))
			require.Equal(uint64(80), f.amount(t, s.recipientToken))
		})
	}
}

func TestTokenTransferFailures(t *testing.T) {
	tests := []struct {
		name            string
		recipientExists bool
		amount          uint64
		modify          func(*fixture, *tokenTransferSetup) []*account.Account
		expectedErr     error
	}{
		{
			name:            "recipient token account not derived",
			recipientExists: true,
			amount:          1,
			modify:          func(f *fixture, s *tokenTransferSetup) []*account.Account {
				accounts := s.accounts(f)
				accounts[4] = f.destination
				return accounts
			},
			expectedErr: ErrTokenAccountMismatch,
		},
		{
			name:            "sender token account not derived",
			recipientExists: true,
			amount:          1,
			modify:          func(f *fixture, s *tokenTransferSetup) []*account.Account {
				accounts := s.accounts(f)
				accounts[3] = f.source
				return accounts
			},
			expectedErr: ErrTokenAccountMismatch,
		},
		{
			name:            "sender did not sign",
			recipientExists: true,
			amount:          1,
			modify:          func(f *fixture, s *tokenTransferSetup) []*account.Account {
				s.sender.IsSigner = false
				return s.accounts(f)
			},
			expectedErr: authority.ErrMissingRequiredSignature,
		},
		{
			name:            "unexpected associated token program",
			recipientExists: true,
			amount:          1,
			modify:          func(f *fixture, s *tokenTransferSetup) []*account.Account {
				accounts := s.accounts(f)
				accounts[6] = f.tokenProgram
				return accounts
			},
			expectedErr: ErrIncorrectProgramID,
		},
		{
			name:   "sender cannot pay for the recipient account",
			amount: 1,
			modify: func(f *fixture, s *tokenTransferSetup) []*account.Account {
				s.sender.IsWritable = false
				return s.accounts(f)
			},
			expectedErr: ErrRecipientAccountCreation,
		},
		{
			name:        "insufficient funds undoes the new recipient account",
			amount:      81,
			expectedErr: token.ErrInsufficientFunds,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			f := newFixture(t, 0)
			s := newTokenTransferSetup(t, f, tt.recipientExists)

			accounts := s.accounts(f)
			if tt.modify != nil {
				accounts = tt.modify(f, s)
			}
			require.ErrorIs(f.transfer(TokenTransferEntry, tt.amount, accounts...), tt.expectedErr)
			require.Equal(uint64(80), f.amount(t, s.senderToken))
			if tt.recipientExists {
				require.Zero(f.amount(t, s.recipientToken))
				return
			}
			require.Equal(systemProgramID, s.recipientToken.Owner)
			require.Empty(s.recipientToken.Data)
		})
	}
}

func TestUnknownEntry(t *testing.T) {
	f := newFixture(t, 0)
	require.ErrorIs(t, f.transfer("withdraw", 1), ErrUnknownEntry)
}
