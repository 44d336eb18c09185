// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package counter

import (
	"context"
	"fmt"
	"testing"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/hyperprog/account"
	"github.com/ava-labs/hyperprog/authority"
	"github.com/ava-labs/hyperprog/codec"
	"github.com/ava-labs/hyperprog/instruction"
	"github.com/ava-labs/hyperprog/runtime"
	"github.com/ava-labs/hyperprog/system"
	"github.com/ava-labs/hyperprog/trace"
)

var (
	programID       = codec.Address(ids.GenerateTestID())
	systemProgramID = codec.EmptyAddress
)

type harness struct {
	r         *runtime.Runtime
	program   *Program
	counter   *account.Account
	authority *account.Account
	system    *account.Account
}

func newAccount(owner codec.Address, signer bool) *account.Account {
	return &account.Account{
		Address:    codec.Address(ids.GenerateTestID()),
		Owner:      owner,
		IsSigner:   signer,
		IsWritable: true,
	}
}

// newHarness registers the counter and system programs and initializes a
// counter whose authority is the harness authority.
func newHarness(t *testing.T, mode Mode, width instruction.Width) *harness {
	require := require.New(t)
	r, err := runtime.New(runtime.NewDefaultConfig(), logging.NoLog{}, trace.Noop(), prometheus.NewRegistry())
	require.NoError(err)
	p, err := New(Config{Mode: mode, Width: width, SystemProgramID: systemProgramID}, logging.NoLog{})
	require.NoError(err)
	require.NoError(r.Register(programID, p))
	require.NoError(r.Register(systemProgramID, system.New(logging.NoLog{})))

	h := &harness{
		r:         r,
		program:   p,
		counter:   newAccount(systemProgramID, true),
		authority: newAccount(systemProgramID, true),
		system:    &account.Account{Address: systemProgramID, Executable: true},
	}
	require.NoError(h.initialize())
	// The keypair signature is only needed to create the account.
	h.counter.IsSigner = false
	return h
}

func (h *harness) initialize() error {
	return h.r.Invoke(context.Background(), programID, InitializeEntry,
		[]*account.Account{h.counter, h.authority, h.system}, nil)
}

func (h *harness) invoke(data []byte, accounts ...*account.Account) error {
	return h.r.Invoke(context.Background(), programID, runtime.DefaultEntry, accounts, data)
}

func (h *harness) apply(ix *instruction.Instruction) error {
	data := instruction.MustEncode(ix, h.program.Layout().Width)
	if h.program.Layout().Mode == Unvalidated {
		return h.invoke(data, h.counter)
	}
	return h.invoke(data, h.counter, h.authority)
}

func (h *harness) value(t *testing.T) uint64 {
	s, err := h.program.Layout().Decode(h.counter.Data)
	require.NoError(t, err)
	return s.Value
}

func TestScenario(t *testing.T) {
	for _, mode := range []Mode{Validated, Unvalidated} {
		for _, width := range []instruction.Width{instruction.Width32, instruction.Width64} {
			t.Run(fmt.Sprintf("%s/%d", mode, width), func(t *testing.T) {
				require := require.New(t)
				h := newHarness(t, mode, width)
				require.Zero(h.value(t))

				steps := []struct {
					ix       *instruction.Instruction
					expected uint64
				}{
					{ix: instruction.NewIncrement(21), expected: 21},
					{ix: instruction.NewDecrement(22), expected: 0},
					{ix: instruction.NewUpdate(69), expected: 69},
					{ix: instruction.NewReset(), expected: 0},
				}
				for _, step := range steps {
					require.NoError(h.apply(step.ix), step.ix.String())
					require.Equal(step.expected, h.value(t), step.ix.String())
				}
			})
		}
	}
}

func TestInitialize(t *testing.T) {
	require := require.New(t)
	h := newHarness(t, Validated, instruction.Width64)

	require.Equal(programID, h.counter.Owner)
	require.Len(h.counter.Data, 48)
	s, err := h.program.Layout().Decode(h.counter.Data)
	require.NoError(err)
	require.Equal(h.authority.Address, s.Authority)

	h.counter.IsSigner = true
	require.ErrorIs(h.initialize(), ErrAlreadyInitialized)
}

func TestInitializeChecks(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(h *harness) []*account.Account
		expectedErr error
	}{
		{
			name: "wrong system program",
			modify: func(h *harness) []*account.Account {
				return []*account.Account{h.counter, h.authority, h.authority}
			},
			expectedErr: ErrIncorrectProgramID,
		},
		{
			name: "unsigned payer",
			modify: func(h *harness) []*account.Account {
				h.authority.IsSigner = false
				return []*account.Account{h.counter, h.authority, h.system}
			},
			expectedErr: authority.ErrMissingRequiredSignature,
		},
		{
			name: "unsigned counter",
			modify: func(h *harness) []*account.Account {
				h.counter.IsSigner = false
				return []*account.Account{h.counter, h.authority, h.system}
			},
			expectedErr: authority.ErrMissingRequiredSignature,
		},
		{
			name: "missing system program",
			modify: func(h *harness) []*account.Account {
				return []*account.Account{h.counter, h.authority}
			},
			expectedErr: account.ErrMissingAccount,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			h := newHarness(t, Validated, instruction.Width64)
			h.counter = newAccount(systemProgramID, true)

			accounts := tt.modify(h)
			err := h.r.Invoke(context.Background(), programID, InitializeEntry, accounts, nil)
			require.ErrorIs(err, tt.expectedErr)
			require.Equal(systemProgramID, h.counter.Owner)
			require.Empty(h.counter.Data)
		})
	}
}

func TestAuthorityEnforcement(t *testing.T) {
	tests := []struct {
		name      string
		authority func(h *harness) *account.Account
	}{
		{
			name: "different signer",
			authority: func(*harness) *account.Account {
				return newAccount(systemProgramID, true)
			},
		},
		{
			name: "recorded authority did not sign",
			authority: func(h *harness) *account.Account {
				h.authority.IsSigner = false
				return h.authority
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			h := newHarness(t, Validated, instruction.Width64)
			require.NoError(h.apply(instruction.NewUpdate(7)))

			for _, ix := range []*instruction.Instruction{
				instruction.NewIncrement(1),
				instruction.NewDecrement(1),
				instruction.NewUpdate(69),
				instruction.NewReset(),
			} {
				data := instruction.MustEncode(ix, instruction.Width64)
				err := h.invoke(data, h.counter, tt.authority(h))
				require.ErrorIs(err, authority.ErrSignerIsNotAuthority)
				require.Equal(uint64(7), h.value(t))
			}
		})
	}
}

func TestUnvalidatedAcceptsAnyCaller(t *testing.T) {
	require := require.New(t)
	h := newHarness(t, Unvalidated, instruction.Width32)

	require.Len(h.counter.Data, 4)
	require.NoError(h.invoke(instruction.MustEncode(instruction.NewUpdate(9), instruction.Width32), h.counter))
	require.Equal(uint64(9), h.value(t))
}

func TestProcessErrors(t *testing.T) {
	tests := []struct {
		name        string
		data        []byte
		accounts    func(h *harness) []*account.Account
		expectedErr error
	}{
		{
			name:        "empty instruction",
			data:        []byte{},
			expectedErr: instruction.ErrMalformedInstruction,
		},
		{
			name:        "unknown opcode",
			data:        []byte{9, 1, 0, 0, 0, 0, 0, 0, 0},
			expectedErr: instruction.ErrMalformedInstruction,
		},
		{
			name:        "short payload",
			data:        []byte{0, 1},
			expectedErr: instruction.ErrMalformedInstruction,
		},
		{
			name: "missing authority",
			data: instruction.MustEncode(instruction.NewReset(), instruction.Width64),
			accounts: func(h *harness) []*account.Account {
				return []*account.Account{h.counter}
			},
			expectedErr: account.ErrMissingAccount,
		},
		{
			name: "foreign counter",
			data: instruction.MustEncode(instruction.NewReset(), instruction.Width64),
			accounts: func(h *harness) []*account.Account {
				h.counter.Owner = systemProgramID
				return []*account.Account{h.counter, h.authority}
			},
			expectedErr: authority.ErrIllegalOwner,
		},
		{
			name: "read-only counter",
			data: instruction.MustEncode(instruction.NewReset(), instruction.Width64),
			accounts: func(h *harness) []*account.Account {
				h.counter.IsWritable = false
				return []*account.Account{h.counter, h.authority}
			},
			expectedErr: authority.ErrAccountNotWritable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			h := newHarness(t, Validated, instruction.Width64)
			require.NoError(h.apply(instruction.NewUpdate(3)))

			accounts := []*account.Account{h.counter, h.authority}
			if tt.accounts != nil {
				accounts = tt.accounts(h)
			}
			require.ErrorIs(h.invoke(tt.data, accounts...), tt.expectedErr)
			require.Equal(uint64(3), h.value(t))
		})
	}
}

func TestUnknownEntry(t *testing.T) {
	h := newHarness(t, Validated, instruction.Width64)
	err := h.r.Invoke(context.Background(), programID, "close", nil, nil)
	require.ErrorIs(t, err, runtime.ErrUnknownEntry)
	require.True(t, runtime.IsProgramError(err))
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	require := require.New(t)
	_, err := New(Config{Mode: Validated, Width: 2}, logging.NoLog{})
	require.ErrorIs(err, instruction.ErrInvalidWidth)
	_, err = New(Config{Mode: Mode(7), Width: instruction.Width64}, logging.NoLog{})
	require.ErrorIs(err, ErrInvalidMode)
}
