// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/ava-labs/hyperprog/account"
	"github.com/ava-labs/hyperprog/codec"
	"github.com/ava-labs/hyperprog/crypto/ed25519"
	"github.com/ava-labs/hyperprog/pda"
	"github.com/ava-labs/hyperprog/runtime"
)

var ErrInvalidSignatureLength = errors.New("invalid signature length")

type JSONRPCServer struct {
	node Node
}

func NewJSONRPCServer(node Node) *JSONRPCServer {
	return &JSONRPCServer{node: node}
}

type PingReply struct {
	Success bool `json:"success"`
}

func (j *JSONRPCServer) Ping(_ *http.Request, _ *struct{}, reply *PingReply) error {
	j.node.Logger().Info("ping")
	reply.Success = true
	return nil
}

type Program struct {
	ID   codec.Address `json:"id"`
	Name string        `json:"name"`
}

type ProgramsReply struct {
	Programs []Program `json:"programs"`
}

func (j *JSONRPCServer) Programs(_ *http.Request, _ *struct{}, reply *ProgramsReply) error {
	for _, id := range j.node.Programs() {
		name, _ := j.node.ProgramName(id)
		reply.Programs = append(reply.Programs, Program{ID: id, Name: name})
	}
	return nil
}

type AddressArgs struct {
	Address codec.Address `json:"address"`
}

type AccountReply struct {
	Owner      codec.Address `json:"owner"`
	Balance    uint64        `json:"balance"`
	Executable bool          `json:"executable"`
	Data       []byte        `json:"data"`
}

func (j *JSONRPCServer) GetAccount(req *http.Request, args *AddressArgs, reply *AccountReply) error {
	ctx, span := j.node.Tracer().Start(req.Context(), "JSONRPCServer.GetAccount")
	defer span.End()

	a, err := j.node.GetAccount(ctx, args.Address)
	if err != nil {
		return err
	}
	reply.Owner = a.Owner
	reply.Balance = a.Balance
	reply.Executable = a.Executable
	reply.Data = a.Data
	return nil
}

type CounterReply struct {
	Value     uint64        `json:"value"`
	Authority codec.Address `json:"authority"`
}

func (j *JSONRPCServer) Counter(req *http.Request, args *AddressArgs, reply *CounterReply) error {
	ctx, span := j.node.Tracer().Start(req.Context(), "JSONRPCServer.Counter")
	defer span.End()

	a, err := j.node.GetAccount(ctx, args.Address)
	if err != nil {
		return err
	}
	state, err := j.node.CounterLayout().Decode(a.Data)
	if err != nil {
		return err
	}
	reply.Value = state.Value
	reply.Authority = state.Authority
	return nil
}

type DeriveAddressArgs struct {
	ProgramID codec.Address `json:"programID"`
	Seeds     [][]byte      `json:"seeds"`
}

type DeriveAddressReply struct {
	Address codec.Address `json:"address"`
	Bump    uint8         `json:"bump"`
}

func (*JSONRPCServer) DeriveAddress(_ *http.Request, args *DeriveAddressArgs, reply *DeriveAddressReply) error {
	auth, err := pda.Find(args.Seeds, args.ProgramID)
	if err != nil {
		return err
	}
	reply.Address = auth.Address
	reply.Bump = auth.Bump
	return nil
}

// ExecuteArgs is the wire form of a signed [runtime.Transaction].
type ExecuteArgs struct {
	ProgramID  codec.Address            `json:"programID"`
	Entry      string                   `json:"entry"`
	Accounts   []account.Meta           `json:"accounts"`
	Data       []byte                   `json:"data"`
	Signatures map[codec.Address][]byte `json:"signatures"`
}

func NewExecuteArgs(tx *runtime.Transaction) *ExecuteArgs {
	args := &ExecuteArgs{
		ProgramID:  tx.ProgramID,
		Entry:      tx.Entry,
		Accounts:   tx.Accounts,
		Data:       tx.Data,
		Signatures: make(map[codec.Address][]byte, len(tx.Signatures)),
	}
	for signer, sig := range tx.Signatures {
		args.Signatures[signer] = bytes.Clone(sig[:])
	}
	return args
}

func (a *ExecuteArgs) Transaction() (*runtime.Transaction, error) {
	tx := &runtime.Transaction{
		ProgramID:  a.ProgramID,
		Entry:      a.Entry,
		Accounts:   a.Accounts,
		Data:       a.Data,
		Signatures: make(map[codec.Address]ed25519.Signature, len(a.Signatures)),
	}
	for signer, b := range a.Signatures {
		if len(b) != ed25519.SignatureLen {
			return nil, fmt.Errorf("%w: %s signed %d bytes", ErrInvalidSignatureLength, signer, len(b))
		}
		tx.Signatures[signer] = ed25519.Signature(b)
	}
	return tx, nil
}

type ExecuteReply struct {
	Success bool `json:"success"`
}

func (j *JSONRPCServer) Execute(req *http.Request, args *ExecuteArgs, reply *ExecuteReply) error {
	ctx, span := j.node.Tracer().Start(req.Context(), "JSONRPCServer.Execute")
	defer span.End()

	tx, err := args.Transaction()
	if err != nil {
		return err
	}
	if err := j.node.Execute(ctx, tx); err != nil {
		j.node.Logger().Debug("transaction failed",
			zap.Stringer("program", tx.ProgramID),
			zap.Error(err),
		)
		return err
	}
	reply.Success = true
	return nil
}

type StatsReply struct {
	Executed uint64 `json:"executed"`
	Failed   uint64 `json:"failed"`
}

func (j *JSONRPCServer) Stats(_ *http.Request, _ *struct{}, reply *StatsReply) error {
	reply.Executed, reply.Failed = j.node.Stats()
	return nil
}
