// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"context"
	"strings"

	"github.com/ava-labs/hyperprog/codec"
	"github.com/ava-labs/hyperprog/runtime"

	avarpc "github.com/ava-labs/avalanchego/utils/rpc"
)

type JSONRPCClient struct {
	requester avarpc.EndpointRequester
}

func NewJSONRPCClient(uri string) *JSONRPCClient {
	uri = strings.TrimSuffix(uri, "/")
	uri += JSONRPCEndpoint
	return &JSONRPCClient{requester: avarpc.NewEndpointRequester(uri)}
}

func (cli *JSONRPCClient) send(ctx context.Context, method string, params any, reply any) error {
	return cli.requester.SendRequest(ctx, Name+"."+method, params, reply)
}

func (cli *JSONRPCClient) Ping(ctx context.Context) (bool, error) {
	resp := new(PingReply)
	err := cli.send(ctx, "ping", nil, resp)
	return resp.Success, err
}

func (cli *JSONRPCClient) Programs(ctx context.Context) ([]Program, error) {
	resp := new(ProgramsReply)
	err := cli.send(ctx, "programs", nil, resp)
	return resp.Programs, err
}

func (cli *JSONRPCClient) GetAccount(ctx context.Context, addr codec.Address) (*AccountReply, error) {
	resp := new(AccountReply)
	if err := cli.send(ctx, "getAccount", &AddressArgs{Address: addr}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (cli *JSONRPCClient) Counter(ctx context.Context, addr codec.Address) (*CounterReply, error) {
	resp := new(CounterReply)
	if err := cli.send(ctx, "counter", &AddressArgs{Address: addr}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (cli *JSONRPCClient) DeriveAddress(ctx context.Context, programID codec.Address, seeds [][]byte) (codec.Address, uint8, error) {
	resp := new(DeriveAddressReply)
	err := cli.send(ctx, "deriveAddress", &DeriveAddressArgs{ProgramID: programID, Seeds: seeds}, resp)
	return resp.Address, resp.Bump, err
}

func (cli *JSONRPCClient) Execute(ctx context.Context, tx *runtime.Transaction) error {
	return cli.send(ctx, "execute", NewExecuteArgs(tx), new(ExecuteReply))
}

func (cli *JSONRPCClient) Stats(ctx context.Context) (uint64, uint64, error) {
	resp := new(StatsReply)
	err := cli.send(ctx, "stats", nil, resp)
	return resp.Executed, resp.Failed, err
}
