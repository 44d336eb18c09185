// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package account

import (
	"fmt"

	"github.com/ava-labs/hyperprog/codec"
)

// Context is the ordered list of accounts supplied to one invocation.
// Programs consume it positionally with Next, in the order their protocol
// defines.
type Context struct {
	accounts []*Account
	next     int
}

func NewContext(accounts []*Account) *Context {
	return &Context{accounts: accounts}
}

// Next returns the next account in protocol order.
func (c *Context) Next() (*Account, error) {
	if c.next >= len(c.accounts) {
		return nil, fmt.Errorf("%w: wanted account %d, have %d", ErrMissingAccount, c.next, len(c.accounts))
	}
	a := c.accounts[c.next]
	c.next++
	return a, nil
}

// Remaining is the number of accounts Next has not yet returned.
func (c *Context) Remaining() int {
	return len(c.accounts) - c.next
}

func (c *Context) Len() int {
	return len(c.accounts)
}

// Accounts returns every account, regardless of how many were consumed.
func (c *Context) Accounts() []*Account {
	return c.accounts
}

// Find returns the first account with [addr].
func (c *Context) Find(addr codec.Address) (*Account, bool) {
	for _, a := range c.accounts {
		if a.Address == addr {
			return a, true
		}
	}
	return nil, false
}
