// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package runtime

import (
	"github.com/ava-labs/hyperprog/account"
	"github.com/ava-labs/hyperprog/codec"
	"github.com/ava-labs/hyperprog/crypto/ed25519"
)

// Transaction is a single top level invocation submitted to the Executor.
type Transaction struct {
	ProgramID  codec.Address
	Entry      string
	Accounts   []account.Meta
	Data       []byte
	Signatures map[codec.Address]ed25519.Signature
}

type message struct {
	ProgramID codec.Address
	Entry     string
	Accounts  []metaRecord
	Data      []byte
}

type metaRecord struct {
	Address    codec.Address
	IsSigner   bool
	IsWritable bool
}

// Message is the byte string every signer signs.
func (tx *Transaction) Message() ([]byte, error) {
	metas := make([]metaRecord, len(tx.Accounts))
	for i, m := range tx.Accounts {
		metas[i] = metaRecord(m)
	}
	return codec.Serialize(message{
		ProgramID: tx.ProgramID,
		Entry:     tx.Entry,
		Accounts:  metas,
		Data:      tx.Data,
	})
}

// Sign adds the signature of [pk] to the transaction.
func (tx *Transaction) Sign(pk ed25519.PrivateKey) error {
	msg, err := tx.Message()
	if err != nil {
		return err
	}
	if tx.Signatures == nil {
		tx.Signatures = map[codec.Address]ed25519.Signature{}
	}
	tx.Signatures[pk.PublicKey().Address()] = ed25519.Sign(msg, pk)
	return nil
}

// NewTransaction wraps [ix] as a top level transaction signed by [signers].
func NewTransaction(ix *Instruction, signers ...ed25519.PrivateKey) (*Transaction, error) {
	tx := &Transaction{
		ProgramID: ix.ProgramID,
		Entry:     ix.Entry,
		Accounts:  ix.Accounts,
		Data:      ix.Data,
	}
	for _, pk := range signers {
		if err := tx.Sign(pk); err != nil {
			return nil, err
		}
	}
	return tx, nil
}
