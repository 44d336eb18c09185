// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type testRecord struct {
	Value uint64
	Owner Address
}

func TestDeserializeExact(t *testing.T) {
	require := require.New(t)

	record := testRecord{Value: 42, Owner: Address{1, 2, 3}}
	b, err := Serialize(record)
	require.NoError(err)
	require.Len(b, 8+AddressLen)

	decoded, err := DeserializeExact[testRecord](b, len(b))
	require.NoError(err)
	require.Equal(record, *decoded)

	_, err = DeserializeExact[testRecord](append(b, 0), len(b))
	require.ErrorIs(err, ErrInvalidSize)

	_, err = Deserialize[testRecord](b[:4])
	require.ErrorIs(err, ErrInsufficientLength)
}

func TestSerializeLittleEndian(t *testing.T) {
	require := require.New(t)

	b, err := Serialize(uint32(21))
	require.NoError(err)
	require.Equal([]byte{21, 0, 0, 0}, b)
}
