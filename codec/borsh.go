// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package codec

import (
	"fmt"

	"github.com/near/borsh-go"
)

// Serialize encodes [value] using borsh.
func Serialize[T any](value T) ([]byte, error) {
	return borsh.Serialize(value)
}

// Deserialize decodes a borsh encoded [T] from the front of [data]. Trailing
// bytes are ignored, use DeserializeExact when the layout is fixed.
func Deserialize[T any](data []byte) (*T, error) {
	result := new(T)
	if err := borsh.Deserialize(result, data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInsufficientLength, err)
	}
	return result, nil
}

// DeserializeExact decodes a borsh encoded [T] that must occupy exactly
// [size] bytes.
func DeserializeExact[T any](data []byte, size int) (*T, error) {
	if len(data) != size {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidSize, size, len(data))
	}
	return Deserialize[T](data)
}
