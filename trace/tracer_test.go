// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package trace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDisabledTracer(t *testing.T) {
	require := require.New(t)
	cfg := NewDefaultConfig()

	tr, err := New(&cfg)
	require.NoError(err)
	_, span := tr.Start(context.Background(), "test")
	require.False(span.SpanContext().IsValid())
	span.End()
	require.NoError(tr.Close())
}

func TestEnabledTracer(t *testing.T) {
	require := require.New(t)
	cfg := NewDefaultConfig()
	cfg.Enabled = true

	tr, err := New(&cfg)
	require.NoError(err)
	_, span := tr.Start(context.Background(), "test")
	require.True(span.SpanContext().IsValid())
	span.End()
}

func TestValidate(t *testing.T) {
	require := require.New(t)
	cfg := NewDefaultConfig()
	require.NoError(cfg.Validate())

	cfg.TraceSampleRate = 1.5
	require.ErrorIs(cfg.Validate(), ErrInvalidSampleRate)
}
