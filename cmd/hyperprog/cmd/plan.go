// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v2"

	"github.com/ava-labs/hyperprog/instruction"
)

const (
	AuthoritySigner = "authority"
	StrangerSigner  = "stranger"
)

// Plan is a sequence of counter instructions applied to a fresh counter.
type Plan struct {
	// The name of the plan.
	Name string `json:"name" yaml:"name"`
	// A description of the plan.
	Description string `json:"description" yaml:"description"`
	// Steps to perform, in order.
	Steps []Step `json:"steps" yaml:"steps"`
}

type Step struct {
	Description string `json:"description" yaml:"description"`
	// One of increment, decrement, update or reset.
	Op    string `json:"op" yaml:"op"`
	Value uint64 `json:"value" yaml:"value"`
	// Who signs the step, the counter's authority unless set to stranger.
	Signer  string   `json:"signer,omitempty" yaml:"signer,omitempty"`
	Require *Require `json:"require,omitempty" yaml:"require,omitempty"`
}

type Require struct {
	// The counter value after the step.
	Value *uint64 `json:"value,omitempty" yaml:"value,omitempty"`
	// Whether the step must fail.
	Error bool `json:"error,omitempty" yaml:"error,omitempty"`
}

type Response struct {
	// The index of the step that generated this response.
	ID    int    `json:"id"`
	Value uint64 `json:"value"`
	Error string `json:"error,omitempty"`
}

func unmarshalPlan(b []byte) (*Plan, error) {
	var p Plan
	trimmed := bytes.TrimSpace(b)
	switch {
	case len(trimmed) == 0:
		return nil, ErrInvalidConfigFormat
	case trimmed[0] == '{':
		if err := json.Unmarshal(trimmed, &p); err != nil {
			return nil, err
		}
	default:
		if err := yaml.Unmarshal(trimmed, &p); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfigFormat, err)
		}
	}
	return &p, p.Verify()
}

func (p *Plan) Verify() error {
	if len(p.Steps) == 0 {
		return ErrEmptyPlan
	}
	for i := range p.Steps {
		s := &p.Steps[i]
		if _, err := s.Instruction(); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
		switch s.Signer {
		case "", AuthoritySigner, StrangerSigner:
		default:
			return fmt.Errorf("step %d: %w: %q", i, ErrInvalidSigner, s.Signer)
		}
	}
	return nil
}

func (s *Step) Instruction() (*instruction.Instruction, error) {
	switch s.Op {
	case instruction.Increment.String():
		return instruction.NewIncrement(s.Value), nil
	case instruction.Decrement.String():
		return instruction.NewDecrement(s.Value), nil
	case instruction.Update.String():
		return instruction.NewUpdate(s.Value), nil
	case instruction.Reset.String():
		return instruction.NewReset(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidOp, s.Op)
	}
}

// check validates [r] against the step's requirements.
func (s *Step) check(r *Response) error {
	if s.Require == nil {
		return nil
	}
	if s.Require.Error != (r.Error != "") {
		return fmt.Errorf("%w: step %d expected error=%t, got %q", ErrAssertionFailed, r.ID, s.Require.Error, r.Error)
	}
	if s.Require.Value != nil && *s.Require.Value != r.Value {
		return fmt.Errorf("%w: step %d expected value %d, got %d", ErrAssertionFailed, r.ID, *s.Require.Value, r.Value)
	}
	return nil
}
