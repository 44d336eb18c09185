// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package runtime

import (
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	invocations        prometheus.Counter
	invocationFailures prometheus.Counter
	hostRejections     prometheus.Counter
	cpiCalls           prometheus.Counter
	rollbacks          prometheus.Counter
}

func newMetrics(r prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		invocations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "runtime",
			Name:      "invocations",
			Help:      "number of top level invocations",
		}),
		invocationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "runtime",
			Name:      "invocation_failures",
			Help:      "number of top level invocations that failed",
		}),
		hostRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "runtime",
			Name:      "host_rejections",
			Help:      "number of failed invocations rejected by the runtime rather than a program",
		}),
		cpiCalls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "runtime",
			Name:      "cpi_calls",
			Help:      "number of cross-program invocations",
		}),
		rollbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "runtime",
			Name:      "rolled_back_accounts",
			Help:      "number of modified accounts restored after a failure",
		}),
	}
	errs := wrappers.Errs{}
	errs.Add(
		r.Register(m.invocations),
		r.Register(m.invocationFailures),
		r.Register(m.hostRejections),
		r.Register(m.cpiCalls),
		r.Register(m.rollbacks),
	)
	return m, errs.Err
}
