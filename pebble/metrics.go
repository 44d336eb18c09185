// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pebble

import (
	"time"

	"github.com/ava-labs/avalanchego/utils/metric"
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/cockroachdb/pebble"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace       = "accountdb"
	metricsInterval = 10 * time.Second
)

type metrics struct {
	stallStart time.Time
	stalls     metric.Averager
	reads      metric.Averager

	commits           prometheus.Counter
	compactions       *prometheus.CounterVec
	activeCompactions prometheus.Gauge
	tombstones        prometheus.Gauge
	obsoleteBytes     *prometheus.GaugeVec
	obsoleteFiles     *prometheus.GaugeVec
}

func newMetrics(r prometheus.Registerer) (*metrics, error) {
	stalls, err := metric.NewAverager("", namespace+"_write_stall", "time writes spent stalled on compaction", r)
	if err != nil {
		return nil, err
	}
	reads, err := metric.NewAverager("", namespace+"_read_latency", "time spent reading one account", r)
	if err != nil {
		return nil, err
	}
	m := &metrics{
		stalls: stalls,
		reads:  reads,
		commits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_commits",
			Help:      "number of account batches committed",
		}),
		compactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compactions",
			Help:      "number of compactions started, by input level",
		}, []string{"level"}),
		activeCompactions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_compactions",
			Help:      "number of running compactions",
		}),
		tombstones: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tombstones",
			Help:      "approximate number of deleted accounts not yet compacted away",
		}),
		obsoleteBytes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "obsolete_bytes",
			Help:      "bytes held by files the store no longer needs",
		}, []string{"kind"}),
		obsoleteFiles: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "obsolete_files",
			Help:      "files the store no longer needs",
		}, []string{"kind"}),
	}
	errs := wrappers.Errs{}
	errs.Add(
		r.Register(m.commits),
		r.Register(m.compactions),
		r.Register(m.activeCompactions),
		r.Register(m.tombstones),
		r.Register(m.obsoleteBytes),
		r.Register(m.obsoleteFiles),
	)
	return m, errs.Err
}

func compactionLevel(info pebble.CompactionInfo) string {
	if len(info.Input) > 0 && info.Input[0].Level == 0 {
		return "l0"
	}
	return "deeper"
}

func (db *Database) onCompactionBegin(info pebble.CompactionInfo) {
	db.metrics.activeCompactions.Inc()
	db.metrics.compactions.WithLabelValues(compactionLevel(info)).Inc()
}

func (db *Database) onCompactionEnd(pebble.CompactionInfo) {
	db.metrics.activeCompactions.Dec()
}

func (db *Database) onWriteStallBegin(pebble.WriteStallBeginInfo) {
	db.metrics.stallStart = time.Now()
}

func (db *Database) onWriteStallEnd() {
	db.metrics.stalls.Observe(float64(time.Since(db.metrics.stallStart)))
}

func (db *Database) observeRead(start time.Time) {
	db.metrics.reads.Observe(float64(time.Since(start)))
}

// sample copies pebble's internal counters into the gauges.
func (db *Database) sample() {
	m := db.db.Metrics()
	db.metrics.tombstones.Set(float64(m.Keys.TombstoneCount))
	for _, s := range []struct {
		kind  string
		bytes float64
		files float64
	}{
		{kind: "table", bytes: float64(m.Table.ObsoleteSize), files: float64(m.Table.ObsoleteCount)},
		{kind: "zombie", bytes: float64(m.Table.ZombieSize), files: float64(m.Table.ZombieCount)},
		{kind: "wal", bytes: float64(m.WAL.ObsoletePhysicalSize), files: float64(m.WAL.ObsoleteFiles)},
	} {
		db.metrics.obsoleteBytes.WithLabelValues(s.kind).Set(s.bytes)
		db.metrics.obsoleteFiles.WithLabelValues(s.kind).Set(s.files)
	}
}

func (db *Database) collectMetrics() {
	t := time.NewTicker(metricsInterval)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			db.l.RLock()
			if !db.closed {
				db.sample()
			}
			db.l.RUnlock()
		case <-db.closing:
			return
		}
	}
}
