// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package avalanche

import (
	"github.com/luxfi/metric"

	"github.com/luxfi/avalanche-engine/utils/wrappers"
)

// Metrics tracks engine-level counters exposed to the host process's
// metrics registry. It has no behavior of its own; every method is a
// thin wrapper over a metric.Counter or metric.Gauge obtained at
// construction.
type Metrics struct {
	pollsSent        metric.Counter
	responsesMatched metric.Counter
	responsesDropped metric.Counter
	queriesTimedOut  metric.Counter
	itemsFinalized   metric.Counter
	itemsInvalidated metric.Counter
	itemsStale       metric.Counter

	blocksInFlight metric.Gauge
	proofsInFlight metric.Gauge
	quorumLatched  metric.Gauge
}

// NewMetrics constructs the engine's metrics and registers each of them
// against registerer. A nil registerer gets its own fresh metric.Registry,
// matching the fallback platformvm's VM.Initialize uses when no chain
// context registry is available.
func NewMetrics(registerer metric.Registerer) (*Metrics, error) {
	if registerer == nil {
		registerer = metric.NewRegistry()
	}

	m := &Metrics{
		pollsSent: metric.NewCounter(metric.CounterOpts{
			Name: "avalanche_polls_sent",
			Help: "Number of Poll messages sent to peers",
		}),
		responsesMatched: metric.NewCounter(metric.CounterOpts{
			Name: "avalanche_responses_matched",
			Help: "Number of Response messages matched to an outstanding query",
		}),
		responsesDropped: metric.NewCounter(metric.CounterOpts{
			Name: "avalanche_responses_dropped",
			Help: "Number of Response messages rejected as unmatched or malformed",
		}),
		queriesTimedOut: metric.NewCounter(metric.CounterOpts{
			Name: "avalanche_queries_timed_out",
			Help: "Number of outstanding queries that expired unanswered",
		}),
		itemsFinalized: metric.NewCounter(metric.CounterOpts{
			Name: "avalanche_items_finalized",
			Help: "Number of items that reached the Finalized terminal status",
		}),
		itemsInvalidated: metric.NewCounter(metric.CounterOpts{
			Name: "avalanche_items_invalidated",
			Help: "Number of items that reached the Invalid terminal status",
		}),
		itemsStale: metric.NewCounter(metric.CounterOpts{
			Name: "avalanche_items_stale",
			Help: "Number of items evicted as Stale before reaching a terminal status",
		}),
		blocksInFlight: metric.NewGauge(metric.GaugeOpts{
			Name: "avalanche_blocks_in_reconciliation",
			Help: "Number of blocks currently held in the block VoteMap",
		}),
		proofsInFlight: metric.NewGauge(metric.GaugeOpts{
			Name: "avalanche_proofs_in_reconciliation",
			Help: "Number of proofs currently held in the proof VoteMap",
		}),
		quorumLatched: metric.NewGauge(metric.GaugeOpts{
			Name: "avalanche_quorum_latched",
			Help: "1 once the quorum gate has latched, 0 until then",
		}),
	}

	errs := wrappers.Errs{}
	errs.Add(
		registerer.Register(metric.AsCollector(m.pollsSent)),
		registerer.Register(metric.AsCollector(m.responsesMatched)),
		registerer.Register(metric.AsCollector(m.responsesDropped)),
		registerer.Register(metric.AsCollector(m.queriesTimedOut)),
		registerer.Register(metric.AsCollector(m.itemsFinalized)),
		registerer.Register(metric.AsCollector(m.itemsInvalidated)),
		registerer.Register(metric.AsCollector(m.itemsStale)),
		registerer.Register(metric.AsCollector(m.blocksInFlight)),
		registerer.Register(metric.AsCollector(m.proofsInFlight)),
		registerer.Register(metric.AsCollector(m.quorumLatched)),
	)
	if errs.Errored() {
		return nil, errs.Err
	}
	return m, nil
}

func (m *Metrics) PollSent()        { m.pollsSent.Inc() }
func (m *Metrics) ResponseMatched() { m.responsesMatched.Inc() }
func (m *Metrics) ResponseDropped() { m.responsesDropped.Inc() }
func (m *Metrics) QueryTimedOut()   { m.queriesTimedOut.Inc() }
func (m *Metrics) ItemFinalized()   { m.itemsFinalized.Inc() }
func (m *Metrics) ItemInvalidated() { m.itemsInvalidated.Inc() }
func (m *Metrics) ItemStale()       { m.itemsStale.Inc() }

func (m *Metrics) SetBlocksInFlight(n int) { m.blocksInFlight.Set(float64(n)) }
func (m *Metrics) SetProofsInFlight(n int) { m.proofsInFlight.Set(float64(n)) }

func (m *Metrics) SetQuorumLatched(latched bool) {
	if latched {
		m.quorumLatched.Set(1)
		return
	}
	m.quorumLatched.Set(0)
}
