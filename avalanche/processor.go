// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package avalanche

import (
	"sync"
	"time"

	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/luxfi/metric"

	"github.com/luxfi/avalanche-engine/avalanche/peer"
)

// staleSweepEveryNTicks is how often, in scheduler ticks, the background
// event loop runs the slower SweepStale pass, per SweepStale's own doc
// comment ("callers typically run this on a slower cadence than Tick").
const staleSweepEveryNTicks = 10

// LocalParticipant carries the key material a node needs to speak for its
// own stake proof, per spec.md §6's masterkey/proof configuration option.
// A Processor with no LocalParticipant still reconciles and votes on
// others' items; it simply has no Hello of its own to send.
type LocalParticipant struct {
	SessionPubKey []byte
	ProofID       ids.ID
}

// Processor is the engine's top-level handle: the glue spec.md's "Glue
// (config, wiring, update delivery)" component describes, wiring the two
// VoteMaps, the QuerySet, the QuorumGate, and the PollScheduler behind
// the inbound API external callers use.
type Processor struct {
	log       log.Logger
	metrics   *Metrics
	params    Params
	peers     peer.Manager
	scheduler *PollScheduler
	quorum    *QuorumGate

	blocks *VoteMap
	proofs *VoteMap

	local   *LocalParticipant
	localMu sync.RWMutex

	updatesMu      sync.Mutex
	pendingUpdates []Update[Item]

	runMu   sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewProcessor constructs a Processor wired over transport and peers. It
// does not validate params; callers are expected to have run
// config.Config.Validate before calling config.Config.ToParams. It fails
// only if registerer is non-nil and rejects one of the engine's metrics
// (for example, a name collision against an already-populated registry).
func NewProcessor(
	logger log.Logger,
	registerer metric.Registerer,
	params Params,
	transport Transport,
	peers peer.Manager,
	local *LocalParticipant,
) (*Processor, error) {
	blocks := NewVoteMap(KindBlock)
	proofs := NewVoteMap(KindProof)
	queries := NewQuerySet()
	quorum := NewQuorumGate(params.MinQuorumScore, params.MinQuorumConnectedScoreRatio, params.MinAvaproofsNodeCount)
	metrics, err := NewMetrics(registerer)
	if err != nil {
		return nil, err
	}

	scheduler := NewPollScheduler(logger, metrics, params, transport, peers, blocks, proofs, queries, quorum)

	return &Processor{
		log:       logger,
		metrics:   metrics,
		params:    params,
		peers:     peers,
		scheduler: scheduler,
		quorum:    quorum,
		blocks:    blocks,
		proofs:    proofs,
		local:     local,
	}, nil
}

// AddBlockToReconcile admits block into reconciliation. It returns true
// iff the block was not already present.
func (p *Processor) AddBlockToReconcile(block *BlockItem) bool {
	_, created := p.blocks.Add(block, true)
	return created
}

// AddProofToReconcile admits proof into reconciliation. It returns true
// iff the proof was newly inserted and is currently policy-eligible for
// polling: bound to a peer, or sitting in the conflicting pool while
// EnableProofReplacement is set.
func (p *Processor) AddProofToReconcile(proof *ProofItem) bool {
	bound := p.peers.IsBoundToPeer(proof.ID)
	eligible := bound || (p.params.EnableProofReplacement && p.peers.IsInConflictingPool(proof.ID))
	_, created := p.proofs.Add(proof, bound)
	return created && eligible
}

// IsAccepted reports whether id is currently accepted. Unknown items
// report false, matching spec.md §6's null/unknown sentinel.
func (p *Processor) IsAccepted(kind ItemKind, id ids.ID) bool {
	_, record, ok := p.voteMapFor(kind).Get(id)
	return ok && record.Accepted()
}

// GetConfidence reports id's current confidence, or -1 if id is unknown.
func (p *Processor) GetConfidence(kind ItemKind, id ids.ID) int {
	_, record, ok := p.voteMapFor(kind).Get(id)
	if !ok {
		return -1
	}
	return record.Confidence()
}

func (p *Processor) voteMapFor(kind ItemKind) *VoteMap {
	if kind == KindBlock {
		return p.blocks
	}
	return p.proofs
}

// RegisterVotes folds a peer's Response into the engine, returning the
// status updates it produced split by kind, per spec.md §6's separate
// block_updates/proof_updates output lists.
func (p *Processor) RegisterVotes(nodeID ids.NodeID, response *Response) (blockUpdates, proofUpdates []Update[Item], err error) {
	updates, err := p.scheduler.RegisterVotes(nodeID, response)
	if err != nil {
		return nil, nil, err
	}
	blockUpdates, proofUpdates = splitByKind(updates)
	return blockUpdates, proofUpdates, nil
}

// DrainUpdates returns and clears every status update the background
// staleness sweep has produced since the last call, split by kind the
// same way RegisterVotes splits its own return value. Unlike
// RegisterVotes' updates, which are handed back synchronously to the
// caller that supplied the triggering Response, Stale updates surface on
// the event loop's own schedule, so callers running Start poll
// DrainUpdates periodically to collect them.
func (p *Processor) DrainUpdates() (blockUpdates, proofUpdates []Update[Item]) {
	p.updatesMu.Lock()
	updates := p.pendingUpdates
	p.pendingUpdates = nil
	p.updatesMu.Unlock()
	return splitByKind(updates)
}

func (p *Processor) appendPendingUpdates(updates []Update[Item]) {
	if len(updates) == 0 {
		return
	}
	p.updatesMu.Lock()
	p.pendingUpdates = append(p.pendingUpdates, updates...)
	p.updatesMu.Unlock()
}

func splitByKind(updates []Update[Item]) (blockUpdates, proofUpdates []Update[Item]) {
	for _, u := range updates {
		if u.Item.Kind() == KindBlock {
			blockUpdates = append(blockUpdates, u)
		} else {
			proofUpdates = append(proofUpdates, u)
		}
	}
	return blockUpdates, proofUpdates
}

// GetSessionPubKey returns this node's session public key, or nil if it
// has no LocalParticipant configured.
func (p *Processor) GetSessionPubKey() []byte {
	p.localMu.RLock()
	defer p.localMu.RUnlock()
	if p.local == nil {
		return nil
	}
	return p.local.SessionPubKey
}

// GetLocalProof returns this node's own proof id, if it has one.
func (p *Processor) GetLocalProof() (ids.ID, bool) {
	p.localMu.RLock()
	defer p.localMu.RUnlock()
	if p.local == nil {
		return ids.Empty, false
	}
	return p.local.ProofID, true
}

// SendHello builds the Hello this node sends to a newly connected peer.
// ok is false if this node has no LocalParticipant and so nothing to
// announce.
func (p *Processor) SendHello() (hello Hello, ok bool) {
	p.localMu.RLock()
	defer p.localMu.RUnlock()
	if p.local == nil {
		return Hello{}, false
	}
	return Hello{SessionPubKey: p.local.SessionPubKey, ProofID: p.local.ProofID}, true
}

// AvaproofsSent records a distinct peer's avaproofs hello.
func (p *Processor) AvaproofsSent(nodeID ids.NodeID) { p.quorum.AvaproofsSent(nodeID) }

// GetAvaproofsNodeCounter is the number of distinct peers that have sent
// an avaproofs hello so far.
func (p *Processor) GetAvaproofsNodeCounter() uint64 { return p.quorum.AvaproofsNodeCounter() }

// IsQuorumEstablished reports whether the quorum gate has latched.
func (p *Processor) IsQuorumEstablished() bool { return p.quorum.Established() }

// Start begins the periodic event loop on a dedicated goroutine, ticking
// at roughly Params.TickInterval. It returns false without effect if the
// engine is already running.
func (p *Processor) Start() bool {
	p.runMu.Lock()
	defer p.runMu.Unlock()
	if p.running {
		return false
	}
	p.running = true
	p.stopCh = make(chan struct{})

	p.wg.Add(1)
	go p.run(p.stopCh)
	return true
}

func (p *Processor) run(stop chan struct{}) {
	defer p.wg.Done()

	interval := p.params.TickInterval
	if interval <= 0 {
		interval = DefaultQueryTimeout / 10
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var ticks uint64
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.scheduler.Tick()
			ticks++
			if ticks%staleSweepEveryNTicks == 0 {
				p.appendPendingUpdates(p.scheduler.SweepStale())
			}
		}
	}
}

// Stop cancels the event loop and discards every pending query. No
// terminal-status updates are synthesized for the items those queries
// referenced, per spec.md §5. It returns false without effect if the
// engine is not running.
func (p *Processor) Stop() bool {
	p.runMu.Lock()
	if !p.running {
		p.runMu.Unlock()
		return false
	}
	p.running = false
	close(p.stopCh)
	p.runMu.Unlock()

	p.wg.Wait()
	p.scheduler.queries.Clear()
	return true
}
