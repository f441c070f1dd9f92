// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package avalanche

import "fmt"

// Status is the outcome of a VoteRecord's confidence machine after folding
// in a vote. Accepted and Rejected are intermediate: they mark a flip of
// the record's current side and are reported to the caller, but the record
// keeps voting. Finalized, Invalid and Stale are terminal: the record is
// removed from its VoteMap and stops accepting further votes.
type Status uint8

const (
	Accepted Status = iota
	Rejected
	Finalized
	Invalid
	Stale
)

func (s Status) String() string {
	switch s {
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	case Finalized:
		return "finalized"
	case Invalid:
		return "invalid"
	case Stale:
		return "stale"
	default:
		return fmt.Sprintf("unknown status (%d)", uint8(s))
	}
}

// Update is a change in a single item's vote status, appended to the
// caller-owned output lists drained after RegisterVotes returns.
type Update[T Item] struct {
	Item   T
	Status Status
}
