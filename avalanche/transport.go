// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package avalanche

import "github.com/luxfi/ids"

// Transport is the fire-and-forget send primitive the scheduler emits
// polls through. Implementations own their own send queue; the engine
// never blocks on network I/O, matching spec.md §5's suspension model.
type Transport interface {
	SendPoll(nodeID ids.NodeID, poll Poll)
}
