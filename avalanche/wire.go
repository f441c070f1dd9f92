// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package avalanche

import (
	"github.com/luxfi/ids"

	"github.com/luxfi/avalanche-engine/utils/wrappers"
)

// Inv identifies one item a Poll asks a peer to vote on.
type Inv struct {
	Kind ItemKind
	Hash ids.ID
}

// Poll is the outbound query sent to a single peer: the round it belongs
// to (used to match the eventual Response) and the items being asked
// about, at most MaxElementPoll of them.
type Poll struct {
	Round uint64
	Invs  []Inv
}

// Vote is one peer's answer about a single item. ErrorCode follows the
// convention documented on rawVote: 0 is yes, negative is neutral,
// positive non-zero is no.
type Vote struct {
	Hash      ids.ID
	ErrorCode int32
}

// Response is a peer's answer to a Poll. Votes must be the same length
// and in the same order as the Invs of the Poll it answers, or the whole
// Response is rejected with ErrInvalidResponseSize/ErrInvalidResponseContent
// per spec.md §5.
type Response struct {
	Round      uint64
	CooldownMS uint32
	Votes      []Vote
}

// Hello is the avaproofs handshake message a node sends a newly connected
// peer to announce its own session key and the proof it stakes its
// participation on.
type Hello struct {
	SessionPubKey []byte
	ProofID       ids.ID
}

// PackPoll serializes p using the length-prefixed wire convention of
// wrappers.Packer, one PackFixedBytes-tagged Inv per entry.
func PackPoll(p *Poll) ([]byte, error) {
	packer := wrappers.Packer{MaxSize: wrappers.MaxStringLen}
	packer.PackLong(p.Round)
	packer.PackInt(uint32(len(p.Invs)))
	for _, inv := range p.Invs {
		packer.PackByte(byte(inv.Kind))
		packer.PackFixedBytes(inv.Hash[:])
	}
	return packer.Bytes, packer.Err
}

// UnpackPoll deserializes a Poll packed by PackPoll.
func UnpackPoll(b []byte) (*Poll, error) {
	packer := wrappers.Packer{Bytes: b}
	p := &Poll{Round: packer.UnpackLong()}
	n := packer.UnpackInt()
	p.Invs = make([]Inv, 0, n)
	for i := uint32(0); i < n; i++ {
		kind := ItemKind(packer.UnpackByte())
		hashBytes := packer.UnpackFixedBytes(len(ids.ID{}))
		if packer.Errored() {
			break
		}
		var hash ids.ID
		copy(hash[:], hashBytes)
		p.Invs = append(p.Invs, Inv{Kind: kind, Hash: hash})
	}
	return p, packer.Err
}

// PackResponse serializes r using the same wire convention as PackPoll.
func PackResponse(r *Response) ([]byte, error) {
	packer := wrappers.Packer{MaxSize: wrappers.MaxStringLen}
	packer.PackLong(r.Round)
	packer.PackInt(r.CooldownMS)
	packer.PackInt(uint32(len(r.Votes)))
	for _, v := range r.Votes {
		packer.PackFixedBytes(v.Hash[:])
		packer.PackInt(uint32(v.ErrorCode))
	}
	return packer.Bytes, packer.Err
}

// UnpackResponse deserializes a Response packed by PackResponse.
func UnpackResponse(b []byte) (*Response, error) {
	packer := wrappers.Packer{Bytes: b}
	r := &Response{
		Round:      packer.UnpackLong(),
		CooldownMS: packer.UnpackInt(),
	}
	n := packer.UnpackInt()
	r.Votes = make([]Vote, 0, n)
	for i := uint32(0); i < n; i++ {
		hashBytes := packer.UnpackFixedBytes(len(ids.ID{}))
		code := packer.UnpackInt()
		if packer.Errored() {
			break
		}
		var hash ids.ID
		copy(hash[:], hashBytes)
		r.Votes = append(r.Votes, Vote{Hash: hash, ErrorCode: int32(code)})
	}
	return r, packer.Err
}
