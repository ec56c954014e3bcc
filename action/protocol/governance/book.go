// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package governance

import (
	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"

	"github.com/iotexproject/iotex-dao/action/protocol"
	"github.com/iotexproject/iotex-dao/pkg/util/byteutil"
	"github.com/iotexproject/iotex-dao/state"
)

var (
	_proposalPrefix = []byte("proposal.")
	_votePrefix     = []byte("vote.")
	_blockPrefix    = []byte("block.")
	_countersKey    = []byte("counters")
)

// Book stores the proposals, votes and counters of one engine
type Book struct {
	ns     string
	prefix []byte
	scope  CollisionScope
}

// NewBook creates the book of engine stored in namespace ns
func NewBook(ns string, engine address.Address, scope CollisionScope) *Book {
	return &Book{
		ns:     ns,
		prefix: engine.Bytes(),
		scope:  scope,
	}
}

// Proposal returns the proposal stored under key, state.ErrStateNotExist if there is none
func (b *Book) Proposal(sr protocol.StateReader, key []byte) (*Proposal, error) {
	p := &Proposal{}
	if err := b.state(sr, byteutil.JoinBytes(_proposalPrefix, key), p); err != nil {
		return nil, err
	}
	return p, nil
}

// PutProposal stores a proposal under key
func (b *Book) PutProposal(sm protocol.StateManager, key []byte, p *Proposal) error {
	return b.putState(sm, byteutil.JoinBytes(_proposalPrefix, key), p)
}

// VoteRecord returns the ballot of voter on the proposal under key, nil if voter has not voted
func (b *Book) VoteRecord(sr protocol.StateReader, key []byte, voter address.Address) (*VoteRecord, error) {
	v := &VoteRecord{}
	switch err := b.state(sr, b.voteKey(key, voter), v); errors.Cause(err) {
	case nil:
		return v, nil
	case state.ErrStateNotExist:
		return nil, nil
	default:
		return nil, err
	}
}

// PutVoteRecord stores the ballot of voter
func (b *Book) PutVoteRecord(sm protocol.StateManager, key []byte, voter address.Address, v *VoteRecord) error {
	return b.putState(sm, b.voteKey(key, voter), v)
}

// Counters returns the engine counters
func (b *Book) Counters(sr protocol.StateReader) (*Counters, error) {
	c := &Counters{}
	switch err := b.state(sr, _countersKey, c); errors.Cause(err) {
	case nil, state.ErrStateNotExist:
		return c, nil
	default:
		return nil, err
	}
}

// PutCounters stores the engine counters
func (b *Book) PutCounters(sm protocol.StateManager, c *Counters) error {
	return b.putState(sm, _countersKey, c)
}

// ProposedAt returns true if a proposal colliding with proposer was created at height
func (b *Book) ProposedAt(sr protocol.StateReader, height uint64, proposer address.Address) (bool, error) {
	var h uint64
	switch err := b.state(sr, b.blockKey(height, proposer), &h); errors.Cause(err) {
	case nil:
		return true, nil
	case state.ErrStateNotExist:
		return false, nil
	default:
		return false, err
	}
}

// MarkProposedAt records a proposal of proposer at height
func (b *Book) MarkProposedAt(sm protocol.StateManager, height uint64, proposer address.Address) error {
	return b.putState(sm, b.blockKey(height, proposer), &height)
}

func (b *Book) voteKey(key []byte, voter address.Address) []byte {
	return byteutil.JoinBytes(_votePrefix, key, []byte("."), voter.Bytes())
}

func (b *Book) blockKey(height uint64, proposer address.Address) []byte {
	if b.scope == PerProposerScope {
		return byteutil.JoinBytes(_blockPrefix, byteutil.Uint64ToBytesBigEndian(height), proposer.Bytes())
	}
	return byteutil.JoinBytes(_blockPrefix, byteutil.Uint64ToBytesBigEndian(height))
}

func (b *Book) state(sr protocol.StateReader, key []byte, value interface{}) error {
	_, err := sr.State(value, protocol.NamespaceOption(b.ns), protocol.KeyOption(byteutil.JoinBytes(b.prefix, key)))
	return err
}

func (b *Book) putState(sm protocol.StateManager, key []byte, value interface{}) error {
	_, err := sm.PutState(value, protocol.NamespaceOption(b.ns), protocol.KeyOption(byteutil.JoinBytes(b.prefix, key)))
	return err
}
