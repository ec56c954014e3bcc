// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package governance

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"
)

type (
	// Proposal is the record shared by action and core proposals. ID and Parameters are only set for
	// action proposals, Target is the action of an action proposal and the proposal itself for a core proposal.
	Proposal struct {
		ID           uint64
		Target       address.Address
		Parameters   []byte
		Bond         *big.Int
		Creator      address.Address
		Caller       address.Address
		Window       Window
		LiquidTokens *big.Int
		VotesFor     *big.Int
		VotesAgainst *big.Int
		Concluded    bool
		MetQuorum    bool
		MetThreshold bool
		Passed       bool
		Executed     bool
		Expired      bool
	}

	// VoteRecord is the ballot of a voter on a proposal
	VoteRecord struct {
		Vote   bool
		Amount *big.Int
	}

	// Counters are the per engine proposal counters
	Counters struct {
		Total               uint64
		Concluded           uint64
		Executed            uint64
		LastProposalCreated uint64
	}

	proposalRLP struct {
		ID           uint64
		Target       []byte
		Parameters   []byte
		Bond         *big.Int
		Creator      []byte
		Caller       []byte
		Window       Window
		LiquidTokens *big.Int
		VotesFor     *big.Int
		VotesAgainst *big.Int
		Flags        uint8
	}
)

const (
	_flagConcluded uint8 = 1 << iota
	_flagMetQuorum
	_flagMetThreshold
	_flagPassed
	_flagExecuted
	_flagExpired
)

// Serialize serializes the proposal into bytes
func (p *Proposal) Serialize() ([]byte, error) {
	gen := proposalRLP{
		ID:           p.ID,
		Target:       addrBytes(p.Target),
		Parameters:   p.Parameters,
		Bond:         orZero(p.Bond),
		Creator:      addrBytes(p.Creator),
		Caller:       addrBytes(p.Caller),
		Window:       p.Window,
		LiquidTokens: orZero(p.LiquidTokens),
		VotesFor:     orZero(p.VotesFor),
		VotesAgainst: orZero(p.VotesAgainst),
	}
	for _, f := range []struct {
		set  bool
		flag uint8
	}{
		{p.Concluded, _flagConcluded},
		{p.MetQuorum, _flagMetQuorum},
		{p.MetThreshold, _flagMetThreshold},
		{p.Passed, _flagPassed},
		{p.Executed, _flagExecuted},
		{p.Expired, _flagExpired},
	} {
		if f.set {
			gen.Flags |= f.flag
		}
	}
	return rlp.EncodeToBytes(&gen)
}

// Deserialize deserializes bytes into the proposal
func (p *Proposal) Deserialize(data []byte) error {
	var gen proposalRLP
	if err := rlp.DecodeBytes(data, &gen); err != nil {
		return errors.Wrap(err, "failed to decode proposal")
	}
	var err error
	if p.Target, err = bytesAddr(gen.Target); err != nil {
		return err
	}
	if p.Creator, err = bytesAddr(gen.Creator); err != nil {
		return err
	}
	if p.Caller, err = bytesAddr(gen.Caller); err != nil {
		return err
	}
	p.ID = gen.ID
	p.Parameters = gen.Parameters
	p.Bond = orZero(gen.Bond)
	p.Window = gen.Window
	p.LiquidTokens = orZero(gen.LiquidTokens)
	p.VotesFor = orZero(gen.VotesFor)
	p.VotesAgainst = orZero(gen.VotesAgainst)
	p.Concluded = gen.Flags&_flagConcluded != 0
	p.MetQuorum = gen.Flags&_flagMetQuorum != 0
	p.MetThreshold = gen.Flags&_flagMetThreshold != 0
	p.Passed = gen.Flags&_flagPassed != 0
	p.Executed = gen.Flags&_flagExecuted != 0
	p.Expired = gen.Flags&_flagExpired != 0
	return nil
}

// Result returns the resolution of the proposal from its frozen snapshot and tallies
func (p *Proposal) Result(cfg VotingConfig) Result {
	return Resolve(p.LiquidTokens, p.VotesFor, p.VotesAgainst, cfg.VotingQuorum, cfg.VotingThreshold)
}

// Serialize serializes the vote record into bytes
func (v *VoteRecord) Serialize() ([]byte, error) {
	return rlp.EncodeToBytes(&VoteRecord{Vote: v.Vote, Amount: orZero(v.Amount)})
}

// Deserialize deserializes bytes into the vote record
func (v *VoteRecord) Deserialize(data []byte) error {
	var gen struct {
		Vote   bool
		Amount *big.Int
	}
	if err := rlp.DecodeBytes(data, &gen); err != nil {
		return errors.Wrap(err, "failed to decode vote record")
	}
	v.Vote, v.Amount = gen.Vote, orZero(gen.Amount)
	return nil
}

func addrBytes(addr address.Address) []byte {
	if addr == nil {
		return nil
	}
	return addr.Bytes()
}

func bytesAddr(b []byte) (address.Address, error) {
	if len(b) == 0 {
		return nil, nil
	}
	return address.FromBytes(b)
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return v
}
