// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package actionproposals

import (
	"context"
	"encoding/hex"
	"math/big"

	"github.com/iotexproject/iotex-address/address"

	"github.com/iotexproject/iotex-dao/action"
	"github.com/iotexproject/iotex-dao/action/protocol"
	"github.com/iotexproject/iotex-dao/action/protocol/governance"
	"github.com/iotexproject/iotex-dao/pkg/util/byteutil"
)

const (
	// ModuleName is the name the engine is deployed under
	ModuleName = "action-proposals"

	_protocolNS = "ActionProposals"
)

var (
	// ErrInsufficientBalance is returned when the proposer or voter holds too few tokens
	ErrInsufficientBalance = protocol.NewError(1001, "ERR_INSUFFICIENT_BALANCE", protocol.CategoryPrecondition)
	// ErrFetchingTokenData is returned when the token data is missing or the liquid supply is zero
	ErrFetchingTokenData = protocol.NewError(1002, "ERR_FETCHING_TOKEN_DATA", protocol.CategoryPrecondition)
	// ErrProposalNotFound is returned for unknown proposal ids
	ErrProposalNotFound = protocol.NewError(1003, "ERR_PROPOSAL_NOT_FOUND", protocol.CategoryNotFound)
	// ErrProposalVotingActive is returned when a proposal is concluded before voting ends
	ErrProposalVotingActive = protocol.NewError(1004, "ERR_PROPOSAL_VOTING_ACTIVE", protocol.CategoryTemporal)
	// ErrProposalExecutionDelay is returned when a proposal is concluded during the execution delay
	ErrProposalExecutionDelay = protocol.NewError(1005, "ERR_PROPOSAL_EXECUTION_DELAY", protocol.CategoryTemporal)
	// ErrAlreadyProposalAtBlock is returned for a second proposal in one block
	ErrAlreadyProposalAtBlock = protocol.NewError(1006, "ERR_ALREADY_PROPOSAL_AT_BLOCK", protocol.CategoryConflict)
	// ErrSavingProposal is returned when the proposal record cannot be created
	ErrSavingProposal = protocol.NewError(1007, "ERR_SAVING_PROPOSAL", protocol.CategoryConflict)
	// ErrProposalAlreadyConcluded is returned when a concluded proposal is voted on or concluded
	ErrProposalAlreadyConcluded = protocol.NewError(1008, "ERR_PROPOSAL_ALREADY_CONCLUDED", protocol.CategoryConflict)
	// ErrVoteTooSoon is returned for votes before the voting window
	ErrVoteTooSoon = protocol.NewError(1010, "ERR_VOTE_TOO_SOON", protocol.CategoryTemporal)
	// ErrVoteTooLate is returned for votes after the voting window
	ErrVoteTooLate = protocol.NewError(1011, "ERR_VOTE_TOO_LATE", protocol.CategoryTemporal)
	// ErrAlreadyVoted is returned for a second vote of the same voter
	ErrAlreadyVoted = protocol.NewError(1012, "ERR_ALREADY_VOTED", protocol.CategoryConflict)
	// ErrInvalidAction is returned for actions outside the catalog or not matching the proposal
	ErrInvalidAction = protocol.NewError(1013, "ERR_INVALID_ACTION", protocol.CategoryPrecondition)
)

var _errors = governance.Errors{
	InsufficientBalance:    ErrInsufficientBalance,
	FetchingTokenData:      ErrFetchingTokenData,
	ProposalNotFound:       ErrProposalNotFound,
	VotingActive:           ErrProposalVotingActive,
	ExecutionDelay:         ErrProposalExecutionDelay,
	AlreadyProposalAtBlock: ErrAlreadyProposalAtBlock,
	AlreadyConcluded:       ErrProposalAlreadyConcluded,
	VoteTooSoon:            ErrVoteTooSoon,
	VoteTooLate:            ErrVoteTooLate,
	AlreadyVoted:           ErrAlreadyVoted,
}

// Protocol is the action proposal engine. Proposals name an action of the catalog and the parameters
// the action runs with once the proposal passes.
type Protocol struct {
	*governance.Engine
	catalog map[string]struct{}
}

// NewProtocol creates the engine deployed by deployer, actions is the catalog of pre-approved actions
func NewProtocol(deployer address.Address, cfg governance.VotingConfig, deps governance.Dependencies, actions ...address.Address) *Protocol {
	p := &Protocol{
		Engine:  governance.NewEngine("action", protocol.ContractAddress(deployer, ModuleName), _protocolNS, cfg, deps, _errors),
		catalog: make(map[string]struct{}, len(actions)),
	}
	for _, act := range actions {
		p.catalog[act.String()] = struct{}{}
	}
	return p
}

// Catalog returns true if act is a pre-approved action
func (p *Protocol) Catalog(act address.Address) bool {
	if act == nil {
		return false
	}
	_, ok := p.catalog[act.String()]
	return ok
}

// ProposeAction creates a proposal to run act with params and returns its id
func (p *Protocol) ProposeAction(ctx context.Context, sm protocol.StateManager, act address.Address, params []byte) (uint64, error) {
	prop, err := p.Draft(ctx, sm)
	if err != nil {
		return 0, err
	}
	valid, err := p.isValidAction(sm, act)
	if err != nil {
		return 0, err
	}
	if !valid {
		return 0, ErrInvalidAction
	}
	if err := p.CheckCollision(sm, prop.Creator); err != nil {
		return 0, err
	}
	if err := p.Escrow(ctx, sm, prop); err != nil {
		return 0, err
	}
	id, err := p.NextID(sm)
	if err != nil {
		return 0, err
	}
	prop.ID = id
	prop.Target = act
	prop.Parameters = params
	if _, err := p.Proposal(sm, id); err == nil {
		return 0, ErrSavingProposal
	}
	if _, err := p.Save(sm, key(id), prop); err != nil {
		return 0, err
	}
	call := protocol.MustGetCallCtx(ctx)
	p.Emit(sm, "propose-action", action.Payload{
		"proposalId":   id,
		"action":       act.String(),
		"parameters":   hex.EncodeToString(params),
		"creator":      prop.Creator.String(),
		"bond":         prop.Bond.String(),
		"liquidTokens": prop.LiquidTokens.String(),
		"createdAt":    prop.Window.CreatedAt,
		"startBlock":   prop.Window.StartBlock,
		"endBlock":     prop.Window.EndBlock,
		"sender":       call.Sender.String(),
		"caller":       call.Caller.String(),
	})
	return id, nil
}

// VoteOnProposal casts the sender's vote on proposal id
func (p *Protocol) VoteOnProposal(ctx context.Context, sm protocol.StateManager, id uint64, vote bool) error {
	return p.Vote(ctx, sm, key(id), vote, action.Payload{"proposalId": id})
}

// ConcludeProposal concludes proposal id and runs its action if it passed. It returns true if the action ran.
func (p *Protocol) ConcludeProposal(ctx context.Context, sm protocol.StateManager, id uint64, act address.Address) (bool, error) {
	prop, err := p.Proposal(sm, id)
	if err != nil {
		return false, err
	}
	if err := p.CheckConcludable(sm, prop); err != nil {
		return false, err
	}
	if !protocol.SameAddress(prop.Target, act) {
		return false, ErrInvalidAction
	}
	executable, err := p.isValidAction(sm, act)
	if err != nil {
		return false, err
	}
	if executable {
		if executable, err = p.IsEnabled(sm); err != nil {
			return false, err
		}
	}
	return p.Conclude(ctx, sm, key(id), prop, executable, func(ctx context.Context, sm protocol.StateManager) error {
		return p.dao().RunAction(ctx, sm, act, prop.Parameters)
	}, action.Payload{
		"proposalId": id,
		"action":     act.String(),
		"parameters": hex.EncodeToString(prop.Parameters),
		"creator":    prop.Creator.String(),
	})
}

// Proposal returns proposal id
func (p *Protocol) Proposal(sr protocol.StateReader, id uint64) (*governance.Proposal, error) {
	return p.Engine.Proposal(sr, key(id))
}

// VoteRecord returns the amount voter cast on proposal id
func (p *Protocol) VoteRecord(sr protocol.StateReader, id uint64, voter address.Address) (*big.Int, error) {
	return p.Engine.VoteRecord(sr, key(id), voter)
}

// VotingPower returns the voting power of voter on proposal id
func (p *Protocol) VotingPower(sr protocol.StateReader, id uint64, voter address.Address) (*big.Int, error) {
	return p.Engine.VotingPower(sr, key(id), voter)
}

// TotalProposals returns the number of proposals created
func (p *Protocol) TotalProposals(sr protocol.StateReader) (uint64, error) {
	c, err := p.Counters(sr)
	if err != nil {
		return 0, err
	}
	return c.Total, nil
}

// LastProposalCreated returns the height of the last proposal
func (p *Protocol) LastProposalCreated(sr protocol.StateReader) (uint64, error) {
	c, err := p.Counters(sr)
	if err != nil {
		return 0, err
	}
	return c.LastProposalCreated, nil
}

func (p *Protocol) isValidAction(sr protocol.StateReader, act address.Address) (bool, error) {
	if !p.Catalog(act) {
		return false, nil
	}
	return p.dao().IsExtension(sr, act)
}

func (p *Protocol) dao() governance.Registry {
	return p.Engine.Registry()
}

func key(id uint64) []byte {
	return byteutil.Uint64ToBytesBigEndian(id)
}
