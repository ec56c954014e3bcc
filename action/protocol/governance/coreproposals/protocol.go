// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package coreproposals

import (
	"context"
	"math/big"

	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"

	"github.com/iotexproject/iotex-dao/action"
	"github.com/iotexproject/iotex-dao/action/protocol"
	"github.com/iotexproject/iotex-dao/action/protocol/governance"
)

const (
	// ModuleName is the name the engine is deployed under
	ModuleName = "core-proposals"

	_protocolNS = "CoreProposals"
)

var (
	// ErrInsufficientBalance is returned when the proposer or voter holds no tokens
	ErrInsufficientBalance = protocol.NewError(3000, "ERR_INSUFFICIENT_BALANCE", protocol.CategoryPrecondition)
	// ErrFetchingTokenData is returned when the token data is missing or the liquid supply is zero
	ErrFetchingTokenData = protocol.NewError(3001, "ERR_FETCHING_TOKEN_DATA", protocol.CategoryPrecondition)
	// ErrProposalNotFound is returned for unknown proposals
	ErrProposalNotFound = protocol.NewError(3002, "ERR_PROPOSAL_NOT_FOUND", protocol.CategoryNotFound)
	// ErrProposalAlreadyExecuted is returned for proposals in the execution record
	ErrProposalAlreadyExecuted = protocol.NewError(3003, "ERR_PROPOSAL_ALREADY_EXECUTED", protocol.CategoryConflict)
	// ErrSavingProposal is returned when the proposal was already created
	ErrSavingProposal = protocol.NewError(3004, "ERR_SAVING_PROPOSAL", protocol.CategoryConflict)
	// ErrProposalAlreadyConcluded is returned when a concluded proposal is voted on or concluded
	ErrProposalAlreadyConcluded = protocol.NewError(3005, "ERR_PROPOSAL_ALREADY_CONCLUDED", protocol.CategoryConflict)
	// ErrVoteTooSoon is returned for votes before the voting window
	ErrVoteTooSoon = protocol.NewError(3006, "ERR_VOTE_TOO_SOON", protocol.CategoryTemporal)
	// ErrVoteTooLate is returned for votes after the voting window
	ErrVoteTooLate = protocol.NewError(3007, "ERR_VOTE_TOO_LATE", protocol.CategoryTemporal)
	// ErrAlreadyVoted is returned for a second vote of the same voter
	ErrAlreadyVoted = protocol.NewError(3008, "ERR_ALREADY_VOTED", protocol.CategoryConflict)
	// ErrFirstVotingPeriod is returned before one voting period has passed since construction
	ErrFirstVotingPeriod = protocol.NewError(3009, "ERR_FIRST_VOTING_PERIOD", protocol.CategoryTemporal)
	// ErrProposalVotingActive is returned when a proposal is concluded before voting ends
	ErrProposalVotingActive = protocol.NewError(3010, "ERR_PROPOSAL_VOTING_ACTIVE", protocol.CategoryTemporal)
	// ErrProposalExecutionDelay is returned when a proposal is concluded during the execution delay
	ErrProposalExecutionDelay = protocol.NewError(3011, "ERR_PROPOSAL_EXECUTION_DELAY", protocol.CategoryTemporal)
	// ErrAlreadyProposalAtBlock is returned for a second proposal in one block
	ErrAlreadyProposalAtBlock = protocol.NewError(3012, "ERR_ALREADY_PROPOSAL_AT_BLOCK", protocol.CategoryConflict)
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

// Protocol is the core proposal engine. A core proposal names a one-shot proposal the DAO executes
// once the vote passes.
type Protocol struct {
	*governance.Engine
}

// NewProtocol creates the engine deployed by deployer
func NewProtocol(deployer address.Address, cfg governance.VotingConfig, deps governance.Dependencies) *Protocol {
	return &Protocol{
		Engine: governance.NewEngine("core", protocol.ContractAddress(deployer, ModuleName), _protocolNS, cfg, deps, _errors),
	}
}

// CreateProposal creates a proposal to execute proposal
func (p *Protocol) CreateProposal(ctx context.Context, sm protocol.StateManager, proposal address.Address) error {
	if proposal == nil {
		return errors.Wrap(ErrProposalNotFound, "proposal is nil")
	}
	if err := p.checkFirstVotingPeriod(sm); err != nil {
		return err
	}
	_, executed, err := p.Registry().ExecutedAt(sm, proposal)
	if err != nil {
		return err
	}
	if executed {
		return ErrProposalAlreadyExecuted
	}
	switch _, err := p.Proposal(sm, proposal); errors.Cause(err) {
	case nil:
		return ErrSavingProposal
	case ErrProposalNotFound:
	default:
		return err
	}
	prop, err := p.Draft(ctx, sm)
	if err != nil {
		return err
	}
	if err := p.CheckCollision(sm, prop.Creator); err != nil {
		return err
	}
	if err := p.Escrow(ctx, sm, prop); err != nil {
		return err
	}
	prop.Target = proposal
	if _, err := p.Save(sm, proposal.Bytes(), prop); err != nil {
		return err
	}
	call := protocol.MustGetCallCtx(ctx)
	p.Emit(sm, "create-proposal", action.Payload{
		"proposal":     proposal.String(),
		"creator":      prop.Creator.String(),
		"bond":         prop.Bond.String(),
		"liquidTokens": prop.LiquidTokens.String(),
		"createdAt":    prop.Window.CreatedAt,
		"startBlock":   prop.Window.StartBlock,
		"endBlock":     prop.Window.EndBlock,
		"sender":       call.Sender.String(),
		"caller":       call.Caller.String(),
	})
	return nil
}

// VoteOnProposal casts the sender's vote on proposal
func (p *Protocol) VoteOnProposal(ctx context.Context, sm protocol.StateManager, proposal address.Address, vote bool) error {
	if proposal == nil {
		return ErrProposalNotFound
	}
	return p.Vote(ctx, sm, proposal.Bytes(), vote, action.Payload{"proposal": proposal.String()})
}

// ConcludeProposal concludes proposal and has the DAO execute it if it passed. It returns true if the
// proposal was executed.
func (p *Protocol) ConcludeProposal(ctx context.Context, sm protocol.StateManager, proposal address.Address) (bool, error) {
	prop, err := p.Proposal(sm, proposal)
	if err != nil {
		return false, err
	}
	if err := p.CheckConcludable(sm, prop); err != nil {
		return false, err
	}
	executable, err := p.IsEnabled(sm)
	if err != nil {
		return false, err
	}
	sender := protocol.MustGetCallCtx(ctx).Sender
	return p.Conclude(ctx, sm, proposal.Bytes(), prop, executable, func(ctx context.Context, sm protocol.StateManager) error {
		return p.Registry().Execute(ctx, sm, proposal, sender)
	}, action.Payload{
		"proposal": proposal.String(),
		"creator":  prop.Creator.String(),
	})
}

// Proposal returns the core proposal of proposal
func (p *Protocol) Proposal(sr protocol.StateReader, proposal address.Address) (*governance.Proposal, error) {
	if proposal == nil {
		return nil, ErrProposalNotFound
	}
	return p.Engine.Proposal(sr, proposal.Bytes())
}

// VoteRecord returns the amount voter cast on proposal
func (p *Protocol) VoteRecord(sr protocol.StateReader, proposal, voter address.Address) (*big.Int, error) {
	if proposal == nil {
		return big.NewInt(0), nil
	}
	return p.Engine.VoteRecord(sr, proposal.Bytes(), voter)
}

// VotingPower returns the voting power of voter on proposal
func (p *Protocol) VotingPower(sr protocol.StateReader, proposal, voter address.Address) (*big.Int, error) {
	if proposal == nil {
		return nil, ErrProposalNotFound
	}
	return p.Engine.VotingPower(sr, proposal.Bytes(), voter)
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

func (p *Protocol) checkFirstVotingPeriod(sm protocol.StateManager) error {
	height, err := sm.Height()
	if err != nil {
		return err
	}
	constructedAt, constructed, err := p.Registry().ConstructedAt(sm)
	if err != nil {
		return err
	}
	if !constructed || height < constructedAt+p.Config().VotingPeriod {
		return ErrFirstVotingPeriod
	}
	return nil
}
