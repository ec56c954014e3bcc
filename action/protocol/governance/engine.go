// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package governance

import (
	"context"
	"math/big"

	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/iotexproject/iotex-dao/action"
	"github.com/iotexproject/iotex-dao/action/protocol"
	"github.com/iotexproject/iotex-dao/pkg/log"
	"github.com/iotexproject/iotex-dao/state"
)

var (
	proposalMtc = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "iotex_dao_proposal",
			Help: "IoTeX DAO proposal lifecycle",
		},
		[]string{"engine", "type"},
	)
	voteMtc = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "iotex_dao_vote",
			Help: "IoTeX DAO votes",
		},
		[]string{"engine", "vote"},
	)
)

func init() {
	prometheus.MustRegister(proposalMtc)
	prometheus.MustRegister(voteMtc)
}

type (
	// Registry is the part of the DAO registry the engines consult
	Registry interface {
		Address() address.Address
		IsExtension(protocol.StateReader, address.Address) (bool, error)
		ConstructedAt(protocol.StateReader) (uint64, bool, error)
		ExecutedAt(protocol.StateReader, address.Address) (uint64, bool, error)
		Execute(ctx context.Context, sm protocol.StateManager, proposal, sender address.Address) error
		RunAction(ctx context.Context, sm protocol.StateManager, act address.Address, params []byte) error
	}

	// Ledger is the DAO token as seen by the engines
	Ledger interface {
		BalanceOf(protocol.StateReader, address.Address) (*big.Int, error)
		Transfer(ctx context.Context, sm protocol.StateManager, amount *big.Int, from, to address.Address) error
	}

	// Oracle weighs ballots and freezes the liquid supply
	Oracle interface {
		LiquidSupply(protocol.StateReader, uint64) (*big.Int, error)
		VotingPowerAt(protocol.StateReader, address.Address, uint64) (*big.Int, error)
		LockedAddresses() []address.Address
	}

	// Dependencies are the collaborators of an engine
	Dependencies struct {
		DAO        Registry
		Ledger     Ledger
		Oracle     Oracle
		Treasury   address.Address
		DeployedAt uint64
	}

	// Errors are the module errors an engine reports for the shared checks
	Errors struct {
		InsufficientBalance    *protocol.Error
		FetchingTokenData      *protocol.Error
		ProposalNotFound       *protocol.Error
		VotingActive           *protocol.Error
		ExecutionDelay         *protocol.Error
		AlreadyProposalAtBlock *protocol.Error
		AlreadyConcluded       *protocol.Error
		VoteTooSoon            *protocol.Error
		VoteTooLate            *protocol.Error
		AlreadyVoted           *protocol.Error
	}

	// Engine is the voting machinery shared by action and core proposals
	Engine struct {
		name string
		addr address.Address
		cfg  VotingConfig
		deps Dependencies
		book *Book
		errs Errors
	}
)

// NewEngine creates the machinery of engine name at addr, its records are kept in namespace ns
func NewEngine(name string, addr address.Address, ns string, cfg VotingConfig, deps Dependencies, errs Errors) *Engine {
	return &Engine{
		name: name,
		addr: addr,
		cfg:  cfg,
		deps: deps,
		book: NewBook(ns, addr, cfg.CollisionScope),
		errs: errs,
	}
}

// Address returns the address of the engine
func (e *Engine) Address() address.Address { return e.addr }

// Name returns the name of the engine
func (e *Engine) Name() string { return e.name }

// Callback acknowledges the extension identity of the engine
func (e *Engine) Callback(context.Context, protocol.StateManager, address.Address, []byte) (bool, error) {
	return true, nil
}

// Registry returns the DAO registry
func (e *Engine) Registry() Registry { return e.deps.DAO }

// Config returns the voting config
func (e *Engine) Config() VotingConfig { return e.cfg }

// Draft checks the proposer and the supply and returns a new proposal created at the current height.
// The proposer must hold tokens and the liquid supply must be positive.
func (e *Engine) Draft(ctx context.Context, sm protocol.StateManager) (*Proposal, error) {
	call := protocol.MustGetCallCtx(ctx)
	height, err := sm.Height()
	if err != nil {
		return nil, err
	}
	bal, err := e.deps.Ledger.BalanceOf(sm, call.Sender)
	if err != nil {
		return nil, errors.Wrap(e.errs.FetchingTokenData, err.Error())
	}
	if bal.Sign() <= 0 {
		return nil, e.errs.InsufficientBalance
	}
	w := e.cfg.Window(height)
	liquid, err := e.deps.Oracle.LiquidSupply(sm, w.LiquidHeight())
	if err != nil {
		return nil, errors.Wrap(e.errs.FetchingTokenData, err.Error())
	}
	if liquid.Sign() <= 0 {
		return nil, e.errs.FetchingTokenData
	}
	return &Proposal{
		Bond:         big.NewInt(0),
		Creator:      call.Sender,
		Caller:       call.Caller,
		Window:       w,
		LiquidTokens: liquid,
		VotesFor:     big.NewInt(0),
		VotesAgainst: big.NewInt(0),
	}, nil
}

// CheckCollision fails if a colliding proposal was already created in the current block
func (e *Engine) CheckCollision(sm protocol.StateManager, proposer address.Address) error {
	height, err := sm.Height()
	if err != nil {
		return err
	}
	proposed, err := e.book.ProposedAt(sm, height, proposer)
	if err != nil {
		return err
	}
	if proposed {
		return e.errs.AlreadyProposalAtBlock
	}
	return nil
}

// Escrow moves the bond of p from its creator to the engine
func (e *Engine) Escrow(ctx context.Context, sm protocol.StateManager, p *Proposal) error {
	p.Bond = e.cfg.Bond()
	if p.Bond.Sign() == 0 {
		return nil
	}
	bal, err := e.deps.Ledger.BalanceOf(sm, p.Creator)
	if err != nil {
		return errors.Wrap(e.errs.FetchingTokenData, err.Error())
	}
	if bal.Cmp(p.Bond) < 0 {
		return errors.Wrapf(e.errs.InsufficientBalance, "balance %s is less than bond %s", bal, p.Bond)
	}
	return e.deps.Ledger.Transfer(ctx, sm, p.Bond, p.Creator, e.addr)
}

// Save stores a new proposal under key and advances the counters
func (e *Engine) Save(sm protocol.StateManager, key []byte, p *Proposal) (*Counters, error) {
	if err := e.book.PutProposal(sm, key, p); err != nil {
		return nil, err
	}
	if err := e.book.MarkProposedAt(sm, p.Window.CreatedAt, p.Creator); err != nil {
		return nil, err
	}
	c, err := e.book.Counters(sm)
	if err != nil {
		return nil, err
	}
	c.Total++
	c.LastProposalCreated = p.Window.CreatedAt
	if err := e.book.PutCounters(sm, c); err != nil {
		return nil, err
	}
	proposalMtc.WithLabelValues(e.name, "created").Inc()
	log.L().Debug("Proposal created.",
		zap.String("engine", e.name),
		zap.String("target", p.Target.String()),
		zap.Uint64("startBlock", p.Window.StartBlock),
		zap.Uint64("endBlock", p.Window.EndBlock))
	return c, nil
}

// NextID returns the id of the next proposal
func (e *Engine) NextID(sr protocol.StateReader) (uint64, error) {
	c, err := e.book.Counters(sr)
	if err != nil {
		return 0, err
	}
	return c.Total + 1, nil
}

// Vote records the ballot of the sender on the proposal under key. The ballot weighs the sender's balance
// at the snapshot height of the proposal.
func (e *Engine) Vote(ctx context.Context, sm protocol.StateManager, key []byte, vote bool, ref action.Payload) error {
	call := protocol.MustGetCallCtx(ctx)
	p, err := e.Proposal(sm, key)
	if err != nil {
		return err
	}
	if p.Concluded {
		return e.errs.AlreadyConcluded
	}
	height, err := sm.Height()
	if err != nil {
		return err
	}
	if height < p.Window.StartBlock {
		return e.errs.VoteTooSoon
	}
	if height >= p.Window.EndBlock {
		return e.errs.VoteTooLate
	}
	rec, err := e.book.VoteRecord(sm, key, call.Sender)
	if err != nil {
		return err
	}
	if rec != nil {
		return e.errs.AlreadyVoted
	}
	power, err := e.deps.Oracle.VotingPowerAt(sm, call.Sender, p.Window.SnapshotHeight())
	if err != nil {
		return errors.Wrap(e.errs.FetchingTokenData, err.Error())
	}
	if power.Sign() <= 0 {
		return e.errs.InsufficientBalance
	}
	if vote {
		p.VotesFor = new(big.Int).Add(p.VotesFor, power)
	} else {
		p.VotesAgainst = new(big.Int).Add(p.VotesAgainst, power)
	}
	if err := e.book.PutProposal(sm, key, p); err != nil {
		return err
	}
	if err := e.book.PutVoteRecord(sm, key, call.Sender, &VoteRecord{Vote: vote, Amount: power}); err != nil {
		return err
	}
	payload := e.payload(ctx, ref)
	payload["voter"] = call.Sender.String()
	payload["amount"] = power.String()
	payload["vote"] = vote
	e.Emit(sm, "vote-on-proposal", payload)
	voteMtc.WithLabelValues(e.name, voteLabel(vote)).Inc()
	return nil
}

// CheckConcludable fails if p cannot be concluded at the current height
func (e *Engine) CheckConcludable(sm protocol.StateManager, p *Proposal) error {
	if p.Concluded {
		return e.errs.AlreadyConcluded
	}
	height, err := sm.Height()
	if err != nil {
		return err
	}
	if height < p.Window.EndBlock {
		return e.errs.VotingActive
	}
	if height < p.Window.ExecStart {
		return e.errs.ExecutionDelay
	}
	return nil
}

// Conclude resolves p, settles its bond and runs exec if the proposal passed, has not expired and
// executable is true. A failing exec is reverted and the proposal is concluded as not executed.
func (e *Engine) Conclude(
	ctx context.Context,
	sm protocol.StateManager,
	key []byte,
	p *Proposal,
	executable bool,
	exec func(context.Context, protocol.StateManager) error,
	ref action.Payload,
) (bool, error) {
	height, err := sm.Height()
	if err != nil {
		return false, err
	}
	r := p.Result(e.cfg)
	p.Concluded = true
	p.MetQuorum, p.MetThreshold, p.Passed = r.MetQuorum, r.MetThreshold, r.Passed
	p.Expired = p.Window.Expired(height)
	if err := e.settleBond(ctx, sm, p); err != nil {
		return false, err
	}
	if p.Passed && !p.Expired && executable {
		snapshot := sm.Snapshot()
		if err := exec(protocol.ContractCall(ctx, e.addr), sm); err != nil {
			if rerr := sm.Revert(snapshot); rerr != nil {
				return false, errors.Wrap(rerr, "failed to revert execution")
			}
			log.L().Warn("Proposal execution failed.",
				zap.String("engine", e.name),
				zap.String("target", p.Target.String()),
				zap.Error(err))
		} else {
			p.Executed = true
		}
	}
	if err := e.book.PutProposal(sm, key, p); err != nil {
		return false, err
	}
	c, err := e.book.Counters(sm)
	if err != nil {
		return false, err
	}
	c.Concluded++
	if p.Executed {
		c.Executed++
	}
	if err := e.book.PutCounters(sm, c); err != nil {
		return false, err
	}
	payload := e.payload(ctx, ref)
	payload["votesFor"] = p.VotesFor.String()
	payload["votesAgainst"] = p.VotesAgainst.String()
	payload["liquidTokens"] = p.LiquidTokens.String()
	payload["metQuorum"] = p.MetQuorum
	payload["metThreshold"] = p.MetThreshold
	payload["passed"] = p.Passed
	payload["expired"] = p.Expired
	payload["executed"] = p.Executed
	e.Emit(sm, "conclude-proposal", payload)
	proposalMtc.WithLabelValues(e.name, "concluded").Inc()
	if p.Executed {
		proposalMtc.WithLabelValues(e.name, "executed").Inc()
	}
	log.L().Info("Proposal concluded.",
		zap.String("engine", e.name),
		zap.String("target", p.Target.String()),
		zap.Bool("passed", p.Passed),
		zap.Bool("expired", p.Expired),
		zap.Bool("executed", p.Executed))
	return p.Executed, nil
}

// IsEnabled returns true if the engine is an enabled extension
func (e *Engine) IsEnabled(sr protocol.StateReader) (bool, error) {
	return e.deps.DAO.IsExtension(sr, e.addr)
}

// Emit emits a notification of the engine
func (e *Engine) Emit(sm protocol.StateManager, notification string, payload action.Payload) {
	sm.EmitEvent(action.NewEvent(e.addr.String(), notification, payload))
}

// Proposal returns the proposal under key
func (e *Engine) Proposal(sr protocol.StateReader, key []byte) (*Proposal, error) {
	p, err := e.book.Proposal(sr, key)
	switch errors.Cause(err) {
	case nil:
		return p, nil
	case state.ErrStateNotExist:
		return nil, e.errs.ProposalNotFound
	default:
		return nil, err
	}
}

// VoteRecord returns the amount voter cast on the proposal under key, zero if voter has not voted
func (e *Engine) VoteRecord(sr protocol.StateReader, key []byte, voter address.Address) (*big.Int, error) {
	rec, err := e.book.VoteRecord(sr, key, voter)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return big.NewInt(0), nil
	}
	return rec.Amount, nil
}

// VotingPower returns the power of voter on the proposal under key
func (e *Engine) VotingPower(sr protocol.StateReader, key []byte, voter address.Address) (*big.Int, error) {
	p, err := e.Proposal(sr, key)
	if err != nil {
		return nil, err
	}
	height, err := sr.Height()
	if err != nil {
		return nil, err
	}
	snapshot := p.Window.SnapshotHeight()
	if snapshot >= height {
		// voting has not opened yet, the snapshot block is not settled
		return big.NewInt(0), nil
	}
	return e.deps.Oracle.VotingPowerAt(sr, voter, snapshot)
}

// Counters returns the counters of the engine
func (e *Engine) Counters(sr protocol.StateReader) (*Counters, error) {
	return e.book.Counters(sr)
}

// LiquidSupply returns the liquid supply at height
func (e *Engine) LiquidSupply(sr protocol.StateReader, height uint64) (*big.Int, error) {
	liquid, err := e.deps.Oracle.LiquidSupply(sr, height)
	if err != nil {
		return nil, errors.Wrap(e.errs.FetchingTokenData, err.Error())
	}
	return liquid, nil
}

// VotingConfiguration returns the voting configuration of the engine
func (e *Engine) VotingConfiguration() *VotingConfiguration {
	return e.cfg.Configuration(e.addr, e.deps.Treasury, e.deps.Oracle.LockedAddresses(), e.deps.DeployedAt)
}

func (e *Engine) settleBond(ctx context.Context, sm protocol.StateManager, p *Proposal) error {
	if p.Bond == nil || p.Bond.Sign() == 0 {
		return nil
	}
	to := p.Creator
	switch e.cfg.BondPolicy {
	case AlwaysForfeit:
		to = e.deps.Treasury
	case RefundOnPass:
		if !p.Passed {
			to = e.deps.Treasury
		}
	}
	if to == nil {
		return errors.New("no treasury to forfeit the bond to")
	}
	return e.deps.Ledger.Transfer(protocol.ContractCall(ctx, e.addr), sm, p.Bond, e.addr, to)
}

func (e *Engine) payload(ctx context.Context, ref action.Payload) action.Payload {
	call := protocol.MustGetCallCtx(ctx)
	payload := action.Payload{
		"sender": call.Sender.String(),
		"caller": call.Caller.String(),
	}
	for k, v := range ref {
		payload[k] = v
	}
	return payload
}

func voteLabel(vote bool) string {
	if vote {
		return "for"
	}
	return "against"
}
