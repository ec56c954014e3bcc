// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package chainservice

import (
	"context"
	"math/big"
	"testing"

	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/iotexproject/iotex-dao/action"
	"github.com/iotexproject/iotex-dao/action/protocol"
	"github.com/iotexproject/iotex-dao/action/protocol/dao"
	"github.com/iotexproject/iotex-dao/action/protocol/extension/actions"
	"github.com/iotexproject/iotex-dao/action/protocol/extension/proposals"
	"github.com/iotexproject/iotex-dao/action/protocol/extension/treasury"
	"github.com/iotexproject/iotex-dao/action/protocol/governance"
	"github.com/iotexproject/iotex-dao/action/protocol/governance/actionproposals"
	"github.com/iotexproject/iotex-dao/action/protocol/governance/coreproposals"
	"github.com/iotexproject/iotex-dao/config"
	"github.com/iotexproject/iotex-dao/test/identityset"
)

var (
	_alice = identityset.Address(1)
	_bob   = identityset.Address(2)
	_carol = identityset.Address(3)
	_dave  = identityset.Address(4)
	_erin  = identityset.Address(5)
)

func testConfig() config.Config {
	cfg := config.Copy(config.Default)
	cfg.Genesis.Deployer = identityset.Deployer().String()
	cfg.Genesis.Allocations = map[string]string{
		_alice.String(): "1000",
		_bob.String():   "2000",
		_carol.String(): "3000",
		_dave.String():  "4000",
	}
	cfg.Genesis.TreasuryAllocation = "5000"
	cfg.DAO.ActionProposals = governance.VotingConfig{
		VotingDelay:     2,
		VotingPeriod:    5,
		VotingQuorum:    15,
		VotingThreshold: 66,
		VotingBond:      100,
		BondPolicy:      governance.RefundOnPass,
		CollisionScope:  governance.GlobalScope,
	}
	cfg.DAO.CoreProposals = governance.VotingConfig{
		VotingDelay:     2,
		VotingPeriod:    5,
		VotingQuorum:    25,
		VotingThreshold: 90,
		BondPolicy:      governance.AlwaysRefund,
		CollisionScope:  governance.GlobalScope,
	}
	return cfg
}

func newTestService(t *testing.T, cfg config.Config) *ChainService {
	cs, err := New(cfg, WithTesting())
	require.NoError(t, err)
	require.NoError(t, cs.Start(context.Background()))
	t.Cleanup(func() {
		require.NoError(t, cs.Stop(context.Background()))
	})
	return cs
}

func balance(t *testing.T, cs *ChainService, addr address.Address) int64 {
	bal, err := cs.Token().BalanceOf(cs.ReadView(), addr)
	require.NoError(t, err)
	return bal.Int64()
}

func messageParams(t *testing.T, msg string) []byte {
	params, err := actions.SendMessageParams{Message: msg}.Encode()
	require.NoError(t, err)
	return params
}

func TestGenesis(t *testing.T) {
	require := require.New(t)
	cs := newTestService(t, testConfig())
	sr := cs.ReadView()

	require.True(cs.IsReady())
	require.EqualValues(1, cs.TipHeight())
	constructed, err := cs.DAO().IsConstructed(sr)
	require.NoError(err)
	require.True(constructed)
	at, _, err := cs.DAO().ExecutedAt(sr, cs.Bootstrap().Address())
	require.NoError(err)
	require.Zero(at)
	for _, toggle := range cs.Bootstrap().Toggles() {
		enabled, err := cs.DAO().IsExtension(sr, toggle.Extension)
		require.NoError(err)
		require.True(enabled)
	}
	allowed, err := cs.Treasury().IsAllowedAsset(sr, cs.Token().Address())
	require.NoError(err)
	require.True(allowed)

	require.EqualValues(1000, balance(t, cs, _alice))
	require.EqualValues(5000, balance(t, cs, cs.Treasury().Address()))
	supply, err := cs.Token().TotalSupply(sr)
	require.NoError(err)
	require.EqualValues(15000, supply.Int64())
	liquid, err := cs.Oracle().LiquidSupply(sr, 0)
	require.NoError(err)
	require.EqualValues(10000, liquid.Int64())

	conf := cs.ActionProposals().VotingConfiguration()
	require.Equal(cs.ActionProposals().Address().String(), conf.Self)
	require.Equal(cs.Treasury().Address().String(), conf.Treasury)
	require.Contains(conf.LockedAddresses, cs.Treasury().Address().String())
	require.EqualValues(100, conf.VotingBond.Int64())
}

func TestServiceStatus(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	cs, err := New(testConfig(), WithTesting())
	require.NoError(err)
	require.Equal(Stopped, cs.Status())
	require.False(cs.IsReady())
	require.Equal(ErrWrongStatus, errors.Cause(cs.Stop(ctx)))

	require.NoError(cs.Start(ctx))
	require.Equal(Ready, cs.Status())
	require.Equal("ready", cs.Status().String())
	require.Equal(ErrWrongStatus, errors.Cause(cs.Start(ctx)))

	require.NoError(cs.Stop(ctx))
	require.Equal(Stopped, cs.Status())
	require.False(cs.IsReady())
}

func TestActionProposalHappyPath(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	cs := newTestService(t, testConfig())
	act := cs.SendMessageAction().Address()

	id, r, err := cs.ProposeAction(ctx, _alice, act, messageParams(t, "hello"))
	require.NoError(err)
	require.EqualValues(1, id)
	require.Len(r.EventsByNotification("propose-action"), 1)
	require.EqualValues(900, balance(t, cs, _alice))
	require.EqualValues(100, balance(t, cs, cs.ActionProposals().Address()))

	p, err := cs.ActionProposals().Proposal(cs.ReadView(), id)
	require.NoError(err)
	require.Equal(governance.NewWindow(1, 2, 5), p.Window)
	require.EqualValues(10000, p.LiquidTokens.Int64())
	require.Equal(_alice.String(), p.Creator.String())

	_, err = cs.VoteOnActionProposal(ctx, _bob, id, true)
	require.Equal(actionproposals.ErrVoteTooSoon, errors.Cause(err))

	require.NoError(cs.MintBlocks(2))
	for _, voter := range []address.Address{_bob, _carol, _dave} {
		_, err = cs.VoteOnActionProposal(ctx, voter, id, true)
		require.NoError(err)
	}
	power, err := cs.ActionProposals().VoteRecord(cs.ReadView(), id, _dave)
	require.NoError(err)
	require.EqualValues(4000, power.Int64())

	_, _, err = cs.ConcludeActionProposal(ctx, _alice, id, act)
	require.Equal(actionproposals.ErrProposalVotingActive, errors.Cause(err))
	require.NoError(cs.MintBlocks(5))
	_, err = cs.VoteOnActionProposal(ctx, _alice, id, false)
	require.Equal(actionproposals.ErrVoteTooLate, errors.Cause(err))
	_, _, err = cs.ConcludeActionProposal(ctx, _alice, id, act)
	require.Equal(actionproposals.ErrProposalExecutionDelay, errors.Cause(err))

	require.NoError(cs.MintBlocks(2))
	executed, r, err := cs.ConcludeActionProposal(ctx, _erin, id, act)
	require.NoError(err)
	require.True(executed)
	msgs := r.EventsByNotification("send-message")
	require.Len(msgs, 1)
	require.Equal("hello", msgs[0].Payload["message"])
	require.Equal(true, msgs[0].Payload["isFromDao"])
	concluded := r.EventsByNotification("conclude-proposal")
	require.Len(concluded, 1)
	require.Equal("9000", concluded[0].Payload["votesFor"])
	require.Equal(true, concluded[0].Payload["passed"])
	require.Equal(_erin.String(), concluded[0].Payload["sender"])

	// bond is refunded on pass
	require.EqualValues(1000, balance(t, cs, _alice))
	require.Zero(balance(t, cs, cs.ActionProposals().Address()))

	p, err = cs.ActionProposals().Proposal(cs.ReadView(), id)
	require.NoError(err)
	require.True(p.Concluded)
	require.True(p.MetQuorum)
	require.True(p.MetThreshold)
	require.True(p.Passed)
	require.True(p.Executed)
	require.False(p.Expired)
	c, err := cs.ActionProposals().Counters(cs.ReadView())
	require.NoError(err)
	require.Equal(governance.Counters{Total: 1, Concluded: 1, Executed: 1, LastProposalCreated: 1}, *c)

	_, _, err = cs.ConcludeActionProposal(ctx, _erin, id, act)
	require.Equal(actionproposals.ErrProposalAlreadyConcluded, errors.Cause(err))
}

func TestActionProposalOutcomes(t *testing.T) {
	for _, c := range []struct {
		name     string
		voters   map[string]bool
		passed   bool
		creator  int64
		treasury int64
	}{
		{
			"quorum and threshold met",
			map[string]bool{_carol.String(): true, _dave.String(): true},
			true, 1000, 5000,
		},
		{
			"no quorum",
			map[string]bool{_alice.String(): true},
			false, 900, 5100,
		},
		{
			"threshold missed",
			map[string]bool{_bob.String(): true, _carol.String(): true, _dave.String(): false},
			false, 900, 5100,
		},
		{
			"nobody voted",
			nil,
			false, 900, 5100,
		},
	} {
		t.Run(c.name, func(t *testing.T) {
			require := require.New(t)
			ctx := context.Background()
			cs := newTestService(t, testConfig())
			act := cs.SendMessageAction().Address()
			id, _, err := cs.ProposeAction(ctx, _alice, act, messageParams(t, "outcome"))
			require.NoError(err)
			require.NoError(cs.MintBlocks(2))
			for _, voter := range []address.Address{_alice, _bob, _carol, _dave} {
				if vote, ok := c.voters[voter.String()]; ok {
					_, err = cs.VoteOnActionProposal(ctx, voter, id, vote)
					require.NoError(err)
				}
			}
			require.NoError(cs.MintBlocks(7))
			executed, _, err := cs.ConcludeActionProposal(ctx, _bob, id, act)
			require.NoError(err)
			require.Equal(c.passed, executed)
			p, err := cs.ActionProposals().Proposal(cs.ReadView(), id)
			require.NoError(err)
			require.Equal(c.passed, p.Passed)
			// the outcome is reproducible from the stored record
			require.Equal(governance.Result{MetQuorum: p.MetQuorum, MetThreshold: p.MetThreshold, Passed: p.Passed}, p.Result(cs.ActionProposals().Config()))
			require.EqualValues(c.creator, balance(t, cs, _alice))
			require.EqualValues(c.treasury, balance(t, cs, cs.Treasury().Address()))
		})
	}
}

func TestAtMostOneVote(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	cs := newTestService(t, testConfig())
	id, _, err := cs.ProposeAction(ctx, _alice, cs.SendMessageAction().Address(), messageParams(t, "vote"))
	require.NoError(err)
	require.NoError(cs.MintBlocks(2))

	_, err = cs.VoteOnActionProposal(ctx, _bob, id, true)
	require.NoError(err)
	r, err := cs.VoteOnActionProposal(ctx, _bob, id, false)
	require.Equal(actionproposals.ErrAlreadyVoted, errors.Cause(err))
	require.False(r.Succeeded())
	require.Empty(r.Events)

	// tokens moved after the snapshot carry no extra weight
	_, err = cs.Transfer(ctx, _bob, big.NewInt(2000), _erin)
	require.NoError(err)
	_, err = cs.VoteOnActionProposal(ctx, _erin, id, true)
	require.Equal(actionproposals.ErrInsufficientBalance, errors.Cause(err))

	p, err := cs.ActionProposals().Proposal(cs.ReadView(), id)
	require.NoError(err)
	require.EqualValues(2000, p.VotesFor.Int64())
	require.Zero(p.VotesAgainst.Sign())
	power, err := cs.ActionProposals().VotingPower(cs.ReadView(), id, _bob)
	require.NoError(err)
	require.EqualValues(2000, power.Int64())
}

func TestSameBlockCollision(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	cs := newTestService(t, testConfig())
	withdraw, err := actions.WithdrawFTParams{Asset: cs.Token().Address(), Amount: big.NewInt(1), Recipient: _erin}.Encode()
	require.NoError(err)
	allow, err := actions.AllowAssetParams{Asset: cs.Token().Address(), Enabled: false}.Encode()
	require.NoError(err)

	id, _, err := cs.ProposeAction(ctx, _alice, cs.SendMessageAction().Address(), messageParams(t, "first"))
	require.NoError(err)
	require.EqualValues(1, id)
	_, _, err = cs.ProposeAction(ctx, _alice, cs.WithdrawFTAction().Address(), withdraw)
	require.Equal(actionproposals.ErrAlreadyProposalAtBlock, errors.Cause(err))
	_, _, err = cs.ProposeAction(ctx, _bob, cs.AllowAssetAction().Address(), allow)
	require.Equal(actionproposals.ErrAlreadyProposalAtBlock, errors.Cause(err))

	total, err := cs.ActionProposals().TotalProposals(cs.ReadView())
	require.NoError(err)
	require.EqualValues(1, total)
	require.EqualValues(900, balance(t, cs, _alice))
	require.EqualValues(2000, balance(t, cs, _bob))

	require.NoError(cs.MintBlocks(1))
	id, _, err = cs.ProposeAction(ctx, _bob, cs.AllowAssetAction().Address(), allow)
	require.NoError(err)
	require.EqualValues(2, id)
	last, err := cs.ActionProposals().LastProposalCreated(cs.ReadView())
	require.NoError(err)
	require.EqualValues(2, last)
}

func TestPerProposerCollision(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	cfg := testConfig()
	cfg.DAO.ActionProposals.CollisionScope = governance.PerProposerScope
	cs := newTestService(t, cfg)
	act := cs.SendMessageAction().Address()

	_, _, err := cs.ProposeAction(ctx, _alice, act, messageParams(t, "a"))
	require.NoError(err)
	_, _, err = cs.ProposeAction(ctx, _bob, act, messageParams(t, "b"))
	require.NoError(err)
	_, _, err = cs.ProposeAction(ctx, _alice, act, messageParams(t, "c"))
	require.Equal(actionproposals.ErrAlreadyProposalAtBlock, errors.Cause(err))
}

func TestProposeActionPreconditions(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	cs := newTestService(t, testConfig())

	_, _, err := cs.ProposeAction(ctx, _erin, cs.SendMessageAction().Address(), messageParams(t, "broke"))
	require.Equal(actionproposals.ErrInsufficientBalance, errors.Cause(err))
	_, _, err = cs.ProposeAction(ctx, _alice, cs.Messaging().Address(), messageParams(t, "not an action"))
	require.Equal(actionproposals.ErrInvalidAction, errors.Cause(err))

	// a holder below the bond cannot escrow it
	_, err = cs.Transfer(ctx, _alice, big.NewInt(950), _bob)
	require.NoError(err)
	_, _, err = cs.ProposeAction(ctx, _alice, cs.SendMessageAction().Address(), messageParams(t, "poor"))
	require.Equal(actionproposals.ErrInsufficientBalance, errors.Cause(err))
	require.EqualValues(50, balance(t, cs, _alice))

	_, err = cs.VoteOnActionProposal(ctx, _bob, 7, true)
	require.Equal(actionproposals.ErrProposalNotFound, errors.Cause(err))
	_, err = cs.ActionProposals().Proposal(cs.ReadView(), 7)
	require.Equal(actionproposals.ErrProposalNotFound, errors.Cause(err))
}

func TestProposeWithoutLiquidSupply(t *testing.T) {
	require := require.New(t)
	cfg := testConfig()
	cfg.Genesis.Allocations = map[string]string{}
	cs := newTestService(t, cfg)

	// the treasury holds the whole supply
	_, err := cs.Call(context.Background(), cs.Treasury().Address(), func(ctx context.Context, sm protocol.StateManager) error {
		return cs.Token().Transfer(ctx, sm, big.NewInt(100), cs.Treasury().Address(), _alice)
	})
	require.NoError(err)
	_, _, err = cs.ProposeAction(context.Background(), _alice, cs.SendMessageAction().Address(), messageParams(t, "illiquid"))
	require.Equal(actionproposals.ErrFetchingTokenData, errors.Cause(err))
}

func TestExpirySuppressesExecution(t *testing.T) {
	for _, c := range []struct {
		name     string
		before   uint64
		executed bool
	}{
		{"last executable block", 1, true},
		{"expired", 0, false},
	} {
		t.Run(c.name, func(t *testing.T) {
			require := require.New(t)
			ctx := context.Background()
			cs := newTestService(t, testConfig())
			act := cs.SendMessageAction().Address()
			id, _, err := cs.ProposeAction(ctx, _alice, act, messageParams(t, "late"))
			require.NoError(err)
			require.NoError(cs.MintBlocks(2))
			_, err = cs.VoteOnActionProposal(ctx, _dave, id, true)
			require.NoError(err)

			p, err := cs.ActionProposals().Proposal(cs.ReadView(), id)
			require.NoError(err)
			require.NoError(cs.MintBlocks(p.Window.ExecEnd - c.before - cs.TipHeight()))
			require.Equal(p.Window.ExecEnd-c.before, cs.TipHeight())
			executed, r, err := cs.ConcludeActionProposal(ctx, _alice, id, act)
			require.NoError(err)
			require.Equal(c.executed, executed)
			if c.executed {
				require.Len(r.EventsByNotification("send-message"), 1)
			} else {
				require.Empty(r.EventsByNotification("send-message"))
			}

			p, err = cs.ActionProposals().Proposal(cs.ReadView(), id)
			require.NoError(err)
			require.True(p.Passed)
			require.Equal(!c.executed, p.Expired)
			require.Equal(c.executed, p.Executed)
			require.EqualValues(1000, balance(t, cs, _alice))
		})
	}
}

func TestLockedAddressesCountedOnce(t *testing.T) {
	require := require.New(t)
	vault := protocol.ContractAddress(identityset.Deployer(), treasury.ModuleName)

	cfg := testConfig()
	cfg.Genesis.LockedAddresses = []string{_alice.String(), vault.String()}
	cs := newTestService(t, cfg)
	require.Equal(vault.String(), cs.Treasury().Address().String())
	// 15000 minted, 5000 in the treasury, 1000 held by alice
	liquid, err := cs.Oracle().LiquidSupply(cs.ReadView(), 0)
	require.NoError(err)
	require.EqualValues(9000, liquid.Int64())
	require.Len(cs.Oracle().LockedAddresses(), 4)

	cfg.Genesis.LockedAddresses = []string{_alice.String(), _alice.String()}
	_, err = New(cfg, WithTesting())
	require.Error(err)
	require.Equal(config.ErrInvalidCfg, errors.Cause(config.ValidateGenesis(cfg)))
}

func TestTreasuryWithdrawal(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	cs := newTestService(t, testConfig())
	act := cs.WithdrawFTAction().Address()

	pass := func(amount int64) (uint64, bool, *action.Receipt) {
		params, err := actions.WithdrawFTParams{Asset: cs.Token().Address(), Amount: big.NewInt(amount), Recipient: _erin}.Encode()
		require.NoError(err)
		id, _, err := cs.ProposeAction(ctx, _alice, act, params)
		require.NoError(err)
		require.NoError(cs.MintBlocks(2))
		for _, voter := range []address.Address{_carol, _dave} {
			_, err = cs.VoteOnActionProposal(ctx, voter, id, true)
			require.NoError(err)
		}
		require.NoError(cs.MintBlocks(7))
		executed, r, err := cs.ConcludeActionProposal(ctx, _alice, id, act)
		require.NoError(err)
		return id, executed, r
	}

	_, executed, r := pass(500)
	require.True(executed)
	events := r.EventsByNotification("withdraw-ft")
	require.Len(events, 1)
	require.Equal("500", events[0].Payload["amount"])
	require.Equal(_erin.String(), events[0].Payload["recipient"])
	require.Equal(cs.WithdrawFTAction().Address().String(), events[0].Payload["caller"])
	require.EqualValues(500, balance(t, cs, _erin))
	require.EqualValues(4500, balance(t, cs, cs.Treasury().Address()))

	// a failing action is rolled back, the proposal still concludes
	id, executed, r := pass(1000000)
	require.False(executed)
	require.Empty(r.EventsByNotification("withdraw-ft"))
	require.Len(r.EventsByNotification("conclude-proposal"), 1)
	require.EqualValues(500, balance(t, cs, _erin))
	require.EqualValues(4500, balance(t, cs, cs.Treasury().Address()))
	p, err := cs.ActionProposals().Proposal(cs.ReadView(), id)
	require.NoError(err)
	require.True(p.Concluded)
	require.True(p.Passed)
	require.False(p.Executed)
	c, err := cs.ActionProposals().Counters(cs.ReadView())
	require.NoError(err)
	require.EqualValues(2, c.Concluded)
	require.EqualValues(1, c.Executed)
}

func TestActionMismatch(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	cs := newTestService(t, testConfig())
	id, _, err := cs.ProposeAction(ctx, _alice, cs.SendMessageAction().Address(), messageParams(t, "mismatch"))
	require.NoError(err)
	require.NoError(cs.MintBlocks(9))
	_, _, err = cs.ConcludeActionProposal(ctx, _alice, id, cs.AllowAssetAction().Address())
	require.Equal(actionproposals.ErrInvalidAction, errors.Cause(err))
}

func TestCoreProposal(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	cs := newTestService(t, testConfig())
	disable := proposals.NewExtensionSet(identityset.Deployer(), "disable-messaging", cs.DAO(), []dao.ExtensionToggle{
		{Extension: cs.Messaging().Address(), Enabled: false},
	})
	require.NoError(cs.Deploy(disable))

	_, err := cs.CreateCoreProposal(ctx, _alice, disable.Address())
	require.Equal(coreproposals.ErrFirstVotingPeriod, errors.Cause(err))
	require.NoError(cs.MintBlocks(4))
	r, err := cs.CreateCoreProposal(ctx, _alice, disable.Address())
	require.NoError(err)
	require.Len(r.EventsByNotification("create-proposal"), 1)
	// core proposals carry no bond
	require.EqualValues(1000, balance(t, cs, _alice))
	_, err = cs.CreateCoreProposal(ctx, _bob, disable.Address())
	require.Equal(coreproposals.ErrSavingProposal, errors.Cause(err))

	require.NoError(cs.MintBlocks(2))
	for _, voter := range []address.Address{_bob, _carol, _dave} {
		_, err = cs.VoteOnCoreProposal(ctx, voter, disable.Address(), true)
		require.NoError(err)
	}
	_, err = cs.VoteOnCoreProposal(ctx, _dave, disable.Address(), true)
	require.Equal(coreproposals.ErrAlreadyVoted, errors.Cause(err))
	_, _, err = cs.ConcludeCoreProposal(ctx, _alice, disable.Address())
	require.Equal(coreproposals.ErrProposalVotingActive, errors.Cause(err))
	require.NoError(cs.MintBlocks(5))
	_, _, err = cs.ConcludeCoreProposal(ctx, _alice, disable.Address())
	require.Equal(coreproposals.ErrProposalExecutionDelay, errors.Cause(err))
	require.NoError(cs.MintBlocks(2))

	executed, r, err := cs.ConcludeCoreProposal(ctx, _alice, disable.Address())
	require.NoError(err)
	require.True(executed)
	require.Len(r.EventsByNotification("execute"), 1)
	ext := r.EventsByNotification("extension")
	require.Len(ext, 1)
	require.Equal(false, ext[0].Payload["enabled"])

	sr := cs.ReadView()
	enabled, err := cs.DAO().IsExtension(sr, cs.Messaging().Address())
	require.NoError(err)
	require.False(enabled)
	at, ok, err := cs.DAO().ExecutedAt(sr, disable.Address())
	require.NoError(err)
	require.True(ok)
	require.Equal(cs.TipHeight(), at)

	// a proposal executes at most once
	_, err = cs.CreateCoreProposal(ctx, _alice, disable.Address())
	require.Equal(coreproposals.ErrProposalAlreadyExecuted, errors.Cause(err))
	_, _, err = cs.ConcludeCoreProposal(ctx, _alice, disable.Address())
	require.Equal(coreproposals.ErrProposalAlreadyConcluded, errors.Cause(err))
	_, err = cs.Call(ctx, _alice, func(ctx context.Context, sm protocol.StateManager) error {
		return cs.DAO().Execute(ctx, sm, disable.Address(), _alice)
	})
	require.Equal(dao.ErrUnauthorized, errors.Cause(err))
}

func TestDisabledEngineDoesNotExecute(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	cs := newTestService(t, testConfig())
	disable := proposals.NewExtensionSet(identityset.Deployer(), "disable-actions", cs.DAO(), []dao.ExtensionToggle{
		{Extension: cs.ActionProposals().Address(), Enabled: false},
	})
	require.NoError(cs.Deploy(disable))
	require.NoError(cs.MintBlocks(4))

	// both proposals are created at height 5 and share their windows
	_, err := cs.CreateCoreProposal(ctx, _alice, disable.Address())
	require.NoError(err)
	act := cs.SendMessageAction().Address()
	id, _, err := cs.ProposeAction(ctx, _alice, act, messageParams(t, "too late"))
	require.NoError(err)
	require.NoError(cs.MintBlocks(2))
	for _, voter := range []address.Address{_bob, _carol, _dave} {
		_, err = cs.VoteOnCoreProposal(ctx, voter, disable.Address(), true)
		require.NoError(err)
		_, err = cs.VoteOnActionProposal(ctx, voter, id, true)
		require.NoError(err)
	}
	require.NoError(cs.MintBlocks(7))
	executed, _, err := cs.ConcludeCoreProposal(ctx, _alice, disable.Address())
	require.NoError(err)
	require.True(executed)

	executed, r, err := cs.ConcludeActionProposal(ctx, _alice, id, act)
	require.NoError(err)
	require.False(executed)
	require.Empty(r.EventsByNotification("send-message"))
	p, err := cs.ActionProposals().Proposal(cs.ReadView(), id)
	require.NoError(err)
	require.True(p.Passed)
	require.False(p.Executed)
}

func TestPreConstructionLockout(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	cfg := testConfig()
	cfg.DAO.ConstructAtGenesis = false
	cs := newTestService(t, cfg)
	deployer := identityset.Deployer()

	constructed, err := cs.DAO().IsConstructed(cs.ReadView())
	require.NoError(err)
	require.False(constructed)
	for _, call := range []func(context.Context, protocol.StateManager) error{
		func(ctx context.Context, sm protocol.StateManager) error {
			return cs.DAO().SetExtension(ctx, sm, cs.Messaging().Address(), true)
		},
		func(ctx context.Context, sm protocol.StateManager) error {
			return cs.DAO().Execute(ctx, sm, cs.Bootstrap().Address(), deployer)
		},
	} {
		_, err = cs.Call(ctx, deployer, call)
		require.Equal(dao.ErrUnauthorized, errors.Cause(err))
	}
	_, _, err = cs.ProposeAction(ctx, _alice, cs.SendMessageAction().Address(), messageParams(t, "locked"))
	require.Equal(actionproposals.ErrInvalidAction, errors.Cause(err))
	_, err = cs.CreateCoreProposal(ctx, _alice, cs.Bootstrap().Address())
	require.Equal(coreproposals.ErrFirstVotingPeriod, errors.Cause(err))

	_, err = cs.Construct(ctx, _alice, cs.Bootstrap().Address())
	require.Equal(dao.ErrUnauthorized, errors.Cause(err))
	r, err := cs.Construct(ctx, deployer, cs.Bootstrap().Address())
	require.NoError(err)
	require.Len(r.EventsByNotification("construct"), 1)
	require.Len(r.EventsByNotification("send-message"), 1)
	constructed, err = cs.DAO().IsConstructed(cs.ReadView())
	require.NoError(err)
	require.True(constructed)
	at, ok, err := cs.DAO().ConstructedAt(cs.ReadView())
	require.NoError(err)
	require.True(ok)
	require.EqualValues(1, at)

	_, err = cs.Construct(ctx, deployer, cs.Bootstrap().Address())
	require.Equal(dao.ErrUnauthorized, errors.Cause(err))
	require.NoError(cs.MintBlocks(3))
	constructed, err = cs.DAO().IsConstructed(cs.ReadView())
	require.NoError(err)
	require.True(constructed)
}

func TestDepositAndMessage(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	cs := newTestService(t, testConfig())

	r, err := cs.DepositFT(ctx, _bob, cs.Token().Address(), big.NewInt(300))
	require.NoError(err)
	require.Len(r.EventsByNotification("deposit-ft"), 1)
	require.EqualValues(1700, balance(t, cs, _bob))
	bal, err := cs.Treasury().Balance(cs.ReadView(), cs.Token().Address())
	require.NoError(err)
	require.EqualValues(5300, bal.Int64())

	r, err = cs.SendMessage(ctx, _bob, "gm")
	require.NoError(err)
	events := r.EventsByNotification("send-message")
	require.Len(events, 1)
	require.Equal(false, events[0].Payload["isFromDao"])
	_, err = cs.SendMessage(ctx, _bob, "")
	require.Error(err)
}
