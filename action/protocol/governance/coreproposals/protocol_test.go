// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package coreproposals_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/iotexproject/iotex-dao/action/protocol/dao"
	"github.com/iotexproject/iotex-dao/action/protocol/extension/proposals"
	"github.com/iotexproject/iotex-dao/action/protocol/governance"
	"github.com/iotexproject/iotex-dao/action/protocol/governance/coreproposals"
	"github.com/iotexproject/iotex-dao/chainservice"
	"github.com/iotexproject/iotex-dao/config"
	"github.com/iotexproject/iotex-dao/test/identityset"
)

func newService(t *testing.T) *chainservice.ChainService {
	cfg := config.Copy(config.Default)
	cfg.Genesis.Deployer = identityset.Deployer().String()
	cfg.Genesis.Allocations = map[string]string{
		identityset.Address(1).String(): "1000",
		identityset.Address(2).String(): "9000",
	}
	cfg.DAO.CoreProposals = governance.VotingConfig{
		VotingDelay:     1,
		VotingPeriod:    3,
		VotingQuorum:    25,
		VotingThreshold: 90,
		BondPolicy:      governance.AlwaysRefund,
		CollisionScope:  governance.GlobalScope,
	}
	cs, err := chainservice.New(cfg, chainservice.WithTesting())
	require.NoError(t, err)
	require.NoError(t, cs.Start(context.Background()))
	t.Cleanup(func() {
		require.NoError(t, cs.Stop(context.Background()))
	})
	return cs
}

func TestFirstVotingPeriod(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	cs := newService(t)
	alice := identityset.Address(1)
	enable := proposals.NewExtensionSet(identityset.Deployer(), "noop", cs.DAO(), nil)
	require.NoError(cs.Deploy(enable))

	// constructed at 0, the first period ends at 3
	require.EqualValues(1, cs.TipHeight())
	_, err := cs.CreateCoreProposal(ctx, alice, enable.Address())
	require.Equal(coreproposals.ErrFirstVotingPeriod, errors.Cause(err))
	require.NoError(cs.MintBlocks(2))
	_, err = cs.CreateCoreProposal(ctx, alice, enable.Address())
	require.NoError(err)

	total, err := cs.CoreProposals().TotalProposals(cs.ReadView())
	require.NoError(err)
	require.EqualValues(1, total)
	last, err := cs.CoreProposals().LastProposalCreated(cs.ReadView())
	require.NoError(err)
	require.EqualValues(3, last)
}

func TestRejectedProposal(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	cs := newService(t)
	alice, bob := identityset.Address(1), identityset.Address(2)
	disable := proposals.NewExtensionSet(identityset.Deployer(), "disable-treasury", cs.DAO(), []dao.ExtensionToggle{
		{Extension: cs.Treasury().Address(), Enabled: false},
	})
	require.NoError(cs.Deploy(disable))
	require.NoError(cs.MintBlocks(2))

	_, err := cs.CreateCoreProposal(ctx, bob, disable.Address())
	require.NoError(err)
	_, err = cs.CreateCoreProposal(ctx, alice, disable.Address())
	require.Equal(coreproposals.ErrSavingProposal, errors.Cause(err))
	_, err = cs.VoteOnCoreProposal(ctx, alice, disable.Address(), true)
	require.Equal(coreproposals.ErrVoteTooSoon, errors.Cause(err))
	require.NoError(cs.MintBlocks(1))
	_, err = cs.VoteOnCoreProposal(ctx, alice, disable.Address(), true)
	require.NoError(err)
	_, err = cs.VoteOnCoreProposal(ctx, bob, disable.Address(), false)
	require.NoError(err)
	require.NoError(cs.MintBlocks(4))

	executed, r, err := cs.ConcludeCoreProposal(ctx, alice, disable.Address())
	require.NoError(err)
	require.False(executed)
	require.Empty(r.EventsByNotification("execute"))
	_, ok, err := cs.DAO().ExecutedAt(cs.ReadView(), disable.Address())
	require.NoError(err)
	require.False(ok)
	enabled, err := cs.DAO().IsExtension(cs.ReadView(), cs.Treasury().Address())
	require.NoError(err)
	require.True(enabled)

	p, err := cs.CoreProposals().Proposal(cs.ReadView(), disable.Address())
	require.NoError(err)
	require.True(p.MetQuorum)
	require.False(p.MetThreshold)
	require.EqualValues(1000, p.VotesFor.Int64())
	require.EqualValues(9000, p.VotesAgainst.Int64())
}

func TestUnknownProposal(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	cs := newService(t)
	alice := identityset.Address(1)
	unknown := identityset.Address(9)

	_, err := cs.VoteOnCoreProposal(ctx, alice, unknown, true)
	require.Equal(coreproposals.ErrProposalNotFound, errors.Cause(err))
	_, _, err = cs.ConcludeCoreProposal(ctx, alice, unknown)
	require.Equal(coreproposals.ErrProposalNotFound, errors.Cause(err))
	_, err = cs.CoreProposals().Proposal(cs.ReadView(), nil)
	require.Equal(coreproposals.ErrProposalNotFound, errors.Cause(err))
	voted, err := cs.CoreProposals().VoteRecord(cs.ReadView(), unknown, alice)
	require.NoError(err)
	require.Zero(voted.Sign())

	// a proposal that is not deployed passes but cannot execute
	require.NoError(cs.MintBlocks(2))
	_, err = cs.CreateCoreProposal(ctx, alice, unknown)
	require.NoError(err)
	require.NoError(cs.MintBlocks(1))
	_, err = cs.VoteOnCoreProposal(ctx, identityset.Address(2), unknown, true)
	require.NoError(err)
	require.NoError(cs.MintBlocks(4))
	executed, _, err := cs.ConcludeCoreProposal(ctx, alice, unknown)
	require.NoError(err)
	require.False(executed)
	p, err := cs.CoreProposals().Proposal(cs.ReadView(), unknown)
	require.NoError(err)
	require.True(p.Passed)
	require.False(p.Executed)
}
