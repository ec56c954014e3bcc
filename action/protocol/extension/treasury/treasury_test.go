// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package treasury

import (
	"context"
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iotexproject/iotex-dao/action/protocol"
	"github.com/iotexproject/iotex-dao/action/protocol/token"
	"github.com/iotexproject/iotex-dao/blockchain"
	"github.com/iotexproject/iotex-dao/db"
	"github.com/iotexproject/iotex-dao/state/factory"
	"github.com/iotexproject/iotex-dao/test/identityset"
	"github.com/iotexproject/iotex-dao/test/mock/mock_actions"
)

func newTestChain(t *testing.T) blockchain.Blockchain {
	sf, err := factory.NewFactory(db.NewMemKVStore())
	require.NoError(t, err)
	bc := blockchain.NewBlockchain(sf)
	require.NoError(t, bc.Start(context.Background()))
	t.Cleanup(func() {
		require.NoError(t, bc.Stop(context.Background()))
	})
	return bc
}

func TestTreasury(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	bc := newTestChain(t)

	deployer := identityset.Deployer()
	alice, bob := identityset.Address(1), identityset.Address(2)
	ledger := token.NewLedger(deployer, token.Config{Name: "DAO Token", Symbol: "DAO", Decimals: 6})
	auth := mock_actions.NewMockAuthorizer(ctrl)
	p := NewProtocol(deployer, auth, ledger)
	asset := ledger.Address()

	_, err := bc.Call(ctx, deployer, func(ctx context.Context, sm protocol.StateManager) error {
		return ledger.Mint(ctx, sm, big.NewInt(1000), alice)
	})
	require.NoError(err)

	// nothing is allowed yet
	_, err = bc.Call(ctx, alice, func(ctx context.Context, sm protocol.StateManager) error {
		return p.DepositFT(ctx, sm, asset, big.NewInt(100))
	})
	require.Equal(ErrUnknownAsset, errors.Cause(err))

	auth.EXPECT().IsDaoOrExtension(gomock.Any(), gomock.Any()).Return(false, nil).Times(2)
	_, err = bc.Call(ctx, alice, func(ctx context.Context, sm protocol.StateManager) error {
		return p.AllowAsset(ctx, sm, asset, true)
	})
	require.Equal(ErrUnauthorized, errors.Cause(err))
	_, err = bc.Call(ctx, alice, func(ctx context.Context, sm protocol.StateManager) error {
		return p.WithdrawFT(ctx, sm, asset, big.NewInt(1), alice)
	})
	require.Equal(ErrUnauthorized, errors.Cause(err))

	auth.EXPECT().IsDaoOrExtension(gomock.Any(), gomock.Any()).Return(true, nil).AnyTimes()
	r, err := bc.Call(ctx, alice, func(ctx context.Context, sm protocol.StateManager) error {
		return p.AllowAsset(ctx, sm, asset, true)
	})
	require.NoError(err)
	require.Len(r.EventsByNotification("allow-asset"), 1)
	allowed, err := p.IsAllowedAsset(bc.ReadView(), asset)
	require.NoError(err)
	require.True(allowed)

	r, err = bc.Call(ctx, alice, func(ctx context.Context, sm protocol.StateManager) error {
		return p.DepositFT(ctx, sm, asset, big.NewInt(300))
	})
	require.NoError(err)
	events := r.EventsByNotification("deposit-ft")
	require.Len(events, 1)
	require.Equal("300", events[0].Payload["amount"])
	require.Equal(asset.String(), events[0].Payload["assetContract"])
	bal, err := p.Balance(bc.ReadView(), asset)
	require.NoError(err)
	require.EqualValues(300, bal.Int64())

	r, err = bc.Call(ctx, alice, func(ctx context.Context, sm protocol.StateManager) error {
		return p.WithdrawFT(ctx, sm, asset, big.NewInt(120), bob)
	})
	require.NoError(err)
	events = r.EventsByNotification("withdraw-ft")
	require.Len(events, 1)
	require.Equal(bob.String(), events[0].Payload["recipient"])
	bal, err = ledger.BalanceOf(bc.ReadView(), bob)
	require.NoError(err)
	require.EqualValues(120, bal.Int64())

	_, err = bc.Call(ctx, alice, func(ctx context.Context, sm protocol.StateManager) error {
		return p.WithdrawFT(ctx, sm, asset, big.NewInt(1000), bob)
	})
	require.Equal(token.ErrInsufficientBalance, errors.Cause(err))

	// a removed asset can no longer be deposited
	_, err = bc.Call(ctx, alice, func(ctx context.Context, sm protocol.StateManager) error {
		if err := p.AllowAsset(ctx, sm, asset, false); err != nil {
			return err
		}
		return p.DepositFT(ctx, sm, asset, big.NewInt(1))
	})
	require.Equal(ErrUnknownAsset, errors.Cause(err))
	allowed, err = p.IsAllowedAsset(bc.ReadView(), asset)
	require.NoError(err)
	require.True(allowed)

	_, err = p.Balance(bc.ReadView(), alice)
	require.Equal(ErrUnknownAsset, errors.Cause(err))
}
