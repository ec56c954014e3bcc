// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package votingpower

import (
	"math/big"
	"testing"

	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iotexproject/iotex-dao/test/identityset"
	"github.com/iotexproject/iotex-dao/test/mock/mock_token"
)

func TestLiquidSupply(t *testing.T) {
	require := require.New(t)
	ctrl := gomock.NewController(t)

	treasury, pool := identityset.Address(10), identityset.Address(11)
	ledger := mock_token.NewMockHistoricalLedger(ctrl)
	o := NewOracle(ledger, treasury, pool)
	require.Len(o.LockedAddresses(), 2)

	ledger.EXPECT().TotalSupplyAt(gomock.Any(), uint64(5)).Return(big.NewInt(1000), nil).Times(1)
	ledger.EXPECT().BalanceAt(gomock.Any(), treasury, uint64(5)).Return(big.NewInt(300), nil).Times(1)
	ledger.EXPECT().BalanceAt(gomock.Any(), pool, uint64(5)).Return(big.NewInt(200), nil).Times(1)
	liquid, err := o.LiquidSupply(nil, 5)
	require.NoError(err)
	require.EqualValues(500, liquid.Int64())

	// nothing minted yet
	ledger.EXPECT().TotalSupplyAt(gomock.Any(), uint64(0)).Return(big.NewInt(0), nil).Times(1)
	ledger.EXPECT().BalanceAt(gomock.Any(), gomock.Any(), uint64(0)).Return(big.NewInt(0), nil).Times(2)
	liquid, err = o.LiquidSupply(nil, 0)
	require.NoError(err)
	require.Zero(liquid.Sign())

	// ledger failure is propagated
	ledger.EXPECT().TotalSupplyAt(gomock.Any(), uint64(9)).Return(nil, errors.New("unreachable")).Times(1)
	_, err = o.LiquidSupply(nil, 9)
	require.Error(err)
}

func TestLiquidSupplyDuplicateLocked(t *testing.T) {
	require := require.New(t)
	ctrl := gomock.NewController(t)

	treasury, pool := identityset.Address(10), identityset.Address(11)
	ledger := mock_token.NewMockHistoricalLedger(ctrl)
	o := NewOracle(ledger, treasury, pool, treasury, pool)
	require.Equal([]address.Address{treasury, pool}, o.LockedAddresses())

	ledger.EXPECT().TotalSupplyAt(gomock.Any(), uint64(3)).Return(big.NewInt(1000), nil).Times(1)
	ledger.EXPECT().BalanceAt(gomock.Any(), treasury, uint64(3)).Return(big.NewInt(300), nil).Times(1)
	ledger.EXPECT().BalanceAt(gomock.Any(), pool, uint64(3)).Return(big.NewInt(200), nil).Times(1)
	liquid, err := o.LiquidSupply(nil, 3)
	require.NoError(err)
	require.EqualValues(500, liquid.Int64())
}

func TestVotingPowerAt(t *testing.T) {
	require := require.New(t)
	ctrl := gomock.NewController(t)

	voter := identityset.Address(1)
	ledger := mock_token.NewMockHistoricalLedger(ctrl)
	ledger.EXPECT().BalanceAt(gomock.Any(), voter, uint64(7)).Return(big.NewInt(42), nil).Times(1)
	o := NewOracle(ledger)
	power, err := o.VotingPowerAt(nil, voter, 7)
	require.NoError(err)
	require.EqualValues(42, power.Int64())
}
