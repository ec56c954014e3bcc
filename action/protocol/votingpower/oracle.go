// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package votingpower

import (
	"math/big"

	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"

	"github.com/iotexproject/iotex-dao/action/protocol"
)

type (
	// HistoricalLedger reads token balances and supply at the end of a past block
	HistoricalLedger interface {
		BalanceAt(sr protocol.StateReader, addr address.Address, height uint64) (*big.Int, error)
		TotalSupplyAt(sr protocol.StateReader, height uint64) (*big.Int, error)
	}

	// Oracle computes voting power and liquid supply from ledger snapshots. It never writes state.
	Oracle struct {
		ledger HistoricalLedger
		locked []address.Address
	}
)

// NewOracle creates an oracle, balances held by the locked addresses are excluded from the liquid supply.
// An address listed more than once is counted once.
func NewOracle(ledger HistoricalLedger, locked ...address.Address) *Oracle {
	seen := make(map[string]struct{}, len(locked))
	set := make([]address.Address, 0, len(locked))
	for _, addr := range locked {
		if _, ok := seen[addr.String()]; ok {
			continue
		}
		seen[addr.String()] = struct{}{}
		set = append(set, addr)
	}
	return &Oracle{
		ledger: ledger,
		locked: set,
	}
}

// LockedAddresses returns the structurally locked addresses
func (o *Oracle) LockedAddresses() []address.Address {
	return append([]address.Address{}, o.locked...)
}

// LiquidSupply returns total supply minus the locked balances at height
func (o *Oracle) LiquidSupply(sr protocol.StateReader, height uint64) (*big.Int, error) {
	total, err := o.ledger.TotalSupplyAt(sr, height)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get total supply at %d", height)
	}
	liquid := new(big.Int).Set(total)
	for _, addr := range o.locked {
		bal, err := o.ledger.BalanceAt(sr, addr, height)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to get balance of %s at %d", addr.String(), height)
		}
		liquid.Sub(liquid, bal)
	}
	if liquid.Sign() < 0 {
		return big.NewInt(0), nil
	}
	return liquid, nil
}

// VotingPowerAt returns the balance of voter at height
func (o *Oracle) VotingPowerAt(sr protocol.StateReader, voter address.Address, height uint64) (*big.Int, error) {
	bal, err := o.ledger.BalanceAt(sr, voter, height)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get balance of %s at %d", voter.String(), height)
	}
	return bal, nil
}
