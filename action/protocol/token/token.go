// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package token

import (
	"context"
	"math/big"

	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"

	"github.com/iotexproject/iotex-dao/action"
	"github.com/iotexproject/iotex-dao/action/protocol"
	"github.com/iotexproject/iotex-dao/state"
)

const (
	// ModuleName is the name the token module is deployed under
	ModuleName = "token"

	_tokenNS = "Token"
)

var (
	_totalSupplyKey   = []byte("totalSupply")
	_balanceKeyPrefix = []byte("balance.")
)

var (
	// ErrUnauthorized is returned when mint is not called by the minter
	ErrUnauthorized = protocol.NewError(4000, "ERR_UNAUTHORIZED", protocol.CategoryAuthorization)
	// ErrNotTokenOwner is returned when neither sender nor caller owns the transferred tokens
	ErrNotTokenOwner = protocol.NewError(4001, "ERR_NOT_TOKEN_OWNER", protocol.CategoryAuthorization)
	// ErrInvalidAmount is returned for zero or negative amounts
	ErrInvalidAmount = protocol.NewError(4002, "ERR_INVALID_AMOUNT", protocol.CategoryPrecondition)
	// ErrInsufficientBalance is returned when the owner cannot cover the amount
	ErrInsufficientBalance = protocol.NewError(4003, "ERR_INSUFFICIENT_BALANCE", protocol.CategoryPrecondition)
	// ErrFutureHeight is returned when a historical read names a block not reached yet
	ErrFutureHeight = protocol.NewError(4004, "ERR_BLOCK_NOT_FOUND", protocol.CategoryPrecondition)
)

type (
	// Config describes the DAO token
	Config struct {
		Name     string `yaml:"name"`
		Symbol   string `yaml:"symbol"`
		Decimals uint8  `yaml:"decimals"`
	}

	// Ledger is the DAO fungible token, balances and supply are kept per block height
	Ledger struct {
		addr   address.Address
		minter address.Address
		cfg    Config
	}
)

// NewLedger creates the token ledger deployed by deployer, the deployer is the minter
func NewLedger(deployer address.Address, cfg Config) *Ledger {
	return &Ledger{
		addr:   protocol.ContractAddress(deployer, ModuleName),
		minter: deployer,
		cfg:    cfg,
	}
}

// Address returns the address of the token
func (l *Ledger) Address() address.Address { return l.addr }

// Name returns the name of the token
func (l *Ledger) Name() string { return l.cfg.Name }

// Symbol returns the symbol of the token
func (l *Ledger) Symbol() string { return l.cfg.Symbol }

// Decimals returns the decimals of the token
func (l *Ledger) Decimals() uint8 { return l.cfg.Decimals }

// Mint mints amount to recipient, only the minter can mint
func (l *Ledger) Mint(ctx context.Context, sm protocol.StateManager, amount *big.Int, recipient address.Address) error {
	call := protocol.MustGetCallCtx(ctx)
	if !protocol.SameAddress(call.Sender, l.minter) {
		return ErrUnauthorized
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	height, err := sm.Height()
	if err != nil {
		return err
	}
	bal, err := l.checkpoints(sm, balanceKey(recipient))
	if err != nil {
		return err
	}
	if err := l.putCheckpoints(sm, balanceKey(recipient), bal.record(height, new(big.Int).Add(bal.latest(), amount))); err != nil {
		return err
	}
	supply, err := l.checkpoints(sm, _totalSupplyKey)
	if err != nil {
		return err
	}
	if err := l.putCheckpoints(sm, _totalSupplyKey, supply.record(height, new(big.Int).Add(supply.latest(), amount))); err != nil {
		return err
	}
	sm.EmitEvent(action.NewEvent(l.addr.String(), "mint", action.Payload{
		"amount":    amount.String(),
		"recipient": recipient.String(),
		"sender":    call.Sender.String(),
		"caller":    call.Caller.String(),
	}))
	return nil
}

// Transfer moves amount from from to to. Either the sender or the direct caller must be from.
func (l *Ledger) Transfer(ctx context.Context, sm protocol.StateManager, amount *big.Int, from, to address.Address) error {
	call := protocol.MustGetCallCtx(ctx)
	if !protocol.SameAddress(call.Sender, from) && !protocol.SameAddress(call.Caller, from) {
		return ErrNotTokenOwner
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	height, err := sm.Height()
	if err != nil {
		return err
	}
	src, err := l.checkpoints(sm, balanceKey(from))
	if err != nil {
		return err
	}
	srcBal := src.latest()
	if srcBal.Cmp(amount) < 0 {
		return errors.Wrapf(ErrInsufficientBalance, "balance %s of %s is less than %s", srcBal, from.String(), amount)
	}
	if err := l.putCheckpoints(sm, balanceKey(from), src.record(height, srcBal.Sub(srcBal, amount))); err != nil {
		return err
	}
	dst, err := l.checkpoints(sm, balanceKey(to))
	if err != nil {
		return err
	}
	if err := l.putCheckpoints(sm, balanceKey(to), dst.record(height, new(big.Int).Add(dst.latest(), amount))); err != nil {
		return err
	}
	sm.EmitEvent(action.NewEvent(l.addr.String(), "transfer", action.Payload{
		"amount":    amount.String(),
		"from":      from.String(),
		"recipient": to.String(),
		"sender":    call.Sender.String(),
		"caller":    call.Caller.String(),
	}))
	return nil
}

// BalanceOf returns the current balance of addr
func (l *Ledger) BalanceOf(sr protocol.StateReader, addr address.Address) (*big.Int, error) {
	cps, err := l.checkpoints(sr, balanceKey(addr))
	if err != nil {
		return nil, err
	}
	return cps.latest(), nil
}

// BalanceAt returns the balance of addr at the end of block height
func (l *Ledger) BalanceAt(sr protocol.StateReader, addr address.Address, height uint64) (*big.Int, error) {
	if err := checkHeight(sr, height); err != nil {
		return nil, err
	}
	cps, err := l.checkpoints(sr, balanceKey(addr))
	if err != nil {
		return nil, err
	}
	return cps.at(height), nil
}

// TotalSupply returns the current total supply
func (l *Ledger) TotalSupply(sr protocol.StateReader) (*big.Int, error) {
	cps, err := l.checkpoints(sr, _totalSupplyKey)
	if err != nil {
		return nil, err
	}
	return cps.latest(), nil
}

// TotalSupplyAt returns the total supply at the end of block height
func (l *Ledger) TotalSupplyAt(sr protocol.StateReader, height uint64) (*big.Int, error) {
	if err := checkHeight(sr, height); err != nil {
		return nil, err
	}
	cps, err := l.checkpoints(sr, _totalSupplyKey)
	if err != nil {
		return nil, err
	}
	return cps.at(height), nil
}

func (l *Ledger) checkpoints(sr protocol.StateReader, key []byte) (checkpoints, error) {
	var cps checkpoints
	_, err := sr.State(&cps, protocol.NamespaceOption(_tokenNS), protocol.KeyOption(l.key(key)))
	switch errors.Cause(err) {
	case nil:
		return cps, nil
	case state.ErrStateNotExist:
		return nil, nil
	default:
		return nil, err
	}
}

func (l *Ledger) putCheckpoints(sm protocol.StateManager, key []byte, cps checkpoints) error {
	_, err := sm.PutState(cps, protocol.NamespaceOption(_tokenNS), protocol.KeyOption(l.key(key)))
	return err
}

func (l *Ledger) key(key []byte) []byte {
	return append(l.addr.Bytes(), key...)
}

func balanceKey(addr address.Address) []byte {
	return append(append([]byte{}, _balanceKeyPrefix...), addr.Bytes()...)
}

func checkHeight(sr protocol.StateReader, height uint64) error {
	tip, err := sr.Height()
	if err != nil {
		return err
	}
	if height > tip {
		return errors.Wrapf(ErrFutureHeight, "height %d is beyond tip %d", height, tip)
	}
	return nil
}
