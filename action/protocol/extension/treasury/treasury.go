// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package treasury

import (
	"context"
	"math/big"

	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"

	"github.com/iotexproject/iotex-dao/action"
	"github.com/iotexproject/iotex-dao/action/protocol"
	"github.com/iotexproject/iotex-dao/pkg/util/byteutil"
	"github.com/iotexproject/iotex-dao/state"
)

const (
	// ModuleName is the name the treasury is deployed under
	ModuleName = "treasury"

	_treasuryNS = "Treasury"
)

var _allowedAssetPrefix = []byte("allowed.")

var (
	// ErrUnauthorized is returned when the caller is neither the DAO nor an enabled extension
	ErrUnauthorized = protocol.NewError(6000, "ERR_UNAUTHORIZED", protocol.CategoryAuthorization)
	// ErrUnknownAsset is returned for assets that are not allowed
	ErrUnknownAsset = protocol.NewError(6001, "ERR_UNKNOWN_ASSET", protocol.CategoryPrecondition)
)

type (
	// Authorizer tells if a call comes from the DAO or an enabled extension
	Authorizer interface {
		IsDaoOrExtension(context.Context, protocol.StateReader) (bool, error)
	}

	// FungibleToken is a token the treasury can hold
	FungibleToken interface {
		Address() address.Address
		BalanceOf(protocol.StateReader, address.Address) (*big.Int, error)
		Transfer(ctx context.Context, sm protocol.StateManager, amount *big.Int, from, to address.Address) error
	}

	// Protocol is the DAO treasury. It holds allowed fungible tokens and releases them on DAO decisions.
	Protocol struct {
		addr   address.Address
		auth   Authorizer
		tokens map[string]FungibleToken
	}

	allowance struct {
		Enabled bool
	}
)

// NewProtocol creates the treasury deployed by deployer, tokens are the fungible tokens it can move
func NewProtocol(deployer address.Address, auth Authorizer, tokens ...FungibleToken) *Protocol {
	p := &Protocol{
		addr:   protocol.ContractAddress(deployer, ModuleName),
		auth:   auth,
		tokens: make(map[string]FungibleToken, len(tokens)),
	}
	for _, t := range tokens {
		p.tokens[t.Address().String()] = t
	}
	return p
}

// Address returns the address of the treasury
func (p *Protocol) Address() address.Address { return p.addr }

// Callback acknowledges the extension identity of the treasury
func (p *Protocol) Callback(context.Context, protocol.StateManager, address.Address, []byte) (bool, error) {
	return true, nil
}

// AllowAsset adds or removes asset from the allowlist
func (p *Protocol) AllowAsset(ctx context.Context, sm protocol.StateManager, asset address.Address, enabled bool) error {
	if err := p.checkAuthorized(ctx, sm); err != nil {
		return err
	}
	if _, err := sm.PutState(&allowance{Enabled: enabled}, protocol.NamespaceOption(_treasuryNS), protocol.KeyOption(p.allowedKey(asset))); err != nil {
		return err
	}
	call := protocol.MustGetCallCtx(ctx)
	sm.EmitEvent(action.NewEvent(p.addr.String(), "allow-asset", action.Payload{
		"enabled": enabled,
		"token":   asset.String(),
		"sender":  call.Sender.String(),
		"caller":  call.Caller.String(),
	}))
	return nil
}

// DepositFT moves amount of asset from the sender to the treasury
func (p *Protocol) DepositFT(ctx context.Context, sm protocol.StateManager, asset address.Address, amount *big.Int) error {
	token, err := p.allowedToken(sm, asset)
	if err != nil {
		return err
	}
	call := protocol.MustGetCallCtx(ctx)
	if err := token.Transfer(ctx, sm, amount, call.Sender, p.addr); err != nil {
		return err
	}
	sm.EmitEvent(action.NewEvent(p.addr.String(), "deposit-ft", action.Payload{
		"amount":        amount.String(),
		"assetContract": asset.String(),
		"recipient":     p.addr.String(),
		"sender":        call.Sender.String(),
		"caller":        call.Caller.String(),
	}))
	return nil
}

// WithdrawFT moves amount of asset from the treasury to recipient
func (p *Protocol) WithdrawFT(ctx context.Context, sm protocol.StateManager, asset address.Address, amount *big.Int, recipient address.Address) error {
	if err := p.checkAuthorized(ctx, sm); err != nil {
		return err
	}
	token, err := p.allowedToken(sm, asset)
	if err != nil {
		return err
	}
	if err := token.Transfer(protocol.ContractCall(ctx, p.addr), sm, amount, p.addr, recipient); err != nil {
		return err
	}
	call := protocol.MustGetCallCtx(ctx)
	sm.EmitEvent(action.NewEvent(p.addr.String(), "withdraw-ft", action.Payload{
		"amount":        amount.String(),
		"assetContract": asset.String(),
		"recipient":     recipient.String(),
		"sender":        call.Sender.String(),
		"caller":        call.Caller.String(),
	}))
	return nil
}

// IsAllowedAsset returns true if asset is on the allowlist
func (p *Protocol) IsAllowedAsset(sr protocol.StateReader, asset address.Address) (bool, error) {
	if asset == nil {
		return false, nil
	}
	var a allowance
	_, err := sr.State(&a, protocol.NamespaceOption(_treasuryNS), protocol.KeyOption(p.allowedKey(asset)))
	switch errors.Cause(err) {
	case nil:
		return a.Enabled, nil
	case state.ErrStateNotExist:
		return false, nil
	default:
		return false, err
	}
}

// Balance returns the treasury balance of asset
func (p *Protocol) Balance(sr protocol.StateReader, asset address.Address) (*big.Int, error) {
	token, ok := p.tokens[asset.String()]
	if !ok {
		return nil, ErrUnknownAsset
	}
	return token.BalanceOf(sr, p.addr)
}

func (p *Protocol) allowedToken(sr protocol.StateReader, asset address.Address) (FungibleToken, error) {
	allowed, err := p.IsAllowedAsset(sr, asset)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrUnknownAsset
	}
	token, ok := p.tokens[asset.String()]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownAsset, "no fungible token at %s", asset.String())
	}
	return token, nil
}

func (p *Protocol) checkAuthorized(ctx context.Context, sr protocol.StateReader) error {
	ok, err := p.auth.IsDaoOrExtension(ctx, sr)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnauthorized
	}
	return nil
}

func (p *Protocol) allowedKey(asset address.Address) []byte {
	return byteutil.JoinBytes(p.addr.Bytes(), _allowedAssetPrefix, asset.Bytes())
}
