// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package actions

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"

	"github.com/iotexproject/iotex-dao/action/protocol"
)

const (
	// SendMessageName is the name the send message action is deployed under
	SendMessageName = "action-send-message"
	// WithdrawFTName is the name the treasury withdrawal action is deployed under
	WithdrawFTName = "action-treasury-withdraw-ft"
	// AllowAssetName is the name the treasury allowlist action is deployed under
	AllowAssetName = "action-treasury-allow-asset"
)

var (
	// ErrUnauthorized is returned when an action is run by someone else than the DAO or an enabled extension
	ErrUnauthorized = protocol.NewError(5000, "ERR_UNAUTHORIZED", protocol.CategoryAuthorization)
	// ErrInvalidParams is returned when the parameters cannot be decoded
	ErrInvalidParams = protocol.NewError(5001, "ERR_INVALID_PARAMS", protocol.CategoryPrecondition)
)

type (
	// Authorizer tells if a call comes from the DAO or an enabled extension
	Authorizer interface {
		IsDaoOrExtension(context.Context, protocol.StateReader) (bool, error)
	}

	// Messenger posts messages
	Messenger interface {
		Send(ctx context.Context, sm protocol.StateManager, msg string) error
	}

	// Treasury holds the DAO funds
	Treasury interface {
		AllowAsset(ctx context.Context, sm protocol.StateManager, asset address.Address, enabled bool) error
		WithdrawFT(ctx context.Context, sm protocol.StateManager, asset address.Address, amount *big.Int, recipient address.Address) error
	}

	base struct {
		addr address.Address
		auth Authorizer
	}

	// SendMessage posts a message of the DAO
	SendMessage struct {
		base
		messenger Messenger
	}

	// WithdrawFT pays fungible tokens out of the treasury
	WithdrawFT struct {
		base
		treasury Treasury
	}

	// AllowAsset changes the treasury allowlist
	AllowAsset struct {
		base
		treasury Treasury
	}

	// SendMessageParams are the parameters of SendMessage
	SendMessageParams struct {
		Message string
	}

	// WithdrawFTParams are the parameters of WithdrawFT
	WithdrawFTParams struct {
		Asset     address.Address
		Amount    *big.Int
		Recipient address.Address
	}

	// AllowAssetParams are the parameters of AllowAsset
	AllowAssetParams struct {
		Asset   address.Address
		Enabled bool
	}

	withdrawFTRLP struct {
		Asset     []byte
		Amount    *big.Int
		Recipient []byte
	}

	allowAssetRLP struct {
		Asset   []byte
		Enabled bool
	}
)

// NewSendMessage creates the send message action deployed by deployer
func NewSendMessage(deployer address.Address, auth Authorizer, messenger Messenger) *SendMessage {
	return &SendMessage{
		base:      base{addr: protocol.ContractAddress(deployer, SendMessageName), auth: auth},
		messenger: messenger,
	}
}

// Run posts the message in params
func (a *SendMessage) Run(ctx context.Context, sm protocol.StateManager, params []byte) error {
	if err := a.checkAuthorized(ctx, sm); err != nil {
		return err
	}
	var p SendMessageParams
	if err := rlp.DecodeBytes(params, &p); err != nil {
		return errors.Wrap(ErrInvalidParams, err.Error())
	}
	return a.messenger.Send(protocol.ContractCall(ctx, a.addr), sm, p.Message)
}

// NewWithdrawFT creates the treasury withdrawal action deployed by deployer
func NewWithdrawFT(deployer address.Address, auth Authorizer, treasury Treasury) *WithdrawFT {
	return &WithdrawFT{
		base:     base{addr: protocol.ContractAddress(deployer, WithdrawFTName), auth: auth},
		treasury: treasury,
	}
}

// Run withdraws the amount in params to the recipient in params
func (a *WithdrawFT) Run(ctx context.Context, sm protocol.StateManager, params []byte) error {
	if err := a.checkAuthorized(ctx, sm); err != nil {
		return err
	}
	p, err := DecodeWithdrawFTParams(params)
	if err != nil {
		return err
	}
	return a.treasury.WithdrawFT(protocol.ContractCall(ctx, a.addr), sm, p.Asset, p.Amount, p.Recipient)
}

// NewAllowAsset creates the treasury allowlist action deployed by deployer
func NewAllowAsset(deployer address.Address, auth Authorizer, treasury Treasury) *AllowAsset {
	return &AllowAsset{
		base:     base{addr: protocol.ContractAddress(deployer, AllowAssetName), auth: auth},
		treasury: treasury,
	}
}

// Run sets the allowance of the asset in params
func (a *AllowAsset) Run(ctx context.Context, sm protocol.StateManager, params []byte) error {
	if err := a.checkAuthorized(ctx, sm); err != nil {
		return err
	}
	p, err := DecodeAllowAssetParams(params)
	if err != nil {
		return err
	}
	return a.treasury.AllowAsset(protocol.ContractCall(ctx, a.addr), sm, p.Asset, p.Enabled)
}

// Address returns the address of the action
func (b *base) Address() address.Address { return b.addr }

// Callback acknowledges the extension identity of the action
func (b *base) Callback(context.Context, protocol.StateManager, address.Address, []byte) (bool, error) {
	return true, nil
}

func (b *base) checkAuthorized(ctx context.Context, sr protocol.StateReader) error {
	ok, err := b.auth.IsDaoOrExtension(ctx, sr)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnauthorized
	}
	return nil
}

// Encode encodes the parameters
func (p SendMessageParams) Encode() ([]byte, error) {
	return rlp.EncodeToBytes(&p)
}

// Encode encodes the parameters
func (p WithdrawFTParams) Encode() ([]byte, error) {
	if p.Asset == nil || p.Recipient == nil || p.Amount == nil {
		return nil, ErrInvalidParams
	}
	return rlp.EncodeToBytes(&withdrawFTRLP{
		Asset:     p.Asset.Bytes(),
		Amount:    p.Amount,
		Recipient: p.Recipient.Bytes(),
	})
}

// DecodeWithdrawFTParams decodes the parameters of WithdrawFT
func DecodeWithdrawFTParams(data []byte) (*WithdrawFTParams, error) {
	var gen withdrawFTRLP
	if err := rlp.DecodeBytes(data, &gen); err != nil {
		return nil, errors.Wrap(ErrInvalidParams, err.Error())
	}
	asset, err := address.FromBytes(gen.Asset)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidParams, err.Error())
	}
	recipient, err := address.FromBytes(gen.Recipient)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidParams, err.Error())
	}
	return &WithdrawFTParams{
		Asset:     asset,
		Amount:    gen.Amount,
		Recipient: recipient,
	}, nil
}

// Encode encodes the parameters
func (p AllowAssetParams) Encode() ([]byte, error) {
	if p.Asset == nil {
		return nil, ErrInvalidParams
	}
	return rlp.EncodeToBytes(&allowAssetRLP{
		Asset:   p.Asset.Bytes(),
		Enabled: p.Enabled,
	})
}

// DecodeAllowAssetParams decodes the parameters of AllowAsset
func DecodeAllowAssetParams(data []byte) (*AllowAssetParams, error) {
	var gen allowAssetRLP
	if err := rlp.DecodeBytes(data, &gen); err != nil {
		return nil, errors.Wrap(ErrInvalidParams, err.Error())
	}
	asset, err := address.FromBytes(gen.Asset)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidParams, err.Error())
	}
	return &AllowAssetParams{
		Asset:   asset,
		Enabled: gen.Enabled,
	}, nil
}
