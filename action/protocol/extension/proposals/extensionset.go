// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package proposals

import (
	"context"

	"github.com/iotexproject/iotex-address/address"

	"github.com/iotexproject/iotex-dao/action/protocol"
	"github.com/iotexproject/iotex-dao/action/protocol/dao"
	"github.com/iotexproject/iotex-dao/action/protocol/extension/actions"
)

type (
	// Amender changes the set of enabled extensions
	Amender interface {
		SetExtensions(ctx context.Context, sm protocol.StateManager, toggles []dao.ExtensionToggle) error
	}

	// ExtensionSet is a one-shot proposal that toggles extensions, optionally allows treasury assets and
	// posts a message. The bootstrap proposal of the DAO is an ExtensionSet.
	ExtensionSet struct {
		addr      address.Address
		amender   Amender
		toggles   []dao.ExtensionToggle
		treasury  actions.Treasury
		assets    []address.Address
		messenger actions.Messenger
		message   string
	}

	// Option configures an ExtensionSet
	Option func(*ExtensionSet)
)

// WithAllowedAssets allows assets in the treasury when the proposal executes
func WithAllowedAssets(treasury actions.Treasury, assets ...address.Address) Option {
	return func(es *ExtensionSet) {
		es.treasury = treasury
		es.assets = append(es.assets, assets...)
	}
}

// WithMessage posts msg when the proposal executes
func WithMessage(messenger actions.Messenger, msg string) Option {
	return func(es *ExtensionSet) {
		es.messenger = messenger
		es.message = msg
	}
}

// NewExtensionSet creates the proposal deployed by deployer under name
func NewExtensionSet(deployer address.Address, name string, amender Amender, toggles []dao.ExtensionToggle, opts ...Option) *ExtensionSet {
	es := &ExtensionSet{
		addr:    protocol.ContractAddress(deployer, name),
		amender: amender,
		toggles: toggles,
	}
	for _, opt := range opts {
		opt(es)
	}
	return es
}

// Address returns the address of the proposal
func (es *ExtensionSet) Address() address.Address { return es.addr }

// Toggles returns the extension toggles of the proposal
func (es *ExtensionSet) Toggles() []dao.ExtensionToggle { return es.toggles }

// Execute applies the proposal, it runs as called by the DAO acting as itself
func (es *ExtensionSet) Execute(ctx context.Context, sm protocol.StateManager, _ address.Address) error {
	ctx = protocol.ContractCall(ctx, es.addr)
	if len(es.toggles) > 0 {
		if err := es.amender.SetExtensions(ctx, sm, es.toggles); err != nil {
			return err
		}
	}
	for _, asset := range es.assets {
		if err := es.treasury.AllowAsset(ctx, sm, asset, true); err != nil {
			return err
		}
	}
	if es.messenger != nil && len(es.message) > 0 {
		return es.messenger.Send(ctx, sm, es.message)
	}
	return nil
}
