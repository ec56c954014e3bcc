// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package dao

import (
	"context"

	"github.com/iotexproject/iotex-address/address"

	"github.com/iotexproject/iotex-dao/action/protocol"
)

type (
	// Module is a unit of code deployed next to the DAO
	Module interface {
		Address() address.Address
	}

	// Extension is a module the DAO can enable. Callback acknowledges the extension identity and must
	// return true without side effects.
	Extension interface {
		Module
		Callback(ctx context.Context, sm protocol.StateManager, sender address.Address, memo []byte) (bool, error)
	}

	// Proposal is a one-shot unit executed by the DAO acting as itself
	Proposal interface {
		Module
		Execute(ctx context.Context, sm protocol.StateManager, sender address.Address) error
	}

	// Action is a parameterized extension run by the action proposal engine
	Action interface {
		Extension
		Run(ctx context.Context, sm protocol.StateManager, params []byte) error
	}

	// ExtensionToggle enables or disables an extension
	ExtensionToggle struct {
		Extension address.Address
		Enabled   bool
	}
)
