// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package messaging

import (
	"context"

	"github.com/iotexproject/iotex-address/address"

	"github.com/iotexproject/iotex-dao/action"
	"github.com/iotexproject/iotex-dao/action/protocol"
)

// ModuleName is the name the messaging extension is deployed under
const ModuleName = "onchain-messaging"

// ErrInvalidInput is returned for empty messages
var ErrInvalidInput = protocol.NewError(7000, "ERR_INVALID_INPUT", protocol.CategoryPrecondition)

type (
	// Authorizer tells if a call comes from the DAO or an enabled extension
	Authorizer interface {
		IsDaoOrExtension(context.Context, protocol.StateReader) (bool, error)
	}

	// Protocol posts messages onchain, messages sent by the DAO or its extensions are flagged
	Protocol struct {
		addr address.Address
		auth Authorizer
	}
)

// NewProtocol creates the messaging extension deployed by deployer
func NewProtocol(deployer address.Address, auth Authorizer) *Protocol {
	return &Protocol{
		addr: protocol.ContractAddress(deployer, ModuleName),
		auth: auth,
	}
}

// Address returns the address of the messaging extension
func (p *Protocol) Address() address.Address { return p.addr }

// Callback acknowledges the extension identity of the messaging extension
func (p *Protocol) Callback(context.Context, protocol.StateManager, address.Address, []byte) (bool, error) {
	return true, nil
}

// Send posts msg
func (p *Protocol) Send(ctx context.Context, sm protocol.StateManager, msg string) error {
	if len(msg) == 0 {
		return ErrInvalidInput
	}
	fromDao, err := p.auth.IsDaoOrExtension(ctx, sm)
	if err != nil {
		return err
	}
	height, err := sm.Height()
	if err != nil {
		return err
	}
	call := protocol.MustGetCallCtx(ctx)
	sm.EmitEvent(action.NewEvent(p.addr.String(), "send-message", action.Payload{
		"message":       msg,
		"messageLength": len(msg),
		"isFromDao":     fromDao,
		"height":        height,
		"sender":        call.Sender.String(),
		"caller":        call.Caller.String(),
	}))
	return nil
}
