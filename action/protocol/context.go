// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package protocol

import (
	"context"

	"github.com/iotexproject/iotex-address/address"

	"github.com/iotexproject/iotex-dao/pkg/log"
)

type (
	blockContextKey struct{}

	callContextKey struct{}

	// BlockCtx provides block auxiliary information.
	BlockCtx struct {
		// height of the block the call is applied in
		BlockHeight uint64
	}

	// CallCtx provides the principals of the current call frame.
	CallCtx struct {
		// Sender is the principal that signed the outer call, or the module acting as itself
		Sender address.Address
		// Caller is the principal that invoked the current module directly
		Caller address.Address
	}
)

// WithBlockCtx add BlockCtx into context.
func WithBlockCtx(ctx context.Context, blk BlockCtx) context.Context {
	return context.WithValue(ctx, blockContextKey{}, blk)
}

// GetBlockCtx gets BlockCtx
func GetBlockCtx(ctx context.Context) (BlockCtx, bool) {
	blk, ok := ctx.Value(blockContextKey{}).(BlockCtx)
	return blk, ok
}

// MustGetBlockCtx must get BlockCtx.
// If context doesn't exist, this function panic.
func MustGetBlockCtx(ctx context.Context) BlockCtx {
	blk, ok := ctx.Value(blockContextKey{}).(BlockCtx)
	if !ok {
		log.S().Panic("Miss block context")
	}
	return blk
}

// WithCallCtx add CallCtx into context.
func WithCallCtx(ctx context.Context, call CallCtx) context.Context {
	return context.WithValue(ctx, callContextKey{}, call)
}

// GetCallCtx gets CallCtx
func GetCallCtx(ctx context.Context) (CallCtx, bool) {
	call, ok := ctx.Value(callContextKey{}).(CallCtx)
	return call, ok
}

// MustGetCallCtx must get CallCtx.
// If context doesn't exist, this function panic.
func MustGetCallCtx(ctx context.Context) CallCtx {
	call, ok := ctx.Value(callContextKey{}).(CallCtx)
	if !ok {
		log.S().Panic("Miss call context")
	}
	return call
}

// ContractCall returns the context of a call made by module caller. The sender is kept.
func ContractCall(ctx context.Context, caller address.Address) context.Context {
	call := MustGetCallCtx(ctx)
	call.Caller = caller
	return WithCallCtx(ctx, call)
}

// AsContract returns the context of module addr acting as itself, both sender and caller become addr.
func AsContract(ctx context.Context, addr address.Address) context.Context {
	return WithCallCtx(ctx, CallCtx{
		Sender: addr,
		Caller: addr,
	})
}

// SameAddress returns true if both addresses are set and equal
func SameAddress(a, b address.Address) bool {
	if a == nil || b == nil {
		return false
	}
	return a.String() == b.String()
}
