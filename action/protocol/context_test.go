// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package protocol

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/iotexproject/iotex-dao/test/identityset"
)

func TestBlockCtx(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()
	_, ok := GetBlockCtx(ctx)
	r.False(ok)
	r.Panics(func() { MustGetBlockCtx(ctx) })

	ctx = WithBlockCtx(ctx, BlockCtx{BlockHeight: 12})
	blk, ok := GetBlockCtx(ctx)
	r.True(ok)
	r.Equal(uint64(12), blk.BlockHeight)
	r.Equal(uint64(12), MustGetBlockCtx(ctx).BlockHeight)
}

func TestCallCtx(t *testing.T) {
	r := require.New(t)
	alice, module, dao := identityset.Address(0), identityset.Address(1), identityset.Address(2)
	ctx := WithCallCtx(context.Background(), CallCtx{Sender: alice, Caller: alice})

	inner := ContractCall(ctx, module)
	call := MustGetCallCtx(inner)
	r.True(SameAddress(alice, call.Sender))
	r.True(SameAddress(module, call.Caller))
	// the outer frame is untouched
	r.True(SameAddress(alice, MustGetCallCtx(ctx).Caller))

	asDao := AsContract(inner, dao)
	call = MustGetCallCtx(asDao)
	r.True(SameAddress(dao, call.Sender))
	r.True(SameAddress(dao, call.Caller))

	_, ok := GetCallCtx(context.Background())
	r.False(ok)
	r.False(SameAddress(nil, alice))
}

func TestContractAddress(t *testing.T) {
	r := require.New(t)
	deployer := identityset.Address(0)
	a := ContractAddress(deployer, "base-dao")
	r.Equal(a.String(), ContractAddress(deployer, "base-dao").String())
	r.NotEqual(a.String(), ContractAddress(deployer, "treasury").String())
	r.NotEqual(a.String(), ContractAddress(identityset.Address(1), "base-dao").String())
}

func TestError(t *testing.T) {
	r := require.New(t)
	errTooSoon := NewError(1010, "ERR_VOTE_TOO_SOON", CategoryTemporal)
	r.Equal("ERR_VOTE_TOO_SOON (err u1010)", errTooSoon.Error())
	r.Equal("ERR_VOTE_TOO_SOON", errTooSoon.Name())

	wrapped := errors.Wrap(errTooSoon, "proposal 3")
	code, ok := CodeOf(wrapped)
	r.True(ok)
	r.Equal(uint64(1010), code)
	r.Equal(CategoryTemporal, CategoryOf(wrapped))
	r.Equal("temporal", CategoryOf(wrapped).String())

	_, ok = CodeOf(errors.New("plain"))
	r.False(ok)
	r.Equal(CategoryUnknown, CategoryOf(errors.New("plain")))
}

func TestCreateStateConfig(t *testing.T) {
	r := require.New(t)
	key := []byte("key")
	cfg, err := CreateStateConfig(NamespaceOption("ns"), KeyOption(key))
	r.NoError(err)
	r.Equal("ns", cfg.Namespace)
	key[0] = 'x'
	r.Equal([]byte("key"), cfg.Key)

	_, err = CreateStateConfig(KeyOption(key))
	r.Error(err)
}
