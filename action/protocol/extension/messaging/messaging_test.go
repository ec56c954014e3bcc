// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package messaging

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iotexproject/iotex-dao/action/protocol"
	"github.com/iotexproject/iotex-dao/blockchain"
	"github.com/iotexproject/iotex-dao/db"
	"github.com/iotexproject/iotex-dao/state/factory"
	"github.com/iotexproject/iotex-dao/test/identityset"
	"github.com/iotexproject/iotex-dao/test/mock/mock_actions"
)

func TestSend(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	sf, err := factory.NewFactory(db.NewMemKVStore())
	require.NoError(err)
	bc := blockchain.NewBlockchain(sf)
	require.NoError(bc.Start(ctx))
	defer func() {
		require.NoError(bc.Stop(ctx))
	}()
	require.NoError(bc.MintBlocks(3))

	auth := mock_actions.NewMockAuthorizer(ctrl)
	p := NewProtocol(identityset.Deployer(), auth)
	alice := identityset.Address(1)

	_, err = bc.Call(ctx, alice, func(ctx context.Context, sm protocol.StateManager) error {
		return p.Send(ctx, sm, "")
	})
	require.Equal(ErrInvalidInput, errors.Cause(err))

	for _, fromDao := range []bool{false, true} {
		auth.EXPECT().IsDaoOrExtension(gomock.Any(), gomock.Any()).Return(fromDao, nil).Times(1)
		r, err := bc.Call(ctx, alice, func(ctx context.Context, sm protocol.StateManager) error {
			return p.Send(ctx, sm, "proposal passed")
		})
		require.NoError(err)
		require.Len(r.Events, 1)
		e := r.Events[0]
		require.Equal("send-message", e.Notification)
		require.Equal(p.Address().String(), e.Emitter)
		require.Equal("proposal passed", e.Payload["message"])
		require.Equal(len("proposal passed"), e.Payload["messageLength"])
		require.Equal(fromDao, e.Payload["isFromDao"])
		require.Equal(uint64(3), e.Payload["height"])
		require.Equal(alice.String(), e.Payload["caller"])
	}
}
