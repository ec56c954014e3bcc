// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package lifecycle

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/iotexproject/iotex-dao/test/mock/mock_lifecycle"
)

func TestLifecycle(t *testing.T) {
	ctrl := gomock.NewController(t)

	ctx := context.Background()
	m := mock_lifecycle.NewMockStartStopper(ctrl)
	m.EXPECT().Start(gomock.Any()).Return(nil).Times(1)
	m.EXPECT().Stop(gomock.Any()).Return(nil).Times(1)

	var lc Lifecycle
	lc.Add(m)
	assert.Nil(t, lc.OnStart(ctx))
	assert.Nil(t, lc.OnStop(ctx))
}

func TestLifecycleOrder(t *testing.T) {
	ctrl := gomock.NewController(t)

	ctx := context.Background()
	store := mock_lifecycle.NewMockStartStopper(ctrl)
	starter := mock_lifecycle.NewMockStarter(ctrl)
	stopper := mock_lifecycle.NewMockStopper(ctrl)
	gomock.InOrder(
		store.EXPECT().Start(gomock.Any()).Return(nil),
		starter.EXPECT().Start(gomock.Any()).Return(nil),
		stopper.EXPECT().Stop(gomock.Any()).Return(nil),
		store.EXPECT().Stop(gomock.Any()).Return(nil),
	)

	var lc Lifecycle
	lc.AddModels(store, starter, stopper, "not a service")
	assert.NoError(t, lc.OnStart(ctx))
	assert.NoError(t, lc.OnStop(ctx))
}

func TestLifecycleWithError(t *testing.T) {
	ctrl := gomock.NewController(t)

	ctx := context.Background()
	err := errors.New("error")
	t.Run("start", func(t *testing.T) {
		m1 := mock_lifecycle.NewMockStartStopper(ctrl)
		m1.EXPECT().Start(gomock.Any()).Return(err).Times(1)
		m2 := mock_lifecycle.NewMockStartStopper(ctrl)

		var lc Lifecycle
		lc.AddModels(m1, m2)
		assert.Equal(t, err, lc.OnStart(ctx))
	})
	t.Run("stop", func(t *testing.T) {
		m1 := mock_lifecycle.NewMockStartStopper(ctrl)
		m1.EXPECT().Start(gomock.Any()).Return(nil).Times(1)
		m1.EXPECT().Stop(gomock.Any()).Return(nil).Times(1)
		m2 := mock_lifecycle.NewMockStartStopper(ctrl)
		m2.EXPECT().Start(gomock.Any()).Return(nil).Times(1)
		m2.EXPECT().Stop(gomock.Any()).Return(err).Times(1)

		var lc Lifecycle
		lc.AddModels(m1, m2)
		assert.Nil(t, lc.OnStart(ctx))
		assert.EqualError(t, lc.OnStop(ctx), err.Error())
	})
}
