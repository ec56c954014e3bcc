// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package factory

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/iotexproject/iotex-dao/action/protocol"
	"github.com/iotexproject/iotex-dao/db"
	"github.com/iotexproject/iotex-dao/db/batch"
	"github.com/iotexproject/iotex-dao/pkg/lifecycle"
	"github.com/iotexproject/iotex-dao/state"
)

var (
	stateDBMtc = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "iotex_dao_state_db",
			Help: "IoTeX DAO State DB",
		},
		[]string{"type"},
	)
)

func init() {
	prometheus.MustRegister(stateDBMtc)
}

type (
	// Factory creates working sets on top of the committed state
	Factory interface {
		lifecycle.StartStopper
		// NewWorkingSet returns a working set applying a call at the given height
		NewWorkingSet(height uint64) WorkingSet
		// ReadView returns a reader of the committed state at the given height
		ReadView(height uint64) protocol.StateReader
	}

	factory struct {
		lifecycle lifecycle.Lifecycle
		dao       db.KVStore
	}
)

// NewFactory creates a new state factory over kv
func NewFactory(kv db.KVStore) (Factory, error) {
	if kv == nil {
		return nil, errors.New("kv store is nil")
	}
	sf := &factory{dao: kv}
	sf.lifecycle.Add(kv)
	return sf, nil
}

func (sf *factory) Start(ctx context.Context) error {
	return sf.lifecycle.OnStart(ctx)
}

func (sf *factory) Stop(ctx context.Context) error {
	return sf.lifecycle.OnStop(ctx)
}

func (sf *factory) NewWorkingSet(height uint64) WorkingSet {
	return newWorkingSet(height, sf.dao)
}

func (sf *factory) ReadView(height uint64) protocol.StateReader {
	return &readView{
		height: height,
		dao:    sf.dao,
	}
}

// readView reads committed state only
type readView struct {
	height uint64
	dao    db.KVStore
}

func (rv *readView) Height() (uint64, error) {
	return rv.height, nil
}

func (rv *readView) State(s interface{}, opts ...protocol.StateOption) (uint64, error) {
	cfg, err := protocol.CreateStateConfig(opts...)
	if err != nil {
		return 0, err
	}
	stateDBMtc.WithLabelValues("get").Inc()
	return rv.height, readState(rv.dao, nil, cfg, s)
}

// readState reads from the cached batch first and falls back to the store
func readState(kv db.KVStore, cb batch.CachedBatch, cfg *protocol.StateConfig, s interface{}) error {
	var (
		data []byte
		err  error
	)
	if cb != nil {
		data, err = cb.Get(cfg.Namespace, cfg.Key)
		switch errors.Cause(err) {
		case nil:
			return deserialize(s, data, cfg)
		case batch.ErrAlreadyDeleted:
			return errors.Wrapf(state.ErrStateNotExist, "ns = %s, key = %x", cfg.Namespace, cfg.Key)
		}
	}
	data, err = kv.Get(cfg.Namespace, cfg.Key)
	switch errors.Cause(err) {
	case nil:
		return deserialize(s, data, cfg)
	case db.ErrNotExist, db.ErrBucketNotExist:
		return errors.Wrapf(state.ErrStateNotExist, "ns = %s, key = %x", cfg.Namespace, cfg.Key)
	default:
		return errors.Wrapf(err, "failed to get state of ns = %s, key = %x", cfg.Namespace, cfg.Key)
	}
}
