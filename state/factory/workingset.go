// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package factory

import (
	"github.com/pkg/errors"

	"github.com/iotexproject/iotex-dao/action"
	"github.com/iotexproject/iotex-dao/action/protocol"
	"github.com/iotexproject/iotex-dao/db"
	"github.com/iotexproject/iotex-dao/db/batch"
	"github.com/iotexproject/iotex-dao/state"
)

type (
	// WorkingSet defines an interface for working set of states changes
	WorkingSet interface {
		protocol.StateManager
		// Events returns the events emitted so far, in order
		Events() []*action.Event
		// Commit writes the pending changes into the underlying store
		Commit() error
	}

	// workingSet tracks pending changes of one call in a cached batch
	workingSet struct {
		height         uint64
		cb             batch.CachedBatch
		dao            db.KVStore
		events         []*action.Event
		eventSnapshots []int
	}
)

func newWorkingSet(height uint64, kv db.KVStore) *workingSet {
	return &workingSet{
		height: height,
		cb:     batch.NewCachedBatch(),
		dao:    kv,
	}
}

// Height returns the height of the block the call is applied in
func (ws *workingSet) Height() (uint64, error) {
	return ws.height, nil
}

// State pulls a state from the pending changes or the underlying store
func (ws *workingSet) State(s interface{}, opts ...protocol.StateOption) (uint64, error) {
	cfg, err := protocol.CreateStateConfig(opts...)
	if err != nil {
		return 0, err
	}
	stateDBMtc.WithLabelValues("get").Inc()
	return ws.height, readState(ws.dao, ws.cb, cfg, s)
}

// PutState stages a state write
func (ws *workingSet) PutState(s interface{}, opts ...protocol.StateOption) (uint64, error) {
	cfg, err := protocol.CreateStateConfig(opts...)
	if err != nil {
		return 0, err
	}
	ss, err := state.Serialize(s)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to convert state %v to bytes", s)
	}
	stateDBMtc.WithLabelValues("put").Inc()
	ws.cb.Put(cfg.Namespace, cfg.Key, ss)
	return ws.height, nil
}

// DelState stages a state deletion
func (ws *workingSet) DelState(opts ...protocol.StateOption) (uint64, error) {
	cfg, err := protocol.CreateStateConfig(opts...)
	if err != nil {
		return 0, err
	}
	stateDBMtc.WithLabelValues("delete").Inc()
	ws.cb.Delete(cfg.Namespace, cfg.Key)
	return ws.height, nil
}

// Snapshot takes a snapshot of the pending writes and events
func (ws *workingSet) Snapshot() int {
	s := ws.cb.Snapshot()
	ws.eventSnapshots = append(ws.eventSnapshots, len(ws.events))
	return s
}

// Revert drops the writes and events made after the snapshot
func (ws *workingSet) Revert(snapshot int) error {
	if err := ws.cb.Revert(snapshot); err != nil {
		return err
	}
	ws.events = ws.events[:ws.eventSnapshots[snapshot]]
	ws.eventSnapshots = ws.eventSnapshots[:snapshot]
	return nil
}

// EmitEvent records an event of the call
func (ws *workingSet) EmitEvent(evt *action.Event) {
	ws.events = append(ws.events, evt)
}

// Events returns the events emitted so far
func (ws *workingSet) Events() []*action.Event {
	return ws.events
}

// Commit persists the pending writes
func (ws *workingSet) Commit() error {
	if err := ws.dao.WriteBatch(ws.cb); err != nil {
		return errors.Wrap(err, "failed to commit working set")
	}
	ws.eventSnapshots = nil
	return nil
}

func deserialize(s interface{}, data []byte, cfg *protocol.StateConfig) error {
	if err := state.Deserialize(s, data); err != nil {
		return errors.Wrapf(err, "failed to convert bytes to state of ns = %s, key = %x", cfg.Namespace, cfg.Key)
	}
	return nil
}
