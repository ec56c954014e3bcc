// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package governance

// Window holds the block windows of a proposal. Voting is open in [StartBlock, EndBlock), conclusion is
// allowed from ExecStart on and a conclusion at or after ExecEnd never executes.
type Window struct {
	CreatedAt  uint64
	StartBlock uint64
	EndBlock   uint64
	ExecStart  uint64
	ExecEnd    uint64
}

// NewWindow computes the windows of a proposal created at createdAt
func NewWindow(createdAt, delay, period uint64) Window {
	start := createdAt + delay
	end := start + period
	execStart := end + delay
	return Window{
		CreatedAt:  createdAt,
		StartBlock: start,
		EndBlock:   end,
		ExecStart:  execStart,
		ExecEnd:    execStart + period,
	}
}

// SnapshotHeight is the last block settled before voting opens, voting power is read there
func (w Window) SnapshotHeight() uint64 {
	return lastSettled(w.StartBlock)
}

// LiquidHeight is the last block settled before creation, the liquid supply is frozen there
func (w Window) LiquidHeight() uint64 {
	return lastSettled(w.CreatedAt)
}

// Expired returns true if a conclusion at height is too late to execute
func (w Window) Expired(height uint64) bool {
	return height >= w.ExecEnd
}

func lastSettled(height uint64) uint64 {
	if height == 0 {
		return 0
	}
	return height - 1
}
