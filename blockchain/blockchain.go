// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package blockchain

import (
	"context"
	"sync"

	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/iotexproject/iotex-dao/action"
	"github.com/iotexproject/iotex-dao/action/protocol"
	"github.com/iotexproject/iotex-dao/pkg/lifecycle"
	"github.com/iotexproject/iotex-dao/pkg/log"
	"github.com/iotexproject/iotex-dao/pkg/util/byteutil"
	"github.com/iotexproject/iotex-dao/state"
	"github.com/iotexproject/iotex-dao/state/factory"
)

const _blockchainNS = "Blockchain"

var (
	_tipHeightKey = []byte("tipHeight")

	callMtc = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "iotex_dao_call",
			Help: "IoTeX DAO calls applied to the chain",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(callMtc)
}

type (
	// CallFunc applies a call against the state of the current block
	CallFunc func(context.Context, protocol.StateManager) error

	// Blockchain is the execution substrate of the DAO: a block height counter and atomic call application
	Blockchain interface {
		lifecycle.StartStopper
		// TipHeight returns the height of the block calls are applied in
		TipHeight() uint64
		// MintBlock closes the current block and returns the new tip height
		MintBlock() (uint64, error)
		// MintBlocks closes n blocks
		MintBlocks(n uint64) error
		// Call applies fn atomically in the current block on behalf of sender
		Call(ctx context.Context, sender address.Address, fn CallFunc) (*action.Receipt, error)
		// ReadView returns a reader of the committed state at the tip
		ReadView() protocol.StateReader
	}

	blockchain struct {
		mu        sync.Mutex
		tip       uint64
		sf        factory.Factory
		lifecycle lifecycle.Lifecycle
	}

	tipHeight uint64
)

// NewBlockchain creates a blockchain over the state factory
func NewBlockchain(sf factory.Factory) Blockchain {
	chain := &blockchain{sf: sf}
	chain.lifecycle.Add(sf)
	return chain
}

// Start starts the state factory and loads the tip height
func (bc *blockchain) Start(ctx context.Context) error {
	if err := bc.lifecycle.OnStart(ctx); err != nil {
		return err
	}
	var tip tipHeight
	_, err := bc.sf.ReadView(0).State(&tip, protocol.NamespaceOption(_blockchainNS), protocol.KeyOption(_tipHeightKey))
	switch errors.Cause(err) {
	case nil:
	case state.ErrStateNotExist:
		tip = 0
	default:
		return errors.Wrap(err, "failed to load tip height")
	}
	bc.mu.Lock()
	bc.tip = uint64(tip)
	bc.mu.Unlock()
	log.L().Info("Blockchain started.", zap.Uint64("tipHeight", uint64(tip)))
	return nil
}

// Stop stops the state factory
func (bc *blockchain) Stop(ctx context.Context) error {
	return bc.lifecycle.OnStop(ctx)
}

func (bc *blockchain) TipHeight() uint64 {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	return bc.tip
}

func (bc *blockchain) MintBlock() (uint64, error) {
	if err := bc.MintBlocks(1); err != nil {
		return 0, err
	}
	return bc.TipHeight(), nil
}

func (bc *blockchain) MintBlocks(n uint64) error {
	if n == 0 {
		return nil
	}
	bc.mu.Lock()
	defer bc.mu.Unlock()
	next := bc.tip + n
	ws := bc.sf.NewWorkingSet(next)
	tip := tipHeight(next)
	if _, err := ws.PutState(&tip, protocol.NamespaceOption(_blockchainNS), protocol.KeyOption(_tipHeightKey)); err != nil {
		return err
	}
	if err := ws.Commit(); err != nil {
		return errors.Wrapf(err, "failed to mint block %d", next)
	}
	bc.tip = next
	return nil
}

func (bc *blockchain) Call(ctx context.Context, sender address.Address, fn CallFunc) (*action.Receipt, error) {
	if sender == nil {
		return nil, errors.New("sender is nil")
	}
	bc.mu.Lock()
	defer bc.mu.Unlock()
	ws := bc.sf.NewWorkingSet(bc.tip)
	ctx = protocol.WithBlockCtx(ctx, protocol.BlockCtx{BlockHeight: bc.tip})
	ctx = protocol.WithCallCtx(ctx, protocol.CallCtx{Sender: sender, Caller: sender})
	receipt := &action.Receipt{
		BlockHeight: bc.tip,
		Sender:      sender.String(),
	}
	if err := fn(ctx, ws); err != nil {
		callMtc.WithLabelValues("reverted").Inc()
		log.L().Debug("Call reverted.",
			zap.Uint64("height", bc.tip),
			zap.String("sender", sender.String()),
			zap.Error(err))
		receipt.Status = action.FailureReceiptStatus
		receipt.ExecutionRevertMsg = err.Error()
		return receipt, err
	}
	if err := ws.Commit(); err != nil {
		callMtc.WithLabelValues("failed").Inc()
		return nil, err
	}
	callMtc.WithLabelValues("applied").Inc()
	receipt.Status = action.SuccessReceiptStatus
	receipt.Events = ws.Events()
	return receipt, nil
}

func (bc *blockchain) ReadView() protocol.StateReader {
	return bc.sf.ReadView(bc.TipHeight())
}

// Serialize serializes the tip height
func (h *tipHeight) Serialize() ([]byte, error) {
	return byteutil.Uint64ToBytesBigEndian(uint64(*h)), nil
}

// Deserialize deserializes the tip height
func (h *tipHeight) Deserialize(data []byte) error {
	if len(data) != 8 {
		return errors.Errorf("invalid tip height length %d", len(data))
	}
	*h = tipHeight(byteutil.BytesToUint64BigEndian(data))
	return nil
}
