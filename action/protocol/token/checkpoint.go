// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package token

import (
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/rlp"
)

type (
	// checkpoint is the value of a balance or of the total supply from a height on
	checkpoint struct {
		Height uint64
		Value  *big.Int
	}

	// checkpoints is ordered by height, at most one checkpoint per height
	checkpoints []checkpoint
)

// Serialize serializes the checkpoints into bytes
func (cps checkpoints) Serialize() ([]byte, error) {
	return rlp.EncodeToBytes([]checkpoint(cps))
}

// Deserialize deserializes bytes into checkpoints
func (cps *checkpoints) Deserialize(data []byte) error {
	var list []checkpoint
	if err := rlp.DecodeBytes(data, &list); err != nil {
		return err
	}
	*cps = list
	return nil
}

// latest returns the current value
func (cps checkpoints) latest() *big.Int {
	if len(cps) == 0 {
		return big.NewInt(0)
	}
	return new(big.Int).Set(cps[len(cps)-1].Value)
}

// at returns the value at the end of block height
func (cps checkpoints) at(height uint64) *big.Int {
	i := sort.Search(len(cps), func(i int) bool {
		return cps[i].Height > height
	})
	if i == 0 {
		return big.NewInt(0)
	}
	return new(big.Int).Set(cps[i-1].Value)
}

// record sets value from height on, replacing a checkpoint written in the same block
func (cps checkpoints) record(height uint64, value *big.Int) checkpoints {
	if n := len(cps); n > 0 && cps[n-1].Height == height {
		cps[n-1].Value = new(big.Int).Set(value)
		return cps
	}
	return append(cps, checkpoint{
		Height: height,
		Value:  new(big.Int).Set(value),
	})
}
