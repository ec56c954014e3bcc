// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package governance

import "math/big"

var _hundred = big.NewInt(100)

// Result is the outcome of a vote
type Result struct {
	MetQuorum    bool
	MetThreshold bool
	Passed       bool
}

// Resolve evaluates a vote from the frozen liquid supply and the tallies. The same inputs always give the
// same result.
func Resolve(liquid, votesFor, votesAgainst *big.Int, quorum, threshold uint64) Result {
	total := new(big.Int).Add(votesFor, votesAgainst)
	var r Result
	if liquid.Sign() > 0 {
		participation := new(big.Int).Mul(total, _hundred)
		participation.Quo(participation, liquid)
		r.MetQuorum = participation.Cmp(new(big.Int).SetUint64(quorum)) >= 0
	}
	if total.Sign() > 0 {
		approval := new(big.Int).Mul(votesFor, _hundred)
		approval.Quo(approval, total)
		r.MetThreshold = approval.Cmp(new(big.Int).SetUint64(threshold)) >= 0
	}
	r.Passed = r.MetQuorum && r.MetThreshold
	return r
}
