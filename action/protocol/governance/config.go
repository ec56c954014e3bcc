// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package governance

import (
	"math/big"

	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"
)

// BondPolicy decides what happens to the bond of a concluded proposal
type BondPolicy string

const (
	// RefundOnPass returns the bond to the creator if the proposal passed and sends it to the treasury otherwise
	RefundOnPass BondPolicy = "refundOnPass"
	// AlwaysRefund returns the bond to the creator
	AlwaysRefund BondPolicy = "alwaysRefund"
	// AlwaysForfeit sends the bond to the treasury
	AlwaysForfeit BondPolicy = "alwaysForfeit"
)

// CollisionScope decides which proposals collide within one block
type CollisionScope string

const (
	// GlobalScope allows one proposal per block for the whole engine
	GlobalScope CollisionScope = "global"
	// PerProposerScope allows one proposal per block for each proposer
	PerProposerScope CollisionScope = "perProposer"
)

var (
	// ErrInvalidConfig is the error of an invalid voting config
	ErrInvalidConfig = errors.New("invalid voting config")
)

type (
	// VotingConfig is the voting configuration of an engine
	VotingConfig struct {
		VotingDelay     uint64         `yaml:"votingDelay"`
		VotingPeriod    uint64         `yaml:"votingPeriod"`
		VotingQuorum    uint64         `yaml:"votingQuorum"`
		VotingThreshold uint64         `yaml:"votingThreshold"`
		VotingBond      uint64         `yaml:"votingBond"`
		BondPolicy      BondPolicy     `yaml:"bondPolicy"`
		CollisionScope  CollisionScope `yaml:"collisionScope"`
	}

	// VotingConfiguration is the configuration reported by an engine
	VotingConfiguration struct {
		Self            string   `json:"self"`
		VotingDelay     uint64   `json:"votingDelay"`
		VotingPeriod    uint64   `json:"votingPeriod"`
		VotingQuorum    uint64   `json:"votingQuorum"`
		VotingThreshold uint64   `json:"votingThreshold"`
		VotingBond      *big.Int `json:"votingBond"`
		BondPolicy      string   `json:"bondPolicy"`
		CollisionScope  string   `json:"collisionScope"`
		Treasury        string   `json:"treasury"`
		LockedAddresses []string `json:"lockedAddresses"`
		DeployedAt      uint64   `json:"deployedAt"`
	}
)

var (
	// DefaultActionConfig is the default voting config of action proposals
	DefaultActionConfig = VotingConfig{
		VotingDelay:     144,
		VotingPeriod:    288,
		VotingQuorum:    15,
		VotingThreshold: 66,
		VotingBond:      1000,
		BondPolicy:      RefundOnPass,
		CollisionScope:  GlobalScope,
	}

	// DefaultCoreConfig is the default voting config of core proposals
	DefaultCoreConfig = VotingConfig{
		VotingDelay:     432,
		VotingPeriod:    2016,
		VotingQuorum:    25,
		VotingThreshold: 90,
		BondPolicy:      AlwaysRefund,
		CollisionScope:  GlobalScope,
	}
)

// Validate validates the voting config
func (cfg VotingConfig) Validate() error {
	if cfg.VotingPeriod == 0 {
		return errors.Wrap(ErrInvalidConfig, "voting period must be positive")
	}
	if cfg.VotingQuorum > 100 || cfg.VotingThreshold > 100 {
		return errors.Wrapf(ErrInvalidConfig, "quorum %d and threshold %d must be percentages", cfg.VotingQuorum, cfg.VotingThreshold)
	}
	switch cfg.BondPolicy {
	case RefundOnPass, AlwaysRefund, AlwaysForfeit:
	default:
		return errors.Wrapf(ErrInvalidConfig, "unknown bond policy %s", cfg.BondPolicy)
	}
	switch cfg.CollisionScope {
	case GlobalScope, PerProposerScope:
	default:
		return errors.Wrapf(ErrInvalidConfig, "unknown collision scope %s", cfg.CollisionScope)
	}
	return nil
}

// Bond returns the bond amount
func (cfg VotingConfig) Bond() *big.Int {
	return new(big.Int).SetUint64(cfg.VotingBond)
}

// Window returns the windows of a proposal created at height
func (cfg VotingConfig) Window(createdAt uint64) Window {
	return NewWindow(createdAt, cfg.VotingDelay, cfg.VotingPeriod)
}

// Configuration reports the config of engine self
func (cfg VotingConfig) Configuration(self, treasury address.Address, locked []address.Address, deployedAt uint64) *VotingConfiguration {
	vc := &VotingConfiguration{
		Self:            self.String(),
		VotingDelay:     cfg.VotingDelay,
		VotingPeriod:    cfg.VotingPeriod,
		VotingQuorum:    cfg.VotingQuorum,
		VotingThreshold: cfg.VotingThreshold,
		VotingBond:      cfg.Bond(),
		BondPolicy:      string(cfg.BondPolicy),
		CollisionScope:  string(cfg.CollisionScope),
		DeployedAt:      deployedAt,
	}
	if treasury != nil {
		vc.Treasury = treasury.String()
	}
	for _, addr := range locked {
		vc.LockedAddresses = append(vc.LockedAddresses, addr.String())
	}
	return vc
}
