// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package chainservice

import (
	"context"
	"math/big"
	"sync/atomic"

	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/iotexproject/iotex-dao/action"
	"github.com/iotexproject/iotex-dao/action/protocol"
	"github.com/iotexproject/iotex-dao/action/protocol/dao"
	"github.com/iotexproject/iotex-dao/action/protocol/extension/actions"
	"github.com/iotexproject/iotex-dao/action/protocol/extension/messaging"
	"github.com/iotexproject/iotex-dao/action/protocol/extension/proposals"
	"github.com/iotexproject/iotex-dao/action/protocol/extension/treasury"
	"github.com/iotexproject/iotex-dao/action/protocol/governance"
	"github.com/iotexproject/iotex-dao/action/protocol/governance/actionproposals"
	"github.com/iotexproject/iotex-dao/action/protocol/governance/coreproposals"
	"github.com/iotexproject/iotex-dao/action/protocol/token"
	"github.com/iotexproject/iotex-dao/action/protocol/votingpower"
	"github.com/iotexproject/iotex-dao/blockchain"
	"github.com/iotexproject/iotex-dao/config"
	"github.com/iotexproject/iotex-dao/db"
	"github.com/iotexproject/iotex-dao/pkg/lifecycle"
	"github.com/iotexproject/iotex-dao/pkg/log"
	"github.com/iotexproject/iotex-dao/state/factory"
)

// BootstrapName is the name the bootstrap proposal is deployed under
const BootstrapName = "bootstrap"

// Status is the state of a chain service
type Status int32

const (
	// Stopped is the initial state
	Stopped Status = iota
	// Starting means the store is opening or the genesis is being applied
	Starting
	// Ready means the service accepts calls
	Ready
)

// ErrWrongStatus indicates a start or stop out of order
var ErrWrongStatus = errors.New("chain service is in wrong status")

func (s Status) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Starting:
		return "starting"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// ChainService is the DAO service with all governance components.
type ChainService struct {
	cfg       config.Config
	lifecycle lifecycle.Lifecycle
	status    atomic.Int32

	chain           blockchain.Blockchain
	factory         factory.Factory
	ledger          *token.Ledger
	oracle          *votingpower.Oracle
	dao             *dao.DAO
	actionProposals *actionproposals.Protocol
	coreProposals   *coreproposals.Protocol
	treasury        *treasury.Protocol
	messaging       *messaging.Protocol
	sendMessage     *actions.SendMessage
	withdrawFT      *actions.WithdrawFT
	allowAsset      *actions.AllowAsset
	bootstrap       *proposals.ExtensionSet
}

type optionParams struct {
	isTesting bool
}

// Option sets ChainService construction parameter.
type Option func(ops *optionParams) error

// WithTesting is an option to create a testing ChainService, its state lives in memory.
func WithTesting() Option {
	return func(ops *optionParams) error {
		ops.isTesting = true
		return nil
	}
}

// New creates a ChainService from config
func New(cfg config.Config, opts ...Option) (*ChainService, error) {
	var ops optionParams
	for _, opt := range opts {
		if err := opt(&ops); err != nil {
			return nil, err
		}
	}
	cfg = config.Copy(cfg)
	if ops.isTesting {
		cfg.DB.DBType = db.DBMemory
	}
	deployer, err := cfg.Genesis.DeployerAddress()
	if err != nil {
		return nil, errors.Wrap(err, "invalid deployer")
	}
	locked, err := cfg.Genesis.Locked()
	if err != nil {
		return nil, err
	}
	kv, err := db.CreateKVStore(cfg.DB)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create kv store")
	}
	sf, err := factory.NewFactory(kv)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create state factory")
	}
	chain := blockchain.NewBlockchain(sf)

	ledger := token.NewLedger(deployer, cfg.Genesis.Token)
	registry := dao.NewDAO(deployer)
	vault := treasury.NewProtocol(deployer, registry, ledger)
	messenger := messaging.NewProtocol(deployer, registry)
	sendMessage := actions.NewSendMessage(deployer, registry, messenger)
	withdrawFT := actions.NewWithdrawFT(deployer, registry, vault)
	allowAsset := actions.NewAllowAsset(deployer, registry, vault)

	// the treasury and escrowed bonds never vote
	locked = append(locked,
		vault.Address(),
		protocol.ContractAddress(deployer, actionproposals.ModuleName),
		protocol.ContractAddress(deployer, coreproposals.ModuleName),
	)
	oracle := votingpower.NewOracle(ledger, locked...)
	deps := governance.Dependencies{
		DAO:      registry,
		Ledger:   ledger,
		Oracle:   oracle,
		Treasury: vault.Address(),
	}
	actionEngine := actionproposals.NewProtocol(deployer, cfg.DAO.ActionProposals, deps,
		sendMessage.Address(),
		withdrawFT.Address(),
		allowAsset.Address(),
	)
	coreEngine := coreproposals.NewProtocol(deployer, cfg.DAO.CoreProposals, deps)

	toggles := make([]dao.ExtensionToggle, 0, 7)
	for _, ext := range []dao.Extension{
		actionEngine,
		coreEngine,
		vault,
		messenger,
		sendMessage,
		withdrawFT,
		allowAsset,
	} {
		toggles = append(toggles, dao.ExtensionToggle{Extension: ext.Address(), Enabled: true})
	}
	bootstrap := proposals.NewExtensionSet(deployer, BootstrapName, registry, toggles,
		proposals.WithAllowedAssets(vault, ledger.Address()),
		proposals.WithMessage(messenger, cfg.DAO.BootstrapMessage),
	)
	for _, m := range []dao.Module{
		ledger,
		actionEngine,
		coreEngine,
		vault,
		messenger,
		sendMessage,
		withdrawFT,
		allowAsset,
		bootstrap,
	} {
		if err := registry.Deploy(m); err != nil {
			return nil, errors.Wrapf(err, "failed to deploy %s", m.Address().String())
		}
	}

	cs := &ChainService{
		cfg:             cfg,
		chain:           chain,
		factory:         sf,
		ledger:          ledger,
		oracle:          oracle,
		dao:             registry,
		actionProposals: actionEngine,
		coreProposals:   coreEngine,
		treasury:        vault,
		messaging:       messenger,
		sendMessage:     sendMessage,
		withdrawFT:      withdrawFT,
		allowAsset:      allowAsset,
		bootstrap:       bootstrap,
	}
	cs.lifecycle.Add(chain)
	return cs, nil
}

// Start starts the chain and applies the genesis state on an empty chain
func (cs *ChainService) Start(ctx context.Context) error {
	if err := cs.transit(Stopped, Starting); err != nil {
		return err
	}
	if err := cs.lifecycle.OnStart(ctx); err != nil {
		cs.status.Store(int32(Stopped))
		return errors.Wrap(err, "error when starting blockchain")
	}
	if cs.chain.TipHeight() == 0 {
		if err := cs.applyGenesis(ctx); err != nil {
			if stopErr := cs.lifecycle.OnStop(ctx); stopErr != nil {
				log.L().Error("Failed to stop blockchain.", zap.Error(stopErr))
			}
			cs.status.Store(int32(Stopped))
			return errors.Wrap(err, "failed to apply genesis")
		}
	}
	return cs.transit(Starting, Ready)
}

// Stop stops the chain
func (cs *ChainService) Stop(ctx context.Context) error {
	if err := cs.transit(Ready, Stopped); err != nil {
		return err
	}
	return cs.lifecycle.OnStop(ctx)
}

// Status returns the current status of the service
func (cs *ChainService) Status() Status { return Status(cs.status.Load()) }

// IsReady returns true once the chain is started and the genesis applied
func (cs *ChainService) IsReady() bool { return cs.Status() == Ready }

func (cs *ChainService) transit(from, to Status) error {
	if !cs.status.CompareAndSwap(int32(from), int32(to)) {
		return errors.Wrapf(ErrWrongStatus, "cannot move from %s to %s, service is %s", from, to, cs.Status())
	}
	return nil
}

// applyGenesis mints the initial allocations and constructs the DAO in block 0
func (cs *ChainService) applyGenesis(ctx context.Context) error {
	g := cs.cfg.Genesis
	recipients, amounts, err := g.InitialBalances()
	if err != nil {
		return err
	}
	treasuryBalance, err := g.TreasuryBalance()
	if err != nil {
		return err
	}
	if _, err := cs.chain.Call(ctx, cs.dao.Deployer(), func(ctx context.Context, sm protocol.StateManager) error {
		for i, recipient := range recipients {
			if amounts[i].Sign() == 0 {
				continue
			}
			if err := cs.ledger.Mint(ctx, sm, amounts[i], recipient); err != nil {
				return err
			}
		}
		if treasuryBalance.Sign() > 0 {
			if err := cs.ledger.Mint(ctx, sm, treasuryBalance, cs.treasury.Address()); err != nil {
				return err
			}
		}
		if cs.cfg.DAO.ConstructAtGenesis {
			return cs.dao.Construct(ctx, sm, cs.bootstrap.Address())
		}
		return nil
	}); err != nil {
		return err
	}
	height, err := cs.chain.MintBlock()
	if err != nil {
		return err
	}
	log.L().Info("Genesis applied.",
		zap.Int("allocations", len(recipients)),
		zap.String("treasury", treasuryBalance.String()),
		zap.Bool("constructed", cs.cfg.DAO.ConstructAtGenesis),
		zap.Uint64("tipHeight", height))
	return nil
}

// Call applies fn in the current block on behalf of sender
func (cs *ChainService) Call(ctx context.Context, sender address.Address, fn blockchain.CallFunc) (*action.Receipt, error) {
	return cs.chain.Call(ctx, sender, fn)
}

// Deploy adds a module, typically a core proposal, to the capability table
func (cs *ChainService) Deploy(m dao.Module) error {
	return cs.dao.Deploy(m)
}

// MintBlocks closes n blocks
func (cs *ChainService) MintBlocks(n uint64) error {
	return cs.chain.MintBlocks(n)
}

// TipHeight returns the height calls are applied in
func (cs *ChainService) TipHeight() uint64 {
	return cs.chain.TipHeight()
}

// Construct constructs the DAO with the given bootstrap proposal, sender must be the deployer
func (cs *ChainService) Construct(ctx context.Context, sender, proposal address.Address) (*action.Receipt, error) {
	return cs.chain.Call(ctx, sender, func(ctx context.Context, sm protocol.StateManager) error {
		return cs.dao.Construct(ctx, sm, proposal)
	})
}

// Transfer moves amount of the DAO token from sender to recipient
func (cs *ChainService) Transfer(ctx context.Context, sender address.Address, amount *big.Int, recipient address.Address) (*action.Receipt, error) {
	return cs.chain.Call(ctx, sender, func(ctx context.Context, sm protocol.StateManager) error {
		return cs.ledger.Transfer(ctx, sm, amount, sender, recipient)
	})
}

// ProposeAction creates an action proposal and returns its id
func (cs *ChainService) ProposeAction(ctx context.Context, sender, act address.Address, params []byte) (uint64, *action.Receipt, error) {
	var id uint64
	receipt, err := cs.chain.Call(ctx, sender, func(ctx context.Context, sm protocol.StateManager) (err error) {
		id, err = cs.actionProposals.ProposeAction(ctx, sm, act, params)
		return err
	})
	return id, receipt, err
}

// VoteOnActionProposal casts the vote of sender on action proposal id
func (cs *ChainService) VoteOnActionProposal(ctx context.Context, sender address.Address, id uint64, vote bool) (*action.Receipt, error) {
	return cs.chain.Call(ctx, sender, func(ctx context.Context, sm protocol.StateManager) error {
		return cs.actionProposals.VoteOnProposal(ctx, sm, id, vote)
	})
}

// ConcludeActionProposal concludes action proposal id, it returns true if the action ran
func (cs *ChainService) ConcludeActionProposal(ctx context.Context, sender address.Address, id uint64, act address.Address) (bool, *action.Receipt, error) {
	var executed bool
	receipt, err := cs.chain.Call(ctx, sender, func(ctx context.Context, sm protocol.StateManager) (err error) {
		executed, err = cs.actionProposals.ConcludeProposal(ctx, sm, id, act)
		return err
	})
	return executed, receipt, err
}

// CreateCoreProposal creates a core proposal to execute proposal
func (cs *ChainService) CreateCoreProposal(ctx context.Context, sender, proposal address.Address) (*action.Receipt, error) {
	return cs.chain.Call(ctx, sender, func(ctx context.Context, sm protocol.StateManager) error {
		return cs.coreProposals.CreateProposal(ctx, sm, proposal)
	})
}

// VoteOnCoreProposal casts the vote of sender on the core proposal of proposal
func (cs *ChainService) VoteOnCoreProposal(ctx context.Context, sender, proposal address.Address, vote bool) (*action.Receipt, error) {
	return cs.chain.Call(ctx, sender, func(ctx context.Context, sm protocol.StateManager) error {
		return cs.coreProposals.VoteOnProposal(ctx, sm, proposal, vote)
	})
}

// ConcludeCoreProposal concludes the core proposal of proposal, it returns true if the proposal was executed
func (cs *ChainService) ConcludeCoreProposal(ctx context.Context, sender, proposal address.Address) (bool, *action.Receipt, error) {
	var executed bool
	receipt, err := cs.chain.Call(ctx, sender, func(ctx context.Context, sm protocol.StateManager) (err error) {
		executed, err = cs.coreProposals.ConcludeProposal(ctx, sm, proposal)
		return err
	})
	return executed, receipt, err
}

// DepositFT deposits amount of asset from sender into the treasury
func (cs *ChainService) DepositFT(ctx context.Context, sender, asset address.Address, amount *big.Int) (*action.Receipt, error) {
	return cs.chain.Call(ctx, sender, func(ctx context.Context, sm protocol.StateManager) error {
		return cs.treasury.DepositFT(ctx, sm, asset, amount)
	})
}

// SendMessage posts msg on behalf of sender
func (cs *ChainService) SendMessage(ctx context.Context, sender address.Address, msg string) (*action.Receipt, error) {
	return cs.chain.Call(ctx, sender, func(ctx context.Context, sm protocol.StateManager) error {
		return cs.messaging.Send(ctx, sm, msg)
	})
}

// Blockchain returns the blockchain
func (cs *ChainService) Blockchain() blockchain.Blockchain { return cs.chain }

// StateFactory returns the state factory
func (cs *ChainService) StateFactory() factory.Factory { return cs.factory }

// ReadView returns a reader of the committed state
func (cs *ChainService) ReadView() protocol.StateReader { return cs.chain.ReadView() }

// Token returns the DAO token ledger
func (cs *ChainService) Token() *token.Ledger { return cs.ledger }

// Oracle returns the voting power oracle
func (cs *ChainService) Oracle() *votingpower.Oracle { return cs.oracle }

// DAO returns the extension registry
func (cs *ChainService) DAO() *dao.DAO { return cs.dao }

// ActionProposals returns the action proposal engine
func (cs *ChainService) ActionProposals() *actionproposals.Protocol { return cs.actionProposals }

// CoreProposals returns the core proposal engine
func (cs *ChainService) CoreProposals() *coreproposals.Protocol { return cs.coreProposals }

// Treasury returns the treasury extension
func (cs *ChainService) Treasury() *treasury.Protocol { return cs.treasury }

// Messaging returns the messaging extension
func (cs *ChainService) Messaging() *messaging.Protocol { return cs.messaging }

// SendMessageAction returns the send message action
func (cs *ChainService) SendMessageAction() *actions.SendMessage { return cs.sendMessage }

// WithdrawFTAction returns the treasury withdrawal action
func (cs *ChainService) WithdrawFTAction() *actions.WithdrawFT { return cs.withdrawFT }

// AllowAssetAction returns the treasury allowlist action
func (cs *ChainService) AllowAssetAction() *actions.AllowAsset { return cs.allowAsset }

// Bootstrap returns the bootstrap proposal
func (cs *ChainService) Bootstrap() *proposals.ExtensionSet { return cs.bootstrap }
