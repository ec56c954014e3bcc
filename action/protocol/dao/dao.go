// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package dao

import (
	"context"
	"sync"

	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/iotexproject/iotex-dao/action"
	"github.com/iotexproject/iotex-dao/action/protocol"
	"github.com/iotexproject/iotex-dao/pkg/log"
	"github.com/iotexproject/iotex-dao/pkg/util/byteutil"
	"github.com/iotexproject/iotex-dao/state"
)

const (
	// ModuleName is the name the DAO registry is deployed under
	ModuleName = "base-dao"

	_daoNS = "BaseDao"
)

var (
	_constructedKey  = []byte("constructed")
	_extensionPrefix = []byte("extension.")
	_executedPrefix  = []byte("executed.")
)

var (
	// ErrUnauthorized is returned when the caller is neither the DAO nor an enabled extension
	ErrUnauthorized = protocol.NewError(1200, "ERR_UNAUTHORIZED", protocol.CategoryAuthorization)
	// ErrAlreadyExecuted is returned when a proposal is executed twice
	ErrAlreadyExecuted = protocol.NewError(1201, "ERR_ALREADY_EXECUTED", protocol.CategoryConflict)
	// ErrInvalidExtension is returned when a module does not behave as an enabled extension
	ErrInvalidExtension = protocol.NewError(1202, "ERR_INVALID_EXTENSION", protocol.CategoryAuthorization)
	// ErrInvalidProposal is returned when the executed module is not a deployed proposal
	ErrInvalidProposal = protocol.NewError(1203, "ERR_INVALID_PROPOSAL", protocol.CategoryNotFound)
)

type (
	// DAO is the base registry: construction flag, enabled extensions and the execution record
	DAO struct {
		addr     address.Address
		deployer address.Address

		mu      sync.RWMutex
		modules map[string]Module
	}

	construction struct {
		Height uint64
	}

	extensionRecord struct {
		Enabled bool
	}

	executionRecord struct {
		Height uint64
	}
)

// NewDAO creates the registry deployed by deployer
func NewDAO(deployer address.Address) *DAO {
	return &DAO{
		addr:     protocol.ContractAddress(deployer, ModuleName),
		deployer: deployer,
		modules:  make(map[string]Module),
	}
}

// Address returns the address of the DAO
func (d *DAO) Address() address.Address { return d.addr }

// Deployer returns the principal allowed to construct the DAO
func (d *DAO) Deployer() address.Address { return d.deployer }

// Deploy adds a module to the capability table
func (d *DAO) Deploy(m Module) error {
	if m == nil || m.Address() == nil {
		return errors.New("module has no address")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	key := m.Address().String()
	if _, ok := d.modules[key]; ok {
		return errors.Errorf("module %s is already deployed", key)
	}
	d.modules[key] = m
	return nil
}

// Module returns the deployed module at addr
func (d *DAO) Module(addr address.Address) (Module, bool) {
	if addr == nil {
		return nil, false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	m, ok := d.modules[addr.String()]
	return m, ok
}

// Construct runs the bootstrap proposal once. Only the deployer can construct.
func (d *DAO) Construct(ctx context.Context, sm protocol.StateManager, proposal address.Address) error {
	call := protocol.MustGetCallCtx(ctx)
	if !protocol.SameAddress(call.Caller, d.deployer) {
		return ErrUnauthorized
	}
	constructed, err := d.IsConstructed(sm)
	if err != nil {
		return err
	}
	if constructed {
		return errors.Wrap(ErrUnauthorized, "dao is already constructed")
	}
	height, err := sm.Height()
	if err != nil {
		return err
	}
	if err := d.putState(sm, _constructedKey, &construction{Height: height}); err != nil {
		return err
	}
	sm.EmitEvent(action.NewEvent(d.addr.String(), "construct", action.Payload{
		"proposal": proposal.String(),
		"sender":   call.Sender.String(),
		"caller":   call.Caller.String(),
	}))
	log.L().Info("DAO constructed.", zap.Uint64("height", height), zap.String("proposal", proposal.String()))
	return d.execute(ctx, sm, proposal, call.Sender)
}

// Execute executes a proposal on behalf of sender, callable by the DAO or an enabled extension
func (d *DAO) Execute(ctx context.Context, sm protocol.StateManager, proposal, sender address.Address) error {
	if err := d.checkAuthorized(ctx, sm); err != nil {
		return err
	}
	return d.execute(ctx, sm, proposal, sender)
}

// SetExtension enables or disables an extension
func (d *DAO) SetExtension(ctx context.Context, sm protocol.StateManager, extension address.Address, enabled bool) error {
	if err := d.checkAuthorized(ctx, sm); err != nil {
		return err
	}
	return d.setExtension(ctx, sm, ExtensionToggle{Extension: extension, Enabled: enabled})
}

// SetExtensions applies the toggles in order
func (d *DAO) SetExtensions(ctx context.Context, sm protocol.StateManager, toggles []ExtensionToggle) error {
	if err := d.checkAuthorized(ctx, sm); err != nil {
		return err
	}
	for _, t := range toggles {
		if err := d.setExtension(ctx, sm, t); err != nil {
			return err
		}
	}
	return nil
}

// RequestExtensionCallback lets an enabled extension call itself back through the DAO acting as itself
func (d *DAO) RequestExtensionCallback(ctx context.Context, sm protocol.StateManager, extension address.Address, memo []byte) error {
	call := protocol.MustGetCallCtx(ctx)
	if !protocol.SameAddress(call.Caller, extension) {
		return ErrInvalidExtension
	}
	ext, err := d.enabledExtension(sm, extension)
	if err != nil {
		return err
	}
	sm.EmitEvent(action.NewEvent(d.addr.String(), "request-extension-callback", action.Payload{
		"extension": extension.String(),
		"memo":      string(memo),
		"sender":    call.Sender.String(),
		"caller":    call.Caller.String(),
	}))
	ok, err := ext.Callback(protocol.AsContract(ctx, d.addr), sm, call.Sender, memo)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidExtension
	}
	return nil
}

// RunAction runs an enabled action on behalf of the calling extension. The action acknowledges the
// callback first and then runs as called by the extension acting as itself.
func (d *DAO) RunAction(ctx context.Context, sm protocol.StateManager, act address.Address, params []byte) error {
	call := protocol.MustGetCallCtx(ctx)
	if _, err := d.enabledExtension(sm, call.Caller); err != nil {
		return errors.Wrap(err, "caller is not an enabled extension")
	}
	ext, err := d.enabledExtension(sm, act)
	if err != nil {
		return err
	}
	runner, ok := ext.(Action)
	if !ok {
		return errors.Wrapf(ErrInvalidExtension, "%s is not an action", act.String())
	}
	runCtx := protocol.AsContract(ctx, call.Caller)
	if ok, err := runner.Callback(runCtx, sm, call.Caller, nil); err != nil || !ok {
		return errors.Wrapf(ErrInvalidExtension, "action %s did not acknowledge the callback", act.String())
	}
	return runner.Run(runCtx, sm, params)
}

// IsConstructed returns true once the bootstrap proposal ran
func (d *DAO) IsConstructed(sr protocol.StateReader) (bool, error) {
	_, ok, err := d.ConstructedAt(sr)
	return ok, err
}

// ConstructedAt returns the height the DAO was constructed at
func (d *DAO) ConstructedAt(sr protocol.StateReader) (uint64, bool, error) {
	var c construction
	switch err := d.state(sr, _constructedKey, &c); errors.Cause(err) {
	case nil:
		return c.Height, true, nil
	case state.ErrStateNotExist:
		return 0, false, nil
	default:
		return 0, false, err
	}
}

// IsExtension returns true if addr is an enabled extension
func (d *DAO) IsExtension(sr protocol.StateReader, addr address.Address) (bool, error) {
	if addr == nil {
		return false, nil
	}
	var rec extensionRecord
	switch err := d.state(sr, extensionKey(addr), &rec); errors.Cause(err) {
	case nil:
		return rec.Enabled, nil
	case state.ErrStateNotExist:
		return false, nil
	default:
		return false, err
	}
}

// ExecutedAt returns the height proposal was executed at
func (d *DAO) ExecutedAt(sr protocol.StateReader, proposal address.Address) (uint64, bool, error) {
	var rec executionRecord
	switch err := d.state(sr, executedKey(proposal), &rec); errors.Cause(err) {
	case nil:
		return rec.Height, true, nil
	case state.ErrStateNotExist:
		return 0, false, nil
	default:
		return 0, false, err
	}
}

// IsDaoOrExtension returns true if the call is made by the DAO acting as itself or by an enabled extension
func (d *DAO) IsDaoOrExtension(ctx context.Context, sr protocol.StateReader) (bool, error) {
	call := protocol.MustGetCallCtx(ctx)
	if protocol.SameAddress(call.Sender, d.addr) {
		return true, nil
	}
	return d.IsExtension(sr, call.Caller)
}

func (d *DAO) checkAuthorized(ctx context.Context, sm protocol.StateManager) error {
	constructed, err := d.IsConstructed(sm)
	if err != nil {
		return err
	}
	if !constructed {
		return errors.Wrap(ErrUnauthorized, "dao is not constructed")
	}
	ok, err := d.IsDaoOrExtension(ctx, sm)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnauthorized
	}
	return nil
}

func (d *DAO) execute(ctx context.Context, sm protocol.StateManager, proposal, sender address.Address) error {
	_, executed, err := d.ExecutedAt(sm, proposal)
	if err != nil {
		return err
	}
	if executed {
		return errors.Wrapf(ErrAlreadyExecuted, "proposal %s", proposal.String())
	}
	m, ok := d.Module(proposal)
	if !ok {
		return errors.Wrapf(ErrInvalidProposal, "proposal %s is not deployed", proposal.String())
	}
	p, ok := m.(Proposal)
	if !ok {
		return errors.Wrapf(ErrInvalidProposal, "module %s is not a proposal", proposal.String())
	}
	height, err := sm.Height()
	if err != nil {
		return err
	}
	if err := d.putState(sm, executedKey(proposal), &executionRecord{Height: height}); err != nil {
		return err
	}
	call := protocol.MustGetCallCtx(ctx)
	sm.EmitEvent(action.NewEvent(d.addr.String(), "execute", action.Payload{
		"proposal": proposal.String(),
		"sender":   call.Sender.String(),
		"caller":   call.Caller.String(),
	}))
	log.L().Debug("Executing proposal.", zap.String("proposal", proposal.String()), zap.Uint64("height", height))
	return p.Execute(protocol.AsContract(ctx, d.addr), sm, sender)
}

func (d *DAO) setExtension(ctx context.Context, sm protocol.StateManager, t ExtensionToggle) error {
	if t.Extension == nil {
		return ErrInvalidExtension
	}
	if t.Enabled {
		m, ok := d.Module(t.Extension)
		if !ok {
			return errors.Wrapf(ErrInvalidExtension, "extension %s is not deployed", t.Extension.String())
		}
		if _, ok := m.(Extension); !ok {
			return errors.Wrapf(ErrInvalidExtension, "module %s has no callback", t.Extension.String())
		}
	}
	if err := d.putState(sm, extensionKey(t.Extension), &extensionRecord{Enabled: t.Enabled}); err != nil {
		return err
	}
	call := protocol.MustGetCallCtx(ctx)
	sm.EmitEvent(action.NewEvent(d.addr.String(), "extension", action.Payload{
		"enabled":   t.Enabled,
		"extension": t.Extension.String(),
		"sender":    call.Sender.String(),
		"caller":    call.Caller.String(),
	}))
	return nil
}

func (d *DAO) enabledExtension(sr protocol.StateReader, addr address.Address) (Extension, error) {
	enabled, err := d.IsExtension(sr, addr)
	if err != nil {
		return nil, err
	}
	if !enabled {
		return nil, ErrInvalidExtension
	}
	m, ok := d.Module(addr)
	if !ok {
		return nil, ErrInvalidExtension
	}
	ext, ok := m.(Extension)
	if !ok {
		return nil, ErrInvalidExtension
	}
	return ext, nil
}

func (d *DAO) state(sr protocol.StateReader, key []byte, value interface{}) error {
	_, err := sr.State(value, protocol.NamespaceOption(_daoNS), protocol.KeyOption(append(d.addr.Bytes(), key...)))
	return err
}

func (d *DAO) putState(sm protocol.StateManager, key []byte, value interface{}) error {
	_, err := sm.PutState(value, protocol.NamespaceOption(_daoNS), protocol.KeyOption(append(d.addr.Bytes(), key...)))
	return err
}

func extensionKey(addr address.Address) []byte {
	return byteutil.JoinBytes(_extensionPrefix, addr.Bytes())
}

func executedKey(addr address.Address) []byte {
	return byteutil.JoinBytes(_executedPrefix, addr.Bytes())
}
