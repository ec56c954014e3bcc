// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package config

import (
	"math/big"
	"os"
	"sort"
	"time"

	"github.com/iotexproject/iotex-address/address"
	"github.com/mohae/deepcopy"
	"github.com/pkg/errors"
	uconfig "go.uber.org/config"

	"github.com/iotexproject/iotex-dao/action/protocol/governance"
	"github.com/iotexproject/iotex-dao/action/protocol/token"
	"github.com/iotexproject/iotex-dao/db"
	"github.com/iotexproject/iotex-dao/pkg/log"
)

// IMPORTANT: to define a config, add a field or a new config type to the existing config types. In addition, provide
// the default value in Default var.

var (
	// Default is the default config
	Default = Config{
		DB: db.DefaultConfig,
		System: System{
			HeartbeatInterval: 10 * time.Second,
		},
		API: API{
			Enabled:       true,
			Port:          14014,
			ReadCacheTTL:  time.Minute,
			ReadCacheSize: 10000,
		},
		SubLogs: make(map[string]log.GlobalConfig),
		Genesis: Genesis{
			Deployer: "io1ggmtu0npxzw5xdzr9ws0dqrs9r4l4fxterr2zr",
			Token: token.Config{
				Name:     "IoTeX DAO Token",
				Symbol:   "IDAO",
				Decimals: 6,
			},
			Allocations:        make(map[string]string),
			TreasuryAllocation: "0",
		},
		DAO: DAO{
			ActionProposals:    governance.DefaultActionConfig,
			CoreProposals:      governance.DefaultCoreConfig,
			ConstructAtGenesis: true,
			BootstrapMessage:   "This DAO is constructed.",
		},
	}

	// ErrInvalidCfg indicates the invalid config value
	ErrInvalidCfg = errors.New("invalid config value")

	// Validates is the collection config validation functions
	Validates = []Validate{
		ValidateDB,
		ValidateAPI,
		ValidateGenesis,
		ValidateDAO,
	}
)

type (
	// Config is the root config of the DAO node
	Config struct {
		DB      db.Config                   `yaml:"db"`
		System  System                      `yaml:"system"`
		API     API                         `yaml:"api"`
		Log     log.GlobalConfig            `yaml:"log"`
		SubLogs map[string]log.GlobalConfig `yaml:"subLogs"`
		Genesis Genesis                     `yaml:"genesis"`
		DAO     DAO                         `yaml:"dao"`
	}

	// System is the node level config
	System struct {
		// HeartbeatInterval is the interval of logging the node status, zero disables it
		HeartbeatInterval time.Duration `yaml:"heartbeatInterval"`
	}

	// API is the config of the query server
	API struct {
		Enabled bool `yaml:"enabled"`
		Port    int  `yaml:"port"`
		// ReadCacheTTL is how long an unread entry stays in the read cache
		ReadCacheTTL time.Duration `yaml:"readCacheTTL"`
		// ReadCacheSize bounds the number of entries in the read cache
		ReadCacheSize int `yaml:"readCacheSize"`
	}

	// Genesis is the initial state of the DAO
	Genesis struct {
		// Deployer deploys the modules, mints the initial supply and constructs the DAO
		Deployer string       `yaml:"deployer"`
		Token    token.Config `yaml:"token"`
		// Allocations maps an address to the amount minted to it at genesis
		Allocations map[string]string `yaml:"allocations"`
		// TreasuryAllocation is minted to the treasury at genesis
		TreasuryAllocation string `yaml:"treasuryAllocation"`
		// LockedAddresses hold tokens excluded from the liquid supply next to the treasury
		LockedAddresses []string `yaml:"lockedAddresses"`
	}

	// DAO is the governance config
	DAO struct {
		ActionProposals    governance.VotingConfig `yaml:"actionProposals"`
		CoreProposals      governance.VotingConfig `yaml:"coreProposals"`
		ConstructAtGenesis bool                    `yaml:"constructAtGenesis"`
		BootstrapMessage   string                  `yaml:"bootstrapMessage"`
	}

	// Validate is the interface of validating the config
	Validate func(Config) error
)

// New creates a config instance. It first loads the default configs. If the config path is not empty, it will read from
// the file and override the default configs. By default, it will apply all validation functions. To bypass validation,
// use DoNotValidate instead.
func New(configPaths []string, validates ...Validate) (Config, error) {
	opts := make([]uconfig.YAMLOption, 0)
	opts = append(opts, uconfig.Static(Default))
	opts = append(opts, uconfig.Expand(os.LookupEnv))
	for _, path := range configPaths {
		if path != "" {
			opts = append(opts, uconfig.File(path))
		}
	}
	yaml, err := uconfig.NewYAML(opts...)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to init config")
	}

	var cfg Config
	if err := yaml.Get(uconfig.Root).Populate(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "failed to unmarshal YAML config to struct")
	}

	// By default, the config needs to pass all the validation
	if len(validates) == 0 {
		validates = Validates
	}
	for _, validate := range validates {
		if err := validate(cfg); err != nil {
			return Config{}, errors.Wrap(err, "failed to validate config")
		}
	}
	return cfg, nil
}

// Copy returns a deep copy of cfg
func Copy(cfg Config) Config {
	return deepcopy.Copy(cfg).(Config)
}

// DeployerAddress returns the address of the deployer
func (g Genesis) DeployerAddress() (address.Address, error) {
	return address.FromString(g.Deployer)
}

// InitialBalances returns the genesis allocations ordered by address
func (g Genesis) InitialBalances() ([]address.Address, []*big.Int, error) {
	// Make the list always be ordered
	addrStrs := make([]string, 0, len(g.Allocations))
	for addrStr := range g.Allocations {
		addrStrs = append(addrStrs, addrStr)
	}
	sort.Strings(addrStrs)
	addrs := make([]address.Address, 0, len(addrStrs))
	amounts := make([]*big.Int, 0, len(addrStrs))
	for _, addrStr := range addrStrs {
		addr, err := address.FromString(addrStr)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "invalid allocation address %s", addrStr)
		}
		amount, ok := new(big.Int).SetString(g.Allocations[addrStr], 10)
		if !ok || amount.Sign() < 0 {
			return nil, nil, errors.Errorf("invalid allocation amount %s of %s", g.Allocations[addrStr], addrStr)
		}
		addrs = append(addrs, addr)
		amounts = append(amounts, amount)
	}
	return addrs, amounts, nil
}

// TreasuryBalance returns the amount minted to the treasury
func (g Genesis) TreasuryBalance() (*big.Int, error) {
	if g.TreasuryAllocation == "" {
		return big.NewInt(0), nil
	}
	v, ok := new(big.Int).SetString(g.TreasuryAllocation, 10)
	if !ok || v.Sign() < 0 {
		return nil, errors.Errorf("invalid treasury allocation %s", g.TreasuryAllocation)
	}
	return v, nil
}

// Locked returns the configured locked addresses, an address must not be listed twice
func (g Genesis) Locked() ([]address.Address, error) {
	locked := make([]address.Address, 0, len(g.LockedAddresses))
	seen := make(map[string]struct{}, len(g.LockedAddresses))
	for _, s := range g.LockedAddresses {
		addr, err := address.FromString(s)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid locked address %s", s)
		}
		if _, ok := seen[addr.String()]; ok {
			return nil, errors.Errorf("duplicate locked address %s", s)
		}
		seen[addr.String()] = struct{}{}
		locked = append(locked, addr)
	}
	return locked, nil
}

// ValidateDB validates the db configs
func ValidateDB(cfg Config) error {
	switch cfg.DB.DBType {
	case db.DBMemory:
		return nil
	case db.DBBolt, db.DBPebble:
		if cfg.DB.DbPath == "" {
			return errors.Wrap(ErrInvalidCfg, "db path is empty")
		}
		return nil
	default:
		return errors.Wrapf(ErrInvalidCfg, "unsupported db type %s", cfg.DB.DBType)
	}
}

// ValidateAPI validates the api configs
func ValidateAPI(cfg Config) error {
	if cfg.API.Enabled && (cfg.API.Port <= 0 || cfg.API.Port > 65535) {
		return errors.Wrapf(ErrInvalidCfg, "invalid api port %d", cfg.API.Port)
	}
	if cfg.API.Enabled && (cfg.API.ReadCacheTTL <= 0 || cfg.API.ReadCacheSize <= 0) {
		return errors.Wrapf(ErrInvalidCfg, "invalid api read cache ttl %s size %d", cfg.API.ReadCacheTTL, cfg.API.ReadCacheSize)
	}
	return nil
}

// ValidateGenesis validates the genesis configs
func ValidateGenesis(cfg Config) error {
	if _, err := cfg.Genesis.DeployerAddress(); err != nil {
		return errors.Wrapf(ErrInvalidCfg, "invalid deployer %s: %v", cfg.Genesis.Deployer, err)
	}
	if _, _, err := cfg.Genesis.InitialBalances(); err != nil {
		return errors.Wrap(ErrInvalidCfg, err.Error())
	}
	if _, err := cfg.Genesis.TreasuryBalance(); err != nil {
		return errors.Wrap(ErrInvalidCfg, err.Error())
	}
	if _, err := cfg.Genesis.Locked(); err != nil {
		return errors.Wrap(ErrInvalidCfg, err.Error())
	}
	return nil
}

// ValidateDAO validates the voting configs
func ValidateDAO(cfg Config) error {
	if err := cfg.DAO.ActionProposals.Validate(); err != nil {
		return errors.Wrap(ErrInvalidCfg, err.Error())
	}
	if err := cfg.DAO.CoreProposals.Validate(); err != nil {
		return errors.Wrap(ErrInvalidCfg, err.Error())
	}
	return nil
}

// DoNotValidate validates the given config
func DoNotValidate(cfg Config) error { return nil }
