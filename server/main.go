// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

// Usage:
//
//	make build
//	./bin/server --config=./config.yaml
//	./bin/server config --config=./config.yaml
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

	"github.com/iotexproject/iotex-dao/config"
	"github.com/iotexproject/iotex-dao/pkg/log"
	"github.com/iotexproject/iotex-dao/server/itx"
)

var configPaths []string

// rootCmd starts the node when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "server [command] [flags]",
	Short: "IoTeX DAO node",
	Long: `server runs the DAO governance node: it applies the genesis on a fresh store, keeps the
proposal engines and extensions, and serves the query api.`,
	Args:          cobra.ExactArgs(0),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd)
	},
}

// configCmd prints the effective config
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Prints the effective config",
	Long:  `Prints the default config merged with the given config files.`,
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := effectiveConfig()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&configPaths, "config", nil, "config files, later ones override earlier ones")
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func effectiveConfig() ([]byte, error) {
	cfg, err := config.New(configPaths)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(&cfg)
}

func run(cmd *cobra.Command) error {
	cfg, err := config.New(configPaths)
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	if err := log.InitLoggers(cfg.Log, cfg.SubLogs); err != nil {
		return errors.Wrap(err, "cannot config global logger")
	}
	svr, err := itx.NewServer(cfg)
	if err != nil {
		log.L().Error("Failed to create server.", zap.Error(err))
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return itx.StartServer(ctx, svr)
}
