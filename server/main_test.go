// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

func TestConfigCommand(t *testing.T) {
	require := require.New(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(os.WriteFile(path, []byte(`
api:
  port: 15015
dao:
  bootstrapMessage: "hello"
  actionProposals:
    votingPeriod: 720
`), 0644))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"config", "--config", path})
	defer rootCmd.SetArgs(nil)
	require.NoError(rootCmd.Execute())

	var cfg struct {
		API struct {
			Enabled bool `yaml:"enabled"`
			Port    int  `yaml:"port"`
		} `yaml:"api"`
		DAO struct {
			BootstrapMessage string `yaml:"bootstrapMessage"`
			ActionProposals  struct {
				VotingPeriod uint64 `yaml:"votingPeriod"`
			} `yaml:"actionProposals"`
		} `yaml:"dao"`
	}
	require.NoError(yaml.Unmarshal(out.Bytes(), &cfg))
	require.True(cfg.API.Enabled)
	require.Equal(15015, cfg.API.Port)
	require.Equal("hello", cfg.DAO.BootstrapMessage)
	require.EqualValues(720, cfg.DAO.ActionProposals.VotingPeriod)
}

func TestConfigCommandBadFile(t *testing.T) {
	rootCmd.SetArgs([]string{"config", "--config", filepath.Join(t.TempDir(), "missing.yaml")})
	defer rootCmd.SetArgs(nil)
	require.Error(t, rootCmd.Execute())
}
