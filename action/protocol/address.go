// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package protocol

import (
	"github.com/iotexproject/go-pkgs/hash"
	"github.com/iotexproject/iotex-address/address"

	"github.com/iotexproject/iotex-dao/pkg/log"
)

// ContractAddress returns the address of the module deployed by deployer under name
func ContractAddress(deployer address.Address, name string) address.Address {
	h := hash.Hash160b(append(deployer.Bytes(), []byte("."+name)...))
	addr, err := address.FromBytes(h[:])
	if err != nil {
		log.S().Panicf("failed to derive address of module %s: %v", name, err)
	}
	return addr
}
