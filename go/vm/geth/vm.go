// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package geth

import (
	"fmt"

	"github.com/Fantom-foundation/simpletoken/go/vm"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/core/state"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/params"
)

// ContractAddress is the account all entry points are executed on. Keeping
// it fixed makes storage written by one entry point visible to the next.
var ContractAddress = vm.Address(common.BytesToAddress([]byte("contract")))

// VM is an in-memory EVM instance. Its state, most notably the storage of
// the contract account, persists across all runs performed on it.
type VM struct {
	state       *state.StateDB
	contract    common.Address
	chainConfig *params.ChainConfig
}

var _ vm.Storage = (*VM)(nil)

// NewVM creates a VM instance with an empty state.
func NewVM() (*VM, error) {
	db := state.NewDatabase(rawdb.NewMemoryDatabase())
	statedb, err := state.New(types.EmptyRootHash, db, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create state: %w", err)
	}
	return &VM{
		state:       statedb,
		contract:    common.Address(ContractAddress),
		chainConfig: params.AllEthashProtocolChanges,
	}, nil
}

// GetStorage reads a storage slot of the contract account.
func (v *VM) GetStorage(key vm.Key) vm.Word {
	return vm.Word(v.state.GetState(v.contract, common.Hash(key)))
}

// SetStorage writes a storage slot of the contract account.
func (v *VM) SetStorage(key vm.Key, value vm.Word) {
	v.state.SetState(v.contract, common.Hash(key), common.Hash(value))
}

// GetBalance returns the wei balance of an account.
func (v *VM) GetBalance(address vm.Address) vm.Value {
	return vm.ValueFromUint256(v.state.GetBalance(common.Address(address)))
}

// GetCode returns the code most recently installed on the contract account.
func (v *VM) GetCode() vm.Code {
	return vm.Code(v.state.GetCode(v.contract))
}
