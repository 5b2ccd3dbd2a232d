// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package token

import (
	"fmt"

	"github.com/Fantom-foundation/simpletoken/go/vm"
	"github.com/holiman/uint256"
)

// Model is a plain Go implementation of the token's semantics. It is used
// as a reference when checking the contract.
type Model struct {
	owner       vm.Address
	totalSupply uint256.Int
	balances    map[vm.Address]*uint256.Int
	allowances  map[allowanceKey]*uint256.Int
}

type allowanceKey struct {
	owner, spender vm.Address
}

// NewModel creates the state of a token initialized by the given owner.
func NewModel(owner vm.Address) *Model {
	return &Model{
		owner:      owner,
		balances:   map[vm.Address]*uint256.Int{},
		allowances: map[allowanceKey]*uint256.Int{},
	}
}

// Initialize mirrors a further run of the initialization routine. It is
// only accepted as long as no owner is set, and resets the total supply.
func (m *Model) Initialize(caller vm.Address) error {
	if m.owner != (vm.Address{}) {
		return fmt.Errorf("token already owned by %v: %w", m.owner, ErrReverted)
	}
	m.owner = caller
	m.totalSupply.Clear()
	return nil
}

func (m *Model) Owner() vm.Address {
	return m.owner
}

func (m *Model) TotalSupply() *uint256.Int {
	return m.totalSupply.Clone()
}

func (m *Model) BalanceOf(owner vm.Address) *uint256.Int {
	if balance, found := m.balances[owner]; found {
		return balance.Clone()
	}
	return new(uint256.Int)
}

func (m *Model) GetAllowance(owner, spender vm.Address) *uint256.Int {
	if allowance, found := m.allowances[allowanceKey{owner, spender}]; found {
		return allowance.Clone()
	}
	return new(uint256.Int)
}

func (m *Model) Mint(caller, to vm.Address, value *uint256.Int) error {
	if caller != m.owner {
		return fmt.Errorf("mint by non-owner %v: %w", caller, ErrReverted)
	}
	supply, overflow := new(uint256.Int).AddOverflow(&m.totalSupply, value)
	if overflow {
		return fmt.Errorf("total supply overflow: %w", ErrReverted)
	}
	m.totalSupply = *supply
	m.credit(to, value)
	return nil
}

func (m *Model) Transfer(caller, to vm.Address, value *uint256.Int) error {
	if err := m.checkBalance(caller, value); err != nil {
		return err
	}
	m.debit(caller, value)
	m.credit(to, value)
	return nil
}

func (m *Model) Approve(caller, spender vm.Address, amount *uint256.Int) error {
	m.allowances[allowanceKey{caller, spender}] = amount.Clone()
	return nil
}

func (m *Model) TransferFrom(caller, owner, recipient vm.Address, amount *uint256.Int) error {
	allowance := m.GetAllowance(owner, caller)
	if allowance.Lt(amount) {
		return fmt.Errorf("allowance of %v on %v is %v, need %v: %w", caller, owner, allowance, amount, ErrReverted)
	}
	if err := m.checkBalance(owner, amount); err != nil {
		return err
	}
	m.allowances[allowanceKey{owner, caller}] = allowance.Sub(allowance, amount)
	m.debit(owner, amount)
	m.credit(recipient, amount)
	return nil
}

func (m *Model) checkBalance(owner vm.Address, value *uint256.Int) error {
	if balance := m.BalanceOf(owner); balance.Lt(value) {
		return fmt.Errorf("balance of %v is %v, need %v: %w", owner, balance, value, ErrReverted)
	}
	return nil
}

func (m *Model) debit(owner vm.Address, value *uint256.Int) {
	balance := m.BalanceOf(owner)
	m.balances[owner] = balance.Sub(balance, value)
}

// credit wraps around on overflow, like the contract does. Since the total
// supply is bounded, this can not happen for minted tokens.
func (m *Model) credit(owner vm.Address, value *uint256.Int) {
	balance := m.BalanceOf(owner)
	m.balances[owner] = balance.Add(balance, value)
}
