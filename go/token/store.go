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
	"github.com/Fantom-foundation/simpletoken/go/vm"
	"github.com/holiman/uint256"
	"golang.org/x/crypto/sha3"
)

// Storage slots of the token's state.
var (
	ownerKey       = vm.Key(vm.NewWord(0))
	totalSupplyKey = vm.Key(vm.NewWord(1))
	balancesSlot   = vm.NewWord(2)
	allowancesSlot = vm.NewWord(3)
)

// Store provides direct access to the state of the token contract kept in a
// storage, bypassing the contract's code. Slots are derived the same way the
// contract derives them.
type Store struct {
	storage vm.Storage
}

func NewStore(storage vm.Storage) *Store {
	return &Store{storage: storage}
}

// BalanceKey returns the storage key of the balance of the given account.
func BalanceKey(owner vm.Address) vm.Key {
	return hash(owner.ToWord(), balancesSlot)
}

// AllowanceKey returns the storage key of the amount the spender may
// transfer on behalf of the owner.
func AllowanceKey(owner, spender vm.Address) vm.Key {
	inner := hash(owner.ToWord(), allowancesSlot)
	return hash(spender.ToWord(), vm.Word(inner))
}

func hash(a, b vm.Word) (res vm.Key) {
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write(a[:])
	hasher.Write(b[:])
	hasher.Sum(res[:0])
	return res
}

func (s *Store) Owner() vm.Address {
	return s.storage.GetStorage(ownerKey).ToAddress()
}

func (s *Store) SetOwner(owner vm.Address) {
	s.storage.SetStorage(ownerKey, owner.ToWord())
}

func (s *Store) TotalSupply() *uint256.Int {
	return s.storage.GetStorage(totalSupplyKey).ToUint256()
}

func (s *Store) SetTotalSupply(value *uint256.Int) {
	s.storage.SetStorage(totalSupplyKey, vm.WordFromUint256(value))
}

func (s *Store) BalanceOf(owner vm.Address) *uint256.Int {
	return s.storage.GetStorage(BalanceKey(owner)).ToUint256()
}

func (s *Store) SetBalance(owner vm.Address, value *uint256.Int) {
	s.storage.SetStorage(BalanceKey(owner), vm.WordFromUint256(value))
}

func (s *Store) Allowance(owner, spender vm.Address) *uint256.Int {
	return s.storage.GetStorage(AllowanceKey(owner, spender)).ToUint256()
}

func (s *Store) SetAllowance(owner, spender vm.Address, value *uint256.Int) {
	s.storage.SetStorage(AllowanceKey(owner, spender), vm.WordFromUint256(value))
}
