// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package calldata builds the input of calls into the token contract. Call
// data consists of a 4-byte function selector followed by 32-byte arguments.
package calldata

import (
	"fmt"
	"math/big"

	"github.com/Fantom-foundation/simpletoken/go/vm"
	"github.com/holiman/uint256"
)

// Selector identifies a contract function. It is the prefix of the Keccak256
// hash of the function's signature.
type Selector [4]byte

// Selectors of the functions offered by the token contract.
var (
	TotalSupply  = Selector{0x18, 0x16, 0x0d, 0xdd} // totalSupply()
	BalanceOf    = Selector{0x70, 0xa0, 0x82, 0x31} // balanceOf(address)
	Transfer     = Selector{0xa9, 0x05, 0x9c, 0xbb} // transfer(address,uint256)
	Mint         = Selector{0x40, 0xc1, 0x0f, 0x19} // mint(address,uint256)
	GetAllowance = Selector{0xdd, 0x62, 0xed, 0x3e} // allowance(address,address)
	Approve      = Selector{0x09, 0x5e, 0xa7, 0xb3} // approve(address,uint256)
	TransferFrom = Selector{0x23, 0xb8, 0x72, 0xdd} // transferFrom(address,address,uint256)
)

func (s Selector) String() string {
	return fmt.Sprintf("0x%x", s[:])
}

// ToWord returns the selector right-aligned in a word.
func (s Selector) ToWord() (w vm.Word) {
	copy(w[28:], s[:])
	return w
}

const (
	selectorSize = 4
	argumentSize = 32
)

// Build lays out a call of the function with the given selector: the
// selector occupies bytes 0..3 and argument i the 32 bytes starting at
// 4+32*i. No validation is performed.
func Build(selector Selector, args ...vm.Word) []vm.CallDataEntry {
	entries := make([]vm.CallDataEntry, 0, len(args)+1)
	entries = append(entries, vm.CallDataEntry{
		Offset: 0,
		Value:  selector.ToWord(),
		Length: selectorSize,
	})
	for i, arg := range args {
		entries = append(entries, vm.CallDataEntry{
			Offset: selectorSize + argumentSize*i,
			Value:  arg,
			Length: argumentSize,
		})
	}
	return entries
}

// DecodeBig interprets return data as a big-endian unsigned integer. Empty
// return data yields zero.
func DecodeBig(data vm.Data) *big.Int {
	return new(big.Int).SetBytes(data)
}

// DecodeUint256 interprets return data as a big-endian unsigned integer of at
// most 256 bits.
func DecodeUint256(data vm.Data) (*uint256.Int, error) {
	if len(data) > 32 {
		return nil, fmt.Errorf("return data of %d bytes exceeds a word", len(data))
	}
	return new(uint256.Int).SetBytes(data), nil
}
