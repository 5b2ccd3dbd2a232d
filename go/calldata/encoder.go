// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package calldata

import (
	"bytes"
	_ "embed"
	"fmt"

	"github.com/Fantom-foundation/simpletoken/go/vm"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

//go:embed token.abi.json
var tokenABI []byte

// Encoder produces call data from the ABI of the token contract. In contrast
// to Build, arguments are typed, so their widths are checked by the ABI
// packer.
type Encoder struct {
	abi abi.ABI
}

// NewEncoder creates an encoder for the token contract's ABI.
func NewEncoder() (*Encoder, error) {
	parsed, err := abi.JSON(bytes.NewReader(tokenABI))
	if err != nil {
		return nil, fmt.Errorf("invalid token ABI: %w", err)
	}
	return &Encoder{abi: parsed}, nil
}

// Selector returns the selector of the named ABI method.
func (e *Encoder) Selector(method string) (Selector, error) {
	m, found := e.abi.Methods[method]
	if !found {
		return Selector{}, fmt.Errorf("unknown method %s", method)
	}
	return Selector(m.ID), nil
}

// Encode packs a call of the named method and splits it into call data
// entries as laid out by Build.
func (e *Encoder) Encode(method string, args ...any) ([]vm.CallDataEntry, error) {
	packed, err := e.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", method, err)
	}
	if len(packed) < selectorSize || (len(packed)-selectorSize)%argumentSize != 0 {
		return nil, fmt.Errorf("unexpected encoding of %s with %d bytes", method, len(packed))
	}
	var selector Selector
	copy(selector[:], packed)
	words := make([]vm.Word, 0, (len(packed)-selectorSize)/argumentSize)
	for offset := selectorSize; offset < len(packed); offset += argumentSize {
		words = append(words, vm.Word(packed[offset:offset+argumentSize]))
	}
	return Build(selector, words...), nil
}

// Decode unpacks the return data of the named method.
func (e *Encoder) Decode(method string, data vm.Data) ([]any, error) {
	values, err := e.abi.Unpack(method, data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode result of %s: %w", method, err)
	}
	return values, nil
}

// DecodeBool unpacks the result of a method returning a single boolean.
func (e *Encoder) DecodeBool(method string, data vm.Data) (bool, error) {
	values, err := e.Decode(method, data)
	if err != nil {
		return false, err
	}
	if len(values) != 1 {
		return false, fmt.Errorf("method %s returns %d values, want 1", method, len(values))
	}
	res, ok := values[0].(bool)
	if !ok {
		return false, fmt.Errorf("method %s does not return a boolean", method)
	}
	return res, nil
}

func (e *Encoder) TotalSupply() ([]vm.CallDataEntry, error) {
	return e.Encode("totalSupply")
}

func (e *Encoder) BalanceOf(owner vm.Address) ([]vm.CallDataEntry, error) {
	return e.Encode("balanceOf", common.Address(owner))
}

func (e *Encoder) Transfer(to vm.Address, value *uint256.Int) ([]vm.CallDataEntry, error) {
	return e.Encode("transfer", common.Address(to), value.ToBig())
}

func (e *Encoder) Mint(to vm.Address, value *uint256.Int) ([]vm.CallDataEntry, error) {
	return e.Encode("mint", common.Address(to), value.ToBig())
}

func (e *Encoder) GetAllowance(owner, spender vm.Address) ([]vm.CallDataEntry, error) {
	return e.Encode("allowance", common.Address(owner), common.Address(spender))
}

func (e *Encoder) Approve(spender vm.Address, amount *uint256.Int) ([]vm.CallDataEntry, error) {
	return e.Encode("approve", common.Address(spender), amount.ToBig())
}

func (e *Encoder) TransferFrom(owner, recipient vm.Address, amount *uint256.Int) ([]vm.CallDataEntry, error) {
	return e.Encode("transferFrom", common.Address(owner), common.Address(recipient), amount.ToBig())
}
