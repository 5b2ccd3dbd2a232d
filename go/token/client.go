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
	"errors"
	"fmt"
	"math/big"

	"github.com/Fantom-foundation/simpletoken/go/calldata"
	"github.com/Fantom-foundation/simpletoken/go/vm"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"
)

// ErrReverted is reported if the contract aborted the execution of a call,
// e.g. because of an insufficient balance.
var ErrReverted = errors.New("execution reverted")

// Client offers one method per contract function. Each method issues a
// single run on the underlying runtime; calls must not be issued
// concurrently.
type Client struct {
	runtime vm.Runtime
	encoder *calldata.Encoder
	log     log.Logger
	gas     map[string]*GasUsage
}

// GasUsage summarizes the gas consumed by the calls of a single function.
type GasUsage struct {
	Calls int
	Total vm.Gas
	Max   vm.Gas
}

// NewClient creates a client issuing calls on the given runtime. Gas usage
// is logged on the provided logger, or on the root logger if nil.
func NewClient(runtime vm.Runtime, logger log.Logger) (*Client, error) {
	encoder, err := calldata.NewEncoder()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Root()
	}
	return &Client{
		runtime: runtime,
		encoder: encoder,
		log:     logger,
		gas:     map[string]*GasUsage{},
	}, nil
}

// GasUsage returns the gas consumed per function so far.
func (c *Client) GasUsage() map[string]GasUsage {
	res := make(map[string]GasUsage, len(c.gas))
	for name, usage := range c.gas {
		res[name] = *usage
	}
	return res
}

// Initialize runs the initialization routine, making owner the owner of the
// token.
func (c *Client) Initialize(owner vm.Address) error {
	_, err := c.run("initialize", InitEntryPoint, owner, nil)
	return err
}

func (c *Client) TotalSupply() (*big.Int, error) {
	entries, err := c.encoder.TotalSupply()
	if err != nil {
		return nil, err
	}
	return c.view("totalSupply", entries)
}

func (c *Client) BalanceOf(owner vm.Address) (*big.Int, error) {
	entries, err := c.encoder.BalanceOf(owner)
	if err != nil {
		return nil, err
	}
	return c.view("balanceOf", entries)
}

func (c *Client) GetAllowance(owner, spender vm.Address) (*big.Int, error) {
	entries, err := c.encoder.GetAllowance(owner, spender)
	if err != nil {
		return nil, err
	}
	return c.view("getAllowance", entries)
}

// Transfer moves value tokens from the caller to the recipient.
func (c *Client) Transfer(caller, to vm.Address, value *uint256.Int) error {
	entries, err := c.encoder.Transfer(to, value)
	if err != nil {
		return err
	}
	return c.update("transfer", caller, entries)
}

// Mint creates value new tokens owned by the recipient. Only the owner of
// the token is allowed to mint.
func (c *Client) Mint(caller, to vm.Address, value *uint256.Int) error {
	entries, err := c.encoder.Mint(to, value)
	if err != nil {
		return err
	}
	_, err = c.run("mint", MainEntryPoint, caller, entries)
	return err
}

// Approve sets the amount the spender may transfer on behalf of the caller.
func (c *Client) Approve(caller, spender vm.Address, amount *uint256.Int) error {
	entries, err := c.encoder.Approve(spender, amount)
	if err != nil {
		return err
	}
	return c.update("approve", caller, entries)
}

// TransferFrom moves amount tokens from owner to recipient, consuming the
// allowance granted to the caller by the owner.
func (c *Client) TransferFrom(caller, owner, recipient vm.Address, amount *uint256.Int) error {
	entries, err := c.encoder.TransferFrom(owner, recipient, amount)
	if err != nil {
		return err
	}
	return c.update("transferFrom", caller, entries)
}

// view performs a call of a read-only function on behalf of the zero address
// and decodes its result.
func (c *Client) view(function string, entries []vm.CallDataEntry) (*big.Int, error) {
	result, err := c.run(function, MainEntryPoint, vm.Address{}, entries)
	if err != nil {
		return nil, err
	}
	return calldata.DecodeBig(result.ReturnData), nil
}

// update performs a call of a function signaling its success by returning
// true.
func (c *Client) update(function string, caller vm.Address, entries []vm.CallDataEntry) error {
	result, err := c.run(function, MainEntryPoint, caller, entries)
	if err != nil {
		return err
	}
	ok, err := c.encoder.DecodeBool(function, result.ReturnData)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s returned false", function)
	}
	return nil
}

func (c *Client) run(function, entryPoint string, caller vm.Address, entries []vm.CallDataEntry) (vm.CallResult, error) {
	result, err := c.runtime.Run(vm.CallContext{
		EntryPoint: entryPoint,
		CallData:   entries,
		Caller:     caller,
	})
	if err != nil {
		return vm.CallResult{}, fmt.Errorf("failed to run %s: %w", function, err)
	}

	c.log.Info("Gas used", "function", function, "gas", uint64(result.GasUsed))
	usage, found := c.gas[function]
	if !found {
		usage = &GasUsage{}
		c.gas[function] = usage
	}
	usage.Calls++
	usage.Total += result.GasUsed
	usage.Max = max(usage.Max, result.GasUsed)

	if !result.Success {
		return result, fmt.Errorf("%s: %w, return data %v", function, ErrReverted, result.ReturnData)
	}
	return result, nil
}
