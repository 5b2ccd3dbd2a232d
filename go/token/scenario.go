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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"

	"github.com/Fantom-foundation/simpletoken/go/vm"
	"github.com/holiman/uint256"
	"pgregory.net/rand"
)

// Operation names a function of the token contract.
type Operation string

const (
	OpInitialize   Operation = "initialize"
	OpTotalSupply  Operation = "totalSupply"
	OpBalanceOf    Operation = "balanceOf"
	OpGetAllowance Operation = "getAllowance"
	OpMint         Operation = "mint"
	OpTransfer     Operation = "transfer"
	OpApprove      Operation = "approve"
	OpTransferFrom Operation = "transferFrom"
)

// isView reports whether the operation only reads the token state and
// produces a result that can be checked.
func (o Operation) isView() bool {
	switch o {
	case OpTotalSupply, OpBalanceOf, OpGetAllowance:
		return true
	}
	return false
}

// Step is a single call in a scenario. Accounts are referred to by name.
// Depending on the operation, the following fields are used:
//
//	initialize    caller
//	totalSupply   expect
//	balanceOf     owner, expect
//	getAllowance  owner, spender, expect
//	mint          caller, to, amount
//	transfer      caller, to, amount
//	approve       caller, spender, amount
//	transferFrom  caller, owner, to, amount
//
// Expect holds the decimal result of a view; if empty, the result is not
// checked. It must not be set for other operations. Reverts states that the call is expected to be reverted.
type Step struct {
	Op      Operation `json:"op"`
	Caller  string    `json:"caller,omitempty"`
	Owner   string    `json:"owner,omitempty"`
	Spender string    `json:"spender,omitempty"`
	To      string    `json:"to,omitempty"`
	Amount  string    `json:"amount,omitempty"`
	Expect  string    `json:"expect,omitempty"`
	Reverts bool      `json:"reverts,omitempty"`
}

// Scenario is a sequence of calls together with their expected outcomes.
type Scenario struct {
	// Accounts maps account names to addresses. Names used by steps but
	// missing here are assigned random addresses.
	Accounts map[string]vm.Address `json:"accounts,omitempty"`
	Steps    []Step                `json:"steps"`
}

// ErrUnexpectedResult is reported if a step's outcome differs from its
// expectation.
var ErrUnexpectedResult = errors.New("unexpected result")

// ReadScenario parses a JSON encoded scenario.
func ReadScenario(reader io.Reader) (*Scenario, error) {
	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()
	var scenario Scenario
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	if err := scenario.validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// ReadScenarioFile parses the JSON encoded scenario stored in a file.
func ReadScenarioFile(path string) (*Scenario, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadScenario(file)
}

// Write encodes the scenario as indented JSON.
func (s *Scenario) Write(writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(s)
}

// Run performs all steps of the scenario using the given client. The first
// step not matching its expectation aborts the run.
func (s *Scenario) Run(client *Client, rnd *rand.Rand) error {
	if err := s.validate(); err != nil {
		return err
	}
	accounts := map[string]vm.Address{}
	for name, address := range s.Accounts {
		accounts[name] = address
	}
	account := func(name string) vm.Address {
		address, found := accounts[name]
		if !found {
			address = RandomAddress(rnd)
			accounts[name] = address
		}
		return address
	}

	for i, step := range s.Steps {
		if err := step.run(client, account); err != nil {
			return fmt.Errorf("step %d (%s): %w", i, step.Op, err)
		}
	}
	return nil
}

func (s *Scenario) validate() error {
	for i, step := range s.Steps {
		if err := step.validate(); err != nil {
			return fmt.Errorf("step %d (%s): %w", i, step.Op, err)
		}
	}
	return nil
}

func (s *Step) validate() error {
	switch s.Op {
	case OpInitialize, OpTotalSupply, OpBalanceOf, OpGetAllowance,
		OpMint, OpTransfer, OpApprove, OpTransferFrom:
	default:
		return fmt.Errorf("unknown operation %q", s.Op)
	}
	if s.Expect != "" && !s.Op.isView() {
		return fmt.Errorf("expected result %q given for operation without result", s.Expect)
	}
	if s.Expect != "" && s.Reverts {
		return fmt.Errorf("expected result %q given for reverting call", s.Expect)
	}
	return nil
}

func (s *Step) run(client *Client, account func(string) vm.Address) error {
	var amount *uint256.Int
	if s.Amount != "" {
		var err error
		amount, err = uint256.FromDecimal(s.Amount)
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", s.Amount, err)
		}
	}
	requireAmount := func() error {
		if amount == nil {
			return fmt.Errorf("missing amount")
		}
		return nil
	}

	var (
		view *big.Int
		err  error
	)
	switch s.Op {
	case OpInitialize:
		err = client.Initialize(account(s.Caller))
	case OpTotalSupply:
		view, err = client.TotalSupply()
	case OpBalanceOf:
		view, err = client.BalanceOf(account(s.Owner))
	case OpGetAllowance:
		view, err = client.GetAllowance(account(s.Owner), account(s.Spender))
	case OpMint:
		if err := requireAmount(); err != nil {
			return err
		}
		err = client.Mint(account(s.Caller), account(s.To), amount)
	case OpTransfer:
		if err := requireAmount(); err != nil {
			return err
		}
		err = client.Transfer(account(s.Caller), account(s.To), amount)
	case OpApprove:
		if err := requireAmount(); err != nil {
			return err
		}
		err = client.Approve(account(s.Caller), account(s.Spender), amount)
	case OpTransferFrom:
		if err := requireAmount(); err != nil {
			return err
		}
		err = client.TransferFrom(account(s.Caller), account(s.Owner), account(s.To), amount)
	default:
		return fmt.Errorf("unknown operation %q", s.Op)
	}

	if s.Reverts {
		if !errors.Is(err, ErrReverted) {
			return fmt.Errorf("%w: want revert, got %v", ErrUnexpectedResult, err)
		}
		return nil
	}
	if err != nil {
		return err
	}
	if s.Expect != "" && view.String() != s.Expect {
		return fmt.Errorf("%w: want %s, got %s", ErrUnexpectedResult, s.Expect, view)
	}
	return nil
}

// RandomAddress generates an account address from 20 random bytes.
func RandomAddress(rnd *rand.Rand) (address vm.Address) {
	_, _ = rnd.Read(address[:]) // never returns an error
	return address
}

// DefaultScenario exercises all functions of the token: it mints to the
// owner and a second user, transfers to a third one and sets an allowance
// that is partially consumed afterwards.
func DefaultScenario() *Scenario {
	return &Scenario{
		Steps: []Step{
			{Op: OpInitialize, Caller: "owner"},
			{Op: OpTotalSupply, Expect: "0"},
			{Op: OpBalanceOf, Owner: "owner", Expect: "0"},
			{Op: OpBalanceOf, Owner: "user", Expect: "0"},

			{Op: OpMint, Caller: "owner", To: "owner", Amount: "16000"},
			{Op: OpBalanceOf, Owner: "owner", Expect: "16000"},
			{Op: OpTotalSupply, Expect: "16000"},

			{Op: OpMint, Caller: "owner", To: "user", Amount: "24000"},
			{Op: OpBalanceOf, Owner: "user", Expect: "24000"},
			{Op: OpTotalSupply, Expect: "40000"},
			{Op: OpMint, Caller: "user", To: "user", Amount: "1", Reverts: true},

			{Op: OpTransfer, Caller: "owner", To: "user2", Amount: "1000"},
			{Op: OpBalanceOf, Owner: "owner", Expect: "15000"},
			{Op: OpBalanceOf, Owner: "user2", Expect: "1000"},
			{Op: OpTransfer, Caller: "user2", To: "owner", Amount: "1001", Reverts: true},

			{Op: OpGetAllowance, Owner: "owner", Spender: "user2", Expect: "0"},
			{Op: OpApprove, Caller: "owner", Spender: "user2", Amount: "1500"},
			{Op: OpGetAllowance, Owner: "owner", Spender: "user2", Expect: "1500"},

			{Op: OpTransferFrom, Caller: "user2", Owner: "owner", To: "user", Amount: "500"},
			{Op: OpGetAllowance, Owner: "owner", Spender: "user2", Expect: "1000"},
			{Op: OpBalanceOf, Owner: "owner", Expect: "14500"},
			{Op: OpBalanceOf, Owner: "user", Expect: "24500"},
			{Op: OpTransferFrom, Caller: "user2", Owner: "owner", To: "user", Amount: "1001", Reverts: true},
			{Op: OpTotalSupply, Expect: "40000"},
		},
	}
}
