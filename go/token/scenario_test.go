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
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/Fantom-foundation/simpletoken/go/vm"
	"go.uber.org/mock/gomock"
	"pgregory.net/rand"
)

func TestScenario_JsonRoundTrip(t *testing.T) {
	scenario := DefaultScenario()
	scenario.Accounts = map[string]vm.Address{"owner": {19: 1}}

	var buffer bytes.Buffer
	if err := scenario.Write(&buffer); err != nil {
		t.Fatalf("failed to encode scenario: %v", err)
	}
	restored, err := ReadScenario(&buffer)
	if err != nil {
		t.Fatalf("failed to decode scenario: %v", err)
	}
	if want, got := len(scenario.Steps), len(restored.Steps); want != got {
		t.Fatalf("unexpected number of steps, want %d, got %d", want, got)
	}
	for i := range scenario.Steps {
		if want, got := scenario.Steps[i], restored.Steps[i]; want != got {
			t.Errorf("unexpected step %d, want %v, got %v", i, want, got)
		}
	}
	if want, got := scenario.Accounts["owner"], restored.Accounts["owner"]; want != got {
		t.Errorf("unexpected account, want %v, got %v", want, got)
	}
}

func TestReadScenario_RejectsInvalidInput(t *testing.T) {
	tests := map[string]string{
		"syntax":             `{"steps": [`,
		"unknown field":      `{"steps": [{"op": "mint", "value": "1"}]}`,
		"bad address":        `{"accounts": {"a": "0x12"}, "steps": []}`,
		"unknown operation":  `{"steps": [{"op": "burn"}]}`,
		"result of transfer": `{"steps": [{"op": "transfer", "caller": "a", "to": "b", "amount": "1", "expect": "1"}]}`,
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ReadScenario(strings.NewReader(input)); err == nil {
				t.Errorf("invalid scenario should be rejected")
			}
		})
	}
}

func TestScenario_InvalidStepsAreReported(t *testing.T) {
	tests := map[string]Step{
		"unknown operation":        {Op: "burn"},
		"missing amount":           {Op: OpMint, Caller: "owner", To: "owner"},
		"invalid amount":           {Op: OpTransfer, Caller: "owner", To: "user", Amount: "-5"},
		"result of mint":           {Op: OpMint, Caller: "owner", To: "owner", Amount: "1", Expect: "1"},
		"result of initialize":     {Op: OpInitialize, Caller: "owner", Expect: "0"},
		"result of reverting view": {Op: OpTotalSupply, Expect: "0", Reverts: true},
	}
	for name, step := range tests {
		t.Run(name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			client := newTestClient(t, vm.NewMockRuntime(ctrl))
			scenario := Scenario{Steps: []Step{step}}
			if err := scenario.Run(client, rand.New(0)); err == nil {
				t.Errorf("invalid step should be reported")
			}
		})
	}
}

func TestScenario_AccountsAreResolved(t *testing.T) {
	ctrl := gomock.NewController(t)
	runtime := vm.NewMockRuntime(ctrl)
	owner := vm.Address{19: 7}

	var callers []vm.Address
	runtime.EXPECT().Run(gomock.Any()).DoAndReturn(func(call vm.CallContext) (vm.CallResult, error) {
		callers = append(callers, call.Caller)
		return vm.CallResult{Success: true}, nil
	}).Times(3)

	scenario := Scenario{
		Accounts: map[string]vm.Address{"owner": owner},
		Steps: []Step{
			{Op: OpInitialize, Caller: "owner"},
			{Op: OpInitialize, Caller: "other"},
			{Op: OpInitialize, Caller: "other"},
		},
	}
	if err := scenario.Run(newTestClient(t, runtime), rand.New(0)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if callers[0] != owner {
		t.Errorf("unexpected caller, want %v, got %v", owner, callers[0])
	}
	if callers[1] == owner || callers[1] == (vm.Address{}) {
		t.Errorf("unnamed account should get a random address, got %v", callers[1])
	}
	if callers[1] != callers[2] {
		t.Errorf("account names should resolve consistently, got %v and %v", callers[1], callers[2])
	}
}

func TestScenario_ExpectationsAreChecked(t *testing.T) {
	tests := map[string]struct {
		step    Step
		result  vm.CallResult
		failure error
	}{
		"matching view": {
			step:   Step{Op: OpTotalSupply, Expect: "16000"},
			result: vm.CallResult{Success: true, ReturnData: word(16000)},
		},
		"mismatching view": {
			step:    Step{Op: OpTotalSupply, Expect: "16000"},
			result:  vm.CallResult{Success: true, ReturnData: word(15000)},
			failure: ErrUnexpectedResult,
		},
		"expected revert": {
			step:   Step{Op: OpMint, Caller: "user", To: "user", Amount: "1", Reverts: true},
			result: vm.CallResult{Success: false},
		},
		"missing revert": {
			step:    Step{Op: OpMint, Caller: "user", To: "user", Amount: "1", Reverts: true},
			result:  vm.CallResult{Success: true},
			failure: ErrUnexpectedResult,
		},
		"unexpected revert": {
			step:    Step{Op: OpTransfer, Caller: "user", To: "owner", Amount: "1"},
			result:  vm.CallResult{Success: false},
			failure: ErrReverted,
		},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			runtime := vm.NewMockRuntime(ctrl)
			runtime.EXPECT().Run(gomock.Any()).Return(test.result, nil)

			scenario := Scenario{Steps: []Step{test.step}}
			err := scenario.Run(newTestClient(t, runtime), rand.New(0))
			if test.failure == nil && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if test.failure != nil && !errors.Is(err, test.failure) {
				t.Errorf("unexpected error, want %v, got %v", test.failure, err)
			}
		})
	}
}

func TestScenario_InvalidStepPreventsAnyCall(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := newTestClient(t, vm.NewMockRuntime(ctrl))
	scenario := Scenario{Steps: []Step{
		{Op: OpInitialize, Caller: "owner"},
		{Op: OpTransfer, Caller: "owner", To: "user", Amount: "1", Expect: "1"},
	}}
	if err := scenario.Run(client, rand.New(0)); err == nil {
		t.Errorf("invalid step should be reported")
	}
}

func TestRandomAddress_ProducesDistinctAddresses(t *testing.T) {
	rnd := rand.New(0)
	seen := map[vm.Address]bool{}
	for i := 0; i < 100; i++ {
		address := RandomAddress(rnd)
		if seen[address] {
			t.Fatalf("address %v generated twice", address)
		}
		seen[address] = true
	}
}
