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

	"github.com/Fantom-foundation/simpletoken/go/calldata"
	"github.com/Fantom-foundation/simpletoken/go/vm"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"
	"go.uber.org/mock/gomock"
)

func newTestClient(t *testing.T, runtime vm.Runtime) *Client {
	t.Helper()
	client, err := NewClient(runtime, log.NewLogger(log.DiscardHandler()))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return client
}

func encode(t *testing.T, entries []vm.CallDataEntry) vm.Data {
	t.Helper()
	data, err := vm.EncodeCallData(entries)
	if err != nil {
		t.Fatalf("invalid call data: %v", err)
	}
	return data
}

func word(value uint64) vm.Data {
	w := vm.NewWord(value)
	return w[:]
}

func TestClient_CallsAreEncoded(t *testing.T) {
	owner := vm.Address{19: 1}
	user := vm.Address{19: 2}
	amount := uint256.NewInt(1000)

	tests := map[string]struct {
		call     func(*Client) error
		caller   vm.Address
		callData []vm.CallDataEntry
		result   vm.Data
	}{
		"totalSupply": {
			call: func(c *Client) error {
				_, err := c.TotalSupply()
				return err
			},
			callData: calldata.Build(calldata.TotalSupply),
			result:   word(0),
		},
		"balanceOf": {
			call: func(c *Client) error {
				_, err := c.BalanceOf(user)
				return err
			},
			callData: calldata.Build(calldata.BalanceOf, user.ToWord()),
			result:   word(0),
		},
		"getAllowance": {
			call: func(c *Client) error {
				_, err := c.GetAllowance(owner, user)
				return err
			},
			callData: calldata.Build(calldata.GetAllowance, owner.ToWord(), user.ToWord()),
			result:   word(0),
		},
		"mint": {
			call:     func(c *Client) error { return c.Mint(owner, user, amount) },
			caller:   owner,
			callData: calldata.Build(calldata.Mint, user.ToWord(), vm.NewWord(1000)),
		},
		"transfer": {
			call:     func(c *Client) error { return c.Transfer(owner, user, amount) },
			caller:   owner,
			callData: calldata.Build(calldata.Transfer, user.ToWord(), vm.NewWord(1000)),
			result:   word(1),
		},
		"approve": {
			call:     func(c *Client) error { return c.Approve(owner, user, amount) },
			caller:   owner,
			callData: calldata.Build(calldata.Approve, user.ToWord(), vm.NewWord(1000)),
			result:   word(1),
		},
		"transferFrom": {
			call:     func(c *Client) error { return c.TransferFrom(user, owner, user, amount) },
			caller:   user,
			callData: calldata.Build(calldata.TransferFrom, owner.ToWord(), user.ToWord(), vm.NewWord(1000)),
			result:   word(1),
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			runtime := vm.NewMockRuntime(ctrl)

			want := encode(t, test.callData)
			runtime.EXPECT().Run(gomock.Any()).DoAndReturn(func(call vm.CallContext) (vm.CallResult, error) {
				if call.EntryPoint != MainEntryPoint {
					t.Errorf("unexpected entry point, want %s, got %s", MainEntryPoint, call.EntryPoint)
				}
				if call.Caller != test.caller {
					t.Errorf("unexpected caller, want %v, got %v", test.caller, call.Caller)
				}
				if got := encode(t, call.CallData); !bytes.Equal(want, got) {
					t.Errorf("unexpected call data, want %v, got %v", want, got)
				}
				return vm.CallResult{Success: true, ReturnData: test.result, GasUsed: 100}, nil
			})

			client := newTestClient(t, runtime)
			if err := test.call(client); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			usage := client.GasUsage()[name]
			if want, got := (GasUsage{Calls: 1, Total: 100, Max: 100}), usage; want != got {
				t.Errorf("unexpected gas usage, want %v, got %v", want, got)
			}
		})
	}
}

func TestClient_Initialize(t *testing.T) {
	ctrl := gomock.NewController(t)
	runtime := vm.NewMockRuntime(ctrl)
	owner := vm.Address{0: 1}

	runtime.EXPECT().Run(vm.CallContext{EntryPoint: InitEntryPoint, Caller: owner}).Return(vm.CallResult{Success: true}, nil)

	client := newTestClient(t, runtime)
	if err := client.Initialize(owner); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestClient_ViewResultsAreDecoded(t *testing.T) {
	ctrl := gomock.NewController(t)
	runtime := vm.NewMockRuntime(ctrl)
	runtime.EXPECT().Run(gomock.Any()).Return(vm.CallResult{Success: true, ReturnData: word(40000)}, nil)

	client := newTestClient(t, runtime)
	supply, err := client.TotalSupply()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want, got := "40000", supply.String(); want != got {
		t.Errorf("unexpected total supply, want %s, got %s", want, got)
	}
}

func TestClient_RevertsAreReported(t *testing.T) {
	ctrl := gomock.NewController(t)
	runtime := vm.NewMockRuntime(ctrl)
	runtime.EXPECT().Run(gomock.Any()).Return(vm.CallResult{Success: false, GasUsed: 50}, nil).Times(2)

	client := newTestClient(t, runtime)
	if err := client.Transfer(vm.Address{1}, vm.Address{2}, uint256.NewInt(1)); !errors.Is(err, ErrReverted) {
		t.Errorf("unexpected error, want %v, got %v", ErrReverted, err)
	}
	if _, err := client.BalanceOf(vm.Address{1}); !errors.Is(err, ErrReverted) {
		t.Errorf("unexpected error, want %v, got %v", ErrReverted, err)
	}
	if want, got := vm.Gas(50), client.GasUsage()["transfer"].Total; want != got {
		t.Errorf("gas of reverted calls should be recorded, want %d, got %d", want, got)
	}
}

func TestClient_RuntimeErrorsArePropagated(t *testing.T) {
	ctrl := gomock.NewController(t)
	runtime := vm.NewMockRuntime(ctrl)
	injected := errors.New("injected error")
	runtime.EXPECT().Run(gomock.Any()).Return(vm.CallResult{}, injected)

	client := newTestClient(t, runtime)
	if err := client.Mint(vm.Address{1}, vm.Address{2}, uint256.NewInt(1)); !errors.Is(err, injected) {
		t.Errorf("unexpected error, want %v, got %v", injected, err)
	}
	if len(client.GasUsage()) != 0 {
		t.Errorf("failed runs should not be accounted")
	}
}

func TestClient_UpdatesRequireTrueResult(t *testing.T) {
	tests := map[string]vm.Data{
		"false":   word(0),
		"missing": nil,
		"invalid": word(2),
	}
	for name, result := range tests {
		t.Run(name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			runtime := vm.NewMockRuntime(ctrl)
			runtime.EXPECT().Run(gomock.Any()).Return(vm.CallResult{Success: true, ReturnData: result}, nil)

			client := newTestClient(t, runtime)
			if err := client.Approve(vm.Address{1}, vm.Address{2}, uint256.NewInt(1)); err == nil {
				t.Errorf("expected an error for result %v", result)
			}
		})
	}
}

func TestClient_GasUsageIsLogged(t *testing.T) {
	ctrl := gomock.NewController(t)
	runtime := vm.NewMockRuntime(ctrl)
	runtime.EXPECT().Run(gomock.Any()).Return(vm.CallResult{Success: true, ReturnData: word(0), GasUsed: 2345}, nil)

	var buffer bytes.Buffer
	client, err := NewClient(runtime, log.NewLogger(log.NewTerminalHandler(&buffer, false)))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	if _, err := client.TotalSupply(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	output := buffer.String()
	for _, want := range []string{"Gas used", "function=totalSupply", "gas=2345"} {
		if !strings.Contains(output, want) {
			t.Errorf("log does not contain %q:\n%s", want, output)
		}
	}
}
