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
	"testing"

	"github.com/Fantom-foundation/simpletoken/go/vm"
	"github.com/holiman/uint256"
)

func newTestEncoder(t *testing.T) *Encoder {
	t.Helper()
	encoder, err := NewEncoder()
	if err != nil {
		t.Fatalf("failed to create encoder: %v", err)
	}
	return encoder
}

func TestEncoder_SelectorsMatchConstants(t *testing.T) {
	encoder := newTestEncoder(t)
	tests := map[string]Selector{
		"totalSupply":  TotalSupply,
		"balanceOf":    BalanceOf,
		"transfer":     Transfer,
		"mint":         Mint,
		"allowance":    GetAllowance,
		"approve":      Approve,
		"transferFrom": TransferFrom,
	}
	for method, want := range tests {
		got, err := encoder.Selector(method)
		if err != nil {
			t.Fatalf("failed to get selector of %s: %v", method, err)
		}
		if want != got {
			t.Errorf("unexpected selector of %s, want %v, got %v", method, want, got)
		}
	}
	if _, err := encoder.Selector("burn"); err == nil {
		t.Errorf("unknown methods should be reported")
	}
}

func TestEncoder_MatchesBuild(t *testing.T) {
	encoder := newTestEncoder(t)
	owner := vm.Address{0: 0x11, 19: 0x22}
	spender := vm.Address{5: 0x33}
	amount := uint256.NewInt(16000)
	large := new(uint256.Int).Lsh(uint256.NewInt(1), 255)

	type encoding func() ([]vm.CallDataEntry, error)
	tests := map[string]struct {
		typed encoding
		raw   []vm.CallDataEntry
	}{
		"totalSupply": {
			encoder.TotalSupply,
			Build(TotalSupply),
		},
		"balanceOf": {
			func() ([]vm.CallDataEntry, error) { return encoder.BalanceOf(owner) },
			Build(BalanceOf, owner.ToWord()),
		},
		"transfer": {
			func() ([]vm.CallDataEntry, error) { return encoder.Transfer(spender, amount) },
			Build(Transfer, spender.ToWord(), vm.WordFromUint256(amount)),
		},
		"mint": {
			func() ([]vm.CallDataEntry, error) { return encoder.Mint(owner, large) },
			Build(Mint, owner.ToWord(), vm.WordFromUint256(large)),
		},
		"allowance": {
			func() ([]vm.CallDataEntry, error) { return encoder.GetAllowance(owner, spender) },
			Build(GetAllowance, owner.ToWord(), spender.ToWord()),
		},
		"approve": {
			func() ([]vm.CallDataEntry, error) { return encoder.Approve(spender, amount) },
			Build(Approve, spender.ToWord(), vm.WordFromUint256(amount)),
		},
		"transferFrom": {
			func() ([]vm.CallDataEntry, error) { return encoder.TransferFrom(owner, spender, amount) },
			Build(TransferFrom, owner.ToWord(), spender.ToWord(), vm.WordFromUint256(amount)),
		},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			entries, err := test.typed()
			if err != nil {
				t.Fatalf("failed to encode: %v", err)
			}
			got, err := vm.EncodeCallData(entries)
			if err != nil {
				t.Fatalf("invalid entries: %v", err)
			}
			want, err := vm.EncodeCallData(test.raw)
			if err != nil {
				t.Fatalf("invalid entries: %v", err)
			}
			if !bytes.Equal(want, got) {
				t.Errorf("unexpected call data, want %v, got %v", want, got)
			}
		})
	}
}

func TestEncoder_RejectsMismatchingArguments(t *testing.T) {
	encoder := newTestEncoder(t)
	if _, err := encoder.Encode("transfer", "not an address"); err == nil {
		t.Errorf("invalid arguments should be rejected")
	}
	if _, err := encoder.Encode("burn"); err == nil {
		t.Errorf("unknown methods should be rejected")
	}
}

func TestEncoder_DecodeBool(t *testing.T) {
	encoder := newTestEncoder(t)
	one := vm.NewWord(1)
	res, err := encoder.DecodeBool("transfer", one[:])
	if err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if !res {
		t.Errorf("unexpected result, want true, got false")
	}

	two := vm.NewWord(2)
	if _, err := encoder.DecodeBool("approve", two[:]); err == nil {
		t.Errorf("improper boolean encoding should be rejected")
	}
	if _, err := encoder.DecodeBool("totalSupply", one[:]); err == nil {
		t.Errorf("non-boolean results should be rejected")
	}
	if _, err := encoder.DecodeBool("transfer", nil); err == nil {
		t.Errorf("missing results should be rejected")
	}
}
