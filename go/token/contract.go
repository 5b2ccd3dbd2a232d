// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package token drives the SimpleToken contract, an ERC20 style token whose
// supply can only be extended by its owner.
package token

import (
	_ "embed"

	"github.com/Fantom-foundation/simpletoken/go/huff"
)

//go:embed simpletoken.huff
var source string

// Entry points of the contract.
const (
	// InitEntryPoint establishes the caller as the owner of a fresh token.
	InitEntryPoint = "ERC20"
	// MainEntryPoint dispatches calls on their function selector.
	MainEntryPoint = "ERC20__MAIN"
)

// Source returns the macro assembly source of the contract.
func Source() string {
	return source
}

// Program parses the contract source.
func Program() (*huff.Program, error) {
	return huff.Parse(source)
}
