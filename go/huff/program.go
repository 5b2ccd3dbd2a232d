// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package huff compiles contracts written in a small dialect of the Huff
// macro assembly language into EVM byte code.
//
// A source file consists of constant and macro definitions:
//
//	#define constant OWNER_SLOT = 0x00
//
//	#define macro OWNER = takes(0) returns(1) {
//	    [OWNER_SLOT] sload
//	}
//
// Macro bodies are sequences of opcodes (case-insensitive mnemonics),
// numeric literals (pushed with the smallest fitting PUSH instruction),
// constant references ([NAME]), macro invocations (NAME()), label
// definitions (name:) and label references (name, pushed as PUSH2). Labels
// are scoped to a single macro expansion; references are resolved in the
// expansion they appear in first and then in the enclosing expansions.
//
// Any macro may serve as an entry point: compiling a macro produces the
// byte code of its full expansion.
package huff

import (
	"errors"
	"fmt"
	"os"
	"sort"

	geth "github.com/ethereum/go-ethereum/core/vm"
	"github.com/holiman/uint256"
	"golang.org/x/exp/maps"
)

// Program is a parsed macro assembly source.
type Program struct {
	macros    map[string]*Macro
	constants map[string]*uint256.Int
}

// Macro is a named, reusable sequence of statements.
type Macro struct {
	Name    string
	Takes   int
	Returns int
	Body    []Statement
	Pos     Position
}

// StatementKind enumerates the kinds of statements in a macro body.
type StatementKind int

const (
	OpStatement        StatementKind = iota // a plain opcode
	LiteralStatement                        // push of a numeric literal
	ConstantStatement                       // push of a named constant
	LabelStatement                          // jump destination definition
	LabelRefStatement                       // push of a jump destination
	MacroCallStatement                      // inline expansion of another macro
)

// Statement is a single element of a macro body. Depending on the kind
// either Op, Value, or Name is set.
type Statement struct {
	Kind  StatementKind
	Op    geth.OpCode
	Value *uint256.Int
	Name  string
	Pos   Position
}

// Error is a compilation error, optionally located in the source.
type Error struct {
	Pos Position
	Msg string
}

func (e *Error) Error() string {
	if e.Pos.Line == 0 {
		return e.Msg
	}
	return fmt.Sprintf("%v: %s", e.Pos, e.Msg)
}

// ErrUnknownMacro is reported when compiling a macro that is not defined.
var ErrUnknownMacro = errors.New("unknown macro")

// ParseFile reads and parses the macro assembly source at the given path.
func ParseFile(path string) (*Program, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	program, err := Parse(string(source))
	if err != nil {
		return nil, fmt.Errorf("%s:%w", path, err)
	}
	return program, nil
}

// Macro returns the macro defined under the given name.
func (p *Program) Macro(name string) (*Macro, bool) {
	macro, found := p.macros[name]
	return macro, found
}

// Constant returns the value of the constant defined under the given name.
func (p *Program) Constant(name string) (*uint256.Int, bool) {
	value, found := p.constants[name]
	if !found {
		return nil, false
	}
	return value.Clone(), true
}

// MacroNames lists the names of all defined macros in alphabetical order.
func (p *Program) MacroNames() []string {
	names := maps.Keys(p.macros)
	sort.Strings(names)
	return names
}
