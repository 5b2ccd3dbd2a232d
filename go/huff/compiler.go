// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package huff

import (
	"encoding/binary"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/Fantom-foundation/simpletoken/go/vm"
	geth "github.com/ethereum/go-ethereum/core/vm"
	"github.com/holiman/uint256"
)

// Compile produces the byte code of the full expansion of the named macro.
// The given prelude is placed in front of the expansion and jump
// destinations are offset accordingly.
func (p *Program) Compile(name string, prelude vm.Code) (vm.Code, error) {
	macro, found := p.macros[name]
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMacro, name)
	}
	e := &emitter{
		program: p,
		code:    slices.Clone(prelude),
	}
	if err := e.expand(macro, nil); err != nil {
		return nil, err
	}
	if err := e.resolve(); err != nil {
		return nil, err
	}
	return e.code, nil
}

// Prelude produces code establishing the given initial memory and stack
// state. Memory words are stored first, then the stack words are pushed in
// order, such that the last one ends up on top.
func Prelude(memory []vm.MemoryEntry, stack []vm.Word) vm.Code {
	var code vm.Code
	for _, entry := range memory {
		code = appendPush32(code, entry.Value)
		code = appendPush(code, uint256.NewInt(uint64(entry.Offset)))
		code = append(code, byte(geth.MSTORE))
	}
	for _, word := range stack {
		code = appendPush32(code, word)
	}
	return code
}

// labelScope holds the labels of a single macro expansion.
type labelScope struct {
	parent *labelScope
	labels map[string]int
}

func (s *labelScope) lookup(name string) (int, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if pos, found := cur.labels[name]; found {
			return pos, true
		}
	}
	return 0, false
}

// jumpFixup records the position of a PUSH2 waiting for its label.
type jumpFixup struct {
	offset int
	label  string
	scope  *labelScope
	pos    Position
}

type emitter struct {
	program   *Program
	code      vm.Code
	fixups    []jumpFixup
	expanding []string
}

func (e *emitter) expand(macro *Macro, parent *labelScope) error {
	if slices.Contains(e.expanding, macro.Name) {
		chain := append(slices.Clone(e.expanding), macro.Name)
		return &Error{Pos: macro.Pos, Msg: fmt.Sprintf("recursive macro expansion %s", strings.Join(chain, " -> "))}
	}
	e.expanding = append(e.expanding, macro.Name)
	defer func() { e.expanding = e.expanding[:len(e.expanding)-1] }()

	scope := &labelScope{parent: parent, labels: map[string]int{}}
	for _, statement := range macro.Body {
		switch statement.Kind {
		case OpStatement:
			e.code = append(e.code, byte(statement.Op))

		case LiteralStatement:
			e.code = appendPush(e.code, statement.Value)

		case ConstantStatement:
			value, found := e.program.constants[statement.Name]
			if !found {
				return &Error{Pos: statement.Pos, Msg: fmt.Sprintf("undefined constant %s", statement.Name)}
			}
			e.code = appendPush(e.code, value)

		case LabelStatement:
			if _, found := scope.labels[statement.Name]; found {
				return &Error{Pos: statement.Pos, Msg: fmt.Sprintf("label %s redefined in macro %s", statement.Name, macro.Name)}
			}
			scope.labels[statement.Name] = len(e.code)
			e.code = append(e.code, byte(geth.JUMPDEST))

		case LabelRefStatement:
			e.fixups = append(e.fixups, jumpFixup{
				offset: len(e.code),
				label:  statement.Name,
				scope:  scope,
				pos:    statement.Pos,
			})
			e.code = append(e.code, byte(geth.PUSH2), 0, 0)

		case MacroCallStatement:
			callee, found := e.program.macros[statement.Name]
			if !found {
				return &Error{Pos: statement.Pos, Msg: fmt.Sprintf("undefined macro %s", statement.Name)}
			}
			if err := e.expand(callee, scope); err != nil {
				return err
			}

		default:
			return &Error{Pos: statement.Pos, Msg: fmt.Sprintf("unsupported statement kind %d", statement.Kind)}
		}
	}
	return nil
}

// resolve patches all label references with their jump destinations.
func (e *emitter) resolve() error {
	for _, fixup := range e.fixups {
		target, found := fixup.scope.lookup(fixup.label)
		if !found {
			return &Error{Pos: fixup.pos, Msg: fmt.Sprintf("undefined label or opcode %s", fixup.label)}
		}
		if target > math.MaxUint16 {
			return &Error{Pos: fixup.pos, Msg: fmt.Sprintf("jump destination %s at %d out of PUSH2 range", fixup.label, target)}
		}
		binary.BigEndian.PutUint16(e.code[fixup.offset+1:], uint16(target))
	}
	return nil
}

// appendPush appends the shortest PUSH instruction for the given value.
// Zero is pushed as PUSH1 0 to stay valid on pre-Shanghai revisions.
func appendPush(code vm.Code, value *uint256.Int) vm.Code {
	size := max(value.ByteLen(), 1)
	bytes := value.Bytes32()
	code = append(code, byte(geth.PUSH1)+byte(size-1))
	return append(code, bytes[32-size:]...)
}

func appendPush32(code vm.Code, word vm.Word) vm.Code {
	code = append(code, byte(geth.PUSH32))
	return append(code, word[:]...)
}
