// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package geth

import (
	"strings"

	"github.com/Fantom-foundation/simpletoken/go/vm"
	"github.com/ethereum/go-ethereum/core/tracing"
	geth "github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/log"
)

// stepTracer follows the execution of the top-level frame and retains the
// stack and memory observed at the most recent instruction.
type stepTracer struct {
	log   log.Logger
	trace bool

	steps  int
	lastOp geth.OpCode
	stack  []vm.Word
	memory []byte
}

func newStepTracer(logger log.Logger, trace bool) *stepTracer {
	return &stepTracer{log: logger, trace: trace}
}

func (t *stepTracer) hooks() *tracing.Hooks {
	return &tracing.Hooks{OnOpcode: t.onOpcode}
}

func (t *stepTracer) onOpcode(pc uint64, op byte, gas, cost uint64, scope tracing.OpContext, _ []byte, depth int, _ error) {
	if depth != 1 {
		return
	}
	t.steps++
	t.lastOp = geth.OpCode(op)

	// Stack and memory are pooled by the interpreter and need to be copied.
	data := scope.StackData()
	t.stack = t.stack[:0]
	for i := range data {
		t.stack = append(t.stack, vm.Word(data[i].Bytes32()))
	}
	t.memory = append(t.memory[:0], scope.MemoryData()...)

	if t.trace {
		t.log.Info("Step", "pc", pc, "op", t.lastOp.String(), "gas", gas, "cost", cost, "stack", stackString(t.stack))
	}
}

// finalStack returns the stack as left behind by the terminating instruction.
// Observed stacks precede the execution of an instruction, so the operands
// consumed by a halting instruction are removed.
func (t *stepTracer) finalStack() []vm.Word {
	if t.steps == 0 {
		return nil
	}
	consumed := 0
	switch t.lastOp {
	case geth.RETURN, geth.REVERT:
		consumed = 2
	case geth.SELFDESTRUCT:
		consumed = 1
	}
	return append([]vm.Word(nil), t.stack[:max(len(t.stack)-consumed, 0)]...)
}

func (t *stepTracer) finalMemory() []vm.MemoryEntry {
	return vm.MemoryFromBytes(t.memory)
}

// stackString renders a stack top first, the way it is listed in macro
// stack comments.
func stackString(stack []vm.Word) string {
	var builder strings.Builder
	builder.WriteString("[")
	for i := len(stack) - 1; i >= 0; i-- {
		builder.WriteString(stack[i].ToUint256().Hex())
		if i > 0 {
			builder.WriteString(" ")
		}
	}
	builder.WriteString("]")
	return builder.String()
}
