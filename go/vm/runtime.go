// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package vm

//go:generate mockgen -source runtime.go -destination runtime_mock.go -package vm

// Runtime is the entry point for invoking routines of a compiled contract on
// a virtual machine instance. Each Run compiles (or fetches from a cache) the
// requested entry point, executes it against the persistent state of the VM
// the runtime is bound to, and reports the final machine state.
//
// The resulting error is nil whenever the code was executed, even if the
// execution was aborted by the code itself (e.g. a REVERT). Such aborts are
// reported through the Success flag of the result. A non-nil error signals a
// problem in compiling the entry point or in setting up the VM; in that case
// the result is undefined.
//
// Runs mutate shared VM state and are thus expected to be issued
// sequentially.
type Runtime interface {
	Run(CallContext) (CallResult, error)
}

// CallContext summarizes the inputs of a single entry point invocation.
type CallContext struct {
	EntryPoint    string          // name of the contract routine to run
	InitialStack  []Word          // stack content at start, bottom first
	InitialMemory []MemoryEntry   // memory words stored before the routine starts
	CallData      []CallDataEntry // layout of the call's input
	CallValue     Value           // wei sent along with the call
	Caller        Address
}

// CallResult summarizes the outcome of an entry point invocation.
type CallResult struct {
	Success    bool          // false if the execution ended in a revert or fault
	Stack      []Word        // stack at the terminating instruction, bottom first
	Memory     []MemoryEntry // memory at the terminating instruction, in words
	GasUsed    Gas
	Bytecode   Code // the executed code, including the initial state prelude
	ReturnData Data
}

// MemoryEntry is a 32-byte word placed at a byte offset in memory.
type MemoryEntry struct {
	Offset int
	Value  Word
}

// MemoryFromBytes splits a memory snapshot into word-sized entries. A
// trailing partial word is zero-padded.
func MemoryFromBytes(memory []byte) []MemoryEntry {
	res := make([]MemoryEntry, 0, (len(memory)+31)/32)
	for offset := 0; offset < len(memory); offset += 32 {
		entry := MemoryEntry{Offset: offset}
		copy(entry.Value[:], memory[offset:min(offset+32, len(memory))])
		res = append(res, entry)
	}
	return res
}
