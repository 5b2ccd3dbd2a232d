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
	"errors"
	"fmt"
	"slices"

	"github.com/Fantom-foundation/simpletoken/go/huff"
	"github.com/Fantom-foundation/simpletoken/go/vm"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/tracing"
	geth "github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/core/vm/runtime"
	"github.com/ethereum/go-ethereum/log"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Runtime executes macros of a program on a VM instance. Every run compiles
// the requested entry point behind a prelude establishing the initial memory
// and stack, installs the result on the contract account and calls it.
//
// Runs must be performed sequentially; the VM state is shared among them.
type Runtime struct {
	program *huff.Program
	vm      *VM
	config  Config
	log     log.Logger
	cache   *lru.Cache[cacheKey, vm.Code]
}

var _ vm.Runtime = (*Runtime)(nil)

// cacheKey identifies a compiled entry point. The prelude is part of the key
// since it shifts all jump destinations of the entry point.
type cacheKey struct {
	entryPoint string
	prelude    string
}

// NewRuntime creates a runtime executing the given program on the given VM.
func NewRuntime(program *huff.Program, instance *VM, config Config) (*Runtime, error) {
	if program == nil || instance == nil {
		return nil, fmt.Errorf("program and VM instance are required")
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	if config.CacheSize == 0 {
		config.CacheSize = defaultCacheSize
	}
	logger := config.Logger
	if logger == nil {
		logger = log.Root()
	}

	var cache *lru.Cache[cacheKey, vm.Code]
	if config.CacheSize > 0 {
		var err error
		cache, err = lru.New[cacheKey, vm.Code](config.CacheSize)
		if err != nil {
			return nil, err
		}
	}
	return &Runtime{
		program: program,
		vm:      instance,
		config:  config,
		log:     logger,
		cache:   cache,
	}, nil
}

// VM returns the instance runs are performed on.
func (r *Runtime) VM() *VM {
	return r.vm
}

// Compile returns the byte code executed for the given entry point and
// initial state.
func (r *Runtime) Compile(entryPoint string, memory []vm.MemoryEntry, stack []vm.Word) (vm.Code, error) {
	prelude := huff.Prelude(memory, stack)
	key := cacheKey{entryPoint: entryPoint, prelude: string(prelude)}
	if r.cache != nil {
		if code, found := r.cache.Get(key); found {
			return code, nil
		}
	}
	code, err := r.program.Compile(entryPoint, prelude)
	if err != nil {
		return nil, fmt.Errorf("failed to compile %s: %w", entryPoint, err)
	}
	if r.cache != nil {
		r.cache.Add(key, code)
	}
	return code, nil
}

// Run executes the entry point named in the call context.
func (r *Runtime) Run(call vm.CallContext) (vm.CallResult, error) {
	input, err := vm.EncodeCallData(call.CallData)
	if err != nil {
		return vm.CallResult{}, err
	}
	code, err := r.Compile(call.EntryPoint, call.InitialMemory, call.InitialStack)
	if err != nil {
		return vm.CallResult{}, err
	}

	state := r.vm.state
	state.SetCode(r.vm.contract, code)

	caller := common.Address(call.Caller)
	value := call.CallValue.ToUint256()
	if balance := state.GetBalance(caller); balance.Lt(value) {
		state.AddBalance(caller, value.Sub(value, balance), tracing.BalanceChangeUnspecified)
	}

	tracer := newStepTracer(r.log, r.config.Trace)
	output, gasLeft, err := runtime.Call(r.vm.contract, input, &runtime.Config{
		ChainConfig: r.vm.chainConfig,
		Origin:      caller,
		GasLimit:    r.config.GasLimit,
		Value:       call.CallValue.ToBig(),
		State:       state,
		EVMConfig:   geth.Config{Tracer: tracer.hooks()},
	})

	result := vm.CallResult{
		Success:    true,
		Stack:      tracer.finalStack(),
		Memory:     tracer.finalMemory(),
		GasUsed:    vm.Gas(r.config.GasLimit - gasLeft),
		Bytecode:   slices.Clone(code),
		ReturnData: vm.Data(output),
	}
	if err == nil {
		return result, nil
	}
	if isExecutionFailure(err) {
		result.Success = false
		if r.config.Trace {
			r.log.Info("Execution failed", "entry", call.EntryPoint, "err", err)
		}
		return result, nil
	}
	return vm.CallResult{}, fmt.Errorf("internal EVM error in geth: %w", err)
}

// isExecutionFailure reports whether the error is caused by the executed
// code and should thus be reported as a failed execution rather than an
// error of the runtime.
func isExecutionFailure(err error) bool {
	switch {
	case errors.Is(err, geth.ErrExecutionReverted),
		errors.Is(err, geth.ErrOutOfGas),
		errors.Is(err, geth.ErrCodeStoreOutOfGas),
		errors.Is(err, geth.ErrDepth),
		errors.Is(err, geth.ErrInsufficientBalance),
		errors.Is(err, geth.ErrInvalidJump),
		errors.Is(err, geth.ErrWriteProtection),
		errors.Is(err, geth.ErrReturnDataOutOfBounds),
		errors.Is(err, geth.ErrGasUintOverflow),
		errors.Is(err, geth.ErrInvalidCode):
		return true
	}
	var (
		overflow  *geth.ErrStackOverflow
		underflow *geth.ErrStackUnderflow
		invalid   *geth.ErrInvalidOpCode
	)
	return errors.As(err, &overflow) || errors.As(err, &underflow) || errors.As(err, &invalid)
}
