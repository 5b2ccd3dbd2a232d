// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"fmt"
	"io"
	"strings"

	cliUtils "github.com/Fantom-foundation/simpletoken/go/driver/cli"
	"github.com/Fantom-foundation/simpletoken/go/vm"
	"github.com/ethereum/go-ethereum/core/asm"
	"github.com/urfave/cli/v2"
)

var CompileCmd = cliUtils.AddCommonFlags(cli.Command{
	Action:    doCompile,
	Name:      "compile",
	Usage:     "Compiles a macro into EVM byte code",
	ArgsUsage: "<MACRO>",
	Flags: []cli.Flag{
		cliUtils.SourceFlag,
		cliUtils.DisassembleFlag,
	},
})

func doCompile(context *cli.Context) error {
	program, err := cliUtils.SourceFlag.Fetch(context)
	if err != nil {
		return err
	}

	name := context.Args().First()
	if _, found := program.Macro(name); !found {
		return fmt.Errorf("unknown macro %q, available macros: %s", name, strings.Join(program.MacroNames(), ", "))
	}
	code, err := program.Compile(name, nil)
	if err != nil {
		return err
	}

	out := context.App.Writer
	if !cliUtils.DisassembleFlag.Fetch(context) {
		_, err := fmt.Fprintln(out, code)
		return err
	}
	return disassemble(out, code)
}

// disassemble prints one instruction per line, prefixed by its position.
func disassemble(out io.Writer, code vm.Code) error {
	it := asm.NewInstructionIterator(code)
	for it.Next() {
		if arg := it.Arg(); len(arg) > 0 {
			fmt.Fprintf(out, "%05x: %v 0x%x\n", it.PC(), it.Op(), arg)
		} else {
			fmt.Fprintf(out, "%05x: %v\n", it.PC(), it.Op())
		}
	}
	return it.Error()
}
