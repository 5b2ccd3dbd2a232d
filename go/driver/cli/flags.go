// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package cliUtils

import (
	"fmt"
	"os"
	"runtime/pprof"

	"github.com/Fantom-foundation/simpletoken/go/huff"
	"github.com/Fantom-foundation/simpletoken/go/token"
	"github.com/Fantom-foundation/simpletoken/go/vm/geth"
	"github.com/urfave/cli/v2"
)

type sourceFlagType struct {
	cli.StringFlag
}

var SourceFlag = &sourceFlagType{
	cli.StringFlag{
		Name:      "source",
		Aliases:   []string{"s"},
		Usage:     "macro assembly source to use instead of the built-in token contract",
		TakesFile: true,
	},
}

// Fetch parses the selected source file or, if none is given, the built-in
// token contract.
func (f *sourceFlagType) Fetch(context *cli.Context) (*huff.Program, error) {
	if path := context.String(f.Name); path != "" {
		return huff.ParseFile(path)
	}
	return token.Program()
}

type traceFlagType struct {
	cli.BoolFlag
}

var TraceFlag = &traceFlagType{
	cli.BoolFlag{
		Name:  "trace",
		Usage: "log every executed instruction together with the stack",
	},
}

func (f *traceFlagType) Fetch(context *cli.Context) bool {
	return context.Bool(f.Name)
}

type gasLimitFlagType struct {
	cli.Uint64Flag
}

var GasLimitFlag = &gasLimitFlagType{
	cli.Uint64Flag{
		Name:  "gas-limit",
		Usage: "gas provided to every call",
		Value: geth.DefaultConfig().GasLimit,
	},
}

func (f *gasLimitFlagType) Fetch(context *cli.Context) uint64 {
	return context.Uint64(f.Name)
}

type seedFlagType struct {
	cli.Uint64Flag
}

var SeedFlag = &seedFlagType{
	cli.Uint64Flag{
		Name:  "seed",
		Usage: "seed for the generation of account addresses",
	},
}

func (f *seedFlagType) Fetch(context *cli.Context) uint64 {
	return context.Uint64(f.Name)
}

type disassembleFlagType struct {
	cli.BoolFlag
}

var DisassembleFlag = &disassembleFlagType{
	cli.BoolFlag{
		Name:    "disassemble",
		Aliases: []string{"d"},
		Usage:   "print one instruction per line instead of hex encoded byte code",
	},
}

func (f *disassembleFlagType) Fetch(context *cli.Context) bool {
	return context.Bool(f.Name)
}

var commonFlags = []cli.Flag{
	cpuProfileFlag,
}

var cpuProfileFlag = &cli.StringFlag{
	Name:      "cpuprofile",
	Usage:     "store CPU profile in the provided filename",
	TakesFile: true,
}

// AddCommonFlags extends the given command by flags shared by all commands.
func AddCommonFlags(command cli.Command) cli.Command {
	command.Flags = append(command.Flags, commonFlags...)

	action := command.Action
	command.Action = func(ctx *cli.Context) (err error) {
		if cpuprofileFilename := ctx.String(cpuProfileFlag.Name); cpuprofileFilename != "" {
			f, err := os.Create(cpuprofileFilename)
			if err != nil {
				return fmt.Errorf("could not create CPU profile: %w", err)
			}
			if err := pprof.StartCPUProfile(f); err != nil {
				return fmt.Errorf("could not start CPU profile: %w", err)
			}
			defer pprof.StopCPUProfile()
		}
		return action(ctx)
	}
	return command
}
