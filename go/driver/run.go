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
	"sort"
	"time"

	cliUtils "github.com/Fantom-foundation/simpletoken/go/driver/cli"
	"github.com/Fantom-foundation/simpletoken/go/token"
	"github.com/Fantom-foundation/simpletoken/go/vm"
	"github.com/Fantom-foundation/simpletoken/go/vm/geth"
	"github.com/dsnet/golib/unitconv"
	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"
	"golang.org/x/exp/maps"
	"pgregory.net/rand"
)

var RunCmd = cliUtils.AddCommonFlags(cli.Command{
	Action:    doRun,
	Name:      "run",
	Usage:     "Runs a scenario against the token contract",
	ArgsUsage: "[scenario.json]",
	Flags: []cli.Flag{
		cliUtils.SourceFlag,
		cliUtils.TraceFlag,
		cliUtils.GasLimitFlag,
		cliUtils.SeedFlag,
	},
})

func doRun(context *cli.Context) error {
	program, err := cliUtils.SourceFlag.Fetch(context)
	if err != nil {
		return err
	}

	scenario := token.DefaultScenario()
	if path := context.Args().First(); path != "" {
		scenario, err = token.ReadScenarioFile(path)
		if err != nil {
			return err
		}
	}

	logger := log.NewLogger(log.NewTerminalHandlerWithLevel(context.App.ErrWriter, log.LevelInfo, false))
	instance, err := geth.NewVM()
	if err != nil {
		return err
	}
	config := geth.DefaultConfig()
	config.Trace = cliUtils.TraceFlag.Fetch(context)
	config.GasLimit = cliUtils.GasLimitFlag.Fetch(context)
	config.Logger = logger
	runtime, err := geth.NewRuntime(program, instance, config)
	if err != nil {
		return err
	}
	client, err := token.NewClient(runtime, logger)
	if err != nil {
		return err
	}

	seed := cliUtils.SeedFlag.Fetch(context)
	out := context.App.Writer
	fmt.Fprintf(out, "Running scenario with %d steps using seed %d ...\n", len(scenario.Steps), seed)
	start := time.Now()
	err = scenario.Run(client, rand.New(seed))
	printGasUsage(out, client.GasUsage(), time.Since(start))
	if err != nil {
		return fmt.Errorf("scenario failed: %w", err)
	}
	fmt.Fprintln(out, "Scenario passed")
	return nil
}

func printGasUsage(out io.Writer, usage map[string]token.GasUsage, duration time.Duration) {
	functions := maps.Keys(usage)
	sort.Strings(functions)

	calls := 0
	fmt.Fprintf(out, "%-14s %6s %8s %8s %8s\n", "function", "calls", "total", "average", "max")
	for _, function := range functions {
		current := usage[function]
		calls += current.Calls
		fmt.Fprintf(out, "%-14s %6d %8s %8s %8s\n",
			function, current.Calls,
			formatGas(current.Total),
			formatGas(current.Total/vm.Gas(max(current.Calls, 1))),
			formatGas(current.Max),
		)
	}
	rate := float64(calls) / max(duration.Seconds(), 1e-9)
	fmt.Fprintf(out, "Executed %d calls in %v, ~%s calls per second\n",
		calls, duration.Round(time.Millisecond), unitconv.FormatPrefix(rate, unitconv.SI, 0))
}

func formatGas(gas vm.Gas) string {
	return unitconv.FormatPrefix(float64(gas), unitconv.SI, 1)
}
