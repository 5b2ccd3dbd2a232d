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
	"fmt"
	"math"

	"github.com/ethereum/go-ethereum/log"
)

// Config parameterizes a Runtime.
type Config struct {
	// Trace enables logging of every executed instruction together with the
	// current stack. It has no effect on results.
	Trace bool
	// GasLimit is the gas provided to every call.
	GasLimit uint64
	// CacheSize is the number of compiled entry points retained. Zero selects
	// the default, negative values disable caching.
	CacheSize int
	// Logger receives gas and trace output; defaults to the root logger.
	Logger log.Logger
}

// DefaultConfig returns the configuration used if none is specified.
func DefaultConfig() Config {
	return Config{
		GasLimit:  10_000_000,
		CacheSize: defaultCacheSize,
	}
}

const defaultCacheSize = 64

func (c Config) validate() error {
	if c.GasLimit == 0 || c.GasLimit > math.MaxInt64 {
		return fmt.Errorf("invalid gas limit %d", c.GasLimit)
	}
	return nil
}
