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

import (
	"fmt"
	"slices"
)

// CallDataEntry places the lowest Length bytes of Value, in big-endian order,
// at the given byte Offset of the call data.
type CallDataEntry struct {
	Offset int
	Value  Word
	Length int
}

func (e CallDataEntry) String() string {
	size := min(max(e.Length, 0), len(e.Value))
	return fmt.Sprintf("[%d:%d]=0x%x", e.Offset, e.Offset+e.Length, e.Value[len(e.Value)-size:])
}

// EncodeCallData assembles the raw call data described by the given entries.
// Bytes not covered by any entry are zero. Entries must not overlap, have a
// length between 1 and 32 bytes, and hold values fitting into their length.
func EncodeCallData(entries []CallDataEntry) (Data, error) {
	sorted := slices.Clone(entries)
	slices.SortFunc(sorted, func(a, b CallDataEntry) int {
		return a.Offset - b.Offset
	})

	size := 0
	for i, entry := range sorted {
		if entry.Offset < 0 {
			return nil, fmt.Errorf("invalid call data entry: negative offset %d", entry.Offset)
		}
		if entry.Length < 1 || entry.Length > 32 {
			return nil, fmt.Errorf("invalid call data entry at offset %d: length %d not in [1,32]", entry.Offset, entry.Length)
		}
		for _, b := range entry.Value[:32-entry.Length] {
			if b != 0 {
				return nil, fmt.Errorf("invalid call data entry at offset %d: value %v exceeds %d bytes", entry.Offset, entry.Value, entry.Length)
			}
		}
		if i > 0 {
			prev := sorted[i-1]
			if prev.Offset+prev.Length > entry.Offset {
				return nil, fmt.Errorf("overlapping call data entries %v and %v", prev, entry)
			}
		}
		size = max(size, entry.Offset+entry.Length)
	}

	data := make(Data, size)
	for _, entry := range sorted {
		copy(data[entry.Offset:], entry.Value[32-entry.Length:])
	}
	return data, nil
}
