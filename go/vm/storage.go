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

//go:generate mockgen -source storage.go -destination storage_mock.go -package vm

// Storage provides direct access to the persistent storage of the contract
// a Runtime is operating on. It bypasses contract code and is intended for
// inspecting and seeding state in tests and tools.
type Storage interface {
	GetStorage(Key) Word
	SetStorage(Key, Word)
}
