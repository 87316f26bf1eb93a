// Package all registers every storage backend for binaries that want the
// full menu.
package all

import (
	// storage backends
	_ "github.com/GateproofHQ/gateproof/lib/store/bbolt"
	_ "github.com/GateproofHQ/gateproof/lib/store/memory"
	_ "github.com/GateproofHQ/gateproof/lib/store/valkey"
)
