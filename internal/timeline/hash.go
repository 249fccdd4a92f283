// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package timeline

import (
	"hash/fnv"
	"time"

	"github.com/pdiddy/auditverse-convert/pkg/types"
)

// StableHash returns the 32-bit FNV-1a hash of the UTF-8 bytes of id. It is
// the only source of pseudo-randomness in synthesized dates, so output is
// identical across runs and machines.
func StableHash(id string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(id))
	return h.Sum32()
}

// offsetDays maps id onto [0, window) days.
func offsetDays(id types.EntityID, window int) int {
	return int(StableHash(string(id)) % uint32(window))
}

// spread returns epoch shifted by the id's offset within window days.
func spread(epoch time.Time, id types.EntityID, window int) time.Time {
	return epoch.AddDate(0, 0, offsetDays(id, window))
}
