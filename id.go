package omnirag

import (
	"strconv"
	"sync/atomic"
)

// sequentialIDs returns a generator of "<prefix>-1", "<prefix>-2", ...
// Production wiring replaces it with UUIDs; sequential IDs keep tests
// deterministic.
func sequentialIDs(prefix string) func() string {
	var n atomic.Uint64
	return func() string {
		return prefix + "-" + strconv.FormatUint(n.Add(1), 10)
	}
}
