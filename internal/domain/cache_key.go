package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// RouteCacheKey fingerprints an optimization request. The same origin and
// customer set always hash to the same key regardless of request order or
// repeated ids, so identical work within the TTL window is deduplicated.
func RouteCacheKey(origin string, customerIDs []string) string {
	seen := make(map[string]struct{}, len(customerIDs))
	ids := make([]string, 0, len(customerIDs))
	for _, id := range customerIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	sum := sha256.Sum256([]byte(origin + "_" + strings.Join(ids, "_")))
	return hex.EncodeToString(sum[:])
}
