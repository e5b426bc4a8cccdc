package transmit

import "strings"

// JoinEndpoint concatenates a base address with an optional suffix path,
// guaranteeing exactly one slash at the boundary regardless of whether either
// input already carries one. No other normalization is performed.
func JoinEndpoint(base, suffix string) string {
	if suffix == "" {
		return base
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(suffix, "/")
}
