package transmit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoinEndpoint(t *testing.T) {
	tests := []struct {
		name   string
		base   string
		suffix string
		want   string
	}{
		{"no suffix returns base unchanged", "https://h/p", "", "https://h/p"},
		{"trailing slash on base only", "https://h/p/", "s", "https://h/p/s"},
		{"leading slash on suffix only", "https://h/p", "/s", "https://h/p/s"},
		{"slash on both sides", "https://h/p/", "/s", "https://h/p/s"},
		{"no slash on either side", "https://h/p", "s", "https://h/p/s"},
		{"only one slash is stripped", "https://h/p//", "//s", "https://h/p///s"},
		{"base with trailing slash and no suffix", "https://h/p/", "", "https://h/p/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, JoinEndpoint(tt.base, tt.suffix))
		})
	}
}
