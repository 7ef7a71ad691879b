package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   Page
		want Page
	}{
		{"zero value applies defaults", Page{}, Page{Limit: DefaultLimit, Offset: 0}},
		{"negative limit applies default", Page{Limit: -5}, Page{Limit: DefaultLimit}},
		{"limit above max is clamped", Page{Limit: 1000}, Page{Limit: MaxLimit}},
		{"negative offset is clamped", Page{Limit: 20, Offset: -1}, Page{Limit: 20, Offset: 0}},
		{"valid page unchanged", Page{Limit: 25, Offset: 50}, Page{Limit: 25, Offset: 50}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize())
		})
	}
}
