package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		prefix  string
		wantLen int
	}{
		{
			name:    "valid",
			prefix:  "st",
			wantLen: Len + len("st_"),
		},
		{
			name:    "no-prefix",
			prefix:  "",
			wantLen: Len,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert, require := assert.New(t), require.New(t)
			got, err := New(tt.prefix)
			require.NoError(err)
			assert.Len(got, tt.wantLen)
			if tt.prefix != "" {
				assert.True(strings.HasPrefix(got, tt.prefix+"_"))
			}
			assert.NotContains(strings.TrimPrefix(got, tt.prefix+"_"), "-")

			again, err := New(tt.prefix)
			require.NoError(err)
			assert.NotEqual(got, again)
		})
	}
}
