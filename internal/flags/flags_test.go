package flags

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/langarchive/catalog/internal/log"
)

func TestRegistry_Enabled(t *testing.T) {
	tests := []struct {
		name     string
		registry *Registry
		flag     string
		expected bool
	}{
		{
			name:     "known flag set to true returns true",
			registry: New(map[string]bool{FlagWordDiff: true}),
			flag:     FlagWordDiff,
			expected: true,
		},
		{
			name:     "known flag set to false returns false",
			registry: New(map[string]bool{FlagXLSXImport: false}),
			flag:     FlagXLSXImport,
			expected: false,
		},
		{
			name:     "absent flag returns false",
			registry: New(map[string]bool{FlagWordDiff: true}),
			flag:     FlagXLSXImport,
			expected: false,
		},
		{
			name:     "nil registry returns false",
			registry: nil,
			flag:     FlagWordDiff,
			expected: false,
		},
		{
			name:     "nil flags map returns false",
			registry: New(nil),
			flag:     FlagWordDiff,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.registry.Enabled(tt.flag))
		})
	}
}

func TestRegistry_All_ReturnsCopy(t *testing.T) {
	r := New(map[string]bool{FlagWordDiff: true})

	all := r.All()
	all[FlagWordDiff] = false
	all[FlagXLSXImport] = true

	require.True(t, r.Enabled(FlagWordDiff))
	require.False(t, r.Enabled(FlagXLSXImport))
	require.Equal(t, map[string]bool{FlagWordDiff: true}, r.All())
}

func TestRegistry_All_NilRegistry(t *testing.T) {
	var r *Registry
	require.NotNil(t, r.All())
	require.Empty(t, r.All())
}

func TestNew_WarnsOnUnknownFlags(t *testing.T) {
	var buf bytes.Buffer
	log.InitWriter(&buf, log.LevelWarn)
	t.Cleanup(func() { log.SetEnabled(false) })

	New(map[string]bool{"formula-bar": true, FlagWordDiff: true})

	require.Contains(t, buf.String(), "Unknown feature flag in config flag=formula-bar")
	require.NotContains(t, buf.String(), "flag="+FlagWordDiff)
}

func TestKnown(t *testing.T) {
	require.ElementsMatch(t, []string{"word-diff", "xlsx-import"}, Known)
}
