package valueobjects

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNodeID(t *testing.T) {
	tests := []struct {
		name     string
		filePath string
		blockRef string
		want     string
		wantErr  bool
	}{
		{
			name:     "file only",
			filePath: "journal/2025-01-15.md",
			want:     "journal/2025-01-15.md",
		},
		{
			name:     "file with block reference",
			filePath: "journal/2025-01-15.md",
			blockRef: "dream1",
			want:     "journal/2025-01-15.md#^dream1",
		},
		{
			name:     "empty file path",
			filePath: "",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := NewNodeID(tt.filePath, tt.blockRef)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id.String())
			assert.False(t, id.IsZero())
		})
	}
}

func TestNodeID_Equals(t *testing.T) {
	a, err := NewNodeID("a.md", "ref")
	require.NoError(t, err)
	b, err := NewNodeID("a.md", "ref")
	require.NoError(t, err)
	c, err := NewNodeID("a.md", "other")
	require.NoError(t, err)

	assert.True(t, a.Equals(b))
	assert.False(t, a.Equals(c))
	assert.True(t, NodeID{}.IsZero())
}

func TestNodeID_JSONRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		filePath string
		blockRef string
	}{
		{name: "plain path", filePath: "journal/night.md", blockRef: "d2"},
		{name: "path with quotes", filePath: `journal/"night" dreams.md`},
		{name: "path with backslashes", filePath: `journal\night.md`, blockRef: "d3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := NewNodeID(tt.filePath, tt.blockRef)
			require.NoError(t, err)

			data, err := json.Marshal(id)
			require.NoError(t, err)
			assert.True(t, json.Valid(data))

			var decoded NodeID
			require.NoError(t, json.Unmarshal(data, &decoded))
			assert.True(t, id.Equals(decoded))
		})
	}
}
