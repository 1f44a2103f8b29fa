package storage

import (
	"testing"
	"time"

	"github.com/poiesic/docvec/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalFileState(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name  string
		state *core.FileState
	}{
		{
			name: "minimal state",
			state: &core.FileState{
				Path:        "faq.json",
				Namespace:   "social",
				Fingerprint: "abc123",
			},
		},
		{
			name: "full state",
			state: &core.FileState{
				Path:        "/data/BANK ACCOUNT DETAILS.pdf",
				Namespace:   "social",
				Fingerprint: core.Fingerprint([]byte("pdf bytes")),
				DocType:     core.DocTypeBank,
				VectorIDs:   []string{"bank:BANK ACCOUNT DETAILS.pdf-p1-0", "bank:BANK ACCOUNT DETAILS.pdf-p1-1"},
				RunID:       "6a1f0c0e-43f4-4b52-9a57-9d1d3f0a2b11",
				IndexedAt:   now,
			},
		},
		{
			name: "unicode path",
			state: &core.FileState{
				Path:        "promociones de verano ☀️.pdf",
				Namespace:   "tienda",
				Fingerprint: "f00d",
				DocType:     core.DocTypePromotions,
				VectorIDs:   []string{"promotions:promociones de verano ☀️.pdf-p1-0"},
				IndexedAt:   now,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalFileState(tt.state)
			require.NotEmpty(t, data)
			assert.Len(t, data, FileStateMUS.Size(*tt.state))

			decoded, err := UnmarshalFileState(data)
			require.NoError(t, err)
			assert.Equal(t, tt.state.Path, decoded.Path)
			assert.Equal(t, tt.state.Namespace, decoded.Namespace)
			assert.Equal(t, tt.state.Fingerprint, decoded.Fingerprint)
			assert.Equal(t, tt.state.DocType, decoded.DocType)
			assert.Equal(t, tt.state.VectorIDs, decoded.VectorIDs)
			assert.Equal(t, tt.state.RunID, decoded.RunID)
			assert.True(t, tt.state.IndexedAt.Equal(decoded.IndexedAt))
		})
	}
}

func TestUnmarshalFileState_Invalid(t *testing.T) {
	full := MarshalFileState(&core.FileState{
		Path:        "a.pdf",
		Namespace:   "social",
		Fingerprint: "abc",
		VectorIDs:   []string{"general:a.pdf-p1-0"},
	})

	tests := []struct {
		name string
		data []byte
	}{
		{"empty data", []byte{}},
		{"truncated", full[:len(full)/2]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalFileState(tt.data)
			assert.ErrorIs(t, err, ErrSerializationFailed)
		})
	}
}
