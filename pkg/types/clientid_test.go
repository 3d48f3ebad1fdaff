// Unit tests for the client identifier codec.
package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientIDRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		key  uint64
	}{
		{name: "zero", key: 0},
		{name: "small", key: 0xab},
		{name: "max", key: 0xffffffffffffffff},
		{name: "arbitrary", key: 0xc4f34a4c76d8ac51},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := ClientIDFromKey(tt.key)
			key, err := id.Key()
			require.NoError(t, err)
			assert.Equal(t, tt.key, key)
		})
	}
}

func TestClientIDExternalForm(t *testing.T) {
	id := ClientIDFromKey(0xab)
	assert.Equal(t, "m-00000000000000ab", id.String())
}

func TestParseClientID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "valid", input: "m-00000000000000ab"},
		{name: "missing prefix", input: "00000000000000ab", wantErr: true},
		{name: "wrong prefix", input: "c-00000000000000ab", wantErr: true},
		{name: "too short", input: "m-00ab", wantErr: true},
		{name: "too long", input: "m-00000000000000ab00", wantErr: true},
		{name: "uppercase hex", input: "m-00000000000000AB", wantErr: true},
		{name: "non-hex", input: "m-zzzzzzzzzzzzzzzz", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := ParseClientID(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidClientID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.input, id.String())
		})
	}
}

func TestNewClientIDIsValidAndUnique(t *testing.T) {
	seen := make(map[ClientID]bool)
	for i := 0; i < 100; i++ {
		id := NewClientID()
		_, err := ParseClientID(id.String())
		require.NoError(t, err)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}
