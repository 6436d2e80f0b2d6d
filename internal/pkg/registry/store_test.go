package registry

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_EnableDisable(t *testing.T) {
	r := newTestRegistry(t)
	assert.False(t, r.IsEnabled("light.a"), "unseen ids are disabled")

	require.NoError(t, r.Enable("light.a"))
	require.NoError(t, r.Enable("light.b"))
	require.NoError(t, r.Enable("light.a"))
	assert.Equal(t, []string{"light.a", "light.b"}, r.Enabled())

	require.NoError(t, r.Disable("light.a"))
	require.NoError(t, r.Disable("light.unknown"))
	assert.Equal(t, []string{"light.b"}, r.Enabled())

	data, err := os.ReadFile(r.enabledPath)
	require.NoError(t, err)
	assert.JSONEq(t, `["light.b"]`, string(data))
}

func TestStore_Redefinitions(t *testing.T) {
	r := newTestRegistry(t)

	_, ok := r.Redefinition("light.a")
	assert.False(t, ok)

	require.NoError(t, r.RedefinePlacement("light.a", "Home", "Kitchen"))
	require.NoError(t, r.Rename("light.a", "Big lamp"))
	require.NoError(t, r.Rename("light.b", "Other"))

	p, ok := r.Redefinition("light.a")
	require.True(t, ok)
	assert.Equal(t, "Home", *p.Home)
	assert.Equal(t, "Kitchen", *p.Room)
	assert.Equal(t, "Big lamp", *p.Name)

	p, _ = r.Redefinition("light.b")
	assert.Nil(t, p.Home, "placement not set by rename")
	assert.Nil(t, p.Room)

	data, err := os.ReadFile(r.placementsPath)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"light.a": {"id": "light.a", "name": "Big lamp", "home": "Home", "room": "Kitchen"},
		"light.b": {"id": "light.b", "name": "Other", "home": null, "room": null}
	}`, string(data))
}

func TestStore_LoadRoundTrip(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.RedefinePlacement("cover.blinds", "Home", "Bedroom"))
	require.NoError(t, r.Enable("cover.blinds"))

	loaded := New(r.ctors, r.placementsPath, r.enabledPath)
	require.NoError(t, loaded.Load())
	assert.True(t, loaded.IsEnabled("cover.blinds"))
	p, ok := loaded.Redefinition("cover.blinds")
	require.True(t, ok)
	assert.Equal(t, "Bedroom", *p.Room)
	assert.Nil(t, p.Name)
}

func TestStore_Load(t *testing.T) {
	tests := map[string]struct {
		placements  string
		enabled     string
		wantErr     bool
		wantEnabled []string
		wantRooms   map[string]string
	}{
		"missing files": {},
		"valid": {
			placements:  `{"x": {"id": "light.a", "room": "Hall"}, "bad": {"name": "no id"}}`,
			enabled:     `["light.a", "light.a", "cover.b"]`,
			wantEnabled: []string{"light.a", "cover.b"},
			wantRooms:   map[string]string{"light.a": "Hall"},
		},
		"malformed placements": {
			placements:  `{not json`,
			enabled:     `["light.a"]`,
			wantErr:     true,
			wantEnabled: []string{"light.a"},
		},
		"malformed enabled": {
			placements: `{"light.a": {"id": "light.a", "room": "Hall"}}`,
			enabled:    `{"light.a": true}`,
			wantErr:    true,
			wantRooms:  map[string]string{"light.a": "Hall"},
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			r := newTestRegistry(t)
			if tt.placements != "" {
				require.NoError(t, os.WriteFile(r.placementsPath, []byte(tt.placements), 0o644))
			}
			if tt.enabled != "" {
				require.NoError(t, os.WriteFile(r.enabledPath, []byte(tt.enabled), 0o644))
			}

			err := r.Load()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrStoreDecode)
			} else {
				assert.NoError(t, err)
			}
			assert.ElementsMatch(t, tt.wantEnabled, r.Enabled())
			assert.Len(t, r.redefinitions, len(tt.wantRooms))
			for id, room := range tt.wantRooms {
				p, ok := r.Redefinition(id)
				require.True(t, ok)
				assert.Equal(t, room, *p.Room)
			}
		})
	}
}

func TestStore_SaveWritesEmptyEnabledArray(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.Save())

	data, err := os.ReadFile(r.enabledPath)
	require.NoError(t, err)
	var enabled []string
	require.NoError(t, json.Unmarshal(data, &enabled))
	assert.NotNil(t, enabled)
	assert.Empty(t, enabled)
}
