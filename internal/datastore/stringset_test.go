package datastore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringSet_Scan(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value any
		want  StringSet
	}{
		{"nil stays unknown", nil, nil},
		{"empty bytes stay unknown", []byte{}, nil},
		{"valid json array", []byte(`["velo","tec"]`), StringSet{"velo", "tec"}},
		{"valid json string input", `["sport"]`, StringSet{"sport"}},
		{"malformed json becomes empty set", []byte(`{"oops":`), StringSet{}},
		{"scalar json becomes empty set", []byte(`42`), StringSet{}},
		{"wrong driver type becomes empty set", 12.5, StringSet{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var s StringSet
			require.NoError(t, s.Scan(tt.value), "scanning must never fail")
			assert.Equal(t, tt.want, s)
		})
	}
}

func TestStringSet_Value(t *testing.T) {
	t.Parallel()

	nilValue, err := StringSet(nil).Value()
	require.NoError(t, err)
	assert.Nil(t, nilValue)

	value, err := StringSet{"velo"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["velo"]`, value)
}

func TestStringSet_HasAndIntersects(t *testing.T) {
	t.Parallel()

	s := StringSet{"velo", "tec"}

	assert.True(t, s.Has("velo"))
	assert.False(t, s.Has("voiture"))
	assert.False(t, StringSet(nil).Has("velo"))

	assert.True(t, s.Intersects([]string{"voiture", "tec"}))
	assert.False(t, s.Intersects([]string{"voiture"}))
	assert.False(t, s.Intersects(nil))
	assert.False(t, StringSet(nil).Intersects([]string{"velo"}))
}

func TestStringSet_Normalize(t *testing.T) {
	t.Parallel()

	assert.Nil(t, StringSet(nil).Normalize(TransportModes))

	got := StringSet{"velo", "jetpack", "velo", "tec"}.Normalize(TransportModes)
	assert.Equal(t, StringSet{"velo", "tec"}, got)
}
