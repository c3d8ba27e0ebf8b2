package selection_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lukefredrickson/nfact-dashboard/internal/selection"
)

type boxResolver struct{}

// Resolve treats the unit square as Vermont.
func (boxResolver) Resolve(lon, lat float64) (string, bool) {
	if lon >= 0 && lon <= 1 && lat >= 0 && lat <= 1 {
		return "Vermont", true
	}
	return "", false
}

func TestDecodeEvent(t *testing.T) {
	cases := []struct {
		in   string
		want selection.Event
	}{
		{`{"type":"geo_click","key":"Alabama"}`, selection.GeoClick{Key: "Alabama"}},
		{`{"type":"geo_click","lon":0.5,"lat":0.5}`, selection.GeoClick{Key: "Vermont"}},
		{`{"type":"geo_click","lon":5,"lat":5}`, selection.GeoClick{Key: ""}},
		{`{"type":"state_select","key":"all"}`, selection.StateSelect{Key: "all"}},
		{`{"type":"entity_select","id":"Alabama-Site1"}`, selection.EntitySelect{ID: "Alabama-Site1"}},
		{`{"type":"entity_select","key":"Alabama-Site2"}`, selection.EntitySelect{ID: "Alabama-Site2"}},
	}
	for _, tc := range cases {
		got, err := selection.DecodeEvent([]byte(tc.in), boxResolver{})
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestDecodeEventErrors(t *testing.T) {
	_, err := selection.DecodeEvent([]byte(`{"type":"zoom"}`), nil)
	assert.ErrorIs(t, err, selection.ErrUnknownEvent)

	_, err = selection.DecodeEvent([]byte(`{"type":"geo_click"}`), nil)
	assert.ErrorIs(t, err, selection.ErrInvalidEvent)

	_, err = selection.DecodeEvent([]byte(`{"type":"geo_click","lon":1,"lat":1}`), nil)
	assert.ErrorIs(t, err, selection.ErrInvalidEvent)

	_, err = selection.DecodeEvent([]byte(`not json`), nil)
	assert.ErrorIs(t, err, selection.ErrInvalidEvent)
}
