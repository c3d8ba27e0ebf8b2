package selection_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lukefredrickson/nfact-dashboard/internal/dataset"
	"github.com/lukefredrickson/nfact-dashboard/internal/selection"
)

func newStore(t *testing.T) *dataset.Store {
	t.Helper()
	rows := [][]string{
		{"study_site", "state", "start_date", "end_date", "overall_before"},
		{"National", "", "2020-03-01", "2021-06-30", "0.11"},
		{"Alabama-Site1", "Alabama", "2020-04-15", "2020-06-10", "0.182"},
		{"Alabama-Site2", "Alabama", "2020-05-01", "2020-05-31", "0.2"},
		{"Vermont-Site1", "Vermont", "2020-03-20", "2020-04-20", "0.09"},
	}
	s, err := dataset.FromRows("mem", rows, dataset.DefaultOptions())
	require.NoError(t, err)
	return s
}

func TestNewDefaults(t *testing.T) {
	st := selection.New(newStore(t))
	snap := st.Snapshot()
	assert.Equal(t, "", snap.Geo)
	assert.Equal(t, selection.National, snap.Entity)
	assert.Equal(t, []string{"National", "Alabama-Site1", "Alabama-Site2", "Vermont-Site1"}, snap.Options)
	assert.Equal(t, selection.MonthRange{Start: 0, End: 15, Valid: true}, snap.Range)
}

func TestNewWithoutNationalPicksFirst(t *testing.T) {
	s, err := dataset.FromRows("mem", [][]string{
		{"study_site", "state", "start_date", "end_date"},
		{"Ohio-Site1", "Ohio", "2020-01-01", "2020-02-01"},
	}, dataset.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "Ohio-Site1", selection.New(s).Entity())

	empty, err := dataset.FromRows("mem", [][]string{{"study_site", "state", "start_date", "end_date"}}, dataset.DefaultOptions())
	require.NoError(t, err)
	st := selection.New(empty)
	assert.Equal(t, selection.National, st.Entity())
	_, _, ok := st.Range()
	assert.False(t, ok)
}

func TestGeoClickSelectsFirstEntity(t *testing.T) {
	st := selection.New(newStore(t))
	out, err := st.Apply(selection.GeoClick{Key: "Alabama"})
	require.NoError(t, err)
	assert.True(t, out.Changed)
	assert.False(t, out.Miss)

	snap := st.Snapshot()
	assert.Equal(t, "Alabama", snap.Geo)
	assert.Equal(t, []string{"Alabama-Site1", "Alabama-Site2"}, snap.Options)
	assert.Equal(t, "Alabama-Site1", snap.Entity)
	start, end, ok := st.Range()
	assert.True(t, ok)
	assert.Equal(t, 1, start)
	assert.Equal(t, 3, end)
}

func TestGeoChangeKeepsValidEntity(t *testing.T) {
	st := selection.New(newStore(t))
	_, err := st.Apply(selection.EntitySelect{ID: "Alabama-Site2"})
	require.NoError(t, err)
	_, err = st.Apply(selection.StateSelect{Key: "Alabama"})
	require.NoError(t, err)
	assert.Equal(t, "Alabama-Site2", st.Entity())

	_, err = st.Apply(selection.StateSelect{Key: "Vermont"})
	require.NoError(t, err)
	assert.Equal(t, "Vermont-Site1", st.Entity())

	_, err = st.Apply(selection.StateSelect{Key: "all"})
	require.NoError(t, err)
	assert.Equal(t, "", st.Geo())
	assert.Equal(t, "Vermont-Site1", st.Entity())
}

func TestStateSelectWithoutEntities(t *testing.T) {
	st := selection.New(newStore(t))
	out, err := st.Apply(selection.StateSelect{Key: "Texas"})
	require.NoError(t, err)
	assert.True(t, out.Miss)

	snap := st.Snapshot()
	assert.Equal(t, []string{}, snap.Options)
	assert.Equal(t, selection.National, snap.Entity)
}

func TestGeoClickOnAbsentKeyKeepsState(t *testing.T) {
	st := selection.New(newStore(t))
	_, err := st.Apply(selection.GeoClick{Key: "Vermont"})
	require.NoError(t, err)
	before := st.Snapshot()

	for _, key := range []string{"Texas", "", "  "} {
		out, err := st.Apply(selection.GeoClick{Key: key})
		require.NoError(t, err)
		assert.True(t, out.Miss)
		assert.False(t, out.Changed)
		assert.Equal(t, before, st.Snapshot())
	}
}

func TestEntitySelectMissFallsBack(t *testing.T) {
	st := selection.New(newStore(t))
	_, err := st.Apply(selection.GeoClick{Key: "Alabama"})
	require.NoError(t, err)

	// Stale entity from another state.
	out, err := st.Apply(selection.EntitySelect{ID: "Vermont-Site1"})
	require.NoError(t, err)
	assert.True(t, out.Miss)
	assert.Equal(t, selection.National, st.Entity())
	// National has a record, so its range applies.
	assert.Equal(t, selection.MonthRange{Start: 0, End: 15, Valid: true}, st.Snapshot().Range)

	out, err = st.Apply(selection.EntitySelect{ID: "Alabama-Site2"})
	require.NoError(t, err)
	assert.False(t, out.Miss)
	assert.Equal(t, selection.MonthRange{Start: 2, End: 2, Valid: true}, st.Snapshot().Range)

	// Absent from the dataset: the range is cleared.
	out, err = st.Apply(selection.EntitySelect{ID: "Nowhere-Site9"})
	require.NoError(t, err)
	assert.True(t, out.Miss)
	assert.Equal(t, selection.National, st.Entity())
	assert.False(t, st.Snapshot().Range.Valid)
}

func TestEntitySelectMissWithoutNationalRecord(t *testing.T) {
	s, err := dataset.FromRows("mem", [][]string{
		{"study_site", "state", "start_date", "end_date"},
		{"Ohio-Site1", "Ohio", "2020-01-01", "2020-02-01"},
	}, dataset.DefaultOptions())
	require.NoError(t, err)
	st := selection.New(s)
	out, err := st.Apply(selection.EntitySelect{ID: "Gone"})
	require.NoError(t, err)
	assert.True(t, out.Miss)
	assert.Equal(t, selection.MonthRange{}, st.Snapshot().Range)
}

func TestRangeOrderedForEveryEntity(t *testing.T) {
	store := newStore(t)
	st := selection.New(store)
	for _, id := range store.Entities("") {
		_, err := st.Apply(selection.EntitySelect{ID: id})
		require.NoError(t, err)
		start, end, ok := st.Range()
		require.True(t, ok, id)
		assert.LessOrEqual(t, start, end, id)
		assert.GreaterOrEqual(t, start, 0, id)
	}
}

func TestApplyNilEvent(t *testing.T) {
	st := selection.New(newStore(t))
	_, err := st.Apply(nil)
	assert.ErrorIs(t, err, selection.ErrUnknownEvent)
}
