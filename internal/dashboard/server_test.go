package dashboard

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lukefredrickson/nfact-dashboard/internal/catalog"
	"github.com/lukefredrickson/nfact-dashboard/internal/dataset"
	"github.com/lukefredrickson/nfact-dashboard/internal/geo"
	"github.com/lukefredrickson/nfact-dashboard/internal/selection"
)

const boundaries = `{"type":"FeatureCollection","features":[
 {"type":"Feature","properties":{"NAME":"Alabama"},"geometry":{"type":"Polygon","coordinates":[[[-88,30],[-85,30],[-85,35],[-88,35],[-88,30]]]}},
 {"type":"Feature","properties":{"NAME":"Vermont"},"geometry":{"type":"Polygon","coordinates":[[[-73.4,42.7],[-71.5,42.7],[-71.5,45],[-73.4,45],[-73.4,42.7]]]}},
 {"type":"Feature","properties":{"NAME":"Texas"},"geometry":{"type":"Polygon","coordinates":[[[-106,26],[-94,26],[-94,36],[-106,36],[-106,26]]]}}
]}`

var surveyRows = [][]string{
	{"study_site", "state", "start_date", "end_date", "overall_before", "overall_after", "overall_diff", "sampling_method"},
	{"National", "", "2020-03-01", "2021-06-30", "0.11", "0.19", "0.08", "Quota"},
	{"Alabama-Site1", "Alabama", "2020-04-15", "2020-06-10", "0.182", "0.25", "0.068", "Online panel"},
	{"Alabama-Site2", "Alabama", "2020-05-01", "2020-05-31", "0.2", "0.3", "0.1", ""},
	{"Vermont-Site1", "Vermont", "2020-03-20", "2020-04-20", "0.09", "0.12", "0.03", ""},
	{"Guam-Site1", "Guam", "2020-03-20", "2020-04-20", "0.3", "0.4", "0.1", ""},
}

func testEngine(t *testing.T) *Engine {
	return testEngineRows(t, surveyRows)
}

func testEngineRows(t *testing.T, rows [][]string) *Engine {
	t.Helper()
	store, err := dataset.FromRows("mem", rows, dataset.DefaultOptions())
	require.NoError(t, err)
	b, err := geo.Parse("mem", []byte(boundaries), "")
	require.NoError(t, err)
	e, err := NewEngine(Assets{Store: store, Boundaries: b, Catalog: catalog.Default()}, Options{
		Title:          "United States Food Insecurity",
		MapMetric:      "overall_after",
		CompareMetrics: []string{"overall_before", "overall_after", "overall_diff"},
		SessionTTL:     time.Hour,
		MaxSessions:    10,
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	return e
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, r))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) sessionResponse {
	t.Helper()
	var out sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestEngineMap(t *testing.T) {
	m := testEngine(t).Map()
	assert.Equal(t, []string{"Alabama", "Vermont"}, m.Locations)
	assert.Equal(t, []string{"Guam"}, m.Unmatched)
	assert.InDelta(t, 0.275, m.Values[0], 1e-9)
}

func TestSessionEventFlow(t *testing.T) {
	h := NewServer(testEngine(t)).Handler()

	rec := do(t, h, http.MethodPost, "/api/sessions", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode(t, rec)
	require.NotEmpty(t, created.Session)
	assert.Equal(t, "United States", created.Render.Heading)
	assert.Equal(t, selection.National, created.Render.Dropdown.Value)
	base := "/api/sessions/" + created.Session

	// Map click by coordinate inside Alabama.
	rec = do(t, h, http.MethodPost, base+"/events", `{"type":"geo_click","lon":-86.5,"lat":32.5}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	clicked := decode(t, rec)
	assert.False(t, clicked.Miss)
	assert.Equal(t, "Alabama", clicked.Render.Heading)
	assert.Equal(t, "Alabama-Site1", clicked.Render.Dropdown.Value)
	assert.Equal(t, []int{1, 3}, clicked.Render.Slider.Value)
	require.NotEmpty(t, clicked.Render.Charts)
	assert.Equal(t, "compare", clicked.Render.Charts[0].ID)
	assert.Equal(t, "Alabama Food Insecurity", clicked.Render.Charts[0].Title)
	require.Len(t, clicked.Render.Charts, 2)
	assert.Equal(t, "18.2%", clicked.Render.Charts[1].Traces[0].Text[0])

	// Texas has a boundary but no data: the previous selection stays.
	rec = do(t, h, http.MethodPost, base+"/events", `{"type":"geo_click","lon":-100,"lat":31}`)
	require.Equal(t, http.StatusOK, rec.Code)
	missed := decode(t, rec)
	assert.True(t, missed.Miss)
	assert.Equal(t, clicked.Render, missed.Render)

	rec = do(t, h, http.MethodPost, base+"/events", `{"type":"entity_select","id":"Alabama-Site2"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Alabama-Site2", decode(t, rec).Render.Dropdown.Value)

	rec = do(t, h, http.MethodPost, base+"/events", `{"type":"state_select","key":"Texas"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	empty := decode(t, rec)
	assert.True(t, empty.Miss)
	assert.Empty(t, empty.Render.Dropdown.Options)
	assert.Equal(t, selection.National, empty.Render.Dropdown.Value)

	rec = do(t, h, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Texas", decode(t, rec).Render.Heading)
}

func TestEventErrors(t *testing.T) {
	h := NewServer(testEngine(t)).Handler()
	id := decode(t, do(t, h, http.MethodPost, "/api/sessions", "")).Session

	rec := do(t, h, http.MethodPost, "/api/sessions/"+id+"/events", `{"type":"zoom"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, h, http.MethodPost, "/api/sessions/"+id+"/events", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, h, http.MethodPost, "/api/sessions/nope/events", `{"type":"state_select","key":"Alabama"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, h, http.MethodGet, "/api/sessions/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChartPNG(t *testing.T) {
	h := NewServer(testEngine(t)).Handler()
	id := decode(t, do(t, h, http.MethodPost, "/api/sessions", "")).Session
	base := "/api/sessions/" + id

	rec := do(t, h, http.MethodGet, base+"/charts/overall.png?width=640&height=320", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	rec = do(t, h, http.MethodGet, base+"/charts/compare.png", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthMapAndMetrics(t *testing.T) {
	h := NewServer(testEngine(t)).Handler()

	rec := do(t, h, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = do(t, h, http.MethodGet, "/api/map", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"feature_id_key":"properties.NAME"`)

	rec = do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "nfact_http_requests_total")
}

func TestSessionEviction(t *testing.T) {
	now := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	e := testEngine(t)
	tbl := newSessionTable(time.Minute, 2, e.NewState)
	tbl.now = func() time.Time { return now }

	a, _ := tbl.create()
	now = now.Add(30 * time.Second)
	b, _ := tbl.create()
	now = now.Add(10 * time.Second)
	_, ok := tbl.get(a)
	require.True(t, ok)

	// Full table: the least recently seen session goes.
	c, _ := tbl.create()
	assert.Equal(t, 2, tbl.count())
	_, ok = tbl.get(b)
	assert.False(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = tbl.get(c)
	assert.False(t, ok, "idle session should expire")
	_, _ = tbl.create()
	assert.Equal(t, 1, tbl.count())
}

func TestMissingCellsStillRender(t *testing.T) {
	rows := [][]string{
		surveyRows[0],
		{"National", "", "2020-03-01", "2021-06-30", "0.11", "NaN", "0.08", "Quota"},
		{"Alabama-Site1", "Alabama", "2020-04-15", "2020-06-10", "0.182", "NaN", "0.068", "N/A"},
		{"Alabama-Site2", "Alabama", "2020-05-01", "2020-05-31", "0.2", "0.3", "0.1", ""},
		{"Vermont-Site1", "Vermont", "2020-03-20", "2020-04-20", "0.09", "nan", "0.03", ""},
	}
	h := NewServer(testEngineRows(t, rows)).Handler()

	rec := do(t, h, http.MethodGet, "/api/map", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var m struct {
		Locations []string  `json:"locations"`
		Values    []float64 `json:"values"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m), rec.Body.String())
	assert.Equal(t, []string{"Alabama"}, m.Locations)
	assert.InDelta(t, 0.3, m.Values[0], 1e-9)

	rec = do(t, h, http.MethodPost, "/api/sessions", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode(t, rec)
	rec = do(t, h, http.MethodPost, "/api/sessions/"+created.Session+"/events", `{"type":"state_select","key":"Alabama"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode(t, rec)
	assert.Equal(t, "Alabama-Site1", got.Render.Dropdown.Value)
}

func TestWriteJSONEncodingFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusOK, map[string]float64{"x": math.NaN()})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "encode response")
}
