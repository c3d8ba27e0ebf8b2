package present_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lukefredrickson/nfact-dashboard/internal/catalog"
	"github.com/lukefredrickson/nfact-dashboard/internal/derive"
	"github.com/lukefredrickson/nfact-dashboard/internal/present"
	"github.com/lukefredrickson/nfact-dashboard/internal/selection"
)

var overallRows = derive.Series{
	{Group: "overall", Category: "All Respondents", SubCategory: "Before COVID-19", Metric: "overall_before", Value: 0.182, Display: "18.2%", Kind: catalog.KindPercent},
	{Group: "overall", Category: "All Respondents", SubCategory: "Since COVID-19", Metric: "overall_after", Value: 0.25, Display: "25.0%", Kind: catalog.KindPercent},
	{Group: "overall", Category: "All Respondents", SubCategory: "Change", Metric: "overall_diff", Value: -0.01, Display: "-1.0%", Kind: catalog.KindPercent},
}

func TestChartTracesPerSubCategory(t *testing.T) {
	c := present.Chart("overall", "Alabama-Site1: Food Insecurity", "Category", overallRows)
	assert.Equal(t, "bar", c.Kind)
	assert.True(t, c.Percent)
	require.Len(t, c.Traces, 3)
	assert.Equal(t, "Before COVID-19", c.Traces[0].Name)
	assert.Equal(t, []string{"All Respondents"}, c.Traces[0].Categories)
	assert.Equal(t, []string{"18.2%"}, c.Traces[0].Text)

	counts := present.Chart("covid", "Cases", "Category", derive.Series{
		{Category: "Cases", SubCategory: "Cumulative", Value: 1376, Display: "1,376", Kind: catalog.KindCount},
	})
	assert.False(t, counts.Percent)
	assert.Equal(t, "Count", counts.ValueAxis)
}

func TestMapSkipsUnmatched(t *testing.T) {
	vals := []derive.GeoValue{{Geo: "Alabama", Value: 0.3}, {Geo: "Atlantis", Value: 0.9}, {Geo: "Vermont", Value: 0.1}}
	m := present.Map("overall_after", vals, func(k string) bool { return k != "Atlantis" })
	assert.Equal(t, []string{"Alabama", "Vermont"}, m.Locations)
	assert.Equal(t, []string{"Atlantis"}, m.Unmatched)
	assert.Equal(t, 0.1, m.Min)
	assert.Equal(t, 0.3, m.Max)
	assert.Equal(t, "properties.NAME", m.FeatureIDKey)
	assert.Equal(t, "Plasma", m.ColorScale)

	empty := present.Map("x", nil, nil)
	assert.Empty(t, empty.Locations)
	assert.Zero(t, empty.Min)
}

func TestSlider(t *testing.T) {
	labels := []string{"March,\n2020", "April,\n2020", "May,\n2020"}
	s := present.Slider(labels, selection.MonthRange{Start: 1, End: 2, Valid: true})
	assert.Equal(t, -1, s.Min)
	assert.Equal(t, 3, s.Max)
	assert.True(t, s.Disabled)
	assert.Equal(t, []int{1, 2}, s.Value)
	assert.Equal(t, present.Mark{Value: 2, Label: "May,\n2020"}, s.Marks[2])

	assert.Equal(t, []int{}, present.Slider(labels, selection.MonthRange{}).Value)
}

func TestBuildIsDeterministic(t *testing.T) {
	in := present.Input{
		Title:   "United States Food Insecurity",
		Catalog: catalog.Default(),
		Snapshot: selection.Snapshot{
			Geo: "Alabama", Entity: "Alabama-Site1",
			Options: []string{"Alabama-Site1", "Alabama-Site2"},
			Range:   selection.MonthRange{Start: 1, End: 3, Valid: true},
		},
		View: derive.View{
			Geo: "Alabama", Entity: "Alabama-Site1", Series: overallRows,
			Details: []derive.Detail{{Label: "Sampling Method", Value: "Online panel"}},
		},
		Compare: derive.Series{
			{Group: "compare", Category: "Alabama-Site1", SubCategory: "All Respondents, Since COVID-19", Value: 0.25, Display: "25.0%", Kind: catalog.KindPercent},
		},
		MonthLabels: []string{"March,\n2020", "April,\n2020", "May,\n2020", "June,\n2020"},
	}
	r := present.Build(in)
	assert.Equal(t, "Alabama", r.Heading)
	require.Len(t, r.Charts, 2)
	assert.Equal(t, present.CompareChartID, r.Charts[0].ID)
	assert.Equal(t, "Alabama Food Insecurity", r.Charts[0].Title)
	assert.Equal(t, "Alabama-Site1: Food Insecurity", r.Charts[1].Title)
	require.Len(t, r.Tables, 1)
	assert.Equal(t, "Online panel", r.Tables[0].Rows[0].Value)
	assert.Equal(t, "Alabama-Site1", r.Dropdown.Value)
	assert.Len(t, r.Dropdown.Options, 2)

	a, err := json.Marshal(r)
	require.NoError(t, err)
	b, err := json.Marshal(present.Build(in))
	require.NoError(t, err)
	assert.Equal(t, a, b)

	_, ok := r.FindChart("overall")
	assert.True(t, ok)
	_, ok = r.FindChart("nope")
	assert.False(t, ok)
}

func TestBuildEmptySelection(t *testing.T) {
	r := present.Build(present.Input{Snapshot: selection.Snapshot{Entity: selection.National, Options: []string{}}})
	assert.Equal(t, "United States", r.Heading)
	assert.Empty(t, r.Charts)
	assert.Empty(t, r.Tables)
	assert.Empty(t, r.Dropdown.Options)
	assert.Equal(t, selection.National, r.Dropdown.Value)
}

func TestRenderPNG(t *testing.T) {
	var buf bytes.Buffer
	c := present.Chart("overall", "Food Insecurity", "Category", overallRows)
	require.NoError(t, present.RenderPNG(&buf, c, 800, 400))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG\r\n\x1a\n")))

	err := present.RenderPNG(&buf, present.Chart("x", "x", "x", nil), 800, 400)
	assert.ErrorIs(t, err, present.ErrEmptyChart)
}

func TestWriteTables(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, present.WriteTable(&buf, present.TableDescriptor{
		Title: "Alabama-Site1",
		Rows:  []present.TableRow{{Label: "Sampling Method", Value: "Online panel"}},
	}))
	assert.Contains(t, buf.String(), "Sampling Method")
	assert.Contains(t, buf.String(), "Online panel")

	buf.Reset()
	require.NoError(t, present.WriteChartTable(&buf, present.Chart("overall", "Food Insecurity", "Category", overallRows)))
	out := buf.String()
	assert.Contains(t, out, "All Respondents")
	assert.Contains(t, out, "Since COVID-19")
	assert.Contains(t, out, "-1.0%")
}
