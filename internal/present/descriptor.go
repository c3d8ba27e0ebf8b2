// Package present maps derived series to renderable descriptors. Every
// function is pure: identical input gives identical output.
package present

import (
	"math"

	"github.com/lukefredrickson/nfact-dashboard/internal/catalog"
	"github.com/lukefredrickson/nfact-dashboard/internal/derive"
	"github.com/lukefredrickson/nfact-dashboard/internal/selection"
)

// Trace is one colored bar series.
type Trace struct {
	Name       string    `json:"name"`
	Categories []string  `json:"categories"`
	Values     []float64 `json:"values"`
	Text       []string  `json:"text"`
}

// ChartDescriptor is a grouped bar chart with one trace per sub-category.
type ChartDescriptor struct {
	ID           string  `json:"id"`
	Kind         string  `json:"kind"`
	Title        string  `json:"title"`
	CategoryAxis string  `json:"category_axis"`
	ValueAxis    string  `json:"value_axis"`
	ColorKey     string  `json:"color_key"`
	Percent      bool    `json:"percent"`
	Traces       []Trace `json:"traces"`
}

// TableRow is one label/value line of a details table.
type TableRow struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// TableDescriptor is a titled two-column table.
type TableDescriptor struct {
	Title string     `json:"title"`
	Rows  []TableRow `json:"rows"`
}

// LatLon is a map position in degrees.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// MapDescriptor is the choropleth of one metric by state.
type MapDescriptor struct {
	Metric       string    `json:"metric"`
	FeatureIDKey string    `json:"feature_id_key"`
	Locations    []string  `json:"locations"`
	Values       []float64 `json:"values"`
	ColorScale   string    `json:"color_scale"`
	Min          float64   `json:"min"`
	Max          float64   `json:"max"`
	Center       LatLon    `json:"center"`
	Zoom         float64   `json:"zoom"`
	// Unmatched keys have data but no boundary; they are not shaded.
	Unmatched []string `json:"unmatched"`
}

// Mark labels one slider position.
type Mark struct {
	Value int    `json:"value"`
	Label string `json:"label"`
}

// SliderDescriptor shows the selected record's month range.
type SliderDescriptor struct {
	Min      int    `json:"min"`
	Max      int    `json:"max"`
	Marks    []Mark `json:"marks"`
	Value    []int  `json:"value"`
	Disabled bool   `json:"disabled"`
}

// Option is one dropdown entry.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// DropdownDescriptor lists the selectable entities and the current one.
type DropdownDescriptor struct {
	Options []Option `json:"options"`
	Value   string   `json:"value"`
}

// Chart groups rows into one trace per sub-category, in order of first
// appearance, with the categories along the x axis.
func Chart(id, title, categoryAxis string, rows derive.Series) ChartDescriptor {
	c := ChartDescriptor{
		ID:           id,
		Kind:         "bar",
		Title:        title,
		CategoryAxis: categoryAxis,
		ValueAxis:    "Share of Respondents",
		ColorKey:     "sub_category",
		Percent:      true,
		Traces:       []Trace{},
	}
	pos := map[string]int{}
	for _, r := range rows {
		if r.Kind == catalog.KindCount {
			c.Percent = false
			c.ValueAxis = "Count"
		}
		i, ok := pos[r.SubCategory]
		if !ok {
			i = len(c.Traces)
			pos[r.SubCategory] = i
			c.Traces = append(c.Traces, Trace{Name: r.SubCategory})
		}
		t := &c.Traces[i]
		t.Categories = append(t.Categories, r.Category)
		t.Values = append(t.Values, r.Value)
		t.Text = append(t.Text, r.Display)
	}
	return c
}

// Table lists details in the order given.
func Table(title string, details []derive.Detail) TableDescriptor {
	t := TableDescriptor{Title: title, Rows: make([]TableRow, 0, len(details))}
	for _, d := range details {
		t.Rows = append(t.Rows, TableRow{Label: d.Label, Value: d.Value})
	}
	return t
}

// Map shades every region has reports as known. A nil has accepts all keys.
func Map(metric string, vals []derive.GeoValue, has func(string) bool) MapDescriptor {
	m := MapDescriptor{
		Metric:       metric,
		FeatureIDKey: "properties.NAME",
		Locations:    []string{},
		Values:       []float64{},
		ColorScale:   "Plasma",
		Center:       LatLon{Lat: 38, Lon: -95.7129},
		Zoom:         4,
		Unmatched:    []string{},
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range vals {
		if has != nil && !has(v.Geo) {
			m.Unmatched = append(m.Unmatched, v.Geo)
			continue
		}
		m.Locations = append(m.Locations, v.Geo)
		m.Values = append(m.Values, v.Value)
		lo, hi = math.Min(lo, v.Value), math.Max(hi, v.Value)
	}
	if len(m.Values) > 0 {
		m.Min, m.Max = lo, hi
	}
	return m
}

// Slider is the read-only month range selector. Its value is empty when
// the selection has no record.
func Slider(labels []string, rng selection.MonthRange) SliderDescriptor {
	s := SliderDescriptor{
		Min:      -1,
		Max:      len(labels),
		Marks:    make([]Mark, 0, len(labels)),
		Value:    []int{},
		Disabled: true,
	}
	for i, l := range labels {
		s.Marks = append(s.Marks, Mark{Value: i, Label: l})
	}
	if rng.Valid {
		s.Value = []int{rng.Start, rng.End}
	}
	return s
}

// Dropdown lists the selectable entities.
func Dropdown(snap selection.Snapshot) DropdownDescriptor {
	d := DropdownDescriptor{Options: make([]Option, 0, len(snap.Options)), Value: snap.Entity}
	for _, o := range snap.Options {
		d.Options = append(d.Options, Option{Label: o, Value: o})
	}
	return d
}
