// Package derive turns the dataset and a selection into long-form,
// chart-ready series. Every function is pure.
package derive

import (
	"sort"
	"strconv"

	"github.com/lukefredrickson/nfact-dashboard/internal/catalog"
	"github.com/lukefredrickson/nfact-dashboard/internal/dataset"
	"github.com/lukefredrickson/nfact-dashboard/internal/selection"
)

// Data is the read-only dataset view used by the pipeline.
// *dataset.Store implements it.
type Data interface {
	Lookup(entity string) (dataset.Record, bool)
	Entities(geo string) []string
	Records() []dataset.Record
}

// Row is one long-form (category, sub-category, value) entry.
type Row struct {
	Group       string       `json:"group"`
	Category    string       `json:"category"`
	SubCategory string       `json:"sub_category"`
	Metric      string       `json:"metric"`
	Value       float64      `json:"value"`
	Display     string       `json:"display"`
	Kind        catalog.Kind `json:"kind"`
}

// Series is an ordered list of rows for one selection.
type Series []Row

// SeriesGroup is the part of a series drawn as one chart.
type SeriesGroup struct {
	ID   string `json:"id"`
	Rows Series `json:"rows"`
}

// Groups splits the series by group, in order of first appearance.
func (s Series) Groups() []SeriesGroup {
	var out []SeriesGroup
	pos := map[string]int{}
	for _, r := range s {
		i, ok := pos[r.Group]
		if !ok {
			i = len(out)
			pos[r.Group] = i
			out = append(out, SeriesGroup{ID: r.Group})
		}
		out[i].Rows = append(out[i].Rows, r)
	}
	return out
}

// Detail is one label/value line of the details table.
type Detail struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// View is everything derived from one selection.
type View struct {
	Geo     string           `json:"geo"`
	Entity  string           `json:"entity"`
	Records []dataset.Record `json:"records"`
	Series  Series           `json:"series"`
	Details []Detail         `json:"details"`
	// Gaps lists record metrics the catalog does not describe.
	Gaps []string `json:"gaps"`
}

// Derive builds the view for the selected entity. An entity without a
// record yields an empty view.
func Derive(data Data, cat *catalog.Catalog, snap selection.Snapshot) View {
	v := View{
		Geo:     snap.Geo,
		Entity:  snap.Entity,
		Records: []dataset.Record{},
		Series:  Series{},
		Details: []Detail{},
		Gaps:    []string{},
	}
	rec, ok := data.Lookup(snap.Entity)
	if !ok {
		return v
	}
	v.Records = append(v.Records, rec)

	for _, e := range cat.Metrics {
		x, ok := rec.Metrics[e.Metric]
		if !ok {
			continue
		}
		v.Series = append(v.Series, Row{
			Group:       e.Group,
			Category:    e.Category,
			SubCategory: e.SubCategory,
			Metric:      e.Metric,
			Value:       x,
			Display:     Format(e.Kind, x),
			Kind:        e.Kind,
		})
	}

	fields := map[string]bool{}
	for _, f := range cat.Fields {
		fields[f.Column] = true
		if s, ok := rec.Fields[f.Column]; ok {
			v.Details = append(v.Details, Detail{Label: f.Label, Value: s})
		} else if x, ok := rec.Metrics[f.Column]; ok {
			v.Details = append(v.Details, Detail{Label: f.Label, Value: strconv.FormatFloat(x, 'f', -1, 64)})
		}
	}

	for m := range rec.Metrics {
		if _, ok := cat.Lookup(m); !ok && !fields[m] {
			v.Gaps = append(v.Gaps, m)
		}
	}
	sort.Strings(v.Gaps)
	return v
}

// Compare lays out the given metrics for every entity of geo: the category
// is the entity and the sub-category the metric label. Metrics unknown to
// the catalog are skipped.
func Compare(data Data, cat *catalog.Catalog, geo string, metrics []string) Series {
	out := Series{}
	for _, id := range data.Entities(geo) {
		rec, ok := data.Lookup(id)
		if !ok {
			continue
		}
		for _, m := range metrics {
			e, ok := cat.Lookup(m)
			if !ok {
				continue
			}
			x, ok := rec.Metrics[m]
			if !ok {
				continue
			}
			out = append(out, Row{
				Group:       "compare",
				Category:    id,
				SubCategory: e.Label(),
				Metric:      m,
				Value:       x,
				Display:     Format(e.Kind, x),
				Kind:        e.Kind,
			})
		}
	}
	return out
}
