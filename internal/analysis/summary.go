// Package analysis summarises a loaded dataset: coverage, date span and
// per-metric statistics.
package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/lukefredrickson/nfact-dashboard/internal/catalog"
	"github.com/lukefredrickson/nfact-dashboard/internal/dataset"
	"github.com/lukefredrickson/nfact-dashboard/internal/derive"
)

// Options controls the summary computation.
type Options struct {
	// Robust |z| above which a value counts as an outlier (MAD based).
	OutlierThreshold float64
	// Minimum number of values before outliers are computed.
	OutlierMinCount int
	// Metrics shown per geographic key in the group-by section.
	GroupMetrics []string
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		OutlierThreshold: 3.5,
		OutlierMinCount:  8,
		GroupMetrics:     []string{"overall_before", "overall_after", "overall_diff"},
	}
}

// Report describes one dataset.
type Report struct {
	Name      string
	Rows      int
	Entities  int
	GeoKeys   []string
	MinStart  time.Time
	MaxEnd    time.Time
	Months    int
	Unmatched []string
	Metrics   []MetricSummary
	Groups    []GroupResult
	// Gaps are numeric columns the catalog does not describe.
	Gaps []string
}

// MetricSummary captures statistics for one catalog metric.
type MetricSummary struct {
	Metric string
	Label  string
	Kind   catalog.Kind
	Count  int
	Min    float64
	Max    float64
	Mean   float64
	Std    float64
	Median float64
	// Outliers (robust Z via MAD)
	OutliersCount    int
	OutliersMaxAbsZ  float64
	OutlierThreshold float64
}

// GroupResult captures aggregated metrics per geographic key.
type GroupResult struct {
	Key     string
	Size    int
	Metrics map[string]NumSummary
}

type NumSummary struct {
	Count          int
	Min, Max, Mean float64
}

// Summarize builds a report for store. has, when not nil, reports whether a
// geographic key has a boundary; keys it rejects are listed as unmatched.
func Summarize(store *dataset.Store, cat *catalog.Catalog, has func(string) bool, opt Options) (*Report, error) {
	if cat == nil {
		cat = catalog.Default()
	}
	r := &Report{
		Name:     store.Path(),
		Rows:     store.Len(),
		Entities: len(store.Entities("")),
		GeoKeys:  store.GeoKeys(),
		MinStart: store.MinStart(),
		MaxEnd:   store.MaxEnd(),
		Months:   store.Months(),
	}
	if has != nil {
		r.Unmatched = store.Unmatched(has)
	}

	values := map[string]stats.Float64Data{}
	seen := map[string]bool{}
	for _, rec := range store.Records() {
		for m, x := range rec.Metrics {
			values[m] = append(values[m], x)
			seen[m] = true
		}
	}

	for _, e := range cat.Metrics {
		xs := values[e.Metric]
		if len(xs) == 0 {
			continue
		}
		s, err := summarize(xs, opt)
		if err != nil {
			return nil, fmt.Errorf("summarize %s: %w", e.Metric, err)
		}
		s.Metric, s.Label, s.Kind = e.Metric, e.Label(), e.Kind
		r.Metrics = append(r.Metrics, s)
	}

	fields := map[string]bool{}
	for _, f := range cat.Fields {
		fields[f.Column] = true
	}
	for m := range seen {
		if _, ok := cat.Lookup(m); !ok && !fields[m] {
			r.Gaps = append(r.Gaps, m)
		}
	}
	sort.Strings(r.Gaps)

	for _, key := range r.GeoKeys {
		ids := store.Entities(key)
		g := GroupResult{Key: key, Size: len(ids), Metrics: map[string]NumSummary{}}
		for _, m := range opt.GroupMetrics {
			var xs stats.Float64Data
			for _, id := range ids {
				if rec, ok := store.Lookup(id); ok {
					if x, ok := rec.Metrics[m]; ok {
						xs = append(xs, x)
					}
				}
			}
			if len(xs) == 0 {
				continue
			}
			lo, _ := stats.Min(xs)
			hi, _ := stats.Max(xs)
			mean, _ := stats.Mean(xs)
			g.Metrics[m] = NumSummary{Count: len(xs), Min: lo, Max: hi, Mean: mean}
		}
		r.Groups = append(r.Groups, g)
	}
	return r, nil
}

func summarize(xs stats.Float64Data, opt Options) (MetricSummary, error) {
	s := MetricSummary{Count: len(xs)}
	var err error
	if s.Min, err = stats.Min(xs); err != nil {
		return s, err
	}
	if s.Max, err = stats.Max(xs); err != nil {
		return s, err
	}
	if s.Mean, err = stats.Mean(xs); err != nil {
		return s, err
	}
	if s.Median, err = stats.Median(xs); err != nil {
		return s, err
	}
	if len(xs) > 1 {
		if s.Std, err = stats.StandardDeviationSample(xs); err != nil {
			return s, err
		}
	}
	thr := opt.OutlierThreshold
	if thr <= 0 {
		thr = 3.5
	}
	if len(xs) < opt.OutlierMinCount {
		return s, nil
	}
	mad, err := stats.MedianAbsoluteDeviation(xs)
	if err != nil {
		return s, err
	}
	s.OutlierThreshold = thr
	if mad == 0 {
		return s, nil
	}
	for _, v := range xs {
		az := math.Abs(0.6745 * (v - s.Median) / mad)
		if az > thr {
			s.OutliersCount++
		}
		if az > s.OutliersMaxAbsZ {
			s.OutliersMaxAbsZ = az
		}
	}
	return s, nil
}

// Markdown renders the report as plain sections.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Entities: %d\n", r.Entities))
	b.WriteString(fmt.Sprintf("Geographic keys: %d\n", len(r.GeoKeys)))
	if r.Rows > 0 {
		b.WriteString(fmt.Sprintf("Date range: %s to %s (%d months)\n",
			r.MinStart.Format("2006-01-02"), r.MaxEnd.Format("2006-01-02"), r.Months))
	}
	if len(r.Unmatched) > 0 {
		b.WriteString(fmt.Sprintf("Unmatched keys: %s\n", strings.Join(r.Unmatched, ", ")))
	}

	if len(r.Metrics) > 0 {
		b.WriteString("\n[METRICS]\n")
		for _, m := range r.Metrics {
			b.WriteString(fmt.Sprintf("- %s (%s): n=%d, min %s, max %s, mean %s, median %s",
				m.Metric, m.Label, m.Count,
				derive.Format(m.Kind, m.Min), derive.Format(m.Kind, m.Max),
				derive.Format(m.Kind, m.Mean), derive.Format(m.Kind, m.Median)))
			if m.OutlierThreshold > 0 {
				b.WriteString(fmt.Sprintf("; outliers: %d above |z|>%.1f", m.OutliersCount, m.OutlierThreshold))
				if m.OutliersMaxAbsZ > 0 {
					b.WriteString(fmt.Sprintf(" (max |z|≈%.2f)", m.OutliersMaxAbsZ))
				}
			}
			b.WriteString("\n")
		}
	}

	if len(r.Groups) > 0 {
		b.WriteString("\n[BY STATE]\n")
		for _, g := range r.Groups {
			b.WriteString(fmt.Sprintf("- %s (n=%d)\n", g.Key, g.Size))
			keys := make([]string, 0, len(g.Metrics))
			for k := range g.Metrics {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				m := g.Metrics[k]
				b.WriteString(fmt.Sprintf("  • %s: mean %s (min %s, max %s)\n", k,
					derive.FormatPercent(m.Mean), derive.FormatPercent(m.Min), derive.FormatPercent(m.Max)))
			}
		}
	}

	if len(r.Gaps) > 0 {
		b.WriteString("\n[UNDESCRIBED COLUMNS]\n")
		for _, g := range r.Gaps {
			b.WriteString(fmt.Sprintf("- %s\n", g))
		}
	}
	return b.String()
}
