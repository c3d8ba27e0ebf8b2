package derive

import (
	"errors"
	"fmt"
	"sort"

	"github.com/montanaflynn/stats"
)

// Aggregations for combining several records of one region.
const (
	AggMean = "mean"
	AggMax  = "max"
	AggSum  = "sum"
)

// ErrUnknownAggregation reports an aggregation other than mean, max or sum.
var ErrUnknownAggregation = errors.New("unknown aggregation")

// GeoValue is the shading value of one region.
type GeoValue struct {
	Geo   string  `json:"geo"`
	Value float64 `json:"value"`
}

// Choropleth aggregates metric per geographic key. Keys without the metric
// are omitted; the result is sorted by key.
func Choropleth(data Data, metric, agg string) ([]GeoValue, error) {
	var fn func(stats.Float64Data) (float64, error)
	switch agg {
	case "", AggMean:
		fn = stats.Mean
	case AggMax:
		fn = stats.Max
	case AggSum:
		fn = stats.Sum
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAggregation, agg)
	}
	byGeo := map[string]stats.Float64Data{}
	for _, r := range data.Records() {
		if r.Geo == "" {
			continue
		}
		if x, ok := r.Metrics[metric]; ok {
			byGeo[r.Geo] = append(byGeo[r.Geo], x)
		}
	}
	out := make([]GeoValue, 0, len(byGeo))
	for geo, xs := range byGeo {
		v, err := fn(xs)
		if err != nil {
			return nil, fmt.Errorf("aggregate %s for %s: %w", metric, geo, err)
		}
		out = append(out, GeoValue{Geo: geo, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Geo < out[j].Geo })
	return out, nil
}
