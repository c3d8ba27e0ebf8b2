package present

import (
	"errors"
	"fmt"
	"io"
	"math"

	chart "github.com/wcharczuk/go-chart/v2"

	"github.com/lukefredrickson/nfact-dashboard/internal/derive"
)

// ErrEmptyChart is returned when a chart has nothing to draw.
var ErrEmptyChart = errors.New("chart has no values")

// RenderPNG draws c as a bar chart. Traces are flattened into one bar per
// (category, trace) pair and colored by trace.
func RenderPNG(w io.Writer, c ChartDescriptor, width, height int) error {
	var bars []chart.Value
	lo, hi := 0.0, 0.0
	for i, t := range c.Traces {
		color := chart.GetDefaultColor(i)
		for j, cat := range t.Categories {
			label := cat
			if len(c.Traces) > 1 {
				label = cat + " / " + t.Name
			}
			v := t.Values[j]
			lo, hi = math.Min(lo, v), math.Max(hi, v)
			bars = append(bars, chart.Value{
				Label: label,
				Value: v,
				Style: chart.Style{FillColor: color, StrokeColor: color},
			})
		}
	}
	if len(bars) == 0 {
		return fmt.Errorf("render %s: %w", c.ID, ErrEmptyChart)
	}
	if hi == lo {
		hi = lo + 1
	}
	formatter := func(v interface{}) string {
		f, _ := v.(float64)
		if c.Percent {
			return derive.FormatPercent(f)
		}
		return derive.FormatCount(f)
	}
	bc := chart.BarChart{
		Title:  c.Title,
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16},
		},
		YAxis: chart.YAxis{
			Name:           c.ValueAxis,
			Range:          &chart.ContinuousRange{Min: lo, Max: hi},
			ValueFormatter: formatter,
		},
		UseBaseValue: lo < 0,
		BaseValue:    0,
		Bars:         bars,
	}
	if err := bc.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render %s: %w", c.ID, err)
	}
	return nil
}
