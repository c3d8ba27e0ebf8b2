package present

import (
	"fmt"

	"github.com/lukefredrickson/nfact-dashboard/internal/catalog"
	"github.com/lukefredrickson/nfact-dashboard/internal/derive"
	"github.com/lukefredrickson/nfact-dashboard/internal/selection"
)

const CompareChartID = "compare"

// Input gathers everything one render needs.
type Input struct {
	Title       string
	Catalog     *catalog.Catalog
	Snapshot    selection.Snapshot
	View        derive.View
	Compare     derive.Series
	MonthLabels []string
	Map         MapDescriptor
}

// Render is the complete render surface for one selection.
type Render struct {
	Title    string             `json:"title"`
	Heading  string             `json:"heading"`
	Map      MapDescriptor      `json:"map"`
	Dropdown DropdownDescriptor `json:"dropdown"`
	Slider   SliderDescriptor   `json:"slider"`
	Charts   []ChartDescriptor  `json:"charts"`
	Tables   []TableDescriptor  `json:"tables"`
}

// Build assembles the render. The comparison chart comes first, then one
// chart per catalog group of the selected entity.
func Build(in Input) Render {
	heading := in.Snapshot.Geo
	if heading == "" {
		heading = "United States"
	}
	r := Render{
		Title:    in.Title,
		Heading:  heading,
		Map:      in.Map,
		Dropdown: Dropdown(in.Snapshot),
		Slider:   Slider(in.MonthLabels, in.Snapshot.Range),
		Charts:   []ChartDescriptor{},
		Tables:   []TableDescriptor{},
	}
	if len(in.Compare) > 0 {
		r.Charts = append(r.Charts, Chart(CompareChartID, fmt.Sprintf("%s Food Insecurity", heading), "Study Site", in.Compare))
	}
	for _, g := range in.View.Series.Groups() {
		title := g.ID
		if in.Catalog != nil {
			title = in.Catalog.Title(g.ID)
		}
		r.Charts = append(r.Charts, Chart(g.ID, fmt.Sprintf("%s: %s", in.View.Entity, title), "Category", g.Rows))
	}
	if len(in.View.Details) > 0 {
		r.Tables = append(r.Tables, Table(in.View.Entity, in.View.Details))
	}
	return r
}

// FindChart returns the chart with the given id.
func (r Render) FindChart(id string) (ChartDescriptor, bool) {
	for _, c := range r.Charts {
		if c.ID == id {
			return c, true
		}
	}
	return ChartDescriptor{}, false
}
