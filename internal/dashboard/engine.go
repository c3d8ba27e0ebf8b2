// Package dashboard wires the loaded assets, the selection state and the
// derivation pipeline behind an HTTP surface.
package dashboard

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/lukefredrickson/nfact-dashboard/internal/catalog"
	"github.com/lukefredrickson/nfact-dashboard/internal/dataset"
	"github.com/lukefredrickson/nfact-dashboard/internal/derive"
	"github.com/lukefredrickson/nfact-dashboard/internal/geo"
	"github.com/lukefredrickson/nfact-dashboard/internal/metrics"
	"github.com/lukefredrickson/nfact-dashboard/internal/present"
	"github.com/lukefredrickson/nfact-dashboard/internal/selection"
)

// Assets are loaded once at startup and shared read-only.
type Assets struct {
	Store      *dataset.Store
	Boundaries *geo.Boundaries // optional
	Catalog    *catalog.Catalog
}

// Options tune rendering and the session table.
type Options struct {
	Title          string
	MapMetric      string
	MapAgg         string
	CompareMetrics []string
	SessionTTL     time.Duration
	MaxSessions    int
	Logger         *slog.Logger
}

// Engine renders selections. It holds no per-user state and is safe for
// concurrent use.
type Engine struct {
	assets  Assets
	opt     Options
	mapDesc present.MapDescriptor
	labels  []string
}

// NewEngine precomputes the map and slider labels.
func NewEngine(a Assets, opt Options) (*Engine, error) {
	if a.Store == nil {
		return nil, fmt.Errorf("new engine: dataset is required")
	}
	if a.Catalog == nil {
		a.Catalog = catalog.Default()
	}
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	vals, err := derive.Choropleth(a.Store, opt.MapMetric, opt.MapAgg)
	if err != nil {
		return nil, fmt.Errorf("build map: %w", err)
	}
	var has func(string) bool
	if a.Boundaries != nil {
		has = a.Boundaries.Has
		if missing := a.Store.Unmatched(has); len(missing) > 0 {
			opt.Logger.Warn("unmatched_geo_keys", "count", len(missing), "keys", missing)
		}
	}
	return &Engine{
		assets:  a,
		opt:     opt,
		mapDesc: present.Map(opt.MapMetric, vals, has),
		labels:  a.Store.MonthLabels(),
	}, nil
}

// NewState returns a selection in its default state.
func (e *Engine) NewState() *selection.State { return selection.New(e.assets.Store) }

// Map returns the static map descriptor.
func (e *Engine) Map() present.MapDescriptor { return e.mapDesc }

// Resolver returns the coordinate resolver, or nil without boundaries.
func (e *Engine) Resolver() selection.Resolver {
	if e.assets.Boundaries == nil {
		return nil
	}
	return e.assets.Boundaries
}

// Store returns the shared dataset.
func (e *Engine) Store() *dataset.Store { return e.assets.Store }

// Render derives and builds the render surface for one selection.
func (e *Engine) Render(snap selection.Snapshot) present.Render {
	start := time.Now()
	view := derive.Derive(e.assets.Store, e.assets.Catalog, snap)
	if n := len(view.Gaps); n > 0 {
		metrics.FormatGapsTotal.Add(float64(n))
	}
	var cmp derive.Series
	if snap.Geo != "" {
		cmp = derive.Compare(e.assets.Store, e.assets.Catalog, snap.Geo, e.opt.CompareMetrics)
	}
	r := present.Build(present.Input{
		Title:       e.opt.Title,
		Catalog:     e.assets.Catalog,
		Snapshot:    snap,
		View:        view,
		Compare:     cmp,
		MonthLabels: e.labels,
		Map:         e.mapDesc,
	})
	metrics.RenderDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000)
	return r
}

// RenderEntity renders the selection reached by choosing geo, then entity.
// miss reports whether either choice fell back to a default.
func (e *Engine) RenderEntity(geoKey, entity string) (r present.Render, miss bool) {
	st := e.NewState()
	if geoKey != "" {
		out, _ := st.Apply(selection.StateSelect{Key: geoKey})
		miss = out.Miss
	}
	if entity != "" {
		out, _ := st.Apply(selection.EntitySelect{ID: entity})
		miss = miss || out.Miss
	}
	return e.Render(st.Snapshot()), miss
}
