// Package geo loads region boundaries from a GeoJSON FeatureCollection and
// resolves map-click coordinates to region names.
package geo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	geojson "github.com/paulmach/go.geojson"

	"github.com/lukefredrickson/nfact-dashboard/internal/source"
)

// DefaultNameProperty is the feature property holding the region name.
const DefaultNameProperty = "NAME"

// ErrNoFeatures indicates a collection without any usable polygon feature.
var ErrNoFeatures = errors.New("no polygon features with a name")

// LoadError reports an unreadable or malformed boundary file.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string { return fmt.Sprintf("load boundaries %s: %v", e.Path, e.Err) }
func (e *LoadError) Unwrap() error { return e.Err }

type Point struct {
	Lon, Lat float64
}

// Polygon is an outer ring followed by zero or more holes.
type Polygon struct {
	Rings [][]Point
}

// Feature is one named region. A region may consist of several polygons.
type Feature struct {
	Name     string
	Polygons []Polygon
	BBox     [4]float64 // minLon, minLat, maxLon, maxLat
}

// Contains reports whether pt lies inside the region.
func (f *Feature) Contains(pt Point) bool {
	if !inBBox(pt, f.BBox) {
		return false
	}
	for _, p := range f.Polygons {
		if pointInPoly(pt, p) {
			return true
		}
	}
	return false
}

// Boundaries is the immutable set of loaded regions.
type Boundaries struct {
	features []*Feature
	byName   map[string]*Feature
	names    []string
}

// Load reads the GeoJSON at location through the asset source.
func Load(ctx context.Context, location, nameProperty string, opt source.Options) (*Boundaries, error) {
	data, err := source.ReadAll(ctx, location, opt)
	if err != nil {
		return nil, &LoadError{Path: location, Err: err}
	}
	return Parse(location, data, nameProperty)
}

// Parse decodes a FeatureCollection. Features that are not polygons or lack
// the name property are skipped.
func Parse(path string, data []byte, nameProperty string) (*Boundaries, error) {
	if nameProperty == "" {
		nameProperty = DefaultNameProperty
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("decode geojson: %w", err)}
	}
	b := &Boundaries{byName: map[string]*Feature{}}
	for _, gf := range fc.Features {
		if gf == nil || gf.Geometry == nil {
			continue
		}
		name := gf.PropertyMustString(nameProperty, "")
		if name == "" {
			continue
		}
		var polys [][][][]float64
		switch {
		case gf.Geometry.IsPolygon():
			polys = [][][][]float64{gf.Geometry.Polygon}
		case gf.Geometry.IsMultiPolygon():
			polys = gf.Geometry.MultiPolygon
		default:
			continue
		}
		f, ok := b.byName[name]
		if !ok {
			f = &Feature{Name: name, BBox: [4]float64{math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)}}
			b.byName[name] = f
			b.features = append(b.features, f)
			b.names = append(b.names, name)
		}
		for _, raw := range polys {
			p := toPolygon(raw)
			if len(p.Rings) == 0 {
				continue
			}
			f.Polygons = append(f.Polygons, p)
			extend(&f.BBox, p.Rings[0])
		}
	}
	if len(b.features) == 0 {
		return nil, &LoadError{Path: path, Err: ErrNoFeatures}
	}
	sort.Strings(b.names)
	return b, nil
}

func toPolygon(raw [][][]float64) Polygon {
	var p Polygon
	for _, ring := range raw {
		pts := make([]Point, 0, len(ring))
		for _, c := range ring {
			if len(c) < 2 {
				continue
			}
			pts = append(pts, Point{Lon: c[0], Lat: c[1]})
		}
		if len(pts) < 3 {
			if len(p.Rings) == 0 {
				return Polygon{}
			}
			continue
		}
		p.Rings = append(p.Rings, pts)
	}
	return p
}

func extend(b *[4]float64, ring []Point) {
	for _, pt := range ring {
		b[0] = math.Min(b[0], pt.Lon)
		b[1] = math.Min(b[1], pt.Lat)
		b[2] = math.Max(b[2], pt.Lon)
		b[3] = math.Max(b[3], pt.Lat)
	}
}

// Resolve returns the name of the region containing the coordinate.
func (b *Boundaries) Resolve(lon, lat float64) (string, bool) {
	pt := Point{Lon: lon, Lat: lat}
	for _, f := range b.features {
		if f.Contains(pt) {
			return f.Name, true
		}
	}
	return "", false
}

// Names returns the region names, sorted.
func (b *Boundaries) Names() []string { return append([]string{}, b.names...) }

// Has reports whether a region with the given name exists.
func (b *Boundaries) Has(name string) bool {
	_, ok := b.byName[name]
	return ok
}

// Feature returns the named region.
func (b *Boundaries) Feature(name string) (*Feature, bool) {
	f, ok := b.byName[name]
	return f, ok
}

// Len returns the number of regions.
func (b *Boundaries) Len() int { return len(b.features) }
