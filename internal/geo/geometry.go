package geo

import (
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// DefaultNameProperties are tried in order when a feature's name property is
// not configured or missing.
var DefaultNameProperties = []string{"name", "ADMIN", "NAME", "name_long"}

// Feature is a named polygon or multipolygon.
type Feature struct {
	Name     string
	Geometry orb.Geometry
}

// Polygons flattens the feature geometry to polygons.
func (f Feature) Polygons() []orb.Polygon {
	switch g := f.Geometry.(type) {
	case orb.Polygon:
		return []orb.Polygon{g}
	case orb.MultiPolygon:
		return []orb.Polygon(g)
	}
	return nil
}

// Basemap is the geometry source as loaded.
type Basemap struct {
	Features []Feature
	// Warnings lists features that were skipped.
	Warnings []string
}

// Names returns the feature names in input order.
func (b *Basemap) Names() []string {
	out := make([]string, len(b.Features))
	for i, f := range b.Features {
		out[i] = f.Name
	}
	return out
}

// Bound is the bounding box of every feature.
func (b *Basemap) Bound() orb.Bound {
	var bound orb.Bound
	for i, f := range b.Features {
		if i == 0 {
			bound = f.Geometry.Bound()
			continue
		}
		bound = bound.Union(f.Geometry.Bound())
	}
	return bound
}

// LoadGeoJSON reads a FeatureCollection from path.
func LoadGeoJSON(path, nameProperty string) (*Basemap, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read geometry: %w", err)
	}
	return ParseGeoJSON(b, nameProperty)
}

// ParseGeoJSON decodes a FeatureCollection, keeping polygonal features that
// carry a name. nameProperty is tried first, then DefaultNameProperties.
func ParseGeoJSON(data []byte, nameProperty string) (*Basemap, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse geojson: %w", err)
	}
	props := DefaultNameProperties
	if nameProperty != "" {
		props = append([]string{nameProperty}, DefaultNameProperties...)
	}
	bm := &Basemap{}
	for i, f := range fc.Features {
		name := ""
		for _, p := range props {
			if v := f.Properties.MustString(p, ""); v != "" {
				name = v
				break
			}
		}
		if name == "" {
			bm.Warnings = append(bm.Warnings, fmt.Sprintf("feature %d skipped: no name property", i))
			continue
		}
		switch f.Geometry.(type) {
		case orb.Polygon, orb.MultiPolygon:
		default:
			bm.Warnings = append(bm.Warnings, fmt.Sprintf("feature %q skipped: geometry %T is not polygonal", name, f.Geometry))
			continue
		}
		bm.Features = append(bm.Features, Feature{Name: name, Geometry: f.Geometry})
	}
	return bm, nil
}
