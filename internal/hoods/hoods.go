// Package hoods loads a neighborhoods shapefile and backfills missing
// neighborhood names on resolved rows by point-in-polygon lookup.
package hoods

import (
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"go.uber.org/zap"

	"github.com/reelmap/locations-cli/internal/model"
)

// area is one named neighborhood polygon with its precomputed bounds.
type area struct {
	name   string
	geom   *geom.MultiPolygon
	bounds *geom.Bounds
}

// Neighborhoods is a loaded set of neighborhood polygons.
type Neighborhoods struct {
	areas []area
}

// Len returns the number of loaded neighborhood areas.
func (n *Neighborhoods) Len() int {
	return len(n.areas)
}

// Lookup returns the name of the neighborhood containing the point.
func (n *Neighborhoods) Lookup(lat, lon float64) (string, bool) {
	pt := geom.Coord{lon, lat}
	for i := range n.areas {
		a := &n.areas[i]
		if !a.bounds.OverlapsPoint(geom.XY, pt) {
			continue
		}
		if multiPolygonContains(a.geom, pt) {
			return a.name, true
		}
	}
	return "", false
}

// multiPolygonContains reports whether the point lies inside any polygon of
// the multipolygon: in its exterior ring and outside its interior rings.
func multiPolygonContains(mp *geom.MultiPolygon, pt geom.Coord) bool {
	for i := 0; i < mp.NumPolygons(); i++ {
		poly := mp.Polygon(i)
		if poly.NumLinearRings() == 0 {
			continue
		}
		if !xy.IsPointInRing(geom.XY, pt, poly.LinearRing(0).FlatCoords()) {
			continue
		}
		inHole := false
		for r := 1; r < poly.NumLinearRings(); r++ {
			if xy.IsPointInRing(geom.XY, pt, poly.LinearRing(r).FlatCoords()) {
				inHole = true
				break
			}
		}
		if !inHole {
			return true
		}
	}
	return false
}

// Backfill fills the neighborhood of rows that joined a registry record
// without one. The published table records absent neighborhoods as "nan",
// so both the empty string and that literal count as missing. Returns the
// number of rows updated.
func (n *Neighborhoods) Backfill(rows []model.ResolvedRow) int {
	updated := 0
	for i := range rows {
		if rows[i].Neighborhood != "" && rows[i].Neighborhood != "nan" {
			continue
		}
		if rows[i].Latitude == nil || rows[i].Longitude == nil {
			continue
		}
		name, ok := n.Lookup(*rows[i].Latitude, *rows[i].Longitude)
		if !ok {
			continue
		}
		rows[i].Neighborhood = name
		updated++
	}

	zap.L().Info("neighborhoods backfilled",
		zap.Int("updated", updated),
		zap.Int("rows", len(rows)),
	)
	return updated
}
