package hoods

import (
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
)

// nameFields are the attribute names tried, in order, when no name column is
// configured. DBF caps field names at ten characters.
var nameFields = []string{"nhood", "name", "neighborho"}

// ReadShapefile loads neighborhood polygons from a .shp file. The name
// column is fieldName when given, otherwise the first of nhood, name,
// neighborho present in the attribute table.
func ReadShapefile(shpPath, fieldName string) (*Neighborhoods, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "hoods: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	fieldIdx := make(map[string]int)
	for i, f := range reader.Fields() {
		name := strings.TrimRight(f.String(), "\x00")
		fieldIdx[strings.ToLower(name)] = i
	}

	nameIdx, err := locateNameField(fieldIdx, fieldName)
	if err != nil {
		return nil, err
	}

	n := &Neighborhoods{}
	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok {
			skipped++
			continue
		}

		name := strings.TrimSpace(strings.TrimRight(reader.Attribute(nameIdx), "\x00"))
		if name == "" {
			skipped++
			continue
		}

		mp := polygonToMultiPolygon(poly)
		if mp == nil {
			skipped++
			continue
		}

		n.areas = append(n.areas, area{name: name, geom: mp, bounds: mp.Bounds()})
	}

	if skipped > 0 {
		zap.L().Debug("hoods: skipped shapefile records",
			zap.String("path", shpPath),
			zap.Int("skipped", skipped),
		)
	}
	if len(n.areas) == 0 {
		return nil, eris.Errorf("hoods: no neighborhood polygons in %s", shpPath)
	}
	return n, nil
}

func locateNameField(fieldIdx map[string]int, fieldName string) (int, error) {
	if fieldName != "" {
		idx, ok := fieldIdx[strings.ToLower(fieldName)]
		if !ok {
			return 0, eris.Errorf("hoods: field %q not in shapefile", fieldName)
		}
		return idx, nil
	}
	for _, f := range nameFields {
		if idx, ok := fieldIdx[f]; ok {
			return idx, nil
		}
	}
	return 0, eris.Errorf("hoods: no name field in shapefile (tried %s)", strings.Join(nameFields, ", "))
}

// polygonToMultiPolygon converts a shapefile Polygon to a geom.MultiPolygon.
// Each shapefile part becomes its own single-ring polygon.
func polygonToMultiPolygon(p *shp.Polygon) *geom.MultiPolygon {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY).SetSRID(4326)

	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		var end int32
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		} else {
			end = int32(len(p.Points))
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}

		ring := geom.NewLinearRingFlat(geom.XY, flat)
		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(ring); err != nil {
			zap.L().Debug("hoods: skipping malformed polygon ring", zap.Int32("part", i), zap.Error(err))
			continue
		}
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("hoods: skipping malformed polygon part", zap.Int32("part", i), zap.Error(err))
			continue
		}
	}

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}
