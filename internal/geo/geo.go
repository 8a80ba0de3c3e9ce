// Package geo provides great-circle distance and nearest-location lookup
// over resolved film locations.
package geo

import (
	"math"
	"sort"

	"github.com/reelmap/locations-cli/internal/model"
)

// earthRadiusM is the mean Earth radius in meters.
const earthRadiusM = 6371000.0

// Distance returns the great-circle distance in meters between two points,
// by the haversine formula.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := radians(lat1)
	phi2 := radians(lat2)
	dPhi := radians(lat2 - lat1)
	dLambda := radians(lon2 - lon1)

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusM * c
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Neighbor pairs a resolved row with its distance from a reference point.
type Neighbor struct {
	Row    model.ResolvedRow
	Meters float64
}

// Nearest returns the n rows closest to (lat, lon), nearest first. Rows
// without coordinates are skipped; ties keep input order. n defaults to 3.
func Nearest(rows []model.ResolvedRow, lat, lon float64, n int) []Neighbor {
	if n <= 0 {
		n = 3
	}

	neighbors := make([]Neighbor, 0, len(rows))
	for _, row := range rows {
		if row.Latitude == nil || row.Longitude == nil {
			continue
		}
		neighbors = append(neighbors, Neighbor{
			Row:    row,
			Meters: Distance(lat, lon, *row.Latitude, *row.Longitude),
		})
	}

	sort.SliceStable(neighbors, func(i, j int) bool {
		return neighbors[i].Meters < neighbors[j].Meters
	})

	if len(neighbors) > n {
		neighbors = neighbors[:n]
	}
	return neighbors
}
