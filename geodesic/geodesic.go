// Package geodesic sums ellipsoidal distances along a path of points. The
// inverse geodesic problem itself is delegated to an InverseSolver.
package geodesic

import (
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/cockroachdb/errors"
	geographiclib "github.com/tidwall/geodesic"
)

// InverseSolver computes the distance in metres between two points given in
// degrees.
type InverseSolver interface {
	Inverse(lat1, lon1, lat2, lon2 float64) float64
}

// Ellipsoid is a reference ellipsoid solved with GeographicLib's algorithms.
type Ellipsoid struct {
	e *geographiclib.Ellipsoid
}

// NewEllipsoid returns the ellipsoid with equatorial radius a (metres) and
// flattening f.
func NewEllipsoid(a, f float64) *Ellipsoid {
	return &Ellipsoid{e: geographiclib.NewEllipsoid(a, f)}
}

var wgs84 = &Ellipsoid{e: geographiclib.WGS84}

// WGS84 returns the WGS84 ellipsoid.
func WGS84() *Ellipsoid {
	return wgs84
}

// Inverse implements InverseSolver.
func (e *Ellipsoid) Inverse(lat1, lon1, lat2, lon2 float64) float64 {
	var s12 float64
	e.e.Inverse(lat1, lon1, lat2, lon2, &s12, nil, nil)
	return s12
}

// Accumulate writes to out the sum of the distances between consecutive
// points (lats[i], lons[i]) for i < n. With fewer than two points the sum is
// 0. Coordinates are passed to the solver as given. n is clamped to the
// length of the shorter slice.
func Accumulate(solver InverseSolver, lats, lons []float64, n int, out *float64) {
	n = min(n, len(lats), len(lons))
	total := 0.0
	for i := 1; i < n; i++ {
		total += solver.Inverse(lats[i-1], lons[i-1], lats[i], lons[i])
	}
	*out = total
}

// Length returns the length of the path through the given points.
func Length(solver InverseSolver, lats, lons []float64) (float64, error) {
	if len(lats) != len(lons) {
		return 0, errors.Newf("path has %d latitudes but %d longitudes", len(lats), len(lons))
	}
	var total float64
	Accumulate(solver, lats, lons, len(lats), &total)
	return total, nil
}

// LengthArrow is Length over Arrow columns. Null coordinates are an error.
func LengthArrow(solver InverseSolver, lats, lons *array.Float64) (float64, error) {
	if lats.Len() != lons.Len() {
		return 0, errors.Newf("path has %d latitudes but %d longitudes", lats.Len(), lons.Len())
	}
	if n := lats.NullN(); n > 0 {
		return 0, errors.Newf("latitude column has %d nulls", n)
	}
	if n := lons.NullN(); n > 0 {
		return 0, errors.Newf("longitude column has %d nulls", n)
	}
	return Length(solver, lats.Float64Values(), lons.Float64Values())
}
