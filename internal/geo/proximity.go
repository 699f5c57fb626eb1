// Package geo decides proximity between map points. Distances are planar
// Euclidean on raw degrees, which is fine at city scale and wrong near the
// poles or across long distances.
package geo

import "math"

const (
	DefaultReachThreshold = 0.008 // about 800m
	DefaultDropRadius     = 0.2   // about 20km
)

// Point is a latitude/longitude pair in degrees
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// PlanarDistance returns sqrt(dLat^2 + dLng^2)
func PlanarDistance(a, b Point) float64 {
	return math.Hypot(a.Lat-b.Lat, a.Lng-b.Lng)
}

// Evaluator applies the reach and drop radius thresholds
type Evaluator struct {
	ReachThreshold float64
	DropRadius     float64
}

// NewEvaluator creates an evaluator, falling back to the defaults for
// non-positive thresholds
func NewEvaluator(reachThreshold, dropRadius float64) Evaluator {
	if reachThreshold <= 0 {
		reachThreshold = DefaultReachThreshold
	}
	if dropRadius <= 0 {
		dropRadius = DefaultDropRadius
	}
	return Evaluator{ReachThreshold: reachThreshold, DropRadius: dropRadius}
}

// InReach reports whether target is strictly closer than the reach
// threshold. An unknown viewer position is never in reach.
func (e Evaluator) InReach(viewer *Point, target Point) bool {
	if viewer == nil {
		return false
	}
	return PlanarDistance(*viewer, target) < e.ReachThreshold
}

// WithinDropRadius reports whether target is inside the drop radius.
// An unknown viewer position is always outside.
func (e Evaluator) WithinDropRadius(viewer *Point, target Point) bool {
	if viewer == nil {
		return false
	}
	return PlanarDistance(*viewer, target) <= e.DropRadius
}
