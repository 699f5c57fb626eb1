package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlanarDistance(t *testing.T) {
	assert.InDelta(t, 5.0, PlanarDistance(Point{0, 0}, Point{3, 4}), 1e-12)
	assert.Zero(t, PlanarDistance(Point{41.0082, 28.9784}, Point{41.0082, 28.9784}))
}

func TestInReach_MatchesThreshold(t *testing.T) {
	e := NewEvaluator(0, 0)
	pairs := [][2]Point{
		{{41.0082, 28.9784}, {41.0090, 28.9790}},
		{{41.0082, 28.9784}, {41.0162, 28.9784}},
		{{41.0082, 28.9784}, {41.0200, 28.9900}},
		{{-33.86, 151.2}, {-33.861, 151.201}},
		{{0, 0}, {0.008, 0}},
	}
	for _, p := range pairs {
		a, b := p[0], p[1]
		want := PlanarDistance(a, b) < DefaultReachThreshold
		assert.Equal(t, want, e.InReach(&a, b), "reach(%v, %v)", a, b)
		assert.Equal(t, e.InReach(&a, b), e.InReach(&b, a), "reach must be symmetric for %v, %v", a, b)
	}
}

func TestInReach_ThresholdIsExclusive(t *testing.T) {
	e := NewEvaluator(1, 1)
	viewer := Point{0, 0}
	assert.False(t, e.InReach(&viewer, Point{1, 0}))
	assert.True(t, e.InReach(&viewer, Point{math.Nextafter(1, 0), 0}))
}

func TestUnknownPosition(t *testing.T) {
	e := NewEvaluator(0, 0)
	target := Point{41.0082, 28.9784}
	assert.False(t, e.InReach(nil, target))
	assert.False(t, e.WithinDropRadius(nil, target))
}

func TestWithinDropRadius(t *testing.T) {
	e := NewEvaluator(0, 0)
	viewer := Point{41.0082, 28.9784}
	assert.True(t, e.WithinDropRadius(&viewer, Point{41.0090, 28.9790}))
	assert.True(t, e.WithinDropRadius(&viewer, Point{41.1082, 29.0784}))
	assert.False(t, e.WithinDropRadius(&viewer, Point{41.5, 28.9784}))
}

func TestNewEvaluator_Defaults(t *testing.T) {
	e := NewEvaluator(-1, 0)
	assert.Equal(t, DefaultReachThreshold, e.ReachThreshold)
	assert.Equal(t, DefaultDropRadius, e.DropRadius)
}
