package timeutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRangesOverlap(t *testing.T) {
	assert.True(t, RangesOverlap(1, 5, 5, 10), "touching endpoints overlap")
	assert.True(t, RangesOverlap(1, 10, 3, 4), "containment overlaps")
	assert.False(t, RangesOverlap(1, 5, 6, 10))
	assert.False(t, RangesOverlap(6, 10, 1, 5))
}

func TestSumOfIntervalsMergesOverlapping(t *testing.T) {
	got := SumOfIntervals([]Interval{
		{1, 5}, {4, 10}, {7, 13}, {15, 20}, {21, 30},
	})
	assert.Equal(t, []Interval{{1, 13}, {15, 20}, {21, 30}}, got)
}

func TestSumOfIntervalsDisjoint(t *testing.T) {
	got := SumOfIntervals([]Interval{{10, 12}, {1, 3}})
	assert.Equal(t, []Interval{{1, 3}, {10, 12}}, got)
}

func TestSumOfIntervalsEmpty(t *testing.T) {
	assert.Empty(t, SumOfIntervals(nil))
}

func TestSumOfIntervalsDuplicates(t *testing.T) {
	got := SumOfIntervals([]Interval{{1, 5}, {1, 5}})
	assert.Equal(t, []Interval{{1, 5}}, got)
}
