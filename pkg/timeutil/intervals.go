package timeutil

import "sort"

// Interval is a closed range over any ordered integer values (unix days,
// plain ints in tests).
type Interval struct {
	Start int64
	End   int64
}

// RangesOverlap reports whether two closed intervals share at least one
// point. Both intervals must be proper (end >= start).
func RangesOverlap(start1, end1, start2, end2 int64) bool {
	return start1 <= end2 && end1 >= start2
}

// SumOfIntervals merges a set of closed intervals into the minimal disjoint
// covering set. Overlapping intervals collapse into
// (min(start1, start2), max(end1, end2)).
//
// SumOfIntervals([(1,5), (4,10), (7,13), (15,20), (21,30)])
// => [(1,13), (15,20), (21,30)]
func SumOfIntervals(intervals []Interval) []Interval {
	type event struct {
		value   int64
		isStart bool
	}
	seen := make(map[event]struct{}, len(intervals)*2)
	events := make([]event, 0, len(intervals)*2)
	for _, iv := range intervals {
		for _, ev := range []event{{iv.Start, true}, {iv.End, false}} {
			if _, ok := seen[ev]; ok {
				continue
			}
			seen[ev] = struct{}{}
			events = append(events, ev)
		}
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].value != events[j].value {
			return events[i].value < events[j].value
		}
		// start events sort before end events at the same point so that
		// touching intervals stay merged
		return events[i].isStart && !events[j].isStart
	})

	var (
		result       []Interval
		currentStart int64
		started      int
		open         bool
	)
	for _, ev := range events {
		if ev.isStart {
			if !open {
				currentStart = ev.value
				open = true
			}
			started++
		} else {
			started--
			if started == 0 {
				result = append(result, Interval{Start: currentStart, End: ev.value})
				open = false
			}
		}
	}
	return result
}
