package lyrics

import "sort"

// CurrentIndex returns the index of the line that should be highlighted at
// playback time t, or -1 when t precedes every line.
//
// Lines are expected in ascending timestamp order (see IsOrdered). Lines
// without a timestamp never match.
func CurrentIndex(lines []Line, t float64) int {
	for i := len(lines) - 1; i >= 0; i-- {
		if ts := lines[i].Timestamp; ts != nil && *ts <= t {
			return i
		}
	}
	return -1
}

// IsOrdered reports whether every timestamped line is at or after the
// timestamp of the previous timestamped line
func IsOrdered(lines []Line) bool {
	var prev *float64
	for _, l := range lines {
		if l.Timestamp == nil {
			continue
		}
		if prev != nil && *l.Timestamp < *prev {
			return false
		}
		prev = l.Timestamp
	}
	return true
}

// SortByTimestamp returns a copy of lines stably sorted by timestamp.
// Lines without a timestamp go last, keeping their relative order.
func SortByTimestamp(lines []Line) []Line {
	sorted := make([]Line, len(lines))
	copy(sorted, lines)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Timestamp, sorted[j].Timestamp
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a < *b
		}
	})
	return sorted
}
