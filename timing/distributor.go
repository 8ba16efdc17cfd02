package timing

import "epk-api-go/lyrics"

const (
	// Fractions of the track left free before the first and after the last line
	headBuffer = 0.05
	tailBuffer = 0.05
)

// Distribute assigns evenly spaced timestamps across the track duration.
// If any line already carries a timestamp the file is taken as hand-timed and
// returned as is; partially timed files are not filled in.
func Distribute(lines []lyrics.Line, duration float64) []lyrics.Line {
	if len(lines) == 0 {
		return []lyrics.Line{}
	}
	if lyrics.HasAnyTimestamp(lines) {
		return lines
	}

	start := duration * headBuffer
	available := duration - start - duration*tailBuffer
	perLine := available / float64(len(lines))

	timed := make([]lyrics.Line, len(lines))
	for i, l := range lines {
		timed[i] = l.WithTimestamp(start + float64(i)*perLine)
	}
	return timed
}
