package lyrics

import (
	"bufio"
	"io"
	"regexp"
	"strconv"
	"strings"
)

var (
	// Marker line pattern: the whole line is a single [token]
	markerRegex = regexp.MustCompile(`^\[([^\]]+)\]$`)

	// Timestamp marker content: [M:SS], [MM:SS] or [M:SS.s...]
	timestampRegex = regexp.MustCompile(`^(\d{1,2}):(\d{2}(?:\.\d+)?)$`)
)

// parseState is the accumulator threaded through a single parse
type parseState struct {
	section string
	pending *float64
	lines   []Line
}

// Parse converts raw lyrics text into ordered lines.
//
// Supported markers:
//   - [Verse], [Chorus], ... set the section label for following lines
//   - [0:15], [01:30.5] set a timestamp for the next lyric line only
//
// Blank lines are ignored. Brackets followed by other text are regular lyrics.
func Parse(text string) []Line {
	state := parseState{lines: []Line{}}
	for _, raw := range strings.Split(text, "\n") {
		state = state.consume(raw)
	}
	return state.lines
}

// ParseReader parses lyrics read from r. Handles CRLF line endings and a
// leading UTF-8 BOM.
func ParseReader(r io.Reader) ([]Line, error) {
	state := parseState{lines: []Line{}}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	first := true
	for scanner.Scan() {
		raw := scanner.Text()
		if first {
			raw = strings.TrimPrefix(raw, "\ufeff")
			first = false
		}
		state = state.consume(raw)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return state.lines, nil
}

func (s parseState) consume(raw string) parseState {
	line := strings.TrimSpace(raw)
	if line == "" {
		return s
	}

	if m := markerRegex.FindStringSubmatch(line); m != nil {
		if ts, ok := parseTimestamp(m[1]); ok {
			s.pending = &ts
		} else {
			s.section = m[1]
		}
		return s
	}

	s.lines = append(s.lines, Line{
		Section:   s.section,
		Text:      line,
		Timestamp: s.pending,
	})
	s.pending = nil
	return s
}

// parseTimestamp converts "M:SS(.s)" into seconds
func parseTimestamp(content string) (float64, bool) {
	m := timestampRegex.FindStringSubmatch(content)
	if m == nil {
		return 0, false
	}
	minutes, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return 0, false
	}
	return float64(minutes)*60 + seconds, true
}
