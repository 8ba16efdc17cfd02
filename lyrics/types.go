package lyrics

// Line is one displayable lyric line
type Line struct {
	// Section is the label of the structural section the line belongs to
	// (e.g. "Verse", "Chorus"). Empty when no section was declared yet.
	Section string `json:"section"`

	// Text is the trimmed, non-empty content of the line
	Text string `json:"text"`

	// Timestamp is the playback offset in seconds. Nil until either the source
	// declared one or a timing strategy computed it.
	Timestamp *float64 `json:"timestamp"`
}

// Section is a contiguous run of lines sharing the same label
type Section struct {
	Name  string
	Lines []Line
}

// UnknownSection is the group name used for lines with no declared section
const UnknownSection = "Unknown"

// WithTimestamp returns a copy of the line carrying the given timestamp
func (l Line) WithTimestamp(ts float64) Line {
	l.Timestamp = &ts
	return l
}

// HasTimestamp reports whether the line carries a timestamp
func (l Line) HasTimestamp() bool {
	return l.Timestamp != nil
}

// HasAnyTimestamp reports whether at least one line carries a timestamp
func HasAnyTimestamp(lines []Line) bool {
	for _, l := range lines {
		if l.Timestamp != nil {
			return true
		}
	}
	return false
}

// GroupSections splits lines into consecutive runs sharing a section label.
// A new group starts whenever the label changes, so a label seen again later
// opens a fresh group.
func GroupSections(lines []Line) []Section {
	var sections []Section
	for i, l := range lines {
		if i == 0 || lines[i-1].Section != l.Section {
			name := l.Section
			if name == "" {
				name = UnknownSection
			}
			sections = append(sections, Section{Name: name})
		}
		last := &sections[len(sections)-1]
		last.Lines = append(last.Lines, l)
	}
	return sections
}
