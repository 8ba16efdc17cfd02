package timing

import (
	"math"
	"strings"

	"epk-api-go/analysis"
	"epk-api-go/logcolors"
	"epk-api-go/lyrics"

	log "github.com/sirupsen/logrus"
)

const (
	// Earliest allowed start for the first line, in seconds
	minIntroEnd = 3.0

	// Energy level a chorus is pulled onto
	chorusEnergy = 0.7

	// Padding applied to every section's proportional share
	sectionPadding = 1.1
)

// MapOptions tunes MapToAudio
type MapOptions struct {
	// ClampToOutro caps every timestamp at the analysis' outro start (never
	// below the intro end) and floors the vocal span at zero. The section
	// padding compounds across sections, so without it long songs drift past
	// the outro.
	//
	// Unclamped, an outro detected before the safe intro end gives a negative
	// vocal span: sections get negative allotments and timestamps run
	// backwards from the intro end.
	ClampToOutro bool
}

// MapToAudio times lyrics against an audio analysis. Sections are laid out
// back to back from the intro end, each getting a padded share of the vocal
// span proportional to its line count; chorus and hook sections jump forward
// to the next high-energy moment.
//
// Returns lines unchanged when there is no analysis or nothing to time.
func MapToAudio(lines []lyrics.Line, a *analysis.Analysis, opts MapOptions) []lyrics.Line {
	if a == nil || len(lines) == 0 {
		return lines
	}

	safeIntro := math.Max(a.IntroEnd, minIntroEnd)
	vocalDuration := a.OutroStart - safeIntro
	ceiling := a.OutroStart
	if opts.ClampToOutro {
		vocalDuration = math.Max(vocalDuration, 0)
		ceiling = math.Max(ceiling, safeIntro)
	}
	perLineShare := vocalDuration / float64(len(lines))

	log.Debugf("%s intro=%.1fs outro=%.1fs vocal=%.1fs", logcolors.LogTiming,
		safeIntro, a.OutroStart, vocalDuration)

	cursor := safeIntro
	timed := make([]lyrics.Line, 0, len(lines))

	for _, section := range lyrics.GroupSections(lines) {
		if isChorus(section.Name) {
			if peak, ok := a.HighEnergyAfter(cursor, chorusEnergy); ok {
				cursor = peak
			}
		}

		allotted := perLineShare * float64(len(section.Lines)) * sectionPadding
		step := allotted / float64(len(section.Lines))

		for i, l := range section.Lines {
			ts := cursor + float64(i)*step
			if opts.ClampToOutro && ts > ceiling {
				ts = ceiling
			}
			timed = append(timed, l.WithTimestamp(ts))
		}

		cursor += allotted
	}

	return timed
}

func isChorus(name string) bool {
	name = strings.ToLower(name)
	return strings.Contains(name, "chorus") || strings.Contains(name, "hook")
}
