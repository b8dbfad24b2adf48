package pipeline

import "unicode/utf8"

// minWindow is the floor applied to a chunk's time window, guarding against
// zero-length or reversed timestamps from malformed ASR output.
const minWindow = 0.2

// Allocate distributes a chunk's time window across its sentences, giving
// each a share proportional to its rune length. The cues tile [start, end]
// exactly: the last cue's end is forced to end to cancel floating-point
// drift accumulated by the cursor walk.
func Allocate(start, end float64, sentences []string) []Cue {
	if len(sentences) == 0 {
		return nil
	}

	duration := end - start
	if duration < minWindow {
		duration = minWindow
	}

	weights := make([]int, len(sentences))
	total := 0
	for i, s := range sentences {
		w := utf8.RuneCountInString(s)
		if w < 1 {
			w = 1
		}
		weights[i] = w
		total += w
	}

	cues := make([]Cue, 0, len(sentences))
	t := start
	for i, s := range sentences {
		alloc := duration * float64(weights[i]) / float64(total)
		cues = append(cues, Cue{Start: t, End: t + alloc, Text: s})
		t += alloc
	}
	// Malformed windows (end before start) keep the clamped allocation
	// instead, so cues never run backwards.
	if last := &cues[len(cues)-1]; end > last.Start {
		last.End = end
	}
	return cues
}
