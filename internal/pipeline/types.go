package pipeline

// Chunk is one raw ASR inference result: the transcript text for a bounded
// audio window, with times in seconds from the start of the source.
type Chunk struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Cue is one subtitle entry, the unit exchanged with the subtitle writer.
type Cue struct {
	Start float64
	End   float64
	Text  string
}

// Duration returns the cue's display time in seconds.
func (c Cue) Duration() float64 {
	return c.End - c.Start
}

// Options holds the tuning knobs for cue synthesis.
type Options struct {
	// MaxChars is the upper bound on cue text length (in runes) before
	// segmentation and splitting kick in.
	MaxChars int
	// MinDuration marks cues eligible for forward merging, in seconds.
	MinDuration float64
	// MaxDuration marks cues eligible for splitting, in seconds.
	MaxDuration float64
	// JoinGap is the maximum silence between a short cue and its successor
	// for the two to still be merged, in seconds.
	JoinGap float64
}

// DefaultOptions returns the standard cue synthesis settings.
func DefaultOptions() Options {
	return Options{
		MaxChars:    84,
		MinDuration: 0.8,
		MaxDuration: 6.0,
		JoinGap:     0.25,
	}
}
