// Package pipeline turns coarse chunk-level ASR output into short,
// display-ready subtitle cues with tight, non-overlapping timestamps.
//
// Chunks flow strictly forward: each chunk's text is segmented into
// sentences, the chunk's time window is allocated across them
// proportionally to length, and a final merge/split pass over the
// concatenated cue sequence enforces duration and length bounds.
package pipeline

// Synthesize runs the full cue synthesis pipeline over chunks in arrival
// order. Chunks with empty or whitespace-only text contribute nothing. The
// result is non-decreasing in start time when the input chunks are.
func Synthesize(chunks []Chunk, opts Options) []Cue {
	var fine []Cue
	for _, chunk := range chunks {
		sentences := Segment(chunk.Text, opts.MaxChars)
		fine = append(fine, Allocate(chunk.Start, chunk.End, sentences)...)
	}
	return NewNormalizer(opts).Normalize(fine)
}
