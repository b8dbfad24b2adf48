package pipeline

import (
	"strings"
	"unicode/utf8"
)

// splitSearchRadius bounds the break-point search window around the
// character midpoint of an oversized cue.
const splitSearchRadius = 15

// maxSplitDepth caps recursive splitting of pathologically long cues.
const maxSplitDepth = 8

// splitBreakChars are the characters treated as natural break points when
// splitting an oversized cue.
var splitBreakChars = map[rune]struct{}{
	',': {}, ' ': {}, ';': {}, ':': {},
}

// Normalizer enforces duration and length bounds over an ordered cue
// sequence: a merge pass absorbs short, closely-spaced cues into their
// predecessor, then a split pass cuts cues that exceed the bounds.
type Normalizer struct {
	MinDuration float64
	MaxDuration float64
	JoinGap     float64
	MaxChars    int
}

// NewNormalizer builds a Normalizer from synthesis options.
func NewNormalizer(opts Options) *Normalizer {
	return &Normalizer{
		MinDuration: opts.MinDuration,
		MaxDuration: opts.MaxDuration,
		JoinGap:     opts.JoinGap,
		MaxChars:    opts.MaxChars,
	}
}

// Normalize runs the merge pass and then the split pass, in that fixed
// order. Merging can create an oversized cue that the split pass corrects;
// splitting is never followed by re-merging.
func (n *Normalizer) Normalize(cues []Cue) []Cue {
	return n.split(n.merge(cues))
}

// merge performs a single forward pass over the cue sequence. A cue whose
// predecessor is shorter than MinDuration and no further than JoinGap away
// is absorbed into it: the predecessor's end extends and the texts join with
// a single space. A chain of short cues can be absorbed repeatedly into the
// same growing predecessor.
func (n *Normalizer) merge(cues []Cue) []Cue {
	if len(cues) == 0 {
		return nil
	}

	out := make([]Cue, 0, len(cues))
	out = append(out, cues[0])

	for _, cue := range cues[1:] {
		prev := out[len(out)-1]
		gap := cue.Start - prev.End

		if prev.Duration() < n.MinDuration && gap <= n.JoinGap {
			prev.End = cue.End
			prev.Text = strings.TrimSpace(prev.Text + " " + cue.Text)
			out[len(out)-1] = prev
			continue
		}
		out = append(out, cue)
	}
	return out
}

// split cuts every cue exceeding MaxDuration or MaxChars at a natural break
// point near its character midpoint, recursing on halves that are still out
// of bounds.
func (n *Normalizer) split(cues []Cue) []Cue {
	out := make([]Cue, 0, len(cues))
	for _, cue := range cues {
		out = append(out, n.splitCue(cue, 0)...)
	}
	return out
}

func (n *Normalizer) withinBounds(c Cue) bool {
	return c.Duration() <= n.MaxDuration && utf8.RuneCountInString(c.Text) <= n.MaxChars
}

func (n *Normalizer) splitCue(c Cue, depth int) []Cue {
	if n.withinBounds(c) {
		return []Cue{c}
	}

	runes := []rune(c.Text)
	if len(runes) <= 2 || depth >= maxSplitDepth {
		// Nothing sensible to cut; the cue stays oversized.
		return []Cue{c}
	}

	splitIdx := findBreakPoint(runes)
	midTime := c.Start + c.Duration()/2

	left := Cue{
		Start: c.Start,
		End:   midTime,
		Text:  strings.TrimSpace(strings.TrimRight(string(runes[:splitIdx]), ",;: ")),
	}
	right := Cue{
		Start: midTime,
		End:   c.End,
		Text:  strings.TrimSpace(strings.TrimLeft(string(runes[splitIdx:]), ",;: ")),
	}

	var out []Cue
	if left.Text != "" {
		out = append(out, n.splitCue(left, depth+1)...)
	}
	if right.Text != "" {
		out = append(out, n.splitCue(right, depth+1)...)
	}
	if len(out) == 0 {
		return []Cue{c}
	}
	return out
}

// findBreakPoint scans a window around the character midpoint for the break
// character nearest the midpoint, falling back to the exact midpoint when
// the window holds none. Scanning outward keeps the two halves balanced, so
// recursive splitting genuinely halves a cue instead of shaving a fixed
// number of runes off one side.
func findBreakPoint(runes []rune) int {
	mid := len(runes) / 2
	lo := max(1, mid-splitSearchRadius)
	hi := min(len(runes)-1, mid+splitSearchRadius)

	for d := 0; d <= splitSearchRadius; d++ {
		if i := mid - d; i >= lo {
			if _, ok := splitBreakChars[runes[i]]; ok {
				return i
			}
		}
		if i := mid + d; i < hi {
			if _, ok := splitBreakChars[runes[i]]; ok {
				return i
			}
		}
	}
	return mid
}
