package pipeline

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

func defaultNormalizer() *Normalizer {
	return NewNormalizer(DefaultOptions())
}

func TestMerge_AbsorbsShortCue(t *testing.T) {
	n := defaultNormalizer()
	got := n.merge([]Cue{
		{Start: 0, End: 0.3, Text: "Hi"},
		{Start: 0.4, End: 3.0, Text: "there"},
	})
	want := []Cue{{Start: 0, End: 3.0, Text: "Hi there"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("merge = %v, want %v", got, want)
	}
}

func TestMerge_ChainAbsorption(t *testing.T) {
	n := defaultNormalizer()
	got := n.merge([]Cue{
		{Start: 0, End: 0.2, Text: "a"},
		{Start: 0.3, End: 0.5, Text: "b"},
		{Start: 0.6, End: 0.7, Text: "c"},
	})
	if len(got) != 1 {
		t.Fatalf("got %d cues, want 1", len(got))
	}
	if got[0].Text != "a b c" || got[0].End != 0.7 {
		t.Errorf("got %v, want {0 0.7 \"a b c\"}", got[0])
	}
}

func TestMerge_GapTooLarge(t *testing.T) {
	n := defaultNormalizer()
	got := n.merge([]Cue{
		{Start: 0, End: 0.3, Text: "Hi"},
		{Start: 1.0, End: 3.0, Text: "there"},
	})
	if len(got) != 2 {
		t.Errorf("got %d cues, want 2 (gap 0.7 > join gap)", len(got))
	}
}

func TestMerge_PreviousLongEnough(t *testing.T) {
	n := defaultNormalizer()
	got := n.merge([]Cue{
		{Start: 0, End: 2.0, Text: "Hello there."},
		{Start: 2.1, End: 4.0, Text: "More text."},
	})
	if len(got) != 2 {
		t.Errorf("got %d cues, want 2 (first already >= min duration)", len(got))
	}
}

func TestMerge_NeverReducesEndOrGrowsCount(t *testing.T) {
	n := defaultNormalizer()
	in := []Cue{
		{Start: 0, End: 0.1, Text: "a"},
		{Start: 0.2, End: 0.4, Text: "b"},
		{Start: 3.0, End: 3.2, Text: "c"},
		{Start: 3.3, End: 7.0, Text: "d"},
		{Start: 7.5, End: 9.0, Text: "e"},
	}
	got := n.merge(in)
	if len(got) > len(in) {
		t.Errorf("merge grew cue count: %d > %d", len(got), len(in))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Start < got[i-1].Start {
			t.Errorf("starts not non-decreasing at %d", i)
		}
	}
	if got[len(got)-1].End != in[len(in)-1].End {
		t.Errorf("final end = %f, want %f", got[len(got)-1].End, in[len(in)-1].End)
	}
}

func TestMerge_Empty(t *testing.T) {
	if got := defaultNormalizer().merge(nil); got != nil {
		t.Errorf("merge(nil) = %v, want nil", got)
	}
}

func TestSplit_OversizedCue(t *testing.T) {
	n := &Normalizer{MinDuration: 0.8, MaxDuration: 6.0, JoinGap: 0.25, MaxChars: 40}
	in := Cue{
		Start: 0,
		End:   8.0,
		Text:  "A very long sentence that definitely exceeds the character budget we have configured",
	}
	got := n.split([]Cue{in})

	// The cut lands at the space nearest the midpoint (after "exceeds");
	// the oversized left half then re-splits the same way.
	want := []Cue{
		{Start: 0, End: 2.0, Text: "A very long sentence"},
		{Start: 2.0, End: 4.0, Text: "that definitely exceeds"},
		{Start: 4.0, End: 8.0, Text: "the character budget we have configured"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d cues, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i].Text != want[i].Text {
			t.Errorf("cue %d text = %q, want %q", i, got[i].Text, want[i].Text)
		}
		if !approxEqual(got[i].Start, want[i].Start) || !approxEqual(got[i].End, want[i].End) {
			t.Errorf("cue %d = [%f, %f], want [%f, %f]", i, got[i].Start, got[i].End, want[i].Start, want[i].End)
		}
	}

	for _, c := range got {
		if utf8.RuneCountInString(c.Text) > n.MaxChars {
			t.Errorf("cue %q exceeds %d chars after split", c.Text, n.MaxChars)
		}
		if c.Duration() > n.MaxDuration+1e-9 {
			t.Errorf("cue %q exceeds max duration: %f", c.Text, c.Duration())
		}
	}
	if got[0].Start != 0 || got[len(got)-1].End != 8.0 {
		t.Errorf("split lost the time window: [%f, %f]", got[0].Start, got[len(got)-1].End)
	}
}

func TestFindBreakPoint_PrefersNearestToMidpoint(t *testing.T) {
	// Break characters on both sides of the midpoint: the closer one wins,
	// even when a farther one comes first in reading order.
	runes := []rune("aa bbbbbbbb cc") // spaces at 2 and 11, midpoint 7
	if got := findBreakPoint(runes); got != 11 {
		t.Errorf("findBreakPoint = %d, want 11", got)
	}
}

func TestSplit_MidpointFallback(t *testing.T) {
	// No break characters anywhere: split lands on the exact midpoint.
	n := &Normalizer{MaxDuration: 100, MaxChars: 4}
	got := n.split([]Cue{{Start: 0, End: 1, Text: "abcdefghij"}})
	for _, c := range got {
		if utf8.RuneCountInString(c.Text) > 4 {
			t.Errorf("cue %q exceeds 4 chars", c.Text)
		}
	}
	joined := ""
	for _, c := range got {
		joined += c.Text
	}
	if joined != "abcdefghij" {
		t.Errorf("split dropped characters: %q", joined)
	}
}

func TestSplit_IdempotentWithinBounds(t *testing.T) {
	n := defaultNormalizer()
	in := []Cue{
		{Start: 0, End: 2.0, Text: "Short one."},
		{Start: 2.0, End: 5.5, Text: "Another short cue."},
	}
	got := n.split(in)
	if !reflect.DeepEqual(got, in) {
		t.Errorf("split changed in-bounds cues: %v", got)
	}
}

func TestSplit_TinyTextStaysOversized(t *testing.T) {
	n := defaultNormalizer()
	got := n.split([]Cue{{Start: 0, End: 20.0, Text: "Hi"}})
	if len(got) != 1 || got[0].Text != "Hi" {
		t.Errorf("got %v, want the cue untouched", got)
	}
}

func TestSplit_RecursionBounded(t *testing.T) {
	n := &Normalizer{MaxDuration: 100, MaxChars: 10}
	text := strings.Repeat("word ", 200)
	got := n.split([]Cue{{Start: 0, End: 50, Text: strings.TrimSpace(text)}})
	for _, c := range got {
		if c.Text == "" {
			t.Error("split emitted an empty cue")
		}
		if utf8.RuneCountInString(c.Text) > 10 {
			t.Errorf("cue %q exceeds 10 chars", c.Text)
		}
	}
}

func TestNormalize_MergeThenSplit(t *testing.T) {
	// Two short halves merge into one oversized cue, which the split pass
	// then corrects.
	n := &Normalizer{MinDuration: 2.0, MaxDuration: 6.0, JoinGap: 0.5, MaxChars: 30}
	got := n.Normalize([]Cue{
		{Start: 0, End: 1.0, Text: "a string of filler words"},
		{Start: 1.1, End: 8.0, Text: "and yet more filler to overflow"},
	})
	if len(got) < 2 {
		t.Fatalf("got %d cues, want the merged cue re-split", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Start < got[i-1].Start {
			t.Errorf("starts not non-decreasing at %d", i)
		}
	}
	for _, c := range got {
		if c.End < c.Start {
			t.Errorf("cue %q runs backwards", c.Text)
		}
	}
}
