package pipeline

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)

	// Sentence boundary: one or more terminal punctuation marks, optionally
	// followed by closing quotes/brackets, then whitespace or end-of-string.
	sentenceEndRe = regexp.MustCompile(`([.!?]+[)\]"'”’」』]*)(\s+|$)`)

	// Looser fallback boundary for text with no recognized sentence ends.
	loosePunctRe = regexp.MustCompile(`([.!?,;:]+)\s+`)
)

// Segment splits one chunk's raw text into trimmed sentence-like fragments,
// each at most maxChars runes long. A single word longer than maxChars is
// emitted whole rather than split mid-word.
func Segment(text string, maxChars int) []string {
	text = strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
	if text == "" {
		return nil
	}

	fragments := splitAfter(text, sentenceEndRe)
	if len(fragments) <= 1 {
		fragments = splitAfter(text, loosePunctRe)
	}

	var sentences []string
	for _, frag := range fragments {
		frag = strings.TrimSpace(frag)
		if frag == "" {
			continue
		}
		if utf8.RuneCountInString(frag) <= maxChars {
			sentences = append(sentences, frag)
			continue
		}
		sentences = append(sentences, wrapWords(frag, maxChars)...)
	}
	return sentences
}

// splitAfter cuts text after every boundary match, keeping the punctuation
// (capture group 1) with the left fragment.
func splitAfter(text string, boundary *regexp.Regexp) []string {
	matches := boundary.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return []string{text}
	}

	var parts []string
	prev := 0
	for _, m := range matches {
		// m[3] is the end of the punctuation group; the trailing whitespace
		// is dropped between fragments.
		parts = append(parts, text[prev:m[3]])
		prev = m[1]
	}
	if prev < len(text) {
		parts = append(parts, text[prev:])
	}
	return parts
}

// wrapWords greedily packs words into lines of at most maxChars runes.
func wrapWords(fragment string, maxChars int) []string {
	var out []string
	var buf strings.Builder
	bufLen := 0

	for _, word := range strings.Fields(fragment) {
		wordLen := utf8.RuneCountInString(word)

		switch {
		case bufLen == 0:
			buf.WriteString(word)
			bufLen = wordLen
		case bufLen+1+wordLen <= maxChars:
			buf.WriteByte(' ')
			buf.WriteString(word)
			bufLen += 1 + wordLen
		default:
			out = append(out, buf.String())
			buf.Reset()
			buf.WriteString(word)
			bufLen = wordLen
		}
	}
	if bufLen > 0 {
		out = append(out, buf.String())
	}
	return out
}
