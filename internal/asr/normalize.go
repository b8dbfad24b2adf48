package asr

import (
	"strings"

	"voxsub/internal/pipeline"
)

// fallbackChunkLen pads the last chunk when the model reported no end time.
const fallbackChunkLen = 2.0

// chunksFromResponse converts an API response into chunks on the source
// timeline. Responses without per-segment timestamps collapse into a single
// chunk spanning the whole window.
func chunksFromResponse(tr transcriptionResponse, offset, windowLen float64) []pipeline.Chunk {
	if len(tr.Segments) == 0 {
		text := strings.TrimSpace(tr.Text)
		if text == "" {
			return nil
		}
		return []pipeline.Chunk{{Start: offset, End: offset + windowLen, Text: text}}
	}

	chunks := make([]pipeline.Chunk, 0, len(tr.Segments))
	for _, seg := range tr.Segments {
		chunks = append(chunks, pipeline.Chunk{
			Start: seg.Start + offset,
			End:   seg.End + offset,
			Text:  seg.Text,
		})
	}
	return chunks
}

// RepairChunks patches chunks whose end time is missing or does not reach
// past the start: the end becomes the next chunk's start, or start plus a
// small pad for the final chunk. Chunks are assumed sorted by start.
func RepairChunks(chunks []pipeline.Chunk) []pipeline.Chunk {
	for i := range chunks {
		if chunks[i].End > chunks[i].Start {
			continue
		}
		if i+1 < len(chunks) && chunks[i+1].Start > chunks[i].Start {
			chunks[i].End = chunks[i+1].Start
		} else {
			chunks[i].End = chunks[i].Start + fallbackChunkLen
		}
	}
	return chunks
}
