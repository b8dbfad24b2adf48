package worker

// window is one bounded slice of the source audio handed to the
// transcriber. Consecutive windows overlap by the stride to avoid losing
// words at cut points.
type window struct {
	Index  int
	Start  float64
	Length float64
}

// planWindows lays fixed-size windows of chunkSec seconds over the source,
// each advancing by chunkSec-strideSec. An unknown duration (failed probe)
// yields a single window covering whatever the file holds.
func planWindows(duration float64, chunkSec, strideSec int) []window {
	chunk := float64(chunkSec)
	if duration <= 0 {
		return []window{{Index: 0, Start: 0, Length: chunk}}
	}
	if duration <= chunk {
		return []window{{Index: 0, Start: 0, Length: duration}}
	}

	step := float64(chunkSec - strideSec)
	var windows []window
	for start := 0.0; start < duration; start += step {
		length := chunk
		if start+length > duration {
			length = duration - start
		}
		windows = append(windows, window{Index: len(windows), Start: start, Length: length})
		if start+chunk >= duration {
			break
		}
	}
	return windows
}
