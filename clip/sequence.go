package clip

import (
	"fmt"
)

// DecodeSequence samples numFrames frames from a pre-extracted frame
// sequence. The frame list must already be verified against the declared
// frame count; decoding any individual frame file can still fail.
func (d FfmpegDecoder) DecodeSequence(handle string, samplingRate int, frameFiles []string, meta VideoMeta, numFrames int, maxSpatialScale int, rng Rand) ([]Image, error) {
	if len(frameFiles) == 0 {
		return nil, fmt.Errorf("empty frame list for %s", handle)
	}
	span := samplingRate * numFrames
	delta := len(frameFiles) - span
	if delta < 0 {
		delta = 0
	}
	var start int
	if delta > 0 {
		start = rng.Intn(delta + 1)
	}

	frames := make([]Image, numFrames)
	var dims [2]int
	lastIdx := -1
	for i := 0; i < numFrames; i++ {
		idx := Clip(start+i*samplingRate, 0, len(frameFiles)-1)
		if idx == lastIdx {
			// Sequences shorter than the span repeat their last frame.
			// Copied so repeats do not share pixel storage.
			frames[i] = frames[i-1].Copy()
			continue
		}
		im, err := ImageFromFile(frameFiles[idx])
		if err != nil {
			return nil, fmt.Errorf("sequence %s: %v", handle, err)
		}
		if dims == ([2]int{}) {
			dims = scaledDims([2]int{im.Width, im.Height}, maxSpatialScale)
		}
		frames[i] = im.Resize(dims[0], dims[1])
		lastIdx = idx
	}
	return frames, nil
}
