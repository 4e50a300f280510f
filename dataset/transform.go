package dataset

import (
	"math"

	"github.com/cliploader/cliploader/clip"
)

// transform runs the post-decode pipeline: normalize pixel statistics,
// reorder axes to (channel, frame, height, width), then apply spatial
// sampling per the resolved parameters.
func transform(cfg *Config, frames []clip.Image, p samplingParams, rng clip.Rand) (clip.Tensor, error) {
	t, err := clip.TensorFromFrames(frames)
	if err != nil {
		return clip.Tensor{}, err
	}
	t.Normalize(cfg.Data.Mean, cfg.Data.Std)
	t = t.PermuteTHWC()
	t = spatialSampling(t, p, cfg.Data.RandomFlip, cfg.Data.InvUniformSample, rng)
	return t, nil
}

// spatialSampling crops the clip to CropSize x CropSize. A spatial index
// of -1 scales randomly within [MinScale, MaxScale] and crops at a random
// position with optional horizontal flip; indices 0/1/2 scale to MinScale
// and take one of three fixed crop positions with no randomness.
func spatialSampling(t clip.Tensor, p samplingParams, randomFlip bool, invUniform bool, rng clip.Rand) clip.Tensor {
	if p.SpatialIdx == -1 {
		t = randomShortSideScaleJitter(t, p.MinScale, p.MaxScale, invUniform, rng)
		t = randomCrop(t, p.CropSize, rng)
		if randomFlip {
			t = horizontalFlip(0.5, t, rng)
		}
		return t
	}
	t = shortSideScale(t, p.MinScale)
	return uniformCrop(t, p.CropSize, p.SpatialIdx)
}

func randomShortSideScaleJitter(t clip.Tensor, minSize int, maxSize int, inverse bool, rng clip.Rand) clip.Tensor {
	var size int
	if inverse {
		// Sample sizes uniformly by inverse scale, which weights smaller
		// sizes more heavily.
		inv := 1.0/float64(maxSize) + (1.0/float64(minSize)-1.0/float64(maxSize))*rng.Float64()
		size = int(math.Round(1.0 / inv))
	} else {
		size = int(math.Round(float64(minSize) + float64(maxSize-minSize)*rng.Float64()))
	}
	return shortSideScale(t, size)
}

// shortSideScale resizes so the short spatial side equals size,
// preserving aspect ratio.
func shortSideScale(t clip.Tensor, size int) clip.Tensor {
	height, width := t.Shape[2], t.Shape[3]
	if (width <= height && width == size) || (height <= width && height == size) {
		return t
	}
	newHeight, newWidth := size, size
	if width < height {
		newHeight = int(math.Floor(float64(height) / float64(width) * float64(size)))
	} else {
		newWidth = int(math.Floor(float64(width) / float64(height) * float64(size)))
	}
	return t.ScaleSpatial(newHeight, newWidth)
}

func randomCrop(t clip.Tensor, size int, rng clip.Rand) clip.Tensor {
	height, width := t.Shape[2], t.Shape[3]
	if height == size && width == size {
		return t
	}
	var top, left int
	if height > size {
		top = rng.Intn(height - size + 1)
	}
	if width > size {
		left = rng.Intn(width - size + 1)
	}
	return t.CropSpatial(top, left, size)
}

// uniformCrop takes the left/center/right crop if width exceeds height,
// or the top/middle/bottom crop otherwise.
func uniformCrop(t clip.Tensor, size int, spatialIdx int) clip.Tensor {
	height, width := t.Shape[2], t.Shape[3]
	top := int(math.Ceil(float64(height-size) / 2))
	left := int(math.Ceil(float64(width-size) / 2))
	if height > width {
		if spatialIdx == 0 {
			top = 0
		} else if spatialIdx == 2 {
			top = height - size
		}
	} else {
		if spatialIdx == 0 {
			left = 0
		} else if spatialIdx == 2 {
			left = width - size
		}
	}
	return t.CropSpatial(top, left, size)
}

func horizontalFlip(prob float64, t clip.Tensor, rng clip.Rand) clip.Tensor {
	if rng.Float64() < prob {
		return t.FlipWidth()
	}
	return t
}
