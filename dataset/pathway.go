package dataset

import (
	"github.com/cliploader/cliploader/clip"
)

// packPathways reshapes the transformed clip into the tensor streams the
// model consumes: one stream for single-pathway architectures, or a
// temporally-strided slow stream plus the full fast stream for two-pathway
// architectures.
func packPathways(cfg *Config, t clip.Tensor) []clip.Tensor {
	if isSinglePathway(cfg) {
		return []clip.Tensor{t}
	}
	numFrames := t.Shape[1]
	slowCount := numFrames / cfg.Model.SlowFastAlpha
	if slowCount < 1 {
		slowCount = 1
	}
	slow := t.TemporalSelect(clip.LinspaceInts(numFrames-1, slowCount))
	return []clip.Tensor{slow, t}
}

func isSinglePathway(cfg *Config) bool {
	for _, arch := range cfg.Model.SinglePathwayArchs {
		if cfg.Model.Arch == arch {
			return true
		}
	}
	return false
}
