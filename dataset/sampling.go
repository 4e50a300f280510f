package dataset

import (
	"fmt"
	"math"

	"github.com/cliploader/cliploader/clip"
)

// samplingParams are resolved once per Get call. A temporal or spatial
// index of -1 defers the choice to the decode/transform stages.
type samplingParams struct {
	TemporalIdx int
	SpatialIdx int
	MinScale int
	MaxScale int
	CropSize int
}

// resolveSampling translates (mode, entry, short-cycle index) into the
// sampling parameters for one call. Train/val defer all choices to
// randomness markers; test derives deterministic temporal/spatial indices
// from the entry's replica index.
func resolveSampling(cfg *Config, mode string, entry Entry, shortCycleIdx int) samplingParams {
	switch mode {
	case "train", "val":
		p := samplingParams{
			TemporalIdx: -1,
			SpatialIdx: -1,
			MinScale: cfg.Data.TrainJitterScales[0],
			MaxScale: cfg.Data.TrainJitterScales[1],
			CropSize: cfg.Data.TrainCropSize,
		}
		if shortCycleIdx == 0 || shortCycleIdx == 1 {
			p.CropSize = int(math.Round(cfg.Multigrid.ShortCycleFactors[shortCycleIdx] * float64(cfg.Multigrid.DefaultS)))
		}
		if cfg.Multigrid.DefaultS > 0 {
			// Decreasing the scale is equivalent to using a larger "span"
			// in a sampling grid.
			p.MinScale = int(math.Round(float64(p.MinScale) * float64(p.CropSize) / float64(cfg.Multigrid.DefaultS)))
		}
		return p
	case "test":
		stIdx := entry.SpatialTemporalIdx
		p := samplingParams{
			TemporalIdx: stIdx / cfg.Test.NumSpatialCrops,
		}
		if cfg.Test.NumSpatialCrops > 1 {
			// spatial index 0/1/2: left, center, right if width is larger
			// than height; top, middle, bottom otherwise.
			p.SpatialIdx = stIdx % cfg.Test.NumSpatialCrops
			p.MinScale = cfg.Data.TestCropSize
			p.MaxScale = cfg.Data.TestCropSize
			p.CropSize = cfg.Data.TestCropSize
		} else {
			p.SpatialIdx = 1
			p.MinScale = cfg.Data.TrainJitterScales[0]
			p.MaxScale = cfg.Data.TrainJitterScales[0]
			p.CropSize = cfg.Data.TestCropSize
		}
		// Testing is deterministic; no jitter is allowed.
		if p.MinScale != p.MaxScale {
			panic(fmt.Errorf("test sampling requires min scale == max scale, got %d != %d", p.MinScale, p.MaxScale))
		}
		return p
	}
	// Mode is validated at construction.
	panic(fmt.Errorf("unsupported mode %s", mode))
}

// getRandomSamplingRate draws the temporal sampling rate for one clip,
// honoring the multigrid long-cycle schedule when configured.
func getRandomSamplingRate(cfg *Config, rng clip.Rand) int {
	longCycle := cfg.Multigrid.LongCycleSamplingRate
	if longCycle > 0 {
		if longCycle < cfg.Data.SamplingRate {
			panic(fmt.Errorf("long cycle sampling rate %d below base rate %d", longCycle, cfg.Data.SamplingRate))
		}
		return cfg.Data.SamplingRate + rng.Intn(longCycle-cfg.Data.SamplingRate+1)
	}
	return cfg.Data.SamplingRate
}
