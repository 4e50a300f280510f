package dataset

import (
	"testing"
)

func TestResolveSamplingTrain(t *testing.T) {
	cfg := testConfig(t.TempDir())
	for _, mode := range []string{"train", "val"} {
		p := resolveSampling(cfg, mode, Entry{}, -1)
		if p.TemporalIdx != -1 || p.SpatialIdx != -1 {
			t.Errorf("%s: indices (%d, %d); want (-1, -1)", mode, p.TemporalIdx, p.SpatialIdx)
		}
		if p.MinScale != 8 || p.MaxScale != 12 || p.CropSize != 8 {
			t.Errorf("%s: scales (%d, %d, %d)", mode, p.MinScale, p.MaxScale, p.CropSize)
		}
	}
}

func TestResolveSamplingShortCycle(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.Multigrid.DefaultS = 8
	cfg.Multigrid.ShortCycleFactors = []float64{0.5, 0.75}

	p := resolveSampling(cfg, "train", Entry{}, 0)
	if p.CropSize != 4 {
		t.Errorf("short cycle 0 crop %d; want round(0.5*8)=4", p.CropSize)
	}
	// min scale rescales proportionally to the shrunken crop
	if p.MinScale != 4 {
		t.Errorf("short cycle 0 min scale %d; want round(8*4/8)=4", p.MinScale)
	}

	p = resolveSampling(cfg, "train", Entry{}, 1)
	if p.CropSize != 6 {
		t.Errorf("short cycle 1 crop %d; want round(0.75*8)=6", p.CropSize)
	}
	if p.MinScale != 6 {
		t.Errorf("short cycle 1 min scale %d; want round(8*6/8)=6", p.MinScale)
	}

	// outside the short cycle, DefaultS still rescales against the
	// unchanged crop size
	p = resolveSampling(cfg, "train", Entry{}, -1)
	if p.CropSize != 8 || p.MinScale != 8 {
		t.Errorf("no short cycle: crop %d min scale %d; want 8, 8", p.CropSize, p.MinScale)
	}
}

func TestResolveSamplingTest(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.Test.NumSpatialCrops = 3
	check := func(stIdx int, wantTemporal int, wantSpatial int) {
		p := resolveSampling(cfg, "test", Entry{SpatialTemporalIdx: stIdx}, -1)
		if p.TemporalIdx != wantTemporal || p.SpatialIdx != wantSpatial {
			t.Errorf("stIdx %d: (%d, %d); want (%d, %d)", stIdx, p.TemporalIdx, p.SpatialIdx, wantTemporal, wantSpatial)
		}
		if p.MinScale != p.MaxScale {
			t.Errorf("stIdx %d: min scale %d != max scale %d", stIdx, p.MinScale, p.MaxScale)
		}
		if p.MinScale != cfg.Data.TestCropSize || p.CropSize != cfg.Data.TestCropSize {
			t.Errorf("stIdx %d: scales (%d, %d, %d); want all %d", stIdx, p.MinScale, p.MaxScale, p.CropSize, cfg.Data.TestCropSize)
		}
	}
	check(0, 0, 0)
	check(1, 0, 1)
	check(2, 0, 2)
	check(3, 1, 0)
	check(7, 2, 1)
}

func TestResolveSamplingTestSingleCrop(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.Test.NumSpatialCrops = 1
	p := resolveSampling(cfg, "test", Entry{SpatialTemporalIdx: 4}, -1)
	if p.TemporalIdx != 4 {
		t.Errorf("temporal index %d; want 4", p.TemporalIdx)
	}
	if p.SpatialIdx != 1 {
		t.Errorf("spatial index %d; want fixed center 1", p.SpatialIdx)
	}
	if p.MinScale != cfg.Data.TrainJitterScales[0] || p.MaxScale != p.MinScale {
		t.Errorf("scales (%d, %d); want both %d", p.MinScale, p.MaxScale, cfg.Data.TrainJitterScales[0])
	}
	if p.CropSize != cfg.Data.TestCropSize {
		t.Errorf("crop %d; want %d", p.CropSize, cfg.Data.TestCropSize)
	}
}

func TestGetRandomSamplingRate(t *testing.T) {
	cfg := testConfig(t.TempDir())
	if rate := getRandomSamplingRate(cfg, fixedRand{n: 1}); rate != cfg.Data.SamplingRate {
		t.Errorf("rate %d; want fixed %d", rate, cfg.Data.SamplingRate)
	}

	cfg.Multigrid.LongCycleSamplingRate = 4
	rate := getRandomSamplingRate(cfg, fixedRand{n: 1})
	if rate != cfg.Data.SamplingRate+1 {
		t.Errorf("rate %d; want %d", rate, cfg.Data.SamplingRate+1)
	}
}
