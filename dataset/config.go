package dataset

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// DataConfig covers manifest location, decode targets, and pixel statistics.
type DataConfig struct {
	// Directory holding the per-mode manifest files.
	PathToDataDir string `toml:"path_to_data_dir"`
	// Prefix joined onto every manifest path.
	PathPrefix string `toml:"path_prefix"`
	// Root directory name for reconstructed frame-sequence paths.
	FrameDirName string `toml:"frame_dir_name"`
	// Whether clips are pre-extracted frame sequences instead of videos.
	UseFrameSequences bool `toml:"use_frame_sequences"`
	PathLabelSeparator string `toml:"path_label_separator"`

	NumFrames int `toml:"num_frames"`
	SamplingRate int `toml:"sampling_rate"`
	TargetFPS int `toml:"target_fps"`
	DecodingBackend string `toml:"decoding_backend"`

	TrainJitterScales []int `toml:"train_jitter_scales"`
	TrainCropSize int `toml:"train_crop_size"`
	TestCropSize int `toml:"test_crop_size"`
	Mean []float64 `toml:"mean"`
	Std []float64 `toml:"std"`
	RandomFlip bool `toml:"random_flip"`
	InvUniformSample bool `toml:"inv_uniform_sample"`
}

type DataLoaderConfig struct {
	EnableMultiThreadDecode bool `toml:"enable_multi_thread_decode"`
	// Attempts per Get call before giving up.
	NumRetries int `toml:"num_retries"`
}

type TestConfig struct {
	NumEnsembleViews int `toml:"num_ensemble_views"`
	NumSpatialCrops int `toml:"num_spatial_crops"`
	// Expand the test index to one entry per (view, crop) pair.
	MultiView bool `toml:"multi_view"`
}

type MultigridConfig struct {
	ShortCycleFactors []float64 `toml:"short_cycle_factors"`
	// Default crop size the short cycle scales against; 0 disables
	// multigrid rescaling.
	DefaultS int `toml:"default_s"`
	// When > 0, the per-clip sampling rate is drawn uniformly from
	// [data.sampling_rate, this].
	LongCycleSamplingRate int `toml:"long_cycle_sampling_rate"`
}

type ModelConfig struct {
	Arch string `toml:"arch"`
	SinglePathwayArchs []string `toml:"single_pathway_archs"`
	SlowFastAlpha int `toml:"slowfast_alpha"`
}

type Config struct {
	Data DataConfig `toml:"data"`
	DataLoader DataLoaderConfig `toml:"data_loader"`
	Test TestConfig `toml:"test"`
	Multigrid MultigridConfig `toml:"multigrid"`
	Model ModelConfig `toml:"model"`
}

func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Data.PathToDataDir = "."
	cfg.Data.FrameDirName = "frames"
	cfg.Data.PathLabelSeparator = " "
	cfg.Data.NumFrames = 8
	cfg.Data.SamplingRate = 8
	cfg.Data.TargetFPS = 30
	cfg.Data.DecodingBackend = "ffmpeg"
	cfg.Data.TrainJitterScales = []int{256, 320}
	cfg.Data.TrainCropSize = 224
	cfg.Data.TestCropSize = 256
	cfg.Data.Mean = []float64{0.45, 0.45, 0.45}
	cfg.Data.Std = []float64{0.225, 0.225, 0.225}
	cfg.Data.RandomFlip = true
	cfg.DataLoader.NumRetries = 10
	cfg.Test.NumEnsembleViews = 10
	cfg.Test.NumSpatialCrops = 3
	cfg.Multigrid.ShortCycleFactors = []float64{0.5, 0.7071}
	cfg.Model.Arch = "slowfast"
	cfg.Model.SinglePathwayArchs = []string{"c2d", "i3d", "slow", "x3d"}
	cfg.Model.SlowFastAlpha = 4
	return cfg
}

// LoadConfig reads a TOML config file over the defaults.
func LoadConfig(fname string) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(fname, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %v", fname, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %v", fname, err)
	}
	return cfg, nil
}

func (cfg *Config) Validate() error {
	if len(cfg.Data.TrainJitterScales) != 2 {
		return fmt.Errorf("data.train_jitter_scales must have two entries")
	}
	if len(cfg.Data.Mean) != 3 || len(cfg.Data.Std) != 3 {
		return fmt.Errorf("data.mean and data.std must have three entries")
	}
	if cfg.Data.NumFrames <= 0 || cfg.Data.SamplingRate <= 0 {
		return fmt.Errorf("data.num_frames and data.sampling_rate must be positive")
	}
	if cfg.DataLoader.NumRetries <= 0 {
		return fmt.Errorf("data_loader.num_retries must be positive")
	}
	if cfg.Test.NumSpatialCrops <= 0 {
		return fmt.Errorf("test.num_spatial_crops must be positive")
	}
	if len(cfg.Multigrid.ShortCycleFactors) < 2 {
		return fmt.Errorf("multigrid.short_cycle_factors must have two entries")
	}
	if cfg.Model.SlowFastAlpha <= 0 {
		cfg.Model.SlowFastAlpha = 1
	}
	return nil
}
