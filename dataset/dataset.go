package dataset

import (
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/cliploader/cliploader/clip"
)

// FailureJournal receives one record per soft decode failure. Implemented
// by app.Journal; a nil journal disables recording.
type FailureJournal interface {
	RecordFailure(index int, path string, trial int, message string)
}

// ContainerOpener opens a video file for decoding or fails.
type ContainerOpener func(path string, multithread bool, backend string) (*clip.Container, error)

// Dataset samples clips from the videos listed in a manifest. For train
// and val, a single clip is randomly sampled from every video with random
// scaling, cropping, and flipping. For test, clips and crops are selected
// deterministically from the entry's replica index.
//
// The index is built once at construction and read-only afterwards, so
// concurrent Get calls need no locking.
type Dataset struct {
	cfg *Config
	mode string
	numRetries int
	entries []Entry

	decoder clip.Decoder
	opener ContainerOpener
	rng clip.Rand
	journal FailureJournal
}

func NewDataset(cfg *Config, mode string) (*Dataset, error) {
	if mode != "train" && mode != "val" && mode != "test" {
		return nil, fmt.Errorf("split %s not supported", mode)
	}
	if !isSinglePathway(cfg) && cfg.Model.Arch != "slowfast" {
		return nil, fmt.Errorf("model arch %s not supported", cfg.Model.Arch)
	}
	log.Printf("[dataset] constructing %s split...", mode)
	entries, err := loadManifest(cfg, mode)
	if err != nil {
		return nil, err
	}
	return &Dataset{
		cfg: cfg,
		mode: mode,
		numRetries: cfg.DataLoader.NumRetries,
		entries: entries,
		decoder: clip.FfmpegDecoder{},
		opener: clip.OpenContainer,
		rng: clip.GlobalRand(),
	}, nil
}

// SetDecoder replaces the production ffmpeg decoder.
func (ds *Dataset) SetDecoder(d clip.Decoder) { ds.decoder = d }

// SetOpener replaces the container opener.
func (ds *Dataset) SetOpener(f ContainerOpener) { ds.opener = f }

// SetRand replaces the randomness source for substitution and jitter.
func (ds *Dataset) SetRand(r clip.Rand) { ds.rng = r }

// SetJournal attaches a failure journal.
func (ds *Dataset) SetJournal(j FailureJournal) { ds.journal = j }

// SetNumRetries overrides the per-call attempt budget.
func (ds *Dataset) SetNumRetries(n int) { ds.numRetries = n }

// Len returns the number of (video, replica) pairs in the index.
func (ds *Dataset) Len() int {
	return len(ds.entries)
}

func (ds *Dataset) Mode() string {
	return ds.mode
}

// Entry returns a copy of the index entry at i.
func (ds *Dataset) Entry(i int) Entry {
	return ds.entries[i]
}

// Get returns the pathway tensors, label, and effective index for one
// clip. Callers must use the returned index: when decoding fails in train
// or val mode, a random replacement index is substituted transparently.
func (ds *Dataset) Get(index int) ([]clip.Tensor, int, int, map[string]string, error) {
	return ds.GetShortCycle(index, -1)
}

// GetShortCycle is Get with a multigrid short-cycle index (0 or 1) that
// rescales the crop size for this call; pass -1 outside short cycles.
func (ds *Dataset) GetShortCycle(index int, shortCycleIdx int) ([]clip.Tensor, int, int, map[string]string, error) {
	if index < 0 || index >= len(ds.entries) {
		return nil, 0, 0, nil, fmt.Errorf("index %d out of range [0, %d)", index, len(ds.entries))
	}
	params := resolveSampling(ds.cfg, ds.mode, ds.entries[index], shortCycleIdx)
	samplingRate := getRandomSamplingRate(ds.cfg, ds.rng)

	// Try to decode a clip; on failure, retry, escalating to a random
	// replacement index after half the budget. Test indices are never
	// substituted since each one maps to a fixed view.
	for iTry := 0; iTry < ds.numRetries; iTry++ {
		frames, err := ds.attempt(index, params, samplingRate)
		if err == nil && len(frames) > 0 {
			t, terr := transform(ds.cfg, frames, params, ds.rng)
			if terr == nil {
				pathways := packPathways(ds.cfg, t)
				return pathways, ds.entries[index].Label, index, map[string]string{}, nil
			}
			err = terr
		}
		msg := "decoder returned no frames"
		if err != nil {
			msg = err.Error()
		}
		log.Printf("[dataset] failed to decode idx %d from %s (trial %d): %s", index, ds.entries[index].Path, iTry, msg)
		if ds.journal != nil {
			ds.journal.RecordFailure(index, ds.entries[index].Path, iTry, msg)
		}
		if ds.mode != "test" && iTry > ds.numRetries/2 {
			// let's try another one
			index = ds.rng.Intn(len(ds.entries))
		}
	}
	return nil, 0, 0, nil, fmt.Errorf("failed to fetch clip after %d retries", ds.numRetries)
}

// attempt performs one open+decode. All errors are soft failures for the
// retry loop.
func (ds *Dataset) attempt(index int, params samplingParams, samplingRate int) ([]clip.Image, error) {
	entry := ds.entries[index]
	if ds.cfg.Data.UseFrameSequences {
		frameFiles, meta, err := ds.discoverFrames(entry)
		if err != nil {
			return nil, err
		}
		return ds.decoder.DecodeSequence(entry.Path, samplingRate, frameFiles, meta, ds.cfg.Data.NumFrames, params.MinScale, ds.rng)
	}
	container, err := ds.opener(entry.Path, ds.cfg.DataLoader.EnableMultiThreadDecode, ds.cfg.Data.DecodingBackend)
	if err != nil {
		return nil, err
	}
	return ds.decoder.Decode(container, samplingRate, ds.cfg.Data.NumFrames, params.TemporalIdx, ds.cfg.Test.NumEnsembleViews, ds.cfg.Data.TargetFPS, params.MinScale, ds.rng)
}

// discoverFrames globs the on-disk frame files for a sequence entry and
// verifies them against the manifest's declared count. At least 5 frames
// must be present.
func (ds *Dataset) discoverFrames(entry Entry) ([]string, clip.VideoMeta, error) {
	var meta clip.VideoMeta
	frameFiles, err := filepath.Glob(entry.Path + "_*.png")
	if err != nil {
		return nil, meta, err
	}
	// Glob order is lexicographic, which scrambles unpadded frame
	// numbers (clip_10.png sorts before clip_2.png).
	sort.Slice(frameFiles, func(i, j int) bool {
		a, b := frameSeq(frameFiles[i]), frameSeq(frameFiles[j])
		if a != b {
			return a < b
		}
		return frameFiles[i] < frameFiles[j]
	})
	if len(frameFiles) != entry.Meta.NumFrames {
		return nil, meta, fmt.Errorf("%s: found %d frames, manifest declares %d", entry.Path, len(frameFiles), entry.Meta.NumFrames)
	}
	if len(frameFiles) < 5 {
		return nil, meta, fmt.Errorf("%s: only %d frames, clip may be corrupted", entry.Path, len(frameFiles))
	}
	meta.NumFrames = entry.Meta.NumFrames
	if dims, err := clip.GetImageDimsFromFile(frameFiles[0]); err == nil {
		meta.Dims = dims
	}
	return frameFiles, meta, nil
}

// frameSeq extracts the numeric suffix of a frame filename, or -1 if it
// has none.
func frameSeq(fname string) int {
	base := filepath.Base(fname)
	base = strings.TrimSuffix(base, "."+clip.Ext(base))
	idx := strings.LastIndex(base, "_")
	if idx < 0 {
		return -1
	}
	n, err := strconv.Atoi(base[idx+1:])
	if err != nil {
		return -1
	}
	return n
}
