package dataset

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type Meta struct {
	// Declared frame count for frame sequences; 0 for videos.
	NumFrames int
}

// Entry is one (clip, replica) pair in the dataset index. Entries are
// immutable once loaded.
type Entry struct {
	Path string
	Label int
	SpatialTemporalIdx int
	Meta Meta
}

func manifestPath(cfg *Config, mode string) string {
	if cfg.Data.UseFrameSequences {
		return filepath.Join(cfg.Data.PathToDataDir, fmt.Sprintf("frames_%s.csv", mode))
	}
	return filepath.Join(cfg.Data.PathToDataDir, fmt.Sprintf("%s.csv", mode))
}

// numClips is how many entries each manifest line expands to: one for
// train/val, and one per (ensemble view, spatial crop) pair in multi-view
// test mode.
func numClips(cfg *Config, mode string) int {
	if mode == "test" && cfg.Test.MultiView {
		return cfg.Test.NumEnsembleViews * cfg.Test.NumSpatialCrops
	}
	return 1
}

// loadManifest parses the manifest for a mode into the dataset index.
// Two record shapes are supported:
//   path<SEP>label                                   (videos)
//   set<SEP>class<SEP>sample<SEP>num_frames<SEP>label (frame sequences)
func loadManifest(cfg *Config, mode string) ([]Entry, error) {
	fname := manifestPath(cfg, mode)
	file, err := os.Open(fname)
	if err != nil {
		return nil, fmt.Errorf("manifest for split %s not found: %v", mode, err)
	}
	defer file.Close()

	sep := cfg.Data.PathLabelSeparator
	replicas := numClips(cfg, mode)
	var entries []Entry
	scanner := bufio.NewScanner(file)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var path string
		var label int
		var meta Meta
		if cfg.Data.UseFrameSequences {
			parts := strings.Split(line, sep)
			if len(parts) != 5 {
				return nil, fmt.Errorf("manifest %s line %d: expected 5 fields, got %d", fname, lineno, len(parts))
			}
			numFrames, err := strconv.Atoi(parts[3])
			if err != nil {
				return nil, fmt.Errorf("manifest %s line %d: bad frame count %q", fname, lineno, parts[3])
			}
			label, err = strconv.Atoi(parts[4])
			if err != nil {
				return nil, fmt.Errorf("manifest %s line %d: bad label %q", fname, lineno, parts[4])
			}
			path = filepath.Join(cfg.Data.PathPrefix, cfg.Data.FrameDirName, parts[0], parts[1], parts[2])
			meta.NumFrames = numFrames
		} else {
			parts := strings.Split(line, sep)
			if len(parts) != 2 {
				return nil, fmt.Errorf("manifest %s line %d: expected 2 fields, got %d", fname, lineno, len(parts))
			}
			label, err = strconv.Atoi(parts[1])
			if err != nil {
				return nil, fmt.Errorf("manifest %s line %d: bad label %q", fname, lineno, parts[1])
			}
			path = filepath.Join(cfg.Data.PathPrefix, parts[0])
		}
		for idx := 0; idx < replicas; idx++ {
			entries = append(entries, Entry{
				Path: path,
				Label: label,
				SpatialTemporalIdx: idx,
				Meta: meta,
			})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("manifest %s: %v", fname, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("failed to load split %s from %s: no entries", mode, fname)
	}
	log.Printf("[dataset] constructed %s index (size: %d) from %s", mode, len(entries), fname)
	return entries, nil
}
