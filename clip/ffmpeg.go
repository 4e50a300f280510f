package clip

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"strings"
)

// Rand is the source of randomness for sampling decisions (temporal
// offsets, jitter, index substitution). *rand.Rand satisfies it; the
// default implementation delegates to the global math/rand source, which
// is safe for concurrent use.
type Rand interface {
	Intn(n int) int
	Float64() float64
}

type globalRand struct{}

func (globalRand) Intn(n int) int { return rand.Intn(n) }
func (globalRand) Float64() float64 { return rand.Float64() }

func GlobalRand() Rand {
	return globalRand{}
}

type VideoMeta struct {
	Dims [2]int
	FPS float64
	Duration float64

	// Declared frame count, for pre-extracted frame sequences.
	NumFrames int
}

// Container is an opened video file plus its probed metadata.
type Container struct {
	Fname string
	Multithread bool
	Backend string
	Meta VideoMeta
}

// OpenContainer probes a video file and returns a handle for decoding.
// Any I/O or format error is returned to the caller; the retry engine
// treats it as a soft failure.
func OpenContainer(fname string, multithread bool, backend string) (*Container, error) {
	if !FileExists(fname) {
		return nil, fmt.Errorf("no such file: %s", fname)
	}
	width, height, duration, fps, err := Ffprobe(fname)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %v", fname, err)
	}
	return &Container{
		Fname: fname,
		Multithread: multithread,
		Backend: backend,
		Meta: VideoMeta{
			Dims: [2]int{width, height},
			FPS: fps,
			Duration: duration,
		},
	}, nil
}

// Decoder produces raw frames given an opened container (or frame file
// list) and sampling parameters. Implementations signal decode failure
// with an error or an empty frame slice; the retry engine handles both.
type Decoder interface {
	Decode(container *Container, samplingRate int, numFrames int, temporalIdx int, numEnsembleViews int, targetFPS int, maxSpatialScale int, rng Rand) ([]Image, error)
	DecodeSequence(handle string, samplingRate int, frameFiles []string, meta VideoMeta, numFrames int, maxSpatialScale int, rng Rand) ([]Image, error)
}

// FfmpegDecoder decodes clips by piping rawvideo frames out of an ffmpeg
// subprocess.
type FfmpegDecoder struct{}

func (d FfmpegDecoder) Decode(container *Container, samplingRate int, numFrames int, temporalIdx int, numEnsembleViews int, targetFPS int, maxSpatialScale int, rng Rand) ([]Image, error) {
	// Temporal selection happens in target-fps frame space: pick the start
	// of a span of samplingRate*numFrames frames, randomly for -1, or as
	// one of numEnsembleViews uniformly spread segments.
	span := samplingRate * numFrames
	total := int(container.Meta.Duration * float64(targetFPS))
	delta := total - span
	if delta < 0 {
		delta = 0
	}
	var start int
	if temporalIdx == -1 {
		if delta > 0 {
			start = rng.Intn(delta + 1)
		}
	} else if numEnsembleViews > 0 {
		start = delta * temporalIdx / numEnsembleViews
	}

	dims := scaledDims(container.Meta.Dims, maxSpatialScale)
	rd := ReadFfmpeg(container.Fname, dims, [2]int{targetFPS, 1}, ReadFfmpegOptions{
		Start: start,
		Length: span,
		Multithread: container.Multithread,
	})
	defer rd.Close()
	var decoded []Image
	for len(decoded) < span {
		im, err := rd.Read()
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("decode %s: %v", container.Fname, err)
		}
		decoded = append(decoded, im)
	}
	if len(decoded) == 0 {
		return nil, fmt.Errorf("decode %s: no frames", container.Fname)
	}

	// Stride by the sampling rate, clamping into the decoded range so
	// short videos repeat their last frame rather than failing.
	frames := make([]Image, numFrames)
	for i := 0; i < numFrames; i++ {
		frames[i] = decoded[Clip(i*samplingRate, 0, len(decoded)-1)]
	}
	return frames, nil
}

// scaledDims shrinks dims so the short side equals scale, preserving
// aspect ratio. scale <= 0 or an already-smaller short side keeps dims.
func scaledDims(dims [2]int, scale int) [2]int {
	width, height := dims[0], dims[1]
	if scale <= 0 || width <= 0 || height <= 0 {
		return dims
	}
	if width <= height {
		if width <= scale {
			return dims
		}
		return [2]int{scale, height * scale / width}
	}
	if height <= scale {
		return dims
	}
	return [2]int{width * scale / height, scale}
}

type FfmpegReader struct {
	Cmd *Cmd
	Stdout io.ReadCloser
	Width int
	Height int
	Buf []byte
}

// Read video file from fname with the given dimensions and framerate.
// Start and length specify a range of frame indexes to read, but can be 0 to read the entire file.
type ReadFfmpegOptions struct {
	// If non-zero, the offset in the file to seek to before reading.
	Start int
	// If non-zero, read only this many frames.
	Length int
	// Whether to decode with multiple threads.
	Multithread bool
}

func ReadFfmpeg(fname string, dims [2]int, rate [2]int, opts ReadFfmpegOptions) *FfmpegReader {
	// Determine command-line arguments for ffmpeg based on the parameters.
	var args []string
	threads := "1"
	if opts.Multithread {
		threads = "2"
	}
	args = append(args, []string{
		"-threads", threads,
	}...)

	// Seek.
	if opts.Start != 0 {
		ts := opts.Start * rate[1] * 100 / rate[0]
		tsStr := fmt.Sprintf("%d.%02d", ts/100, ts%100)
		args = append(args, []string{
			"-ss", tsStr,
		}...)
	}

	args = append(args, []string{
		"-i", fname,
	}...)

	// Number of frames limit.
	if opts.Length != 0 {
		args = append(args, []string{
			"-vframes", fmt.Sprintf("%d", opts.Length),
		}...)
	}

	// Output options.
	args = append(args, []string{
		"-c:v", "rawvideo", "-pix_fmt", "rgb24", "-f", "rawvideo",
		"-vf", fmt.Sprintf("scale=%dx%d,fps=fps=%d/%d:round=up", dims[0], dims[1], rate[0], rate[1]),
		"-",
	}...)

	cmd := Command(
		"ffmpeg-read", CommandOptions{OnlyDebug: true, NoStdin: true},
		"ffmpeg",
		args...,
	)

	return &FfmpegReader{
		Cmd: cmd,
		Stdout: cmd.Stdout(),
		Width: dims[0],
		Height: dims[1],
		Buf: make([]byte, dims[0]*dims[1]*3),
	}
}

func (rd *FfmpegReader) Read() (Image, error) {
	_, err := io.ReadFull(rd.Stdout, rd.Buf)
	if err != nil {
		return Image{}, err
	}
	buf := make([]byte, len(rd.Buf))
	copy(buf, rd.Buf)
	im := ImageFromBytes(rd.Width, rd.Height, buf)
	return im, nil
}

func (rd *FfmpegReader) Close() {
	rd.Stdout.Close()
	rd.Cmd.Wait()
}

func Ffprobe(fname string) (width int, height int, duration float64, fps float64, err error) {
	cmd := Command(
		"ffprobe", CommandOptions{NoStdin: true},
		"ffprobe",
		"-v", "error", "-select_streams", "v:0",
		"-show_entries", "stream=width,height,duration,avg_frame_rate",
		"-of", "default=noprint_wrappers=1",
		fname,
	)
	rd := bufio.NewReader(cmd.Stdout())
	for {
		var line string
		line, err = rd.ReadString('\n')
		if err == io.EOF {
			err = nil
			break
		} else if err != nil {
			cmd.Wait()
			return
		}
		parts := strings.SplitN(strings.TrimSpace(line), "=", 2)
		if len(parts) != 2 {
			continue
		}
		switch parts[0] {
		case "width":
			width, _ = strconv.Atoi(parts[1])
		case "height":
			height, _ = strconv.Atoi(parts[1])
		case "duration":
			duration, _ = strconv.ParseFloat(parts[1], 64)
		case "avg_frame_rate":
			rateParts := strings.Split(parts[1], "/")
			if len(rateParts) == 2 {
				num, _ := strconv.ParseFloat(rateParts[0], 64)
				den, _ := strconv.ParseFloat(rateParts[1], 64)
				if den > 0 {
					fps = num / den
				}
			}
		}
	}
	cmd.Wait()
	if width == 0 || height == 0 {
		err = fmt.Errorf("no video stream in %s", fname)
	}
	return
}
