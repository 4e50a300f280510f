package clip

import (
	"fmt"
	"math"
)

// Tensor is a dense float32 tensor with four dimensions.
// The transform pipeline produces clips in (channel, frame, height, width)
// order; decoded frames enter as (frame, height, width, channel).
type Tensor struct {
	Shape [4]int
	Data []float32
}

func NewTensor(shape [4]int) Tensor {
	return Tensor{
		Shape: shape,
		Data: make([]float32, shape[0]*shape[1]*shape[2]*shape[3]),
	}
}

func (t Tensor) offset(a, b, c, d int) int {
	return ((a*t.Shape[1]+b)*t.Shape[2]+c)*t.Shape[3] + d
}

func (t Tensor) At(a, b, c, d int) float32 {
	return t.Data[t.offset(a, b, c, d)]
}

func (t Tensor) Set(a, b, c, d int, v float32) {
	t.Data[t.offset(a, b, c, d)] = v
}

// TensorFromFrames stacks decoded frames into a (frame, height, width,
// channel) tensor of raw 0-255 pixel values. All frames must share dims.
func TensorFromFrames(frames []Image) (Tensor, error) {
	if len(frames) == 0 {
		return Tensor{}, fmt.Errorf("no frames")
	}
	width, height := frames[0].Width, frames[0].Height
	t := NewTensor([4]int{len(frames), height, width, 3})
	for fi, im := range frames {
		if im.Width != width || im.Height != height {
			return Tensor{}, fmt.Errorf("frame %d dims %dx%d do not match %dx%d", fi, im.Width, im.Height, width, height)
		}
		base := fi * height * width * 3
		copy(t.Data[base:base+height*width*3], bytesToFloats(im.ToBytes()))
	}
	return t, nil
}

func bytesToFloats(b []byte) []float32 {
	out := make([]float32, len(b))
	for i := range b {
		out[i] = float32(b[i])
	}
	return out
}

// Normalize rescales raw pixel values to [0, 1] and applies per-channel
// mean/stddev. The tensor must be in (frame, height, width, channel) order.
func (t Tensor) Normalize(mean []float64, std []float64) {
	channels := t.Shape[3]
	for i := range t.Data {
		c := i % channels
		v := float64(t.Data[i]) / 255
		t.Data[i] = float32((v - mean[c]) / std[c])
	}
}

// PermuteTHWC reorders a (frame, height, width, channel) tensor into
// (channel, frame, height, width).
func (t Tensor) PermuteTHWC() Tensor {
	frames, height, width, channels := t.Shape[0], t.Shape[1], t.Shape[2], t.Shape[3]
	out := NewTensor([4]int{channels, frames, height, width})
	for fi := 0; fi < frames; fi++ {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				for c := 0; c < channels; c++ {
					out.Set(c, fi, y, x, t.At(fi, y, x, c))
				}
			}
		}
	}
	return out
}

// ScaleSpatial resizes the spatial dims of a (channel, frame, height, width)
// tensor with bilinear interpolation.
func (t Tensor) ScaleSpatial(newHeight int, newWidth int) Tensor {
	channels, frames, height, width := t.Shape[0], t.Shape[1], t.Shape[2], t.Shape[3]
	if newHeight == height && newWidth == width {
		return t
	}
	out := NewTensor([4]int{channels, frames, newHeight, newWidth})
	scaleY := float64(height) / float64(newHeight)
	scaleX := float64(width) / float64(newWidth)
	for y := 0; y < newHeight; y++ {
		srcY := (float64(y)+0.5)*scaleY - 0.5
		if srcY < 0 {
			srcY = 0
		} else if srcY > float64(height-1) {
			srcY = float64(height - 1)
		}
		y0 := int(math.Floor(srcY))
		y1 := y0 + 1
		if y1 > height-1 {
			y1 = height - 1
		}
		wy := float32(srcY - float64(y0))
		for x := 0; x < newWidth; x++ {
			srcX := (float64(x)+0.5)*scaleX - 0.5
			if srcX < 0 {
				srcX = 0
			} else if srcX > float64(width-1) {
				srcX = float64(width - 1)
			}
			x0 := int(math.Floor(srcX))
			x1 := x0 + 1
			if x1 > width-1 {
				x1 = width - 1
			}
			wx := float32(srcX - float64(x0))
			for c := 0; c < channels; c++ {
				for fi := 0; fi < frames; fi++ {
					top := t.At(c, fi, y0, x0)*(1-wx) + t.At(c, fi, y0, x1)*wx
					bottom := t.At(c, fi, y1, x0)*(1-wx) + t.At(c, fi, y1, x1)*wx
					out.Set(c, fi, y, x, top*(1-wy)+bottom*wy)
				}
			}
		}
	}
	return out
}

// CropSpatial extracts a size x size window at the given top-left offset
// from a (channel, frame, height, width) tensor.
func (t Tensor) CropSpatial(top int, left int, size int) Tensor {
	channels, frames := t.Shape[0], t.Shape[1]
	out := NewTensor([4]int{channels, frames, size, size})
	for c := 0; c < channels; c++ {
		for fi := 0; fi < frames; fi++ {
			for y := 0; y < size; y++ {
				for x := 0; x < size; x++ {
					out.Set(c, fi, y, x, t.At(c, fi, top+y, left+x))
				}
			}
		}
	}
	return out
}

// FlipWidth mirrors a (channel, frame, height, width) tensor horizontally.
func (t Tensor) FlipWidth() Tensor {
	channels, frames, height, width := t.Shape[0], t.Shape[1], t.Shape[2], t.Shape[3]
	out := NewTensor(t.Shape)
	for c := 0; c < channels; c++ {
		for fi := 0; fi < frames; fi++ {
			for y := 0; y < height; y++ {
				for x := 0; x < width; x++ {
					out.Set(c, fi, y, x, t.At(c, fi, y, width-1-x))
				}
			}
		}
	}
	return out
}

// TemporalSelect extracts the given frame indices from a
// (channel, frame, height, width) tensor.
func (t Tensor) TemporalSelect(indices []int) Tensor {
	channels, height, width := t.Shape[0], t.Shape[2], t.Shape[3]
	out := NewTensor([4]int{channels, len(indices), height, width})
	for c := 0; c < channels; c++ {
		for oi, fi := range indices {
			for y := 0; y < height; y++ {
				for x := 0; x < width; x++ {
					out.Set(c, oi, y, x, t.At(c, fi, y, x))
				}
			}
		}
	}
	return out
}

// LinspaceInts returns num integer positions spread evenly over
// [0, max], matching torch.linspace(0, max, num).long().
func LinspaceInts(max int, num int) []int {
	out := make([]int, num)
	if num == 1 {
		return out
	}
	step := float64(max) / float64(num-1)
	for i := range out {
		out[i] = int(step * float64(i))
	}
	return out
}
