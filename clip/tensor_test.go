package clip

import (
	"testing"
)

func TestTensorFromFrames(t *testing.T) {
	frames := []Image{
		ImageFromBytes(2, 2, []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}),
	}
	tensor, err := TensorFromFrames(frames)
	if err != nil {
		t.Fatal(err)
	}
	if tensor.Shape != [4]int{1, 2, 2, 3} {
		t.Fatalf("shape %v; want [1 2 2 3]", tensor.Shape)
	}
	// pixel (y=1, x=0), channel 2 is byte (1*2+0)*3+2 = 8
	if tensor.At(0, 1, 0, 2) != 8 {
		t.Errorf("value %v; want 8", tensor.At(0, 1, 0, 2))
	}
}

func TestTensorFromFramesMismatchedDims(t *testing.T) {
	frames := []Image{NewImage(2, 2), NewImage(3, 2)}
	if _, err := TensorFromFrames(frames); err == nil {
		t.Error("expected error for mismatched frame dims")
	}
}

func TestTensorFromFramesEmpty(t *testing.T) {
	if _, err := TensorFromFrames(nil); err == nil {
		t.Error("expected error for empty frame list")
	}
}

func TestScaleSpatialConstant(t *testing.T) {
	// bilinear interpolation of a constant field stays constant
	src := NewTensor([4]int{1, 2, 4, 6})
	for i := range src.Data {
		src.Data[i] = 3.5
	}
	out := src.ScaleSpatial(2, 3)
	if out.Shape != [4]int{1, 2, 2, 3} {
		t.Fatalf("shape %v; want [1 2 2 3]", out.Shape)
	}
	for i, v := range out.Data {
		if v != 3.5 {
			t.Fatalf("value %v at %d; want 3.5", v, i)
		}
	}
}

func TestScaleSpatialIdentity(t *testing.T) {
	src := NewTensor([4]int{1, 1, 4, 4})
	for i := range src.Data {
		src.Data[i] = float32(i)
	}
	out := src.ScaleSpatial(4, 4)
	for i := range src.Data {
		if out.Data[i] != src.Data[i] {
			t.Fatal("scaling to the same dims should be the identity")
		}
	}
}

func TestCropSpatial(t *testing.T) {
	src := NewTensor([4]int{1, 1, 4, 4})
	for i := range src.Data {
		src.Data[i] = float32(i)
	}
	out := src.CropSpatial(1, 2, 2)
	if out.Shape != [4]int{1, 1, 2, 2} {
		t.Fatalf("shape %v; want [1 1 2 2]", out.Shape)
	}
	if out.At(0, 0, 0, 0) != src.At(0, 0, 1, 2) {
		t.Errorf("crop origin %v; want %v", out.At(0, 0, 0, 0), src.At(0, 0, 1, 2))
	}
	if out.At(0, 0, 1, 1) != src.At(0, 0, 2, 3) {
		t.Errorf("crop corner %v; want %v", out.At(0, 0, 1, 1), src.At(0, 0, 2, 3))
	}
}

func TestTemporalSelect(t *testing.T) {
	src := NewTensor([4]int{2, 4, 1, 1})
	for i := range src.Data {
		src.Data[i] = float32(i)
	}
	out := src.TemporalSelect([]int{0, 3})
	if out.Shape != [4]int{2, 2, 1, 1} {
		t.Fatalf("shape %v; want [2 2 1 1]", out.Shape)
	}
	if out.At(1, 1, 0, 0) != src.At(1, 3, 0, 0) {
		t.Errorf("selected frame %v; want %v", out.At(1, 1, 0, 0), src.At(1, 3, 0, 0))
	}
}

func TestImageResize(t *testing.T) {
	im := NewImage(8, 4)
	for i := range im.Bytes {
		im.Bytes[i] = 100
	}
	out := im.Resize(4, 2)
	if out.Width != 4 || out.Height != 2 {
		t.Fatalf("dims %dx%d; want 4x2", out.Width, out.Height)
	}
	for _, b := range out.Bytes {
		if b != 100 {
			t.Fatalf("resized constant image has value %d; want 100", b)
		}
	}
}
