package clip

import (
	"testing"
)

func TestClip(t *testing.T) {
	check := func(x int, lo int, hi int, expected int) {
		res := Clip(x, lo, hi)
		if res != expected {
			t.Errorf("Clip(%d, %d, %d) = %d; want %d", x, lo, hi, res, expected)
		}
	}
	check(5, 0, 10, 5)
	check(-5, 0, 10, 0)
	check(15, 0, 10, 10)
	check(0, 0, 0, 0)
}

func TestScaledDims(t *testing.T) {
	check := func(dims [2]int, scale int, expected [2]int) {
		res := scaledDims(dims, scale)
		if res != expected {
			t.Errorf("scaledDims(%v, %d) = %v; want %v", dims, scale, res, expected)
		}
	}
	// scale disabled
	check([2]int{640, 480}, 0, [2]int{640, 480})
	// landscape: short side is height
	check([2]int{640, 480}, 240, [2]int{320, 240})
	// portrait: short side is width
	check([2]int{480, 640}, 240, [2]int{240, 320})
	// already smaller than the target scale
	check([2]int{100, 80}, 240, [2]int{100, 80})
}
