package imaging

import (
	"image"
	"math"
)

// medianBlur applies a k x k median filter with replicated borders.
func medianBlur(src *image.Gray, k int) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	r := k / 2
	window := make([]uint8, 0, k*k)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			window = window[:0]
			for dy := -r; dy <= r; dy++ {
				row := src.Pix[clamp(y+dy, 0, h-1)*src.Stride:]
				for dx := -r; dx <= r; dx++ {
					window = append(window, row[clamp(x+dx, 0, w-1)])
				}
			}
			dst.Pix[y*dst.Stride+x] = median(window)
		}
	}
	return dst
}

// median sorts window in place and returns its middle element.
func median(window []uint8) uint8 {
	for i := 1; i < len(window); i++ {
		v := window[i]
		j := i - 1
		for j >= 0 && window[j] > v {
			window[j+1] = window[j]
			j--
		}
		window[j+1] = v
	}
	return window[len(window)/2]
}

// adaptiveThresholdGaussian binarizes src against the Gaussian-weighted mean
// of each pixel's block x block neighbourhood minus c. Pixels strictly above
// the local threshold become white, the rest black.
func adaptiveThresholdGaussian(src *image.Gray, block int, c int) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	kernel := gaussianKernel(block)
	r := block / 2

	horiz := make([]float32, w*h)
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride:]
		for x := 0; x < w; x++ {
			var sum float32
			for i := -r; i <= r; i++ {
				sum += kernel[i+r] * float32(row[clamp(x+i, 0, w-1)])
			}
			horiz[y*w+x] = sum
		}
	}

	dst := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum float32
			for i := -r; i <= r; i++ {
				sum += kernel[i+r] * horiz[clamp(y+i, 0, h-1)*w+x]
			}
			mean := int(math.Round(float64(sum)))
			if int(src.Pix[y*src.Stride+x]) > mean-c {
				dst.Pix[y*dst.Stride+x] = 255
			}
		}
	}
	return dst
}

// gaussianKernel returns a normalized 1D kernel of size k using the sigma
// OpenCV derives when none is given.
func gaussianKernel(k int) []float32 {
	sigma := 0.3*(float64(k-1)*0.5-1) + 0.8
	r := k / 2
	weights := make([]float64, k)
	var total float64
	for i := -r; i <= r; i++ {
		v := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		weights[i+r] = v
		total += v
	}
	out := make([]float32, k)
	for i, v := range weights {
		out[i] = float32(v / total)
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
