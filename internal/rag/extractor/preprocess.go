package extractor

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"sort"

	// Register decoders for the accepted image upload formats.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// preprocessForOCR decodes the raw image and applies the OCR preparation
// chain: grayscale, median denoise, adaptive-threshold binarization. It
// returns the processed image encoded as PNG plus the source dimensions.
func preprocessForOCR(data []byte) ([]byte, int, int, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to decode image: %w", err)
	}

	gray := toGray(src)
	denoised := medianDenoise(gray)
	binarized := adaptiveThreshold(denoised, 15, 2)

	var buf bytes.Buffer
	if err := png.Encode(&buf, binarized); err != nil {
		return nil, 0, 0, fmt.Errorf("failed to encode processed image: %w", err)
	}
	b := src.Bounds()
	return buf.Bytes(), b.Dx(), b.Dy(), nil
}

func toGray(src image.Image) *image.Gray {
	b := src.Bounds()
	gray := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			gray.Set(x, y, src.At(x, y))
		}
	}
	return gray
}

// medianDenoise applies a 3x3 median filter, the standard cheap removal of
// salt-and-pepper scanning noise.
func medianDenoise(src *image.Gray) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(b)
	window := make([]byte, 0, 9)

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			window = window[:0]
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx < b.Min.X || nx >= b.Max.X || ny < b.Min.Y || ny >= b.Max.Y {
						continue
					}
					window = append(window, src.GrayAt(nx, ny).Y)
				}
			}
			sort.Slice(window, func(i, j int) bool { return window[i] < window[j] })
			dst.Pix[(y-b.Min.Y)*dst.Stride+(x-b.Min.X)] = window[len(window)/2]
		}
	}
	return dst
}

// adaptiveThreshold binarizes using the mean of a window x window
// neighborhood (computed via an integral image) minus a small bias, so text
// survives uneven scan lighting that defeats a single global threshold.
func adaptiveThreshold(src *image.Gray, window, bias int) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewGray(b)
	if w == 0 || h == 0 {
		return dst
	}

	// integral[y][x] = sum of pixels in [0,x) x [0,y).
	integral := make([][]int64, h+1)
	for i := range integral {
		integral[i] = make([]int64, w+1)
	}
	for y := 0; y < h; y++ {
		var rowSum int64
		for x := 0; x < w; x++ {
			rowSum += int64(src.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			integral[y+1][x+1] = integral[y][x+1] + rowSum
		}
	}

	half := window / 2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			x0, y0 := max(0, x-half), max(0, y-half)
			x1, y1 := min(w-1, x+half), min(h-1, y+half)
			count := int64((x1 - x0 + 1) * (y1 - y0 + 1))
			sum := integral[y1+1][x1+1] - integral[y0][x1+1] - integral[y1+1][x0] + integral[y0][x0]
			mean := sum / count

			v := int64(src.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			if v > mean-int64(bias) {
				dst.Pix[y*dst.Stride+x] = 255
			} else {
				dst.Pix[y*dst.Stride+x] = 0
			}
		}
	}
	return dst
}
