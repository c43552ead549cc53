package vision

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	// Tesseract reads small scans poorly; narrow images are upscaled to this width.
	minOCRWidth = 1200
	maxOCRWidth = 3000
)

// Normalize decodes an image, converts it to grayscale, stretches its contrast and
// returns it PNG-encoded for the OCR engine.
func Normalize(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, fmt.Errorf("decode image: empty bounds")
	}

	gray := toGray(resize(img))
	stretchContrast(gray)

	var out bytes.Buffer
	if err := png.Encode(&out, gray); err != nil {
		return nil, fmt.Errorf("encode normalized image: %w", err)
	}
	return out.Bytes(), nil
}

func resize(img image.Image) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	target := w
	switch {
	case w < minOCRWidth:
		target = minOCRWidth
	case w > maxOCRWidth:
		target = maxOCRWidth
	default:
		return img
	}
	th := h * target / w
	if th < 1 {
		th = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, target, th))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

func toGray(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x-bounds.Min.X, y-bounds.Min.Y, color.GrayModel.Convert(img.At(x, y)))
		}
	}
	return gray
}

// stretchContrast maps the darkest pixel to 0 and the brightest to 255.
func stretchContrast(img *image.Gray) {
	lo, hi := uint8(255), uint8(0)
	for _, p := range img.Pix {
		if p < lo {
			lo = p
		}
		if p > hi {
			hi = p
		}
	}
	if hi <= lo {
		return
	}
	scale := 255.0 / float64(hi-lo)
	for i, p := range img.Pix {
		img.Pix[i] = uint8(float64(p-lo)*scale + 0.5)
	}
}
