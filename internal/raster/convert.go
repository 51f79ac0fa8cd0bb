package raster

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // Registers GIF
	_ "image/jpeg" // Registers JPEG
	_ "image/png"  // Registers PNG
	"os"

	_ "golang.org/x/image/bmp" // Registers BMP
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff" // Registers TIFF
	_ "golang.org/x/image/webp" // Registers WebP
)

// FromImage converts img to 8-bit luma and resamples it to w x h.
// A zero w or h keeps the source size on that axis.
// Resampling here only prepares stimulus; it is not the golden transform.
func FromImage(img image.Image, w, h int) (*Grid, error) {
	b := img.Bounds()
	if w == 0 {
		w = b.Dx()
	}
	if h == 0 {
		h = b.Dy()
	}
	out, err := New(w, h)
	if err != nil {
		return nil, err
	}

	dst := &image.Gray{Pix: out.Pix, Stride: w, Rect: image.Rect(0, 0, w, h)}
	if b.Dx() == w && b.Dy() == h {
		// Same size: plain luma conversion, no filtering.
		draw.Draw(dst, dst.Rect, img, b.Min, draw.Src)
		return out, nil
	}

	// Resample in RGBA first so the luma conversion sees the filtered colours.
	tmp := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(tmp, tmp.Rect, img, b, draw.Src, nil)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dst.SetGray(x, y, color.GrayModel.Convert(tmp.At(x, y)).(color.Gray))
		}
	}
	return out, nil
}

// LoadImage decodes PNG, JPEG, GIF, BMP, TIFF or WebP and converts it with FromImage.
func LoadImage(path string, w, h int) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	g, err := FromImage(img, w, h)
	if err != nil {
		return nil, fmt.Errorf("failed to convert %s image: %w", format, err)
	}
	return g, nil
}
