package bitmap

import (
	"image"

	"github.com/MaxHalford/halfgone"
	"golang.org/x/image/draw"
)

// Normalize converts a rendered image to a bitmap that is at most maxHeight pixels tall.
// A *image.Gray is used as is; any other image is first converted to luminance.
//
// Taller images are scaled down with nearest-neighbor sampling so that their height is exactly maxHeight and their
// aspect ratio is preserved. Interpolating would blur the edges of barcode bars, so no smoothing is ever applied,
// even to text. The result is then thresholded: luminance strictly below Threshold is ink.
func Normalize(img image.Image, maxHeight int) *Image {
	gray, ok := img.(*image.Gray)
	if !ok {
		gray = halfgone.ImageToGray(img)
	}
	gray = fitHeight(gray, maxHeight)
	return binarize(gray)
}

func fitHeight(gray *image.Gray, maxHeight int) *image.Gray {
	bounds := gray.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if maxHeight <= 0 || height <= maxHeight {
		return gray
	}

	newWidth := width * maxHeight / height
	if newWidth < 1 {
		newWidth = 1
	}

	scaled := image.NewGray(image.Rect(0, 0, newWidth, maxHeight))
	draw.NearestNeighbor.Scale(scaled, scaled.Bounds(), gray, bounds, draw.Src, nil)
	return scaled
}

func binarize(gray *image.Gray) *Image {
	bounds := gray.Bounds()
	out := &Image{src: image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))}
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			v := uint8(0xff)
			if gray.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y < Threshold {
				v = 0
			}
			out.src.Pix[out.src.PixOffset(x, y)] = v
		}
	}
	return out
}
