package bitmap

import "image"

// Background is the luminance of an unmarked pixel.
const Background = 0xff

// ContentBounds returns the smallest rectangle enclosing every pixel of img whose luminance differs from
// Background. The result is empty if img has no content.
func ContentBounds(img *image.Gray) image.Rectangle {
	r := img.Bounds()
	minX, minY, maxX, maxY := r.Max.X, r.Max.Y, r.Min.X, r.Min.Y
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := img.Pix[img.PixOffset(r.Min.X, y):img.PixOffset(r.Max.X, y)]
		for i, v := range row {
			if v == Background {
				continue
			}
			x := r.Min.X + i
			if x < minX {
				minX = x
			}
			if x >= maxX {
				maxX = x + 1
			}
			if y < minY {
				minY = y
			}
			if y >= maxY {
				maxY = y + 1
			}
		}
	}
	if minX >= maxX || minY >= maxY {
		return image.Rectangle{}
	}
	return image.Rect(minX, minY, maxX, maxY)
}

// Crop returns the part of img inside its content bounds, sharing pixels with img. ok is false if img has no
// content.
func Crop(img *image.Gray) (cropped *image.Gray, ok bool) {
	r := ContentBounds(img)
	if r.Empty() {
		return nil, false
	}
	return img.SubImage(r).(*image.Gray), true
}
