package vision

import (
	"NosePointer/internal/entity"
	"image"
)

// MirrorHorizontal flips the frame left to right in place.
func MirrorHorizontal(frame *image.RGBA) {
	bounds := frame.Bounds()
	width := bounds.Dx()

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		row := frame.Pix[frame.PixOffset(bounds.Min.X, y) : frame.PixOffset(bounds.Min.X, y)+width*4]
		for left, right := 0, width-1; left < right; left, right = left+1, right-1 {
			l, r := left*4, right*4
			row[l], row[r] = row[r], row[l]
			row[l+1], row[r+1] = row[r+1], row[l+1]
			row[l+2], row[r+2] = row[r+2], row[l+2]
			row[l+3], row[r+3] = row[r+3], row[l+3]
		}
	}
}

// ToDetectorFrame packs the frame into the RGB24 layout the landmark service
// expects. Alpha is dropped.
func ToDetectorFrame(frame *image.RGBA) entity.DetectorFrame {
	bounds := frame.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	pixels := make([]byte, 0, width*height*3)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		offset := frame.PixOffset(bounds.Min.X, y)
		row := frame.Pix[offset : offset+width*4]
		for x := 0; x < width; x++ {
			pixels = append(pixels, row[x*4], row[x*4+1], row[x*4+2])
		}
	}

	return entity.DetectorFrame{
		Width:  width,
		Height: height,
		Format: entity.DetectorFormatRGB24,
		Pixels: pixels,
	}
}
