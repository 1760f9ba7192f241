package vision

import (
	"NosePointer/internal/entity"
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

const (
	MarkerRadius   = 6
	ArrowLength    = 140
	ArrowWidth     = 6
	ArrowTipLength = 0.3
	labelOffsetX   = -50
	labelOffsetY   = 50
)

var (
	MarkerColor = color.RGBA{R: 193, G: 240, B: 126, A: 255}
	ArrowColor  = color.RGBA{R: 255, G: 255, B: 0, A: 255}
)

// MarkerPosition scales a normalized point to pixel coordinates, clamped to
// the frame so model overshoot never lands off canvas.
func MarkerPosition(bounds image.Rectangle, point entity.LandmarkPoint) image.Point {
	x := int(point.X * float64(bounds.Dx()))
	y := int(point.Y * float64(bounds.Dy()))

	return image.Point{
		X: bounds.Min.X + clamp(x, 0, bounds.Dx()-1),
		Y: bounds.Min.Y + clamp(y, 0, bounds.Dy()-1),
	}
}

// ArrowEnd returns the tip of an arrow of the given length drawn from origin.
// NONE returns origin.
func ArrowEnd(origin image.Point, direction entity.Direction, length int) image.Point {
	switch direction {
	case entity.DirectionRight:
		return image.Point{X: origin.X + length, Y: origin.Y}
	case entity.DirectionLeft:
		return image.Point{X: origin.X - length, Y: origin.Y}
	case entity.DirectionUp:
		return image.Point{X: origin.X, Y: origin.Y - length}
	case entity.DirectionDown:
		return image.Point{X: origin.X, Y: origin.Y + length}
	default:
		return origin
	}
}

// Annotate draws the tracked point marker onto frame and, for any direction
// other than NONE, an arrow toward that direction plus its label.
func Annotate(frame *image.RGBA, point entity.LandmarkPoint, direction entity.Direction) {
	dc := gg.NewContextForRGBA(frame)
	origin := MarkerPosition(frame.Bounds(), point)

	dc.SetColor(MarkerColor)
	dc.DrawCircle(float64(origin.X), float64(origin.Y), MarkerRadius)
	dc.Fill()

	if direction.IsNone() {
		return
	}

	end := ArrowEnd(origin, direction, ArrowLength)

	dc.SetColor(ArrowColor)
	dc.SetLineWidth(ArrowWidth)
	dc.SetLineCapRound()
	drawArrow(dc, origin, end)

	dc.SetFontFace(basicfont.Face7x13)
	dc.DrawString(direction.String(), float64(origin.X+labelOffsetX), float64(origin.Y+labelOffsetY))
}

func drawArrow(dc *gg.Context, from, to image.Point) {
	fx, fy := float64(from.X), float64(from.Y)
	tx, ty := float64(to.X), float64(to.Y)

	dc.DrawLine(fx, fy, tx, ty)
	dc.Stroke()

	tip := math.Hypot(tx-fx, ty-fy) * ArrowTipLength
	angle := math.Atan2(fy-ty, fx-tx)
	for _, side := range []float64{math.Pi / 4, -math.Pi / 4} {
		dc.DrawLine(tx, ty, tx+tip*math.Cos(angle+side), ty+tip*math.Sin(angle+side))
		dc.Stroke()
	}
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
