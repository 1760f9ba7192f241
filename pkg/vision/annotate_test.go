package vision

import (
	"NosePointer/internal/entity"
	"image"
	"image/color"
	"testing"
)

var background = color.RGBA{R: 40, G: 40, B: 40, A: 255}

func newFrame(w, h int) *image.RGBA {
	frame := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			frame.SetRGBA(x, y, background)
		}
	}
	return frame
}

func TestAnnotateNoneOnlyDrawsMarker(t *testing.T) {
	frame := newFrame(640, 480)
	point := entity.LandmarkPoint{X: 0.5, Y: 0.5}

	Annotate(frame, point, entity.DirectionNone)

	center := MarkerPosition(frame.Bounds(), point)
	if got := frame.RGBAAt(center.X, center.Y); got != MarkerColor {
		t.Errorf("marker center = %v, want %v", got, MarkerColor)
	}

	limit := MarkerRadius + 2
	for y := 0; y < 480; y++ {
		for x := 0; x < 640; x++ {
			dx, dy := x-center.X, y-center.Y
			if dx*dx+dy*dy <= limit*limit {
				continue
			}
			if got := frame.RGBAAt(x, y); got != background {
				t.Fatalf("pixel (%d,%d) outside marker changed to %v", x, y, got)
			}
		}
	}
}

func TestArrowEnd(t *testing.T) {
	origin := image.Point{X: 300, Y: 200}
	tests := []struct {
		direction entity.Direction
		want      image.Point
	}{
		{entity.DirectionRight, image.Point{X: 440, Y: 200}},
		{entity.DirectionLeft, image.Point{X: 160, Y: 200}},
		{entity.DirectionUp, image.Point{X: 300, Y: 60}},
		{entity.DirectionDown, image.Point{X: 300, Y: 340}},
		{entity.DirectionNone, origin},
	}

	for _, tt := range tests {
		if got := ArrowEnd(origin, tt.direction, ArrowLength); got != tt.want {
			t.Errorf("ArrowEnd(%s) = %v, want %v", tt.direction, got, tt.want)
		}
	}
}

func TestAnnotateDrawsArrowToEndPoint(t *testing.T) {
	tests := []struct {
		direction entity.Direction
		inside    func(end image.Point) image.Point
		beyond    func(end image.Point) image.Point
	}{
		{
			direction: entity.DirectionRight,
			inside:    func(end image.Point) image.Point { return image.Point{X: end.X - 2, Y: end.Y} },
			beyond:    func(end image.Point) image.Point { return image.Point{X: end.X + 10, Y: end.Y} },
		},
		{
			direction: entity.DirectionLeft,
			inside:    func(end image.Point) image.Point { return image.Point{X: end.X + 2, Y: end.Y} },
			beyond:    func(end image.Point) image.Point { return image.Point{X: end.X - 10, Y: end.Y} },
		},
		{
			direction: entity.DirectionUp,
			inside:    func(end image.Point) image.Point { return image.Point{X: end.X, Y: end.Y + 2} },
			beyond:    func(end image.Point) image.Point { return image.Point{X: end.X, Y: end.Y - 10} },
		},
		{
			direction: entity.DirectionDown,
			inside:    func(end image.Point) image.Point { return image.Point{X: end.X, Y: end.Y - 2} },
			beyond:    func(end image.Point) image.Point { return image.Point{X: end.X, Y: end.Y + 10} },
		},
	}

	for _, tt := range tests {
		t.Run(tt.direction.String(), func(t *testing.T) {
			frame := newFrame(640, 480)
			point := entity.LandmarkPoint{X: 0.5, Y: 0.5}

			Annotate(frame, point, tt.direction)

			origin := MarkerPosition(frame.Bounds(), point)
			end := ArrowEnd(origin, tt.direction, ArrowLength)

			mid := image.Point{X: (origin.X + end.X) / 2, Y: (origin.Y + end.Y) / 2}
			if got := frame.RGBAAt(mid.X, mid.Y); got != ArrowColor {
				t.Errorf("shaft midpoint %v = %v, want %v", mid, got, ArrowColor)
			}
			in := tt.inside(end)
			if got := frame.RGBAAt(in.X, in.Y); got != ArrowColor {
				t.Errorf("pixel before tip %v = %v, want %v", in, got, ArrowColor)
			}
			out := tt.beyond(end)
			if got := frame.RGBAAt(out.X, out.Y); got != background {
				t.Errorf("pixel past tip %v = %v, want untouched", out, got)
			}
		})
	}
}

func TestAnnotateIsDeterministic(t *testing.T) {
	point := entity.LandmarkPoint{X: 0.61, Y: 0.37}
	first := newFrame(320, 240)
	second := newFrame(320, 240)

	Annotate(first, point, entity.DirectionLeft)
	Annotate(second, point, entity.DirectionLeft)

	for i := range first.Pix {
		if first.Pix[i] != second.Pix[i] {
			t.Fatalf("byte %d differs: %d vs %d", i, first.Pix[i], second.Pix[i])
		}
	}
}

func TestMarkerPositionClampsOvershoot(t *testing.T) {
	bounds := image.Rect(0, 0, 640, 480)
	tests := []struct {
		point entity.LandmarkPoint
		want  image.Point
	}{
		{entity.LandmarkPoint{X: 0.5, Y: 0.5}, image.Point{X: 320, Y: 240}},
		{entity.LandmarkPoint{X: 1.2, Y: -0.1}, image.Point{X: 639, Y: 0}},
		{entity.LandmarkPoint{X: -0.3, Y: 1.0}, image.Point{X: 0, Y: 479}},
	}

	for _, tt := range tests {
		if got := MarkerPosition(bounds, tt.point); got != tt.want {
			t.Errorf("MarkerPosition(%+v) = %v, want %v", tt.point, got, tt.want)
		}
	}
}

func TestAnnotateOffCanvasDoesNotPanic(t *testing.T) {
	frame := newFrame(64, 48)
	Annotate(frame, entity.LandmarkPoint{X: 1.4, Y: 1.4}, entity.DirectionDown)
	Annotate(frame, entity.LandmarkPoint{X: -1, Y: -1}, entity.DirectionUp)
}
