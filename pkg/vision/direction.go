package vision

import (
	"NosePointer/internal/entity"
	"math"
)

// DeadZone is the half-width of the band around the frame center inside which
// no direction is reported.
const DeadZone = 0.08

// ClassifyDirection maps the tracked point to a cardinal direction relative to
// the frame center. Ties between the axes resolve to the horizontal one.
func ClassifyDirection(point entity.LandmarkPoint) entity.Direction {
	dx := point.X - 0.5
	dy := point.Y - 0.5

	if math.Abs(dx) < DeadZone && math.Abs(dy) < DeadZone {
		return entity.DirectionNone
	}

	if math.Abs(dx) >= math.Abs(dy) {
		if dx > 0 {
			return entity.DirectionRight
		}
		return entity.DirectionLeft
	}

	if dy > 0 {
		return entity.DirectionDown
	}
	return entity.DirectionUp
}
