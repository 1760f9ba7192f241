package entity

// LandmarkPoint is a normalized landmark coordinate. X and Y are nominally in
// [0,1] but may overshoot slightly when the model jitters.
type LandmarkPoint struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
	Z float64 `json:"z,omitempty" msgpack:"z"`
}

type FaceLandmarks struct {
	Landmarks []LandmarkPoint `json:"landmarks"`
}

// Point returns the landmark at index, or false when the face mesh is shorter.
func (f FaceLandmarks) Point(index int) (LandmarkPoint, bool) {
	if index < 0 || index >= len(f.Landmarks) {
		return LandmarkPoint{}, false
	}
	return f.Landmarks[index], true
}

type LandmarkResult struct {
	Faces []FaceLandmarks `json:"faces"`
	Error string          `json:"error,omitempty"`
}

const DetectorFormatRGB24 = "rgb24"

type DetectorFrame struct {
	Width  int    `msgpack:"width"`
	Height int    `msgpack:"height"`
	Format string `msgpack:"format"`
	Pixels []byte `msgpack:"pixels"`
}
