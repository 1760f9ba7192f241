// Package camera defines the capture device contract used by the capture
// pipeline. Concrete devices live in subpackages so consumers of the
// contract stay free of cgo.
package camera

import (
	"errors"
	"image"
	"strconv"
)

var (
	ErrCameraUnavailable = errors.New("camera device unavailable")
	ErrReadFailed        = errors.New("camera read failed")
)

// IDevice is an acquired camera. It is owned by a single goroutine.
type IDevice interface {
	Read() (*image.RGBA, error)
	Close() error
}

type IOpener interface {
	Open() (IDevice, error)
}

type Options struct {
	// Device is a numeric index ("0") or a path/URL understood by OpenCV.
	Device string
	Width  int
	Height int
}

// DeviceID returns the numeric index for Device when it is one, otherwise the
// raw string. An empty Device means index 0.
func (o Options) DeviceID() interface{} {
	if o.Device == "" {
		return 0
	}
	if id, err := strconv.Atoi(o.Device); err == nil {
		return id
	}
	return o.Device
}
