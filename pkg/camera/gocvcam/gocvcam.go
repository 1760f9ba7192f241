// Package gocvcam opens local capture devices through OpenCV. It needs cgo
// and OpenCV 4; only the process entrypoint imports it.
package gocvcam

import (
	"NosePointer/pkg/camera"
	"fmt"
	"image"
	"sync"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
	"golang.org/x/image/draw"
)

type opener struct {
	opts camera.Options
	log  *logrus.Logger
}

func NewOpener(opts camera.Options, log *logrus.Logger) camera.IOpener {
	return &opener{opts: opts, log: log}
}

func (o *opener) Open() (camera.IDevice, error) {
	capture, err := gocv.OpenVideoCapture(o.opts.DeviceID())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", camera.ErrCameraUnavailable, err)
	}

	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("%w: device %q did not open", camera.ErrCameraUnavailable, o.opts.Device)
	}

	if o.opts.Width > 0 {
		capture.Set(gocv.VideoCaptureFrameWidth, float64(o.opts.Width))
	}
	if o.opts.Height > 0 {
		capture.Set(gocv.VideoCaptureFrameHeight, float64(o.opts.Height))
	}

	o.log.WithFields(logrus.Fields{
		"device": o.opts.Device,
		"width":  capture.Get(gocv.VideoCaptureFrameWidth),
		"height": capture.Get(gocv.VideoCaptureFrameHeight),
	}).Info("Camera acquired")

	return &device{capture: capture, mat: gocv.NewMat()}, nil
}

type device struct {
	mu      sync.Mutex
	capture *gocv.VideoCapture
	mat     gocv.Mat
	closed  bool
}

func (d *device) Read() (*image.RGBA, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, camera.ErrReadFailed
	}

	if ok := d.capture.Read(&d.mat); !ok || d.mat.Empty() {
		return nil, camera.ErrReadFailed
	}

	img, err := d.mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", camera.ErrReadFailed, err)
	}

	if rgba, ok := img.(*image.RGBA); ok {
		return rgba, nil
	}

	rgba := image.NewRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
	return rgba, nil
}

func (d *device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true

	matErr := d.mat.Close()
	if err := d.capture.Close(); err != nil {
		return err
	}
	return matErr
}
