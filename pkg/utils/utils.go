package utils

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"image"
	"image/jpeg"
	"time"

	"github.com/oklog/ulid/v2"
)

const DefaultJPEGQuality = 80

type IUtils interface {
	NewULIDFromTimestamp(t time.Time) (string, error)
	EncodeFrame(frame image.Image) ([]byte, error)
	EncodeBase64(data []byte) string
}

type utils struct {
	jpegQuality int
}

func New() IUtils {
	return NewWithJPEGQuality(DefaultJPEGQuality)
}

func NewWithJPEGQuality(quality int) IUtils {
	if quality < 1 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	return &utils{
		jpegQuality: quality,
	}
}

func (u *utils) NewULIDFromTimestamp(t time.Time) (string, error) {
	ms := ulid.Timestamp(t)
	entropy := ulid.Monotonic(rand.Reader, 0)

	id, err := ulid.New(ms, entropy)
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

// EncodeFrame compresses a frame to JPEG at the configured quality.
func (u *utils) EncodeFrame(frame image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame, &jpeg.Options{Quality: u.jpegQuality}); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (u *utils) EncodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}
