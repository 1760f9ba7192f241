package stream

import (
	"NosePointer/pkg/response"
	"net/http"
)

var (
	ErrStreamUnavailable = response.NewError(http.StatusServiceUnavailable, "stream unavailable")
	ErrUpgradeRequired   = response.NewError(http.StatusUpgradeRequired, "websocket upgrade required")
)
