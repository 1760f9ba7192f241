package stream

import (
	"NosePointer/internal/entity"
	"NosePointer/pkg/broadcast"
)

type FrameMessage struct {
	Image string `json:"image"`
}

type DirectionMessage struct {
	Direction entity.Direction `json:"direction"`
}

type PipelineStats struct {
	Runs                uint64           `json:"runs"`
	Iterations          uint64           `json:"iterations"`
	FramesPublished     uint64           `json:"frames_published"`
	DirectionsPublished uint64           `json:"directions_published"`
	EncodeFailures      uint64           `json:"encode_failures"`
	DetectFailures      uint64           `json:"detect_failures"`
	CurrentDirection    entity.Direction `json:"current_direction"`
}

type MirrorStats struct {
	Dropped uint64 `json:"dropped"`
}

type StatusResponse struct {
	State       entity.RunState    `json:"state"`
	Subscribers int                `json:"subscribers"`
	Pipeline    PipelineStats      `json:"pipeline"`
	Broadcast   broadcast.HubStats `json:"broadcast"`
	Mirror      *MirrorStats       `json:"mirror,omitempty"`
}
