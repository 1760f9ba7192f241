package entity

type RunState string

const (
	RunStateIdle     RunState = "idle"
	RunStateRunning  RunState = "running"
	RunStateStopping RunState = "stopping"
)

type EventKind string

const (
	EventFrame     EventKind = "frame"
	EventDirection EventKind = "direction"
)
