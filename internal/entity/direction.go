package entity

type Direction string

const (
	DirectionUp    Direction = "UP"
	DirectionDown  Direction = "DOWN"
	DirectionLeft  Direction = "LEFT"
	DirectionRight Direction = "RIGHT"
	DirectionNone  Direction = "NONE"
)

func (d Direction) IsNone() bool {
	return d == "" || d == DirectionNone
}

func (d Direction) String() string {
	if d == "" {
		return string(DirectionNone)
	}
	return string(d)
}
