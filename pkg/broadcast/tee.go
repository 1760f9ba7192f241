package broadcast

import "NosePointer/internal/entity"

type tee []Publisher

// Tee returns a Publisher that hands every event to each publisher in order.
// Nil publishers are skipped.
func Tee(publishers ...Publisher) Publisher {
	var out tee
	for _, p := range publishers {
		if p != nil {
			out = append(out, p)
		}
	}

	if len(out) == 1 {
		return out[0]
	}
	return out
}

func (t tee) Publish(kind entity.EventKind, payload interface{}) {
	for _, p := range t {
		p.Publish(kind, payload)
	}
}
