package strategy

import (
	"math/rand"

	"github.com/antarena/antclient/internal/geo"
)

// FallbackPicker supplies a replacement direction when the preferred tile is blocked.
// It is the only source of randomness in the engine.
type FallbackPicker interface {
	PickFallbackDirection() geo.Direction
}

// PickerFunc adapts a plain function to FallbackPicker.
type PickerFunc func() geo.Direction

// PickFallbackDirection calls f.
func (f PickerFunc) PickFallbackDirection() geo.Direction {
	return f()
}

// RandomPicker draws uniformly from codes 1..8. Code 9 (NE) is never drawn;
// code 5 (stay) can be.
type RandomPicker struct {
	rng *rand.Rand
}

// NewRandomPicker wraps rng. Not safe for concurrent use, like rng itself.
func NewRandomPicker(rng *rand.Rand) *RandomPicker {
	return &RandomPicker{rng: rng}
}

// PickFallbackDirection returns a code in 1..8.
func (p *RandomPicker) PickFallbackDirection() geo.Direction {
	return geo.Direction(1 + p.rng.Intn(8))
}
