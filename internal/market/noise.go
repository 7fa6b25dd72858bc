package market

import "math/rand"

// Noise supplies the demand-volatility draw shared by every competitor in a
// market for one round. Injected so round processing is reproducible under a
// fixed seed.
type Noise interface {
	// Draw returns a uniform value in [0, 1).
	Draw() float64
}

// SeededNoise is a deterministic Noise over math/rand.
type SeededNoise struct {
	rng *rand.Rand
}

// NewSeededNoise creates a noise source from a seed.
func NewSeededNoise(seed int64) *SeededNoise {
	return &SeededNoise{rng: rand.New(rand.NewSource(seed))}
}

func (n *SeededNoise) Draw() float64 {
	return n.rng.Float64()
}

// FixedNoise always returns the same draw. Test helper.
type FixedNoise float64

func (n FixedNoise) Draw() float64 { return float64(n) }
