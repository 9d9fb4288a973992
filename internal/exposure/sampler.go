package exposure

import (
	"math"
	"math/rand"
)

// Sampler supplies levels and confidences for scans submitted without them.
type Sampler interface {
	Level() float64
	Confidence() int
}

type levelBucket struct {
	min, max float64
	weight   float64
}

// levelBuckets is the generation policy: 40% low, 40% medium, 20% high.
var levelBuckets = []levelBucket{
	{min: 0, max: 10, weight: 0.4},
	{min: 10, max: 30, weight: 0.4},
	{min: 30, max: 100, weight: 0.2},
}

// WeightedSampler draws a bucket by cumulative weight, then a uniform level
// inside it rounded to one decimal. Confidence is uniform in [85,100).
// It is not safe for concurrent use.
type WeightedSampler struct {
	rng *rand.Rand
}

// NewWeightedSampler uses src for all draws. Pass a fixed-seed source for
// reproducible output.
func NewWeightedSampler(src rand.Source) *WeightedSampler {
	return &WeightedSampler{rng: rand.New(src)}
}

func (s *WeightedSampler) Level() float64 {
	r := s.rng.Float64()
	cumulative := 0.0

	bucket := levelBuckets[len(levelBuckets)-1]
	for _, b := range levelBuckets {
		cumulative += b.weight
		if r <= cumulative {
			bucket = b
			break
		}
	}

	level := s.rng.Float64()*(bucket.max-bucket.min) + bucket.min
	return math.Round(level*10) / 10
}

func (s *WeightedSampler) Confidence() int {
	return 85 + s.rng.Intn(15)
}
