package fare

import (
	"fmt"

	"trainfinder/internal/domain"
)

// Bucket is a distance classification derived from hop count
type Bucket string

const (
	BucketShort  Bucket = "short"
	BucketMedium Bucket = "medium"
	BucketLong   Bucket = "long"
)

// Tier holds one class's hop thresholds and base fares. A hop count up to
// ShortMaxHops is short, up to MediumMaxHops is medium, anything above is long.
type Tier struct {
	ShortMaxHops  int
	MediumMaxHops int
	Short         int
	Medium        int
	Long          int
}

func (t Tier) Bucket(hops int) Bucket {
	switch {
	case hops <= t.ShortMaxHops:
		return BucketShort
	case hops <= t.MediumMaxHops:
		return BucketMedium
	default:
		return BucketLong
	}
}

func (t Tier) Fare(b Bucket) int {
	switch b {
	case BucketShort:
		return t.Short
	case BucketMedium:
		return t.Medium
	default:
		return t.Long
	}
}

func (t Tier) validate() error {
	if t.ShortMaxHops < 1 || t.MediumMaxHops <= t.ShortMaxHops {
		return fmt.Errorf("thresholds must satisfy 1 <= short (%d) < medium (%d)", t.ShortMaxHops, t.MediumMaxHops)
	}
	if t.Short < 0 || t.Medium < t.Short || t.Long < t.Medium {
		return fmt.Errorf("fares must satisfy 0 <= short (%d) <= medium (%d) <= long (%d)", t.Short, t.Medium, t.Long)
	}
	return nil
}

// Pair is an ordered station pair. The override matrix is looked up under
// both orderings, so either may be stored.
type Pair struct {
	A string
	B string
}

// Rules is the two-layer fare configuration.
type Rules struct {
	Overrides map[Pair]map[domain.TrainClass]int
	Tiers     map[domain.TrainClass]Tier
}

func NewRules() Rules {
	return Rules{
		Overrides: make(map[Pair]map[domain.TrainClass]int),
		Tiers:     make(map[domain.TrainClass]Tier),
	}
}

// SetOverride records a fixed fare for a station pair and class.
func (r Rules) SetOverride(a, b string, class domain.TrainClass, amount int) {
	key := Pair{A: a, B: b}
	if r.Overrides[key] == nil {
		r.Overrides[key] = make(map[domain.TrainClass]int)
	}
	r.Overrides[key][class] = amount
}

// Override returns the override for (origin, destination, class), checking
// origin-destination first and destination-origin second.
func (r Rules) Override(origin, destination string, class domain.TrainClass) (int, bool) {
	if fares, ok := r.Overrides[Pair{A: origin, B: destination}]; ok {
		if amount, ok := fares[class]; ok {
			return amount, true
		}
	}
	if fares, ok := r.Overrides[Pair{A: destination, B: origin}]; ok {
		if amount, ok := fares[class]; ok {
			return amount, true
		}
	}
	return 0, false
}

// Validate requires a well-formed tier for every class and non-negative
// override amounts.
func (r Rules) Validate() error {
	for _, class := range domain.AllClasses {
		tier, ok := r.Tiers[class]
		if !ok {
			return fmt.Errorf("no fare tier for class %s", class)
		}
		if err := tier.validate(); err != nil {
			return fmt.Errorf("fare tier %s: %w", class, err)
		}
	}
	for pair, fares := range r.Overrides {
		for class, amount := range fares {
			if amount < 0 {
				return fmt.Errorf("override %s-%s %s: negative fare %d", pair.A, pair.B, class, amount)
			}
		}
	}
	return nil
}
