package fare

import (
	"fmt"

	"trainfinder/internal/domain"
)

// StopOrdering supplies the canonical station order a class visits.
type StopOrdering interface {
	ClassStops(class domain.TrainClass) []string
}

// Calculator resolves fares with override-then-tier precedence. It holds no
// mutable state.
type Calculator struct {
	rules    Rules
	ordering StopOrdering
}

func NewCalculator(rules Rules, ordering StopOrdering) *Calculator {
	return &Calculator{rules: rules, ordering: ordering}
}

// Quote is a fare together with how it was derived.
type Quote struct {
	Amount   int    `json:"fare"`
	Override bool   `json:"override"`
	Bucket   Bucket `json:"bucket,omitempty"`
	Hops     int    `json:"hops,omitempty"`
}

func (c *Calculator) Fare(origin, destination string, class domain.TrainClass) (int, error) {
	q, err := c.Quote(origin, destination, class)
	if err != nil {
		return 0, err
	}
	return q.Amount, nil
}

func (c *Calculator) Quote(origin, destination string, class domain.TrainClass) (Quote, error) {
	if origin == "" || destination == "" {
		return Quote{}, fmt.Errorf("%w: origin and destination are required", domain.ErrInvalidQuery)
	}
	if origin == destination {
		return Quote{}, fmt.Errorf("%w: origin equals destination %q", domain.ErrInvalidQuery, origin)
	}

	if amount, ok := c.rules.Override(origin, destination, class); ok {
		return Quote{Amount: amount, Override: true}, nil
	}

	tier, ok := c.rules.Tiers[class]
	if !ok {
		return Quote{}, fmt.Errorf("no fare tier configured for class %s", class)
	}

	stops := c.ordering.ClassStops(class)
	i, j := indexOf(stops, origin), indexOf(stops, destination)
	if i < 0 {
		return Quote{}, fmt.Errorf("%w: %q is not on the %s line", domain.ErrUnknownStation, origin, class)
	}
	if j < 0 {
		return Quote{}, fmt.Errorf("%w: %q is not on the %s line", domain.ErrUnknownStation, destination, class)
	}

	hops := i - j
	if hops < 0 {
		hops = -hops
	}
	bucket := tier.Bucket(hops)

	return Quote{Amount: tier.Fare(bucket), Bucket: bucket, Hops: hops}, nil
}

func indexOf(stops []string, name string) int {
	for i, s := range stops {
		if s == name {
			return i
		}
	}
	return -1
}
