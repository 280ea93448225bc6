package fare

import (
	"errors"
	"testing"

	"trainfinder/internal/domain"
)

type lineOrdering map[domain.TrainClass][]string

func (l lineOrdering) ClassStops(class domain.TrainClass) []string {
	return l[class]
}

func testCalculator() *Calculator {
	rules := NewRules()
	rules.Tiers[domain.ClassIntercity] = Tier{ShortMaxHops: 1, MediumMaxHops: 2, Short: 100, Medium: 180, Long: 260}
	rules.Tiers[domain.ClassExpress] = Tier{ShortMaxHops: 2, MediumMaxHops: 4, Short: 60, Medium: 110, Long: 170}
	rules.Tiers[domain.ClassSlow] = Tier{ShortMaxHops: 3, MediumMaxHops: 7, Short: 40, Medium: 70, Long: 100}
	rules.SetOverride("Ragama", "Pettah", domain.ClassExpress, 120)
	rules.SetOverride("Maradana", "Pettah", domain.ClassSlow, 20)

	line := []string{"Ragama", "Hunupitiya", "Kadawatha", "Kelaniya", "Kiribathgoda", "Dematagoda",
		"Maradana", "Pettah", "Kollupitiya", "Bambalapitiya", "Wellawatte", "Kirulapona"}

	return NewCalculator(rules, lineOrdering{
		domain.ClassIntercity: {"Ragama", "Maradana", "Pettah", "Kirulapona"},
		domain.ClassExpress:   {"Ragama", "Kadawatha", "Kiribathgoda", "Maradana", "Pettah", "Bambalapitiya", "Kirulapona"},
		domain.ClassSlow:      line,
	})
}

func TestFare(t *testing.T) {
	c := testCalculator()

	tests := []struct {
		name        string
		origin      string
		destination string
		class       domain.TrainClass
		want        int
	}{
		{"override", "Ragama", "Pettah", domain.ClassExpress, 120},
		{"override reversed", "Pettah", "Ragama", domain.ClassExpress, 120},
		{"override other class falls to tier", "Ragama", "Pettah", domain.ClassSlow, 70},
		{"express long", "Ragama", "Kirulapona", domain.ClassExpress, 170},
		{"express short", "Kadawatha", "Maradana", domain.ClassExpress, 60},
		{"express medium", "Kadawatha", "Pettah", domain.ClassExpress, 110},
		{"intercity short", "Maradana", "Pettah", domain.ClassIntercity, 100},
		{"intercity long", "Kirulapona", "Ragama", domain.ClassIntercity, 260},
		{"slow override", "Pettah", "Maradana", domain.ClassSlow, 20},
		{"slow short", "Kelaniya", "Maradana", domain.ClassSlow, 40},
		{"slow long", "Ragama", "Kirulapona", domain.ClassSlow, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Fare(tt.origin, tt.destination, tt.class)
			if err != nil {
				t.Fatalf("Fare: %v", err)
			}
			if got != tt.want {
				t.Errorf("Fare(%s, %s, %s) = %d, want %d", tt.origin, tt.destination, tt.class, got, tt.want)
			}
		})
	}
}

func TestFareIsSymmetric(t *testing.T) {
	c := testCalculator()
	stops := c.ordering.ClassStops(domain.ClassExpress)
	for _, a := range stops {
		for _, b := range stops {
			if a == b {
				continue
			}
			ab, err := c.Fare(a, b, domain.ClassExpress)
			if err != nil {
				t.Fatal(err)
			}
			ba, err := c.Fare(b, a, domain.ClassExpress)
			if err != nil {
				t.Fatal(err)
			}
			if ab != ba {
				t.Errorf("%s<->%s: %d != %d", a, b, ab, ba)
			}
		}
	}
}

func TestTierFaresNeverDecreaseWithDistance(t *testing.T) {
	c := testCalculator()
	for _, class := range domain.AllClasses {
		tier := c.rules.Tiers[class]
		prev := -1
		for hops := 1; hops <= 12; hops++ {
			f := tier.Fare(tier.Bucket(hops))
			if f < prev {
				t.Errorf("%s: fare dropped from %d to %d at %d hops", class, prev, f, hops)
			}
			prev = f
		}
	}
}

func TestQuote(t *testing.T) {
	c := testCalculator()

	q, err := c.Quote("Ragama", "Kirulapona", domain.ClassExpress)
	if err != nil {
		t.Fatal(err)
	}
	if q.Override || q.Hops != 6 || q.Bucket != BucketLong || q.Amount != 170 {
		t.Errorf("quote = %+v", q)
	}

	q, err = c.Quote("Ragama", "Pettah", domain.ClassExpress)
	if err != nil {
		t.Fatal(err)
	}
	if !q.Override || q.Amount != 120 {
		t.Errorf("override quote = %+v", q)
	}
}

func TestFareErrors(t *testing.T) {
	c := testCalculator()

	if _, err := c.Fare("Kelaniya", "Pettah", domain.ClassExpress); !errors.Is(err, domain.ErrUnknownStation) {
		t.Errorf("station off the express line: err = %v", err)
	}
	if _, err := c.Fare("Ragama", "Atlantis", domain.ClassSlow); !errors.Is(err, domain.ErrUnknownStation) {
		t.Errorf("unknown station: err = %v", err)
	}
	if _, err := c.Fare("Pettah", "Pettah", domain.ClassSlow); !errors.Is(err, domain.ErrInvalidQuery) {
		t.Errorf("same station: err = %v", err)
	}
	if _, err := c.Fare("", "Pettah", domain.ClassSlow); !errors.Is(err, domain.ErrInvalidQuery) {
		t.Errorf("empty origin: err = %v", err)
	}
}

func TestRulesValidate(t *testing.T) {
	r := NewRules()
	r.Tiers[domain.ClassSlow] = Tier{ShortMaxHops: 1, MediumMaxHops: 2, Short: 1, Medium: 2, Long: 3}
	if err := r.Validate(); err == nil {
		t.Error("missing tiers should fail validation")
	}

	c := testCalculator()
	if err := c.rules.Validate(); err != nil {
		t.Errorf("valid rules: %v", err)
	}
	c.rules.SetOverride("A", "B", domain.ClassSlow, -5)
	if err := c.rules.Validate(); err == nil {
		t.Error("negative override should fail validation")
	}
}
