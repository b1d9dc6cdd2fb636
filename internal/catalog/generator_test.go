package catalog

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPrices() map[Category]uint32 {
	return map[Category]uint32{
		VVIP:     50000,
		VIP:      35000,
		Royal:    30000,
		Diamond:  25000,
		Platinum: 20000,
		Gold:     15000,
		Silver:   10000,
		Bronze:   5000,
	}
}

func TestLayoutBandsCoverAllRows(t *testing.T) {
	for _, sec := range Layout() {
		rows := 0
		for _, b := range sec.Bands {
			rows += b.Rows
		}
		assert.Equal(t, sec.Rows, rows, "section %s bands do not cover its rows", sec.Name)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	a := Generate(7, testPrices())
	b := Generate(7, testPrices())
	require.Equal(t, a, b, "same inputs must produce identical catalogs")
	assert.Len(t, a, TotalSeats())
}

func TestGenerateUniqueTuples(t *testing.T) {
	seats := Generate(1, testPrices())
	seen := make(map[string]struct{}, len(seats))
	for _, s := range seats {
		key := fmt.Sprintf("%s/%s/%d", s.Section, s.RowLabel, s.SeatNumber)
		_, dup := seen[key]
		require.False(t, dup, "duplicate seat tuple %s", key)
		seen[key] = struct{}{}
	}
}

func TestGenerateBandPricing(t *testing.T) {
	prices := testPrices()
	seats := Generate(1, prices)
	for _, s := range seats {
		cat, err := Parse(s.Category)
		require.NoError(t, err, "generator emitted unknown category %q", s.Category)
		assert.Equal(t, prices[cat], s.PriceCents, "seat %s/%s/%d priced off its tier", s.Section, s.RowLabel, s.SeatNumber)
	}
}

func TestGenerateMissingCategoryPricesZero(t *testing.T) {
	// Only VVIP priced; every other tier must come out at 0, not a guess.
	seats := Generate(1, map[Category]uint32{VVIP: 50000})
	for _, s := range seats {
		if s.Category == string(VVIP) {
			assert.Equal(t, uint32(50000), s.PriceCents)
		} else {
			assert.Zero(t, s.PriceCents, "unpriced tier %s got a nonzero price", s.Category)
		}
	}
}

func TestGenerateNoneBooked(t *testing.T) {
	for _, s := range Generate(1, testPrices()) {
		require.False(t, s.IsBooked, "generator must never book seats on its own")
	}
}

func TestSeedBookedFraction(t *testing.T) {
	seats := Generate(1, testPrices())
	SeedBooked(seats, 0.8, 42)

	byCategory := make(map[string][]bool)
	for _, s := range seats {
		byCategory[s.Category] = append(byCategory[s.Category], s.IsBooked)
	}
	for cat, flags := range byCategory {
		booked := 0
		for _, b := range flags {
			if b {
				booked++
			}
		}
		want := int(float64(len(flags)) * 0.8)
		assert.Equal(t, want, booked, "tier %s booked count off", cat)
	}
}

func TestSeedBookedDeterministic(t *testing.T) {
	a := Generate(1, testPrices())
	b := Generate(1, testPrices())
	SeedBooked(a, 0.5, 99)
	SeedBooked(b, 0.5, 99)
	require.Equal(t, a, b, "same seed must book the same seats")

	c := Generate(1, testPrices())
	SeedBooked(c, 0.5, 100)
	assert.NotEqual(t, a, c, "a different seed should pick a different set")
}

func TestSeedBookedZeroFractionIsNoop(t *testing.T) {
	seats := Generate(1, testPrices())
	SeedBooked(seats, 0, 42)
	for _, s := range seats {
		require.False(t, s.IsBooked)
	}
}

func TestRowLabel(t *testing.T) {
	cases := map[int]string{
		0:  "A",
		1:  "B",
		25: "Z",
		26: "AA",
		27: "AB",
		51: "AZ",
		52: "BA",
	}
	for idx, want := range cases {
		assert.Equal(t, want, rowLabel(idx), "index %d", idx)
	}
	assert.Equal(t, "", rowLabel(-1))
}
