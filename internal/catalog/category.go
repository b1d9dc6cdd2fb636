// Package catalog owns the static venue layout and the deterministic seat
// catalog generator.  The layout is venue data, not an algorithm: each
// section is pre-assigned price tiers by contiguous row bands.
package catalog

import (
	"fmt"
	"strings"
)

// Category is one of the eight closed price tiers.  Free-form category
// strings are rejected at the boundary via Parse; nothing downstream ever
// sees an unknown tier.
type Category string

const (
	VVIP     Category = "VVIP"
	VIP      Category = "VIP"
	Royal    Category = "ROYAL"
	Diamond  Category = "DIAMOND"
	Platinum Category = "PLATINUM"
	Gold     Category = "GOLD"
	Silver   Category = "SILVER"
	Bronze   Category = "BRONZE"
)

// CategoryInfo carries display metadata for a tier.  Rank orders tiers from
// best (1) to cheapest (8) for stable presentation.
type CategoryInfo struct {
	Label string `json:"label"`
	Rank  int    `json:"rank"`
}

// categories maps every known tier to its display metadata.  The map is the
// single source of truth for what counts as a valid category.
var categories = map[Category]CategoryInfo{
	VVIP:     {Label: "VVIP", Rank: 1},
	VIP:      {Label: "VIP", Rank: 2},
	Royal:    {Label: "Royal", Rank: 3},
	Diamond:  {Label: "Diamond", Rank: 4},
	Platinum: {Label: "Platinum", Rank: 5},
	Gold:     {Label: "Gold", Rank: 6},
	Silver:   {Label: "Silver", Rank: 7},
	Bronze:   {Label: "Bronze", Rank: 8},
}

// All returns every tier in rank order, best first.
func All() []Category {
	return []Category{VVIP, VIP, Royal, Diamond, Platinum, Gold, Silver, Bronze}
}

// Info returns display metadata for a tier.  The zero CategoryInfo is
// returned for unknown tiers; callers that care should Parse first.
func Info(c Category) CategoryInfo {
	return categories[c]
}

// Parse normalizes a raw category string and rejects anything outside the
// closed set of eight tiers.
func Parse(raw string) (Category, error) {
	c := Category(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := categories[c]; !ok {
		return "", fmt.Errorf("unknown seat category %q", raw)
	}
	return c, nil
}
