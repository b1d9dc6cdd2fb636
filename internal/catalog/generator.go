package catalog

import (
	"math/rand"
	"sort"

	"github.com/adhamaliv/event-seat-booking/internal/repository"
)

// Generate produces the full seat inventory for one event from the stadium
// layout and a tier price map.  It is a pure function: same inputs, same
// seats, in the same order.  Tiers missing from the price map get price 0;
// there is no fallback price.
//
// Persistence and idempotence are the caller's concern: the admin populate
// handler checks the current seat count before inserting.
func Generate(eventID uint64, prices map[Category]uint32) []repository.Seat {
	layout := Layout()
	total := 0
	for _, s := range layout {
		total += s.Rows * s.SeatsPerRow
	}
	seats := make([]repository.Seat, 0, total)
	for sIdx, section := range layout {
		rowIdx := 0
		for _, band := range section.Bands {
			for r := 0; r < band.Rows; r++ {
				label := rowLabel(rowIdx)
				for n := 0; n < section.SeatsPerRow; n++ {
					seats = append(seats, repository.Seat{
						EventID:    eventID,
						Section:    section.Name,
						RowLabel:   label,
						SeatNumber: uint32(n + 1),
						Category:   string(band.Category),
						PriceCents: prices[band.Category],
						PosX:       uint32(sIdx*section.SeatsPerRow + n),
						PosY:       uint32(sIdx*section.Rows + rowIdx),
					})
				}
				rowIdx++
			}
		}
	}
	return seats
}

// SeedBooked marks a fraction of each tier's seats as booked to simulate
// demand.  The selection is fully determined by the seed: seats are ordered
// by (section, row, number) per tier and a seeded shuffle picks
// floor(count*fraction) of them.  Callers must opt in explicitly; nothing
// in the catalog path seeds bookings on its own.
func SeedBooked(seats []repository.Seat, fraction float64, seed int64) {
	if fraction <= 0 {
		return
	}
	if fraction > 1 {
		fraction = 1
	}
	byCategory := make(map[string][]int)
	for i := range seats {
		byCategory[seats[i].Category] = append(byCategory[seats[i].Category], i)
	}
	rng := rand.New(rand.NewSource(seed))
	// Iterate tiers in rank order so the rng stream is stable across runs.
	for _, cat := range All() {
		idx := byCategory[string(cat)]
		if len(idx) == 0 {
			continue
		}
		sort.Slice(idx, func(a, b int) bool {
			sa, sb := seats[idx[a]], seats[idx[b]]
			if sa.Section != sb.Section {
				return sa.Section < sb.Section
			}
			if sa.RowLabel != sb.RowLabel {
				return sa.RowLabel < sb.RowLabel
			}
			return sa.SeatNumber < sb.SeatNumber
		})
		rng.Shuffle(len(idx), func(a, b int) { idx[a], idx[b] = idx[b], idx[a] })
		take := int(float64(len(idx)) * fraction)
		for _, i := range idx[:take] {
			seats[i].IsBooked = true
		}
	}
}
