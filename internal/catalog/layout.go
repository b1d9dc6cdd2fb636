package catalog

// RowBand assigns a contiguous run of rows within a section to one tier.
// Bands are listed front-to-back, so the better tier always comes first.
type RowBand struct {
	Category Category
	Rows     int
}

// Section describes one named block of the stadium: a fixed grid of rows
// and seats per row, divided into tier bands.  The sum of band rows must
// equal Rows; Layout() is validated by the generator tests.
type Section struct {
	Name        string
	Rows        int
	SeatsPerRow int
	Bands       []RowBand
}

// Layout returns the stadium layout.  This is fixed venue data: five
// sections fanning out from the stage, with the eight tiers assigned in
// descending order of proximity.
func Layout() []Section {
	return []Section{
		{Name: "A", Rows: 20, SeatsPerRow: 30, Bands: []RowBand{
			{VVIP, 20},
		}},
		{Name: "B", Rows: 25, SeatsPerRow: 35, Bands: []RowBand{
			{VIP, 10},
			{Royal, 15},
		}},
		{Name: "C", Rows: 30, SeatsPerRow: 40, Bands: []RowBand{
			{Diamond, 10},
			{Platinum, 10},
			{Gold, 10},
		}},
		{Name: "D", Rows: 25, SeatsPerRow: 35, Bands: []RowBand{
			{Gold, 10},
			{Silver, 15},
		}},
		{Name: "E", Rows: 20, SeatsPerRow: 30, Bands: []RowBand{
			{Bronze, 20},
		}},
	}
}

// TotalSeats returns the number of seats the layout produces per event.
func TotalSeats() int {
	n := 0
	for _, s := range Layout() {
		n += s.Rows * s.SeatsPerRow
	}
	return n
}

// rowLabel converts a zero-based row index to an alphabetical label like
// A, B, ..., Z, AA, AB.
func rowLabel(i int) string {
	if i < 0 {
		return ""
	}
	var res []rune
	for {
		rem := i % 26
		res = append(res, rune('A'+rem))
		i = i/26 - 1
		if i < 0 {
			break
		}
	}
	for j, k := 0, len(res)-1; j < k; j, k = j+1, k-1 {
		res[j], res[k] = res[k], res[j]
	}
	return string(res)
}
