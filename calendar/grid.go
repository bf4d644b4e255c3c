package calendar

import "time"

// =============================================================================
// DAY GRID - 6x7 month display grid, Sunday-first columns
// =============================================================================

// GridSize is the fixed number of cells in a month grid: 6 rows of 7 days.
const GridSize = 42

// DayCell is one cell of the display grid. Cells from the adjacent months
// carry InMonth == false.
type DayCell struct {
	Date    DateKey `json:"date"`
	Day     int     `json:"day"`
	InMonth bool    `json:"inMonth"`
}

// Grid returns the 42 cells covering the given month: leading days from the
// previous month so that day 1 lands in its weekday column (Sunday-first),
// the month itself, then trailing days from the next month up to exactly
// GridSize cells.
func Grid(year int, month time.Month) []DayCell {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	leading := int(first.Weekday()) // Sunday = 0

	cells := make([]DayCell, 0, GridSize)
	cursor := first.AddDate(0, 0, -leading)
	for len(cells) < GridSize {
		cells = append(cells, DayCell{
			Date:    DateKeyOf(cursor),
			Day:     cursor.Day(),
			InMonth: cursor.Month() == month && cursor.Year() == year,
		})
		cursor = cursor.AddDate(0, 0, 1)
	}
	return cells
}
