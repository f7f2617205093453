package calendar

import (
	"sort"
	"time"

	"eventcal/internal/model"
)

// Grid dimensions. Six rows are always allocated so the image size never
// depends on the month.
const (
	Rows = 6
	Cols = 7
)

// CellKind classifies a grid cell.
type CellKind int

const (
	// CellEmpty lies outside the month.
	CellEmpty CellKind = iota
	// CellNormal is a day with no logged events.
	CellNormal
	// CellEvent is a day with at least one logged event.
	CellEvent
)

// Cell is one square of the month grid. Day is zero for empty cells.
type Cell struct {
	Day  int
	Kind CellKind
}

// Grid is the Sunday-first 6x7 layout of one month.
type Grid struct {
	Year  int
	Month time.Month
	Cells [Rows][Cols]Cell
}

// EventDays returns the distinct days of (year, month) on which at least one
// event happened, judged in loc.
func EventDays(events []model.Event, year int, month time.Month, loc *time.Location) map[int]bool {
	if loc == nil {
		loc = time.UTC
	}
	days := make(map[int]bool)
	for _, ev := range events {
		t := ev.Timestamp.In(loc)
		if t.Year() == year && t.Month() == month {
			days[t.Day()] = true
		}
	}
	return days
}

// Layout places days 1..DaysIn(year, month) into the grid, starting in the
// column of the month's first weekday. Days present in marked become
// CellEvent.
func Layout(year int, month time.Month, marked map[int]bool) Grid {
	g := Grid{Year: year, Month: month}

	first := int(FirstWeekday(year, month))
	n := DaysIn(year, month)

	for day := 1; day <= n; day++ {
		idx := first + day - 1
		kind := CellNormal
		if marked[day] {
			kind = CellEvent
		}
		g.Cells[idx/Cols][idx%Cols] = Cell{Day: day, Kind: kind}
	}
	return g
}

// Filled returns the number of cells holding a day.
func (g Grid) Filled() int {
	n := 0
	for _, row := range g.Cells {
		for _, c := range row {
			if c.Kind != CellEmpty {
				n++
			}
		}
	}
	return n
}

// Highlighted returns the days drawn as event days, ascending.
func (g Grid) Highlighted() []int {
	var days []int
	for _, row := range g.Cells {
		for _, c := range row {
			if c.Kind == CellEvent {
				days = append(days, c.Day)
			}
		}
	}
	sort.Ints(days)
	return days
}

// Position returns the row and column of day, or ok == false when the day is
// not part of the month.
func (g Grid) Position(day int) (row, col int, ok bool) {
	for r, cells := range g.Cells {
		for c, cell := range cells {
			if cell.Kind != CellEmpty && cell.Day == day {
				return r, c, true
			}
		}
	}
	return 0, 0, false
}
