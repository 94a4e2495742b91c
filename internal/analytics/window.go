package analytics

import (
	"fmt"
	"time"
)

// ValidationError reports malformed calendar input rejected before any
// computation happens.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// referenceYear is a fixed non-leap year used to map (month, day) pairs to
// day-of-year slots. All window arithmetic runs on this 365-day calendar;
// Feb-29 is handled by an explicit membership rule instead.
const referenceYear = 2023

const daysPerYear = 365

// Window is a +-radius day-of-year band around one canonical calendar day,
// wrapping across the year boundary. It is computed on demand and never
// persisted.
type Window struct {
	Month  int
	Day    int
	Radius int

	target int
	member map[int]bool
}

// NewWindow builds the window for (month, day) with the given radius. The
// pair must form a valid calendar date (Feb-29 allowed) and the radius must
// be non-negative, otherwise a *ValidationError is returned.
func NewWindow(month, day, radius int) (*Window, error) {
	if radius < 0 {
		return nil, &ValidationError{Msg: fmt.Sprintf("window radius %d is negative", radius)}
	}
	if err := validateMonthDay(month, day); err != nil {
		return nil, err
	}

	// Feb-29 itself anchors to the Feb-28 slot on the reference calendar.
	refDay := day
	if month == 2 && day == 29 {
		refDay = 28
	}
	target := time.Date(referenceYear, time.Month(month), refDay, 0, 0, 0, 0, time.UTC).YearDay()

	member := make(map[int]bool, 2*radius+1)
	for offset := -radius; offset <= radius; offset++ {
		doy := target + offset
		if doy < 1 {
			doy += daysPerYear
		} else if doy > daysPerYear {
			doy -= daysPerYear
		}
		member[doy] = true
	}

	return &Window{Month: month, Day: day, Radius: radius, target: target, member: member}, nil
}

func validateMonthDay(month, day int) error {
	if month < 1 || month > 12 {
		return &ValidationError{Msg: fmt.Sprintf("month %d out of range", month)}
	}
	if day < 1 || day > lastDayOfMonth(month) {
		return &ValidationError{Msg: fmt.Sprintf("day %d invalid for month %d", day, month)}
	}
	return nil
}

func lastDayOfMonth(month int) int {
	switch month {
	case 1, 3, 5, 7, 8, 10, 12:
		return 31
	case 4, 6, 9, 11:
		return 30
	default:
		return 29 // Feb-29 is a real calendar day on leap years
	}
}

// Days returns the member day-of-year slots in ascending order, exactly
// 2*radius+1 of them.
func (w *Window) Days() []int {
	days := make([]int, 0, len(w.member))
	for doy := 1; doy <= daysPerYear; doy++ {
		if w.member[doy] {
			days = append(days, doy)
		}
	}
	return days
}

// Contains reports whether a calendar day falls inside the window. Every
// date maps to its reference-year slot regardless of the observation's own
// year. Feb-29 is a member whenever the window touches the Feb-28/Mar-1
// boundary, so leap years contribute one extra sample to such windows.
func (w *Window) Contains(month, day int) bool {
	if month == 2 && day == 29 {
		feb28 := time.Date(referenceYear, 2, 28, 0, 0, 0, 0, time.UTC).YearDay()
		return w.member[feb28] || w.member[feb28+1]
	}
	doy := time.Date(referenceYear, time.Month(month), day, 0, 0, 0, 0, time.UTC).YearDay()
	return w.member[doy]
}

// ContainsDate is Contains applied to a concrete date.
func (w *Window) ContainsDate(t time.Time) bool {
	return w.Contains(int(t.Month()), t.Day())
}
