package usage

import (
	"fmt"
	"time"
)

// YearMonth identifies a calendar month in UTC.
type YearMonth struct {
	Year  int
	Month time.Month
}

// YearMonthOf returns the UTC calendar month containing t.
func YearMonthOf(t time.Time) YearMonth {
	t = t.UTC()
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// Bounds returns the half-open interval [start, end) covering the month.
func (ym YearMonth) Bounds() (start, end time.Time) {
	start = time.Date(ym.Year, ym.Month, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// Contains reports whether t falls inside the month.
func (ym YearMonth) Contains(t time.Time) bool {
	start, end := ym.Bounds()
	t = t.UTC()
	return !t.Before(start) && t.Before(end)
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}
