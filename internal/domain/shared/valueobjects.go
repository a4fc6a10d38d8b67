package shared

import (
	"math"
	"strconv"
	"strings"
)

// ═══════════════════════════════════════════════════════════════════════════
// Academic Year
// ═══════════════════════════════════════════════════════════════════════════

// Bounds of an accepted academic year.
const (
	MinAcademicYear = 2000
	MaxAcademicYear = 3000
)

// FilterAll is the wire value meaning "no filter".
const FilterAll = "all"

// AcademicYear is the integer year used to scope results and promotions.
type AcademicYear int

// IsValid checks the year lies in [MinAcademicYear, MaxAcademicYear].
func (y AcademicYear) IsValid() bool {
	return y >= MinAcademicYear && y <= MaxAcademicYear
}

// Int returns the underlying int value.
func (y AcademicYear) Int() int {
	return int(y)
}

// String returns the decimal representation.
func (y AcademicYear) String() string {
	return strconv.Itoa(int(y))
}

// ParseYearFilter parses an optional academic-year filter.
// "" and "all" yield (0, false, nil); any other value must be a valid year.
func ParseYearFilter(raw string) (AcademicYear, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, FilterAll) {
		return 0, false, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, ErrInvalidYear
	}

	year := AcademicYear(n)
	if !year.IsValid() {
		return 0, false, ErrInvalidYear
	}
	return year, true, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Percentage
// ═══════════════════════════════════════════════════════════════════════════

// Percentage returns obtained/total as a percentage rounded to 2 decimals.
// A zero or negative total yields 0.
func Percentage(obtained, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return Round2(obtained / total * 100)
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
