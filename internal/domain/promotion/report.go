// Package promotion описывает результаты перевода учеников в следующий класс.
package promotion

import (
	"fmt"

	"github.com/schoolhub/school-hub/internal/domain/performance"
)

// Причины пропуска ученика при автоматическом переводе.
const (
	ReasonNoNextClass      = "no next class available"
	ReasonNoResults        = "no result records for year"
	ReasonAlreadyProcessed = "already processed for year"
	ReasonRollNumberTaken  = "roll number already taken in next class"
)

// ReasonBelowThreshold формирует причину пропуска по низкому проценту.
func ReasonBelowThreshold(percentage float64) string {
	return fmt.Sprintf("percentage %.2f below pass threshold %.2f", percentage, performance.PassThreshold)
}

// Promoted - ученик, переведённый в следующий класс.
type Promoted struct {
	StudentID  string  `json:"studentId"`
	Name       string  `json:"name"`
	FromClass  string  `json:"fromClass"`
	ToClass    string  `json:"toClass"`
	Percentage float64 `json:"percentage"`
}

// Skipped - ученик, оставленный в текущем классе.
type Skipped struct {
	StudentID string `json:"studentId"`
	Name      string `json:"name"`
	FromClass string `json:"fromClass"`
	Reason    string `json:"reason"`
}

// Report - итог автоматического перевода за год.
type Report struct {
	Year          int        `json:"year"`
	PromotedCount int        `json:"promotedCount"`
	Promoted      []Promoted `json:"promoted"`
	SkippedCount  int        `json:"skippedCount"`
	Skipped       []Skipped  `json:"skipped"`
}

// NewReport создаёт пустой отчёт за год.
func NewReport(year int) *Report {
	return &Report{
		Year:     year,
		Promoted: make([]Promoted, 0),
		Skipped:  make([]Skipped, 0),
	}
}

// AddPromoted добавляет переведённого ученика.
func (r *Report) AddPromoted(p Promoted) {
	r.Promoted = append(r.Promoted, p)
	r.PromotedCount = len(r.Promoted)
}

// AddSkipped добавляет пропущенного ученика.
func (r *Report) AddSkipped(s Skipped) {
	r.Skipped = append(r.Skipped, s)
	r.SkippedCount = len(r.Skipped)
}

// Manual - итог ручного перевода.
type Manual struct {
	StudentID string `json:"studentId"`
	Name      string `json:"name"`
	FromClass string `json:"fromClass"`
	ToClass   string `json:"toClass"`
	Year      int    `json:"year"`
}
