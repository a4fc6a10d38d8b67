// Package performance считает итоговую успеваемость ученика за учебный год.
package performance

import (
	"github.com/schoolhub/school-hub/internal/domain/result"
	"github.com/schoolhub/school-hub/internal/domain/shared"
)

// PassThreshold - минимальный процент для автоматического перевода.
const PassThreshold = 40.0

// Performance - сводка по оценкам ученика.
type Performance struct {
	HasResults bool    `json:"hasResults"`
	Obtained   float64 `json:"obtained"`
	Total      float64 `json:"total"`
	Percentage float64 `json:"percentage"`
	Passed     bool    `json:"passed"`
}

// Summarize суммирует оценки и определяет, сдан ли год.
// Граница включительная: 40.00% - сдал, 39.99% - нет.
func Summarize(results []*result.Result) Performance {
	var p Performance
	for _, r := range results {
		p.HasResults = true
		p.Obtained += r.Marks
		p.Total += r.TotalMarks
	}
	p.Percentage = shared.Percentage(p.Obtained, p.Total)
	p.Passed = p.HasResults && p.Percentage >= PassThreshold
	return p
}
