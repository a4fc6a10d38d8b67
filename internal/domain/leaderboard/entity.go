// Package leaderboard содержит доменную модель рейтинга класса.
// Рейтинг строится заново на каждый запрос, кеша и снапшотов нет.
package leaderboard

import (
	"fmt"
	"sort"

	"github.com/schoolhub/school-hub/internal/domain/shared"
)

// TopSize - размер блока лидеров.
const TopSize = 3

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Rank представляет позицию ученика в рейтинге.
// Rank начинается с 1 (первое место).
type Rank int

// IsValid проверяет, что ранг положительный.
func (r Rank) IsValid() bool {
	return r > 0
}

// String возвращает строковое представление ранга.
func (r Rank) String() string {
	return fmt.Sprintf("#%d", r)
}

// ══════════════════════════════════════════════════════════════════════════════
// ENTRY
// ══════════════════════════════════════════════════════════════════════════════

// Row - строка рейтинга.
type Row struct {
	StudentID  string  `json:"studentId"`
	Name       string  `json:"name"`
	RollNo     string  `json:"rollNo"`
	Obtained   float64 `json:"obtained"`
	Total      float64 `json:"total"`
	Percentage float64 `json:"percentage"`
	Rank       Rank    `json:"rank"`

	// order - позиция ученика в реестре, последний критерий сортировки.
	order int
}

// NewRow создаёт строку рейтинга. order - позиция ученика в реестре.
func NewRow(studentID, name, rollNo string, order int) *Row {
	return &Row{StudentID: studentID, Name: name, RollNo: rollNo, order: order}
}

// Add добавляет оценку к сумме ученика.
func (r *Row) Add(marks, total float64) {
	r.Obtained += marks
	r.Total += total
}

// finalize пересчитывает процент.
func (r *Row) finalize() {
	r.Percentage = shared.Percentage(r.Obtained, r.Total)
}

// ══════════════════════════════════════════════════════════════════════════════
// RANKING (Ranked List)
// ══════════════════════════════════════════════════════════════════════════════

// Ranking представляет рейтинг одного класса и параллели.
type Ranking struct {
	rows []*Row
	byID map[string]*Row
}

// NewRanking создаёт пустой Ranking.
func NewRanking() *Ranking {
	return &Ranking{
		rows: make([]*Row, 0),
		byID: make(map[string]*Row),
	}
}

// Add добавляет строку (без автоматической сортировки).
// Повторное добавление того же ученика игнорируется.
func (r *Ranking) Add(row *Row) {
	if row == nil {
		return
	}
	if _, exists := r.byID[row.StudentID]; exists {
		return
	}
	r.rows = append(r.rows, row)
	r.byID[row.StudentID] = row
}

// Get возвращает строку ученика или nil.
func (r *Ranking) Get(studentID string) *Row {
	return r.byID[studentID]
}

// Rank сортирует строки и присваивает места 1..N без пропусков.
// Порядок: процент по убыванию, затем набранные баллы по убыванию,
// затем порядок в реестре.
func (r *Ranking) Rank() {
	for _, row := range r.rows {
		row.finalize()
	}

	sort.SliceStable(r.rows, func(i, j int) bool {
		a, b := r.rows[i], r.rows[j]
		if a.Percentage != b.Percentage {
			return a.Percentage > b.Percentage
		}
		if a.Obtained != b.Obtained {
			return a.Obtained > b.Obtained
		}
		return a.order < b.order
	})

	for i, row := range r.rows {
		row.Rank = Rank(i + 1)
	}
}

// Top возвращает первые n строк.
func (r *Ranking) Top(n int) []*Row {
	if n <= 0 {
		return []*Row{}
	}
	if n > len(r.rows) {
		n = len(r.rows)
	}
	out := make([]*Row, n)
	copy(out, r.rows[:n])
	return out
}

// All возвращает все строки в порядке рейтинга.
func (r *Ranking) All() []*Row {
	out := make([]*Row, len(r.rows))
	copy(out, r.rows)
	return out
}

// ══════════════════════════════════════════════════════════════════════════════
// PAYLOAD
// ══════════════════════════════════════════════════════════════════════════════

// Payload - ответ на запрос рейтинга класса.
type Payload struct {
	ClassName    string `json:"className"`
	Division     string `json:"division"`
	ExamType     string `json:"examType"`
	AcademicYear string `json:"academicYear"`
	Top3         []*Row `json:"top3"`
	MyRank       *Row   `json:"myRank"`
	Leaderboard  []*Row `json:"leaderboard"`
}
