package student

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/schoolhub/school-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Границы номеров классов. Класс 12 - выпускной, перевод из него невозможен.
const (
	FirstClass    = 1
	TerminalClass = 12
)

// ClassName представляет метку класса ("1".."12").
type ClassName string

// Number возвращает номер класса, если метка - целое число.
func (c ClassName) Number() (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(string(c)))
	if err != nil {
		return 0, false
	}
	return n, true
}

// IsValid проверяет, что метка - целое число в диапазоне [1, 12].
func (c ClassName) IsValid() bool {
	n, ok := c.Number()
	return ok && n >= FirstClass && n <= TerminalClass
}

// Next возвращает следующий класс.
// Возвращает false, если метка не число в диапазоне [1, 11].
func (c ClassName) Next() (ClassName, bool) {
	n, ok := c.Number()
	if !ok || n < FirstClass || n >= TerminalClass {
		return "", false
	}
	return ClassName(strconv.Itoa(n + 1)), true
}

// String возвращает строковое представление класса.
func (c ClassName) String() string {
	return string(c)
}

// Division представляет букву параллели ("A", "B", ...).
type Division string

// NormalizeDivision приводит букву параллели к верхнему регистру.
func NormalizeDivision(s string) Division {
	return Division(strings.ToUpper(strings.TrimSpace(s)))
}

// IsValid проверяет, что параллель - одна латинская буква.
func (d Division) IsValid() bool {
	r := []rune(string(d))
	return len(r) == 1 && r[0] <= unicode.MaxASCII && unicode.IsLetter(r[0])
}

// String возвращает строковое представление параллели.
func (d Division) String() string {
	return string(d)
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: STUDENT
// ══════════════════════════════════════════════════════════════════════════════

// Student - ученик школы.
type Student struct {
	// ID - внутренний уникальный идентификатор (UUID в строковом формате).
	ID string

	// Name - имя ученика.
	Name string

	// RollNo - номер в журнале, уникален в пределах класса и параллели.
	RollNo string

	// ClassName - текущий класс.
	ClassName ClassName

	// Division - параллель.
	Division Division

	// ParentID - идентификатор родителя (пусто, если не привязан).
	ParentID string

	// DOB - дата рождения (необязательно).
	DOB *time.Time

	// LastPromotionYear - год последнего перевода (nil, если не переводился).
	LastPromotionYear *int

	// CreatedAt - время создания записи.
	CreatedAt time.Time

	// UpdatedAt - время последнего обновления.
	UpdatedAt time.Time
}

// NewStudentParams содержит параметры для создания ученика.
type NewStudentParams struct {
	ID        string
	Name      string
	RollNo    string
	ClassName string
	Division  string
	ParentID  string
	DOB       *time.Time
	Now       time.Time
}

// NewStudent создаёт нового ученика с валидацией.
func NewStudent(p NewStudentParams) (*Student, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" || len(name) > 100 {
		return nil, shared.Validation("student", "Create", "name is required (max 100 chars)")
	}

	rollNo := strings.TrimSpace(p.RollNo)
	if rollNo == "" {
		return nil, shared.Validation("student", "Create", "rollNo is required")
	}

	className := ClassName(strings.TrimSpace(p.ClassName))
	if !className.IsValid() {
		return nil, shared.Validation("student", "Create", "className must be an integer between 1 and 12")
	}

	division := NormalizeDivision(p.Division)
	if !division.IsValid() {
		return nil, shared.Validation("student", "Create", "division must be a single letter")
	}

	if p.ID == "" {
		return nil, shared.Validation("student", "Create", "id is required")
	}

	now := p.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	return &Student{
		ID:        p.ID,
		Name:      name,
		RollNo:    rollNo,
		ClassName: className,
		Division:  division,
		ParentID:  strings.TrimSpace(p.ParentID),
		DOB:       p.DOB,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// BEHAVIOUR
// ══════════════════════════════════════════════════════════════════════════════

// IsProcessedFor возвращает true, если ученик уже обработан переводом за год.
func (s *Student) IsProcessedFor(year int) bool {
	return s.LastPromotionYear != nil && *s.LastPromotionYear == year
}

// NextClass возвращает следующий класс или ErrNoNextClass.
func (s *Student) NextClass() (ClassName, error) {
	next, ok := s.ClassName.Next()
	if !ok {
		return "", shared.ErrNoNextClass
	}
	return next, nil
}

// KeyIn возвращает естественный ключ, который ученик займёт в классе to.
func (s *Student) KeyIn(to ClassName) NaturalKey {
	return NaturalKey{RollNo: s.RollNo, ClassName: to, Division: s.Division}
}

// ApplyPromotion переводит ученика в указанный класс и отмечает год.
func (s *Student) ApplyPromotion(to ClassName, year int, now time.Time) {
	y := year
	s.ClassName = to
	s.LastPromotionYear = &y
	s.UpdatedAt = now
}

// Clone возвращает глубокую копию ученика.
func (s *Student) Clone() *Student {
	c := *s
	if s.LastPromotionYear != nil {
		y := *s.LastPromotionYear
		c.LastPromotionYear = &y
	}
	if s.DOB != nil {
		d := *s.DOB
		c.DOB = &d
	}
	return &c
}

// NaturalKey возвращает уникальный ключ (rollNo, класс, параллель).
func (s *Student) NaturalKey() NaturalKey {
	return NaturalKey{RollNo: s.RollNo, ClassName: s.ClassName, Division: s.Division}
}

// NaturalKey - уникальный естественный ключ ученика.
type NaturalKey struct {
	RollNo    string
	ClassName ClassName
	Division  Division
}

// Ошибки, используемые репозиториями.
var (
	// ErrStudentNotFound - ученик не найден.
	ErrStudentNotFound = shared.ErrStudentNotFound

	// ErrStudentAlreadyExists - ученик с таким (rollNo, класс, параллель) уже есть.
	ErrStudentAlreadyExists = shared.NewDomainError("student", "Create", shared.ErrAlreadyExists, "student already exists")

	// ErrRollNumberTaken - в целевом классе и параллели уже есть ученик
	// с тем же rollNo. Перевод не выполняется, ключ остаётся уникальным.
	ErrRollNumberTaken = shared.NewDomainError("student", "Promote", shared.ErrConflict, "roll number already taken in the next class and division")
)
