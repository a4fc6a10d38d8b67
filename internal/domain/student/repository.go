package student

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Эти интерфейсы определяют контракт для работы с хранилищем данных.
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции реестра учеников.
type Repository interface {
	// Create создаёт нового ученика.
	// Возвращает ErrStudentAlreadyExists, если (rollNo, класс, параллель) заняты.
	Create(ctx context.Context, student *Student) error

	// GetByID возвращает ученика по внутреннему ID.
	// Возвращает ErrStudentNotFound, если ученик не найден.
	GetByID(ctx context.Context, id string) (*Student, error)

	// GetByNaturalKey возвращает ученика по (rollNo, класс, параллель).
	// Возвращает ErrStudentNotFound, если ученик не найден.
	GetByNaturalKey(ctx context.Context, key NaturalKey) (*Student, error)

	// List возвращает учеников по фильтру в порядке регистрации.
	List(ctx context.Context, filter ListFilter) ([]*Student, error)

	// ListPendingPromotion возвращает учеников, у которых
	// LastPromotionYear не равен year (включая nil), в порядке регистрации.
	ListPendingPromotion(ctx context.Context, year int) ([]*Student, error)

	// PromoteIfPending атомарно переводит ученика, только если
	// класс всё ещё равен From и LastPromotionYear != Year.
	// Возвращает false, если условие не выполнено (уже обработан другим запуском),
	// и ErrRollNumberTaken, если ключ (rollNo, To, параллель) уже занят.
	PromoteIfPending(ctx context.Context, p PromoteParams) (bool, error)

	// Promote атомарно переводит ученика, только если класс всё ещё равен From.
	// Возвращает ErrStudentNotFound, shared.ErrStudentClassChanged
	// или ErrRollNumberTaken.
	Promote(ctx context.Context, p PromoteParams) error
}

// PromoteParams описывает переход ученика между классами.
type PromoteParams struct {
	StudentID string
	From      ClassName
	To        ClassName
	Year      int
}

// ListFilter содержит параметры фильтрации учеников.
// Пустые поля не фильтруют.
type ListFilter struct {
	// ClassName - фильтр по классу.
	ClassName ClassName

	// Division - фильтр по параллели.
	Division Division

	// ParentID - только дети указанного родителя (по ссылке ученика).
	ParentID string

	// IDs - ограничить выборку указанными ID (nil = без ограничения).
	IDs []string
}

// Cohort возвращает фильтр для класса и параллели ученика.
func Cohort(className ClassName, division Division) ListFilter {
	return ListFilter{ClassName: className, Division: division}
}

// Matches проверяет, подходит ли ученик под фильтр.
func (f ListFilter) Matches(s *Student) bool {
	if f.ClassName != "" && s.ClassName != f.ClassName {
		return false
	}
	if f.Division != "" && s.Division != f.Division {
		return false
	}
	if f.ParentID != "" && s.ParentID != f.ParentID {
		return false
	}
	if f.IDs != nil {
		for _, id := range f.IDs {
			if id == s.ID {
				return true
			}
		}
		return false
	}
	return true
}
