// Package access содержит таблицу прав: (операция, роль) -> разрешено/запрещено.
// Неизвестная роль или операция всегда запрещены.
package access

import (
	"github.com/schoolhub/school-hub/internal/domain/user"
)

// Operation - защищённая операция.
type Operation string

const (
	OpPromotionAuto   Operation = "promotion.auto"
	OpPromotionManual Operation = "promotion.manual"
	OpLeaderboardView Operation = "leaderboard.view"
	OpResultSubmit    Operation = "result.submit"
	OpResultList      Operation = "result.list"
	OpResultChild     Operation = "result.child"
	OpStudentCreate   Operation = "student.create"
	OpStudentList     Operation = "student.list"
)

// Operations - все известные операции.
var Operations = []Operation{
	OpPromotionAuto,
	OpPromotionManual,
	OpLeaderboardView,
	OpResultSubmit,
	OpResultList,
	OpResultChild,
	OpStudentCreate,
	OpStudentList,
}

// Decision - результат проверки по таблице.
type Decision int

const (
	// Deny - операция запрещена.
	Deny Decision = iota
	// Allow - операция разрешена.
	Allow
	// AllowIfLinked - разрешена, если ученик привязан к пользователю.
	AllowIfLinked
)

// String возвращает строковое представление решения.
func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case AllowIfLinked:
		return "allow_if_linked"
	default:
		return "deny"
	}
}

// Policy - неизменяемая таблица прав.
type Policy struct {
	rules map[Operation]map[user.Role]Decision
}

// DefaultPolicy возвращает таблицу прав школы.
func DefaultPolicy() *Policy {
	p := &Policy{rules: make(map[Operation]map[user.Role]Decision)}

	for _, op := range Operations {
		p.set(op, user.RoleAdmin, Allow)
	}

	p.set(OpLeaderboardView, user.RoleTeacher, Allow)
	p.set(OpResultSubmit, user.RoleTeacher, Allow)
	p.set(OpResultList, user.RoleTeacher, Allow)
	p.set(OpStudentCreate, user.RoleTeacher, Allow)
	p.set(OpStudentList, user.RoleTeacher, Allow)

	p.set(OpLeaderboardView, user.RoleParent, AllowIfLinked)
	p.set(OpResultChild, user.RoleParent, AllowIfLinked)
	p.set(OpStudentList, user.RoleParent, Allow)

	return p
}

func (p *Policy) set(op Operation, role user.Role, d Decision) {
	roles, ok := p.rules[op]
	if !ok {
		roles = make(map[user.Role]Decision)
		p.rules[op] = roles
	}
	roles[role] = d
}

// Decide возвращает решение для пары (операция, роль).
func (p *Policy) Decide(op Operation, role user.Role) Decision {
	roles, ok := p.rules[op]
	if !ok {
		return Deny
	}
	return roles[role]
}

// Roles возвращает роли, которым операция не запрещена безусловно.
func (p *Policy) Roles(op Operation) []user.Role {
	var out []user.Role
	for _, r := range []user.Role{user.RoleAdmin, user.RoleTeacher, user.RoleParent} {
		if p.Decide(op, r) != Deny {
			out = append(out, r)
		}
	}
	return out
}
