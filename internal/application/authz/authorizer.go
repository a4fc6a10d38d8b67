// Package authz evaluates the access policy for an authenticated caller
// before a command or query runs.
package authz

import (
	"context"
	"fmt"

	"github.com/schoolhub/school-hub/internal/domain/access"
	"github.com/schoolhub/school-hub/internal/domain/shared"
	"github.com/schoolhub/school-hub/internal/domain/student"
	"github.com/schoolhub/school-hub/internal/domain/user"
)

// Principal is the authenticated caller.
type Principal struct {
	UserID string
	Role   user.Role
}

// Authorizer checks (operation, role) against the policy table and, for
// parent-scoped operations, the parent-student link.
type Authorizer struct {
	policy   *access.Policy
	users    user.Repository
	students student.Repository
}

// New creates an Authorizer. A nil policy means access.DefaultPolicy.
func New(policy *access.Policy, users user.Repository, students student.Repository) *Authorizer {
	if policy == nil {
		policy = access.DefaultPolicy()
	}
	return &Authorizer{policy: policy, users: users, students: students}
}

// Authorize returns nil when p may perform op on studentID.
// studentID is only consulted for link-scoped decisions.
//
// A parent asking about a student that does not exist gets the same
// ErrAccessDenied as for an unlinked student.
func (a *Authorizer) Authorize(ctx context.Context, p Principal, op access.Operation, studentID string) error {
	switch a.policy.Decide(op, p.Role) {
	case access.Allow:
		return nil
	case access.AllowIfLinked:
		linked, err := a.IsLinked(ctx, p.UserID, studentID)
		if err != nil {
			return err
		}
		if !linked {
			return shared.ErrAccessDenied
		}
		return nil
	default:
		return shared.ErrAccessDenied
	}
}

// IsLinked reports whether studentID belongs to the parent userID, either
// through the parent's linked students or the student's parent reference.
func (a *Authorizer) IsLinked(ctx context.Context, userID, studentID string) (bool, error) {
	if userID == "" || studentID == "" {
		return false, nil
	}

	u, err := a.users.GetByID(ctx, userID)
	switch {
	case err == nil:
		if u.HasLinkedStudent(studentID) {
			return true, nil
		}
	case !shared.IsNotFound(err):
		return false, fmt.Errorf("authorize: load user: %w", err)
	}

	s, err := a.students.GetByID(ctx, studentID)
	if err != nil {
		if shared.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("authorize: load student: %w", err)
	}
	return s.ParentID == userID, nil
}

// VisibleStudentIDs returns the students a caller may list.
// nil means every student. For a parent it is the union of the linked
// students and the students whose parent reference names the parent,
// in link order followed by registration order.
func (a *Authorizer) VisibleStudentIDs(ctx context.Context, p Principal) ([]string, error) {
	if err := a.Authorize(ctx, p, access.OpStudentList, ""); err != nil {
		return nil, err
	}
	if p.Role != user.RoleParent {
		return nil, nil
	}

	ids := []string{}
	seen := map[string]bool{}
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	u, err := a.users.GetByID(ctx, p.UserID)
	switch {
	case err == nil:
		for _, id := range u.LinkedStudentIDs {
			add(id)
		}
	case !shared.IsNotFound(err):
		return nil, fmt.Errorf("authorize: load user: %w", err)
	}

	if p.UserID == "" {
		return ids, nil
	}
	children, err := a.students.List(ctx, student.ListFilter{ParentID: p.UserID})
	if err != nil {
		return nil, fmt.Errorf("authorize: list children: %w", err)
	}
	for _, s := range children {
		add(s.ID)
	}
	return ids, nil
}
