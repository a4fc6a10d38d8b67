package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/schoolhub/school-hub/internal/domain/user"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()

	for _, op := range Operations {
		assert.Equal(t, Allow, p.Decide(op, user.RoleAdmin), op)
	}

	assert.Equal(t, Deny, p.Decide(OpPromotionAuto, user.RoleTeacher))
	assert.Equal(t, Deny, p.Decide(OpPromotionManual, user.RoleTeacher))
	assert.Equal(t, Allow, p.Decide(OpResultSubmit, user.RoleTeacher))
	assert.Equal(t, Deny, p.Decide(OpResultChild, user.RoleTeacher))

	assert.Equal(t, AllowIfLinked, p.Decide(OpLeaderboardView, user.RoleParent))
	assert.Equal(t, AllowIfLinked, p.Decide(OpResultChild, user.RoleParent))
	assert.Equal(t, Deny, p.Decide(OpResultSubmit, user.RoleParent))
	assert.Equal(t, Deny, p.Decide(OpPromotionAuto, user.RoleParent))
}

func TestDefaultPolicy_UnknownDenied(t *testing.T) {
	p := DefaultPolicy()

	for _, op := range Operations {
		assert.Equal(t, Deny, p.Decide(op, user.Role("janitor")), op)
		assert.Equal(t, Deny, p.Decide(op, user.Role("")), op)
	}
	assert.Equal(t, Deny, p.Decide(Operation("fees.collect"), user.RoleAdmin))
}

func TestPolicy_Roles(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, []user.Role{user.RoleAdmin}, p.Roles(OpPromotionAuto))
	assert.Equal(t, []user.Role{user.RoleAdmin, user.RoleTeacher, user.RoleParent}, p.Roles(OpLeaderboardView))
}
