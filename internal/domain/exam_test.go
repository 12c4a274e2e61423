package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanManage(t *testing.T) {
	exam := &Exam{ID: "E1", CreatedByID: "U1"}

	assert.True(t, exam.CanManage("U1", RoleInternalTeacher), "creator can manage")
	assert.True(t, exam.CanManage("U2", RoleAdmin), "admin can manage any exam")
	assert.True(t, exam.CanManage("U2", RoleSuperAdmin), "super admin can manage any exam")
	assert.False(t, exam.CanManage("U2", RoleInternalTeacher), "other teachers cannot")
	assert.False(t, exam.CanManage("U2", RoleExternalTeacher))
	assert.False(t, exam.CanManage("U2", RoleStudent))
}
