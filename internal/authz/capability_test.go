package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"consult-system/internal/entities"
)

func u64(v uint64) *uint64 { return &v }
func b(v bool) *bool       { return &v }

func TestCanManage(t *testing.T) {
	deptID := uint64(5)

	t.Run("руководитель по head_user_id", func(t *testing.T) {
		actor := &entities.User{ID: 1, IsActive: true}
		dept := &entities.Department{ID: deptID, HeadUserID: u64(1)}
		assert.True(t, CanManage(actor, dept))
	})

	t.Run("руководитель по флагу is_head и членству", func(t *testing.T) {
		actor := &entities.User{ID: 2, DepartmentID: u64(deptID), IsHead: b(true), IsActive: true}
		dept := &entities.Department{ID: deptID}
		assert.True(t, CanManage(actor, dept))
	})

	t.Run("флаг is_head чужого департамента не действует", func(t *testing.T) {
		actor := &entities.User{ID: 2, DepartmentID: u64(99), IsHead: b(true), IsActive: true}
		dept := &entities.Department{ID: deptID}
		assert.False(t, CanManage(actor, dept))
	})

	t.Run("явный флаг can_manage_consults внутри департамента", func(t *testing.T) {
		actor := &entities.User{ID: 3, DepartmentID: u64(deptID), CanManageConsults: true, IsActive: true}
		dept := &entities.Department{ID: deptID}
		assert.True(t, CanManage(actor, dept))
	})

	t.Run("делегированный получатель", func(t *testing.T) {
		actor := &entities.User{ID: 4, DepartmentID: u64(deptID), IsActive: true}
		dept := &entities.Department{ID: deptID, DelegatedReceiverID: u64(4)}
		assert.True(t, CanManage(actor, dept))
	})

	t.Run("делегат, покинувший департамент, теряет полномочия", func(t *testing.T) {
		actor := &entities.User{ID: 4, DepartmentID: u64(99), IsActive: true}
		dept := &entities.Department{ID: deptID, DelegatedReceiverID: u64(4)}
		assert.False(t, CanManage(actor, dept))
	})

	t.Run("неактивный пользователь бессилен", func(t *testing.T) {
		actor := &entities.User{ID: 1, IsActive: false}
		dept := &entities.Department{ID: deptID, HeadUserID: u64(1)}
		assert.False(t, CanManage(actor, dept))
	})

	t.Run("рядовой член без полномочий", func(t *testing.T) {
		actor := &entities.User{ID: 5, DepartmentID: u64(deptID), IsActive: true}
		dept := &entities.Department{ID: deptID, HeadUserID: u64(1)}
		assert.False(t, CanManage(actor, dept))
	})

	t.Run("nil-аргументы", func(t *testing.T) {
		assert.False(t, CanManage(nil, &entities.Department{ID: deptID}))
		assert.False(t, CanManage(&entities.User{ID: 1, IsActive: true}, nil))
	})
}

func TestIsParticipant(t *testing.T) {
	requesterID := uint64(10)

	t.Run("автор запроса", func(t *testing.T) {
		assert.True(t, IsParticipant(&entities.User{ID: 10}, requesterID, nil))
	})

	t.Run("исполнитель", func(t *testing.T) {
		assert.True(t, IsParticipant(&entities.User{ID: 20}, requesterID, u64(20)))
	})

	t.Run("посторонний", func(t *testing.T) {
		assert.False(t, IsParticipant(&entities.User{ID: 30}, requesterID, u64(20)))
	})
}
