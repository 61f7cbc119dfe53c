package authz

import (
	"consult-system/internal/entities"
)

// CanManage — единственная точка авторизации для всех мутирующих действий
// над консультациями департамента. Способность "принимать/назначать"
// вычисляется, а не хранится:
//
//	руководитель департамента ИЛИ явный флаг ИЛИ делегированный получатель.
//
// Никакого I/O: актор и департамент уже загружены вызывающей стороной.
func CanManage(actor *entities.User, dept *entities.Department) bool {
	if actor == nil || dept == nil {
		return false
	}
	if !actor.IsActive {
		return false
	}

	// 1. Руководитель департамента (HOD)
	if dept.HeadUserID != nil && *dept.HeadUserID == actor.ID {
		return true
	}
	if actor.IsHead != nil && *actor.IsHead && BelongsTo(actor, dept.ID) {
		return true
	}

	// 2. Явный флаг действует только внутри своего департамента
	if actor.CanManageConsults && BelongsTo(actor, dept.ID) {
		return true
	}

	// 3. Делегированный получатель. По инварианту департамента он обязан
	// быть действующим членом департамента, но проверяем членство и здесь:
	// конфигурация могла устареть между чтениями.
	if dept.DelegatedReceiverID != nil && *dept.DelegatedReceiverID == actor.ID && BelongsTo(actor, dept.ID) {
		return true
	}

	return false
}

// BelongsTo — принадлежит ли пользователь департаменту.
func BelongsTo(u *entities.User, departmentID uint64) bool {
	return u != nil && u.DepartmentID != nil && *u.DepartmentID == departmentID
}

// IsParticipant — является ли актор участником консультации
// (автор запроса или текущий исполнитель).
func IsParticipant(actor *entities.User, requesterID uint64, assignedToID *uint64) bool {
	if actor == nil {
		return false
	}
	if actor.ID == requesterID {
		return true
	}
	return assignedToID != nil && *assignedToID == actor.ID
}
