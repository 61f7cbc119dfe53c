package entities

import "consult-system/pkg/types"

type User struct {
	ID          uint64 `json:"id" db:"id"`
	Fio         string `json:"fio" db:"fio"`
	Email       string `json:"email" db:"email"`
	PhoneNumber string `json:"phone_number" db:"phone_number"`

	Password string `json:"-" db:"password"`

	DepartmentID *uint64 `json:"department_id" db:"department_id"`
	IsHead       *bool   `json:"is_head,omitempty" db:"is_head"`

	// Явный флаг "может управлять консультациями своего департамента".
	// Производная способность "может принимать/назначать" вычисляется
	// в internal/authz и нигде не хранится.
	CanManageConsults bool `json:"can_manage_consults" db:"can_manage_consults"`

	IsActive bool `json:"is_active" db:"is_active"`

	types.BaseEntity
}
