package entities

import "consult-system/pkg/types"

// Department владеет конфигурацией делегирования и SLA-порогами.
type Department struct {
	ID   uint64 `json:"id" db:"id"`
	Name string `json:"name" db:"name"`

	HeadUserID          *uint64 `json:"head_user_id" db:"head_user_id"`
	DelegatedReceiverID *uint64 `json:"delegated_receiver_id" db:"delegated_receiver_id"`

	// SLA-пороги в минутах по уровням срочности. 0 = глобальное значение
	// по умолчанию из конфига.
	SlaEmergencyMins int `json:"sla_emergency_mins" db:"sla_emergency_mins"`
	SlaUrgentMins    int `json:"sla_urgent_mins" db:"sla_urgent_mins"`
	SlaRoutineMins   int `json:"sla_routine_mins" db:"sla_routine_mins"`

	// Код политики автоматической маршрутизации (HIERARCHY | ROUND_ROBIN).
	RoutingPolicy     string `json:"routing_policy" db:"routing_policy"`
	AutoRouteOnCreate bool   `json:"auto_route_on_create" db:"auto_route_on_create"`

	types.BaseEntity
}
