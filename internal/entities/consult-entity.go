package entities

import (
	"time"

	"consult-system/pkg/types"
)

// Consult — заявка на межотделенческую консультацию, предмет рабочего
// процесса. Все изменения проходят только через ConsultService,
// физически записи никогда не удаляются.
type Consult struct {
	ID uint64 `json:"id" db:"id"`

	RequesterID            uint64 `json:"requester_id" db:"requester_id"`
	RequestingDepartmentID uint64 `json:"requesting_department_id" db:"requesting_department_id"`
	TargetDepartmentID     uint64 `json:"target_department_id" db:"target_department_id"`

	AssignedToID *uint64 `json:"assigned_to_id" db:"assigned_to_id"`
	AssignedByID *uint64 `json:"assigned_by_id" db:"assigned_by_id"`
	ReceivedByID *uint64 `json:"received_by_id" db:"received_by_id"`

	Status         string  `json:"status" db:"status"`
	Urgency        string  `json:"urgency" db:"urgency"`
	AssignmentType *string `json:"assignment_type" db:"assignment_type"`
	Question       string  `json:"question" db:"question"`

	// DueAt вычисляется один раз при создании и не пересчитывается:
	// пересчёт сломал бы историю SLA-аудита.
	DueAt           time.Time  `json:"due_at" db:"due_at"`
	ReceivedAt      *time.Time `json:"received_at" db:"received_at"`
	AssignedAt      *time.Time `json:"assigned_at" db:"assigned_at"`
	FirstResponseAt *time.Time `json:"first_response_at" db:"first_response_at"`
	CompletedAt     *time.Time `json:"completed_at" db:"completed_at"`

	// Эскалация — аннотация, а не статус: ярус только растёт.
	EscalationTier int        `json:"escalation_tier" db:"escalation_tier"`
	EscalatedAt    *time.Time `json:"escalated_at" db:"escalated_at"`

	FollowUpKind *string `json:"follow_up_kind" db:"follow_up_kind"`

	types.BaseEntity
}
