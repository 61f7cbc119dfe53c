package dto

type CreateConsultDTO struct {
	TargetDepartmentID uint64 `json:"target_department_id" validate:"required,gt=0"`
	Urgency            string `json:"urgency" validate:"required,urgency"`
	Question           string `json:"question" validate:"required,min=5"`
}

type AcknowledgeAndAssignDTO struct {
	TargetUserID uint64 `json:"target_user_id" validate:"required,gt=0"`
}

type ReassignDTO struct {
	TargetUserID uint64 `json:"target_user_id" validate:"required,gt=0"`
}

type AddNoteDTO struct {
	Message string `json:"message" validate:"required,min=1"`
}

type RequestMoreInfoDTO struct {
	Message string `json:"message" validate:"required,min=1"`
}

type CompleteConsultDTO struct {
	Summary string `json:"summary" validate:"required,min=1"`
}

type StartFollowUpDTO struct {
	Kind string `json:"kind" validate:"required,follow_up_kind"`
}

type ShortUserDTO struct {
	ID  uint64 `json:"id"`
	Fio string `json:"fio"`
}

type ConsultResponseDTO struct {
	ID                     uint64        `json:"id"`
	Requester              ShortUserDTO  `json:"requester"`
	RequestingDepartmentID uint64        `json:"requesting_department_id"`
	TargetDepartmentID     uint64        `json:"target_department_id"`
	AssignedTo             *ShortUserDTO `json:"assigned_to,omitempty"`
	AssignedBy             *ShortUserDTO `json:"assigned_by,omitempty"`
	ReceivedBy             *ShortUserDTO `json:"received_by,omitempty"`
	Status                 string        `json:"status"`
	Urgency                string        `json:"urgency"`
	AssignmentType         *string       `json:"assignment_type,omitempty"`
	Question               string        `json:"question"`
	DueAt                  string        `json:"due_at"`
	ReceivedAt             *string       `json:"received_at,omitempty"`
	AssignedAt             *string       `json:"assigned_at,omitempty"`
	FirstResponseAt        *string       `json:"first_response_at,omitempty"`
	CompletedAt            *string       `json:"completed_at,omitempty"`
	EscalationTier         int           `json:"escalation_tier"`
	EscalatedAt            *string       `json:"escalated_at,omitempty"`
	FollowUpKind           *string       `json:"follow_up_kind,omitempty"`
	CreatedAt              string        `json:"created_at"`
}

type AuditEntryDTO struct {
	ID        uint64  `json:"id"`
	ConsultID uint64  `json:"consult_id"`
	ActorID   *uint64 `json:"actor_id,omitempty"`
	ActorName string  `json:"actor_name"`
	Action    string  `json:"action"`
	OldStatus string  `json:"old_status"`
	NewStatus string  `json:"new_status"`
	Summary   string  `json:"summary"`
	CreatedAt string  `json:"created_at"`
}

type ConsultNoteDTO struct {
	ID        uint64 `json:"id"`
	ConsultID uint64 `json:"consult_id"`
	AuthorID  uint64 `json:"author_id"`
	Message   string `json:"message"`
	CreatedAt string `json:"created_at"`
}
