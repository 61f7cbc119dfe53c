package workflow

import (
	"time"

	"consult-system/internal/entities"
)

// Patch — набор мутаций полей консультации, вычисленный переходом.
// Поле == nil означает "не трогать". Применяется к строке БД и к
// in-memory сущности строго атомарно: либо весь Patch, либо ничего.
type Patch struct {
	Status         *string
	AssignedToID   *uint64
	AssignedByID   *uint64
	ReceivedByID   *uint64
	AssignmentType *string

	ReceivedAt      *time.Time
	AssignedAt      *time.Time
	FirstResponseAt *time.Time
	CompletedAt     *time.Time

	EscalationTier *int
	EscalatedAt    *time.Time

	FollowUpKind *string
}

// Apply накладывает патч на сущность в памяти. Репозиторий пишет те же
// поля в БД; Apply используется сервисом для событий и тестами.
func (p *Patch) Apply(c *entities.Consult) {
	if p.Status != nil {
		c.Status = *p.Status
	}
	if p.AssignedToID != nil {
		c.AssignedToID = p.AssignedToID
	}
	if p.AssignedByID != nil {
		c.AssignedByID = p.AssignedByID
	}
	if p.ReceivedByID != nil {
		c.ReceivedByID = p.ReceivedByID
	}
	if p.AssignmentType != nil {
		c.AssignmentType = p.AssignmentType
	}
	if p.ReceivedAt != nil {
		c.ReceivedAt = p.ReceivedAt
	}
	if p.AssignedAt != nil {
		c.AssignedAt = p.AssignedAt
	}
	if p.FirstResponseAt != nil {
		c.FirstResponseAt = p.FirstResponseAt
	}
	if p.CompletedAt != nil {
		c.CompletedAt = p.CompletedAt
	}
	if p.EscalationTier != nil {
		c.EscalationTier = *p.EscalationTier
	}
	if p.EscalatedAt != nil {
		c.EscalatedAt = p.EscalatedAt
	}
	if p.FollowUpKind != nil {
		c.FollowUpKind = p.FollowUpKind
	}
}

// IsEmpty сообщает, есть ли в патче хоть одна мутация.
func (p *Patch) IsEmpty() bool {
	return p.Status == nil && p.AssignedToID == nil && p.AssignedByID == nil &&
		p.ReceivedByID == nil && p.AssignmentType == nil && p.ReceivedAt == nil &&
		p.AssignedAt == nil && p.FirstResponseAt == nil && p.CompletedAt == nil &&
		p.EscalationTier == nil && p.EscalatedAt == nil && p.FollowUpKind == nil
}
