package events

import (
	"time"

	"github.com/google/uuid"
)

// ConsultTransitionEventName — имя события на шине для всех переходов.
const ConsultTransitionEventName = "consult.transition"

// ConsultTransitionEvent публикуется после коммита транзакции перехода.
// Доставка уведомлений — at-least-once; EventID позволяет потребителям
// дедуплицировать повторы.
type ConsultTransitionEvent struct {
	EventID      string    `json:"event_id"`
	ConsultID    uint64    `json:"consult_id"`
	Kind         string    `json:"kind"`
	ActorID      *uint64   `json:"actor_id,omitempty"`
	RecipientIDs []uint64  `json:"recipient_ids"`
	OldStatus    string    `json:"old_status"`
	NewStatus    string    `json:"new_status"`
	Tier         int       `json:"tier,omitempty"`
	Summary      string    `json:"summary,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

func (e ConsultTransitionEvent) Name() string {
	return ConsultTransitionEventName
}

func NewConsultTransitionEvent(consultID uint64, kind string, actorID *uint64, recipients []uint64, oldStatus, newStatus, summary string) ConsultTransitionEvent {
	return ConsultTransitionEvent{
		EventID:      uuid.NewString(),
		ConsultID:    consultID,
		Kind:         kind,
		ActorID:      actorID,
		RecipientIDs: dedupeRecipients(recipients),
		OldStatus:    oldStatus,
		NewStatus:    newStatus,
		Summary:      summary,
		OccurredAt:   time.Now(),
	}
}

func dedupeRecipients(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
