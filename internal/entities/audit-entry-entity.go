package entities

import "time"

// AuditEntry — неизменяемая запись о переходе. Создаётся ровно один раз
// на успешный переход, в той же транзакции. ActorID == nil означает
// системного актора (автоматические действия планировщика).
type AuditEntry struct {
	ID        uint64    `json:"id" db:"id"`
	ConsultID uint64    `json:"consult_id" db:"consult_id"`
	ActorID   *uint64   `json:"actor_id" db:"actor_id"`
	Action    string    `json:"action" db:"action"`
	OldStatus string    `json:"old_status" db:"old_status"`
	NewStatus string    `json:"new_status" db:"new_status"`
	Summary   string    `json:"summary" db:"summary"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
