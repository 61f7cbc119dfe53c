package entities

import "time"

type ConsultNote struct {
	ID        uint64    `json:"id" db:"id"`
	ConsultID uint64    `json:"consult_id" db:"consult_id"`
	AuthorID  uint64    `json:"author_id" db:"author_id"`
	Message   string    `json:"message" db:"message"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
