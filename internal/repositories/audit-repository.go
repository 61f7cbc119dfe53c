package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"consult-system/internal/entities"
)

// AuditRepository — журнал только на добавление. Записи создаются
// исключительно внутри транзакции перехода; обновлений и удалений нет.
type AuditRepositoryInterface interface {
	CreateInTx(ctx context.Context, tx pgx.Tx, entry *entities.AuditEntry) error
	GetByConsult(ctx context.Context, consultID uint64) ([]entities.AuditEntry, error)
}

type AuditRepository struct {
	storage *pgxpool.Pool
}

func NewAuditRepository(storage *pgxpool.Pool) AuditRepositoryInterface {
	return &AuditRepository{storage: storage}
}

func (r *AuditRepository) CreateInTx(ctx context.Context, tx pgx.Tx, entry *entities.AuditEntry) error {
	query := `INSERT INTO consult_audit (consult_id, actor_id, action, old_status, new_status, summary, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW()) RETURNING id, created_at`
	err := tx.QueryRow(ctx, query,
		entry.ConsultID, entry.ActorID, entry.Action, entry.OldStatus, entry.NewStatus, entry.Summary,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка при записи аудита: %w", err)
	}
	return nil
}

func (r *AuditRepository) GetByConsult(ctx context.Context, consultID uint64) ([]entities.AuditEntry, error) {
	query := `SELECT id, consult_id, actor_id, action, old_status, new_status, summary, created_at
		FROM consult_audit WHERE consult_id = $1 ORDER BY created_at ASC, id ASC`
	rows, err := r.storage.Query(ctx, query, consultID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения аудита: %w", err)
	}
	defer rows.Close()

	entries := make([]entities.AuditEntry, 0)
	for rows.Next() {
		var e entities.AuditEntry
		if err := rows.Scan(&e.ID, &e.ConsultID, &e.ActorID, &e.Action, &e.OldStatus, &e.NewStatus, &e.Summary, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования записи аудита: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
