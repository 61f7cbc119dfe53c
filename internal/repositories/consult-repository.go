package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"consult-system/internal/entities"
	"consult-system/internal/workflow"
	"consult-system/pkg/constants"
	apperrors "consult-system/pkg/errors"
	"consult-system/pkg/types"
)

const consultTable = "consults"

// SQLSTATE 55P03: строка уже заблокирована (FOR UPDATE NOWAIT).
const pgLockNotAvailable = "55P03"

var (
	consultAllowedFilterFields = map[string]string{
		"status":               "c.status",
		"urgency":              "c.urgency",
		"target_department_id": "c.target_department_id",
		"assigned_to_id":       "c.assigned_to_id",
	}
	consultAllowedSortFields = map[string]string{
		"id":         "c.id",
		"due_at":     "c.due_at",
		"created_at": "c.created_at",
	}
)

const consultColumns = `c.id, c.requester_id, c.requesting_department_id, c.target_department_id,
	c.assigned_to_id, c.assigned_by_id, c.received_by_id,
	c.status, c.urgency, c.assignment_type, c.question,
	c.due_at, c.received_at, c.assigned_at, c.first_response_at, c.completed_at,
	c.escalation_tier, c.escalated_at, c.follow_up_kind, c.created_at, c.updated_at`

type ConsultRepositoryInterface interface {
	GetConsults(ctx context.Context, filter types.Filter) ([]entities.Consult, uint64, error)
	FindConsult(ctx context.Context, id uint64) (*entities.Consult, error)
	CreateConsultInTx(ctx context.Context, tx pgx.Tx, c *entities.Consult) (uint64, error)
	FindConsultForUpdateInTx(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Consult, error)
	ApplyPatchInTx(ctx context.Context, tx pgx.Tx, id uint64, patch *workflow.Patch) error
	GetOverdueConsults(ctx context.Context, now time.Time) ([]entities.Consult, error)
	CreateNoteInTx(ctx context.Context, tx pgx.Tx, note *entities.ConsultNote) error
	GetNotes(ctx context.Context, consultID uint64) ([]entities.ConsultNote, error)
}

type ConsultRepository struct {
	storage *pgxpool.Pool
}

func NewConsultRepository(storage *pgxpool.Pool) ConsultRepositoryInterface {
	return &ConsultRepository{storage: storage}
}

func scanConsult(row pgx.Row) (*entities.Consult, error) {
	var c entities.Consult
	err := row.Scan(
		&c.ID, &c.RequesterID, &c.RequestingDepartmentID, &c.TargetDepartmentID,
		&c.AssignedToID, &c.AssignedByID, &c.ReceivedByID,
		&c.Status, &c.Urgency, &c.AssignmentType, &c.Question,
		&c.DueAt, &c.ReceivedAt, &c.AssignedAt, &c.FirstResponseAt, &c.CompletedAt,
		&c.EscalationTier, &c.EscalatedAt, &c.FollowUpKind, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования консультации: %w", err)
	}
	return &c, nil
}

func (r *ConsultRepository) buildFilterQuery(filter types.Filter) (string, []interface{}) {
	conditions := []string{}
	args := []interface{}{}
	argCounter := 1
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("c.question ILIKE $%d", argCounter))
		args = append(args, "%"+filter.Search+"%")
		argCounter++
	}
	for key, value := range filter.Filter {
		if dbColumn, ok := consultAllowedFilterFields[key]; ok {
			conditions = append(conditions, fmt.Sprintf("%s = $%d", dbColumn, argCounter))
			args = append(args, value)
			argCounter++
		}
	}
	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

func (r *ConsultRepository) countConsults(ctx context.Context, filter types.Filter) (uint64, error) {
	whereClause, args := r.buildFilterQuery(filter)
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s AS c %s", consultTable, whereClause)
	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("ошибка подсчета консультаций: %w", err)
	}
	return total, nil
}

func (r *ConsultRepository) GetConsults(ctx context.Context, filter types.Filter) ([]entities.Consult, uint64, error) {
	total, err := r.countConsults(ctx, filter)
	if err != nil || total == 0 {
		return []entities.Consult{}, total, err
	}

	whereClause, args := r.buildFilterQuery(filter)
	orderByClause := "ORDER BY c.created_at DESC"
	if len(filter.Sort) > 0 {
		sorts := []string{}
		for field, direction := range filter.Sort {
			if dbField, ok := consultAllowedSortFields[field]; ok {
				order := "ASC"
				if strings.ToLower(direction) == "desc" {
					order = "DESC"
				}
				sorts = append(sorts, fmt.Sprintf("%s %s", dbField, order))
			}
		}
		if len(sorts) > 0 {
			orderByClause = "ORDER BY " + strings.Join(sorts, ", ")
		}
	}

	limitClause := ""
	argCounter := len(args) + 1
	if filter.WithPagination {
		limitClause = fmt.Sprintf("LIMIT $%d OFFSET $%d", argCounter, argCounter+1)
		args = append(args, filter.Limit, filter.Offset)
	}

	query := fmt.Sprintf("SELECT %s FROM %s c %s %s %s", consultColumns, consultTable, whereClause, orderByClause, limitClause)
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения списка консультаций: %w", err)
	}
	defer rows.Close()

	consults := make([]entities.Consult, 0)
	for rows.Next() {
		c, err := scanConsult(rows)
		if err != nil {
			return nil, 0, err
		}
		consults = append(consults, *c)
	}
	return consults, total, rows.Err()
}

func (r *ConsultRepository) FindConsult(ctx context.Context, id uint64) (*entities.Consult, error) {
	query := fmt.Sprintf("SELECT %s FROM %s c WHERE c.id = $1", consultColumns, consultTable)
	return scanConsult(r.storage.QueryRow(ctx, query, id))
}

func (r *ConsultRepository) CreateConsultInTx(ctx context.Context, tx pgx.Tx, c *entities.Consult) (uint64, error) {
	query := `INSERT INTO consults
		(requester_id, requesting_department_id, target_department_id, status, urgency, question, due_at, escalation_tier, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING id`

	var newID uint64
	err := tx.QueryRow(ctx, query,
		c.RequesterID, c.RequestingDepartmentID, c.TargetDepartmentID,
		c.Status, c.Urgency, c.Question, c.DueAt, c.EscalationTier,
	).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("ошибка при создании консультации: %w", err)
	}
	return newID, nil
}

// FindConsultForUpdateInTx читает консультацию под эксклюзивной блокировкой
// строки. NOWAIT: если строку уже держит другая транзакция (ручное действие
// или планировщик), сразу возвращаем ErrConcurrencyConflict — вызывающий
// повторит с backoff, лишних ожиданий под блокировкой не бывает.
func (r *ConsultRepository) FindConsultForUpdateInTx(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Consult, error) {
	query := fmt.Sprintf("SELECT %s FROM %s c WHERE c.id = $1 FOR UPDATE OF c NOWAIT", consultColumns, consultTable)
	consult, err := scanConsult(tx.QueryRow(ctx, query, id))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgLockNotAvailable {
			return nil, apperrors.ErrConcurrencyConflict
		}
		return nil, err
	}
	return consult, nil
}

// ApplyPatchInTx записывает мутации перехода. Вызывается только под
// блокировкой, взятой FindConsultForUpdateInTx, в той же транзакции.
func (r *ConsultRepository) ApplyPatchInTx(ctx context.Context, tx pgx.Tx, id uint64, patch *workflow.Patch) error {
	if patch.IsEmpty() {
		return nil
	}

	updateBuilder := sq.Update(consultTable).
		PlaceholderFormat(sq.Dollar).
		Where(sq.Eq{"id": id}).
		Set("updated_at", sq.Expr("NOW()"))

	if patch.Status != nil {
		updateBuilder = updateBuilder.Set("status", *patch.Status)
	}
	if patch.AssignedToID != nil {
		updateBuilder = updateBuilder.Set("assigned_to_id", *patch.AssignedToID)
	}
	if patch.AssignedByID != nil {
		updateBuilder = updateBuilder.Set("assigned_by_id", *patch.AssignedByID)
	}
	if patch.ReceivedByID != nil {
		updateBuilder = updateBuilder.Set("received_by_id", *patch.ReceivedByID)
	}
	if patch.AssignmentType != nil {
		updateBuilder = updateBuilder.Set("assignment_type", *patch.AssignmentType)
	}
	if patch.ReceivedAt != nil {
		updateBuilder = updateBuilder.Set("received_at", *patch.ReceivedAt)
	}
	if patch.AssignedAt != nil {
		updateBuilder = updateBuilder.Set("assigned_at", *patch.AssignedAt)
	}
	if patch.FirstResponseAt != nil {
		updateBuilder = updateBuilder.Set("first_response_at", *patch.FirstResponseAt)
	}
	if patch.CompletedAt != nil {
		updateBuilder = updateBuilder.Set("completed_at", *patch.CompletedAt)
	}
	if patch.EscalationTier != nil {
		updateBuilder = updateBuilder.Set("escalation_tier", *patch.EscalationTier)
	}
	if patch.EscalatedAt != nil {
		updateBuilder = updateBuilder.Set("escalated_at", *patch.EscalatedAt)
	}
	if patch.FollowUpKind != nil {
		updateBuilder = updateBuilder.Set("follow_up_kind", *patch.FollowUpKind)
	}

	query, args, err := updateBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("ошибка построения запроса обновления: %w", err)
	}

	result, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("ошибка при обновлении консультации: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// GetOverdueConsults — выборка планировщика: открытые консультации с
// истёкшим сроком. Завершённые и закрытые исключаются самим условием,
// поэтому отдельного сигнала отмены эскалации не требуется.
func (r *ConsultRepository) GetOverdueConsults(ctx context.Context, now time.Time) ([]entities.Consult, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s c
		WHERE c.status = ANY($1) AND c.due_at <= $2
		ORDER BY c.due_at ASC`, consultColumns, consultTable)

	rows, err := r.storage.Query(ctx, query, constants.OpenStatuses, now)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки просроченных консультаций: %w", err)
	}
	defer rows.Close()

	consults := make([]entities.Consult, 0)
	for rows.Next() {
		c, err := scanConsult(rows)
		if err != nil {
			return nil, err
		}
		consults = append(consults, *c)
	}
	return consults, rows.Err()
}

func (r *ConsultRepository) CreateNoteInTx(ctx context.Context, tx pgx.Tx, note *entities.ConsultNote) error {
	query := `INSERT INTO consult_notes (consult_id, author_id, message, created_at)
		VALUES ($1, $2, $3, NOW()) RETURNING id, created_at`
	if err := tx.QueryRow(ctx, query, note.ConsultID, note.AuthorID, note.Message).Scan(&note.ID, &note.CreatedAt); err != nil {
		return fmt.Errorf("ошибка при создании заметки: %w", err)
	}
	return nil
}

func (r *ConsultRepository) GetNotes(ctx context.Context, consultID uint64) ([]entities.ConsultNote, error) {
	query := `SELECT id, consult_id, author_id, message, created_at
		FROM consult_notes WHERE consult_id = $1 ORDER BY created_at ASC`
	rows, err := r.storage.Query(ctx, query, consultID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения заметок: %w", err)
	}
	defer rows.Close()

	notes := make([]entities.ConsultNote, 0)
	for rows.Next() {
		var n entities.ConsultNote
		if err := rows.Scan(&n.ID, &n.ConsultID, &n.AuthorID, &n.Message, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования заметки: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}
