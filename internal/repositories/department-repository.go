package repositories

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"consult-system/internal/dto"
	"consult-system/internal/entities"
	apperrors "consult-system/pkg/errors"
)

const departmentTable = "departments"

const departmentColumns = `id, name, head_user_id, delegated_receiver_id,
	sla_emergency_mins, sla_urgent_mins, sla_routine_mins,
	routing_policy, auto_route_on_create, created_at, updated_at`

type DepartmentRepositoryInterface interface {
	GetDepartments(ctx context.Context) ([]entities.Department, error)
	FindDepartment(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Department, error)
	UpdateDelegation(ctx context.Context, id uint64, d dto.UpdateDelegationDTO) (*entities.Department, error)
}

type DepartmentRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewDepartmentRepository(storage *pgxpool.Pool, logger *zap.Logger) DepartmentRepositoryInterface {
	return &DepartmentRepository{storage: storage, logger: logger}
}

func scanDepartment(row pgx.Row) (*entities.Department, error) {
	var d entities.Department
	err := row.Scan(
		&d.ID, &d.Name, &d.HeadUserID, &d.DelegatedReceiverID,
		&d.SlaEmergencyMins, &d.SlaUrgentMins, &d.SlaRoutineMins,
		&d.RoutingPolicy, &d.AutoRouteOnCreate, &d.CreatedAt, &d.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования department: %w", err)
	}
	return &d, nil
}

func (r *DepartmentRepository) GetDepartments(ctx context.Context) ([]entities.Department, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY id ASC", departmentColumns, departmentTable)
	rows, err := r.storage.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	departments := make([]entities.Department, 0)
	for rows.Next() {
		dept, err := scanDepartment(rows)
		if err != nil {
			return nil, err
		}
		departments = append(departments, *dept)
	}
	return departments, rows.Err()
}

// FindDepartment читает департамент. tx == nil — чтение вне транзакции;
// координатор передаёт свою транзакцию, чтобы авторизация и переход
// видели одно и то же состояние.
func (r *DepartmentRepository) FindDepartment(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Department, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", departmentColumns, departmentTable)
	var q querier = r.storage
	if tx != nil {
		q = tx
	}
	return scanDepartment(q.QueryRow(ctx, query, id))
}

// UpdateDelegation меняет делегированного получателя и политику
// маршрутизации. Инвариант "делегат — действующий член департамента"
// проверяется в сервисе до записи.
func (r *DepartmentRepository) UpdateDelegation(ctx context.Context, id uint64, d dto.UpdateDelegationDTO) (*entities.Department, error) {
	updateBuilder := sq.Update(departmentTable).
		PlaceholderFormat(sq.Dollar).
		Where(sq.Eq{"id": id}).
		Set("updated_at", sq.Expr("NOW()"))
	hasChanges := false
	if d.DelegatedReceiverID != nil {
		updateBuilder = updateBuilder.Set("delegated_receiver_id", *d.DelegatedReceiverID)
		hasChanges = true
	}
	if d.ClearDelegation {
		updateBuilder = updateBuilder.Set("delegated_receiver_id", nil)
		hasChanges = true
	}
	if d.RoutingPolicy != nil {
		updateBuilder = updateBuilder.Set("routing_policy", *d.RoutingPolicy)
		hasChanges = true
	}
	if !hasChanges {
		return r.FindDepartment(ctx, nil, id)
	}

	query, args, err := updateBuilder.Suffix("RETURNING " + departmentColumns).ToSql()
	if err != nil {
		return nil, err
	}
	return scanDepartment(r.storage.QueryRow(ctx, query, args...))
}
