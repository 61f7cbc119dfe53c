package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"consult-system/internal/entities"
	apperrors "consult-system/pkg/errors"
)

const userColumns = `id, fio, email, phone_number, department_id, is_head,
	can_manage_consults, is_active, created_at, updated_at`

type UserRepositoryInterface interface {
	FindUser(ctx context.Context, tx pgx.Tx, id uint64) (*entities.User, error)
	FindUserByEmail(ctx context.Context, email string) (*entities.User, error)
	FindHeadByDepartmentID(ctx context.Context, departmentID uint64) (*entities.User, error)
	GetAssignableUsers(ctx context.Context, departmentID uint64) ([]entities.User, error)
}

type UserRepository struct {
	storage *pgxpool.Pool
}

func NewUserRepository(storage *pgxpool.Pool) UserRepositoryInterface {
	return &UserRepository{storage: storage}
}

func scanUser(row pgx.Row) (*entities.User, error) {
	var u entities.User
	err := row.Scan(
		&u.ID, &u.Fio, &u.Email, &u.PhoneNumber, &u.DepartmentID, &u.IsHead,
		&u.CanManageConsults, &u.IsActive, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования пользователя: %w", err)
	}
	return &u, nil
}

func (r *UserRepository) FindUser(ctx context.Context, tx pgx.Tx, id uint64) (*entities.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE id = $1", userColumns)
	var q querier = r.storage
	if tx != nil {
		q = tx
	}
	return scanUser(q.QueryRow(ctx, query, id))
}

// FindUserByEmail используется только при аутентификации: единственный
// запрос, который читает хеш пароля.
func (r *UserRepository) FindUserByEmail(ctx context.Context, email string) (*entities.User, error) {
	query := fmt.Sprintf("SELECT %s, password FROM users WHERE email = $1", userColumns)
	var u entities.User
	err := r.storage.QueryRow(ctx, query, email).Scan(
		&u.ID, &u.Fio, &u.Email, &u.PhoneNumber, &u.DepartmentID, &u.IsHead,
		&u.CanManageConsults, &u.IsActive, &u.CreatedAt, &u.UpdatedAt, &u.Password,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования пользователя: %w", err)
	}
	return &u, nil
}

func (r *UserRepository) FindHeadByDepartmentID(ctx context.Context, departmentID uint64) (*entities.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users
		WHERE department_id = $1 AND is_head = TRUE AND is_active = TRUE
		ORDER BY id ASC LIMIT 1`, userColumns)
	return scanUser(r.storage.QueryRow(ctx, query, departmentID))
}

// GetAssignableUsers — действующие члены департамента, кандидаты для
// автоматической маршрутизации. Порядок стабильный: политики маршрутизации
// опираются на него.
func (r *UserRepository) GetAssignableUsers(ctx context.Context, departmentID uint64) ([]entities.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users
		WHERE department_id = $1 AND is_active = TRUE
		ORDER BY id ASC`, userColumns)
	rows, err := r.storage.Query(ctx, query, departmentID)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки кандидатов департамента: %w", err)
	}
	defer rows.Close()

	users := make([]entities.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}
