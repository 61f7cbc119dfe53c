package seeders

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Run наполняет базу демонстрационными данными. Сидеры идемпотентны:
// повторный запуск ничего не дублирует.
func Run(ctx context.Context, pool *pgxpool.Pool) error {
	if err := seedDepartments(ctx, pool); err != nil {
		return fmt.Errorf("сидер департаментов: %w", err)
	}
	if err := seedUsers(ctx, pool); err != nil {
		return fmt.Errorf("сидер пользователей: %w", err)
	}
	if err := assignDepartmentHeads(ctx, pool); err != nil {
		return fmt.Errorf("назначение руководителей: %w", err)
	}
	if err := seedConsults(ctx, pool); err != nil {
		return fmt.Errorf("сидер консультаций: %w", err)
	}
	return nil
}
