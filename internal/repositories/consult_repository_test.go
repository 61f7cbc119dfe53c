package repositories

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"consult-system/internal/entities"
	"consult-system/internal/workflow"
	"consult-system/pkg/constants"
	apperrors "consult-system/pkg/errors"
)

// Интеграционные тесты репозиториев. Запускаются только при заданном
// TEST_DATABASE_URL, иначе пропускаются.
var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn != "" {
		pool, err := pgxpool.New(context.Background(), dsn)
		if err != nil {
			log.Fatalf("не удалось подключиться к тестовой БД: %v", err)
		}
		schema, err := os.ReadFile("testdata/schema.sql")
		if err != nil {
			log.Fatalf("не удалось прочитать схему: %v", err)
		}
		if _, err := pool.Exec(context.Background(), string(schema)); err != nil {
			log.Fatalf("не удалось применить схему: %v", err)
		}
		testPool = pool
	}

	code := m.Run()
	if testPool != nil {
		testPool.Close()
	}
	os.Exit(code)
}

func requireDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testPool == nil {
		t.Skip("TEST_DATABASE_URL не задан, интеграционные тесты пропущены")
	}
	return testPool
}

func cleanupTables(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	ctx := context.Background()
	_, err := pool.Exec(ctx, `TRUNCATE consult_notes, consult_audit, consults RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `UPDATE departments SET head_user_id = NULL, delegated_receiver_id = NULL`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `DELETE FROM users WHERE id <> 0`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `DELETE FROM departments`)
	require.NoError(t, err)
}

type testFixture struct {
	requesterID  uint64
	requestingID uint64
	targetDeptID uint64
	headID       uint64
	memberID     uint64
}

func seedFixture(t *testing.T, pool *pgxpool.Pool) testFixture {
	t.Helper()
	ctx := context.Background()
	var f testFixture

	err := pool.QueryRow(ctx, `INSERT INTO departments (name) VALUES ('Хирургия') RETURNING id`).Scan(&f.requestingID)
	require.NoError(t, err)
	err = pool.QueryRow(ctx, `INSERT INTO departments (name, sla_urgent_mins) VALUES ('Кардиология', 120) RETURNING id`).Scan(&f.targetDeptID)
	require.NoError(t, err)

	err = pool.QueryRow(ctx, `INSERT INTO users (fio, email, password, department_id)
		VALUES ('Автор запроса', 'requester@test.local', 'x', $1) RETURNING id`, f.requestingID).Scan(&f.requesterID)
	require.NoError(t, err)
	err = pool.QueryRow(ctx, `INSERT INTO users (fio, email, password, department_id, is_head)
		VALUES ('Руководитель', 'head@test.local', 'x', $1, TRUE) RETURNING id`, f.targetDeptID).Scan(&f.headID)
	require.NoError(t, err)
	err = pool.QueryRow(ctx, `INSERT INTO users (fio, email, password, department_id)
		VALUES ('Исполнитель', 'member@test.local', 'x', $1) RETURNING id`, f.targetDeptID).Scan(&f.memberID)
	require.NoError(t, err)

	_, err = pool.Exec(ctx, `UPDATE departments SET head_user_id = $1 WHERE id = $2`, f.headID, f.targetDeptID)
	require.NoError(t, err)
	return f
}

func createTestConsult(t *testing.T, pool *pgxpool.Pool, f testFixture, dueAt time.Time) uint64 {
	t.Helper()
	ctx := context.Background()
	repo := NewConsultRepository(pool)
	txManager := NewTxManager(pool)

	var id uint64
	err := txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		id, err = repo.CreateConsultInTx(ctx, tx, &entities.Consult{
			RequesterID:            f.requesterID,
			RequestingDepartmentID: f.requestingID,
			TargetDepartmentID:     f.targetDeptID,
			Status:                 constants.StatusSubmitted,
			Urgency:                constants.UrgencyUrgent,
			Question:               "Нужна консультация по пациенту из палаты 12",
			DueAt:                  dueAt,
		})
		return err
	})
	require.NoError(t, err)
	return id
}

func TestCreateAndFindConsult(t *testing.T) {
	pool := requireDB(t)
	cleanupTables(t, pool)
	f := seedFixture(t, pool)

	dueAt := time.Now().Add(2 * time.Hour)
	id := createTestConsult(t, pool, f, dueAt)

	repo := NewConsultRepository(pool)
	c, err := repo.FindConsult(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, constants.StatusSubmitted, c.Status)
	assert.Equal(t, f.requesterID, c.RequesterID)
	assert.Equal(t, f.targetDeptID, c.TargetDepartmentID)
	assert.Nil(t, c.AssignedToID)
	assert.Equal(t, 0, c.EscalationTier)
	assert.WithinDuration(t, dueAt, c.DueAt, time.Second)

	_, err = repo.FindConsult(context.Background(), 999999)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestApplyPatch(t *testing.T) {
	pool := requireDB(t)
	cleanupTables(t, pool)
	f := seedFixture(t, pool)
	ctx := context.Background()

	id := createTestConsult(t, pool, f, time.Now().Add(2*time.Hour))
	repo := NewConsultRepository(pool)
	txManager := NewTxManager(pool)

	now := time.Now()
	status := constants.StatusInProgress
	assignmentType := constants.AssignmentManual
	err := txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		c, err := repo.FindConsultForUpdateInTx(ctx, tx, id)
		if err != nil {
			return err
		}
		require.Equal(t, constants.StatusSubmitted, c.Status)

		return repo.ApplyPatchInTx(ctx, tx, id, &workflow.Patch{
			Status:         &status,
			AssignedToID:   &f.memberID,
			AssignedByID:   &f.headID,
			ReceivedByID:   &f.headID,
			AssignmentType: &assignmentType,
			ReceivedAt:     &now,
			AssignedAt:     &now,
		})
	})
	require.NoError(t, err)

	c, err := repo.FindConsult(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusInProgress, c.Status)
	assert.Equal(t, f.memberID, *c.AssignedToID)
	assert.Equal(t, f.headID, *c.AssignedByID)
	assert.Equal(t, constants.AssignmentManual, *c.AssignmentType)
	require.NotNil(t, c.ReceivedAt)
}

func TestRowLockConflict(t *testing.T) {
	pool := requireDB(t)
	cleanupTables(t, pool)
	f := seedFixture(t, pool)
	ctx := context.Background()

	id := createTestConsult(t, pool, f, time.Now().Add(2*time.Hour))
	repo := NewConsultRepository(pool)

	tx1, err := pool.Begin(ctx)
	require.NoError(t, err)
	defer tx1.Rollback(ctx)

	_, err = repo.FindConsultForUpdateInTx(ctx, tx1, id)
	require.NoError(t, err)

	// Вторая транзакция не ждёт, а сразу получает конфликт.
	tx2, err := pool.Begin(ctx)
	require.NoError(t, err)
	defer tx2.Rollback(ctx)

	_, err = repo.FindConsultForUpdateInTx(ctx, tx2, id)
	assert.ErrorIs(t, err, apperrors.ErrConcurrencyConflict)
}

// Несколько конкурентных назначений: ровно один победитель на каждую
// строку в момент времени, остальные получают типизированный конфликт.
func TestConcurrentPatchSingleWinner(t *testing.T) {
	pool := requireDB(t)
	cleanupTables(t, pool)
	f := seedFixture(t, pool)
	ctx := context.Background()

	id := createTestConsult(t, pool, f, time.Now().Add(2*time.Hour))
	repo := NewConsultRepository(pool)
	txManager := NewTxManager(pool)

	const workers = 8
	var wg sync.WaitGroup
	results := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			results <- txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
				c, err := repo.FindConsultForUpdateInTx(ctx, tx, id)
				if err != nil {
					return err
				}
				if c.AssignedToID != nil {
					return fmt.Errorf("%w: уже назначена", apperrors.ErrInvalidStateTransition)
				}
				status := constants.StatusInProgress
				// Держим блокировку, чтобы конкуренты гарантированно столкнулись.
				time.Sleep(50 * time.Millisecond)
				return repo.ApplyPatchInTx(ctx, tx, id, &workflow.Patch{
					Status:       &status,
					AssignedToID: &f.memberID,
					AssignedByID: &f.headID,
				})
			})
		}(i)
	}
	wg.Wait()
	close(results)

	winners, conflicts, already := 0, 0, 0
	for err := range results {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, apperrors.ErrConcurrencyConflict):
			conflicts++
		case errors.Is(err, apperrors.ErrInvalidStateTransition):
			already++
		default:
			t.Fatalf("неожиданная ошибка: %v", err)
		}
	}

	assert.Equal(t, 1, winners, "ровно один победитель")
	assert.Equal(t, workers, winners+conflicts+already)

	c, err := repo.FindConsult(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, f.memberID, *c.AssignedToID)
}

func TestGetOverdueConsults(t *testing.T) {
	pool := requireDB(t)
	cleanupTables(t, pool)
	f := seedFixture(t, pool)
	ctx := context.Background()

	overdueID := createTestConsult(t, pool, f, time.Now().Add(-time.Hour))
	createTestConsult(t, pool, f, time.Now().Add(2*time.Hour))
	closedID := createTestConsult(t, pool, f, time.Now().Add(-2*time.Hour))

	_, err := pool.Exec(ctx, `UPDATE consults SET status = 'CLOSED' WHERE id = $1`, closedID)
	require.NoError(t, err)

	repo := NewConsultRepository(pool)
	overdue, err := repo.GetOverdueConsults(ctx, time.Now())
	require.NoError(t, err)

	require.Len(t, overdue, 1)
	assert.Equal(t, overdueID, overdue[0].ID)
}

func TestAuditTrailOrder(t *testing.T) {
	pool := requireDB(t)
	cleanupTables(t, pool)
	f := seedFixture(t, pool)
	ctx := context.Background()

	id := createTestConsult(t, pool, f, time.Now().Add(2*time.Hour))
	auditRepo := NewAuditRepository(pool)
	txManager := NewTxManager(pool)

	actions := []string{workflow.ActionCreate, workflow.ActionAcknowledgeAndAssign, workflow.ActionEscalate}
	for _, action := range actions {
		err := txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
			return auditRepo.CreateInTx(ctx, tx, &entities.AuditEntry{
				ConsultID: id,
				ActorID:   nil,
				Action:    action,
				NewStatus: constants.StatusSubmitted,
			})
		})
		require.NoError(t, err)
	}

	entries, err := auditRepo.GetByConsult(ctx, id)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for i, action := range actions {
		assert.Equal(t, action, entries[i].Action)
		assert.Nil(t, entries[i].ActorID)
	}
}
