package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"consult-system/internal/entities"
	"consult-system/pkg/config"
	"consult-system/pkg/constants"
	apperrors "consult-system/pkg/errors"
)

type fakeOverdueSource struct {
	consults []entities.Consult
}

func (f *fakeOverdueSource) GetOverdueConsults(ctx context.Context, now time.Time) ([]entities.Consult, error) {
	return f.consults, nil
}

type fakeEscalationActions struct {
	escalated  map[uint64]int
	autoAssign []uint64

	escalateErr   error
	autoAssignErr error
}

func newFakeActions() *fakeEscalationActions {
	return &fakeEscalationActions{escalated: make(map[uint64]int)}
}

func (f *fakeEscalationActions) EscalateConsult(ctx context.Context, id uint64, expectedTier int) error {
	if f.escalateErr != nil {
		return f.escalateErr
	}
	f.escalated[id] = expectedTier
	return nil
}

func (f *fakeEscalationActions) AutoAssignConsult(ctx context.Context, id uint64) error {
	if f.autoAssignErr != nil {
		return f.autoAssignErr
	}
	f.autoAssign = append(f.autoAssign, id)
	return nil
}

func schedulerCfg() config.SchedulerConfig {
	return config.SchedulerConfig{
		SweepInterval:   time.Minute,
		EscalationStep:  time.Hour,
		AutoAssignGrace: 30 * time.Minute,
		MaxTier:         3,
	}
}

func overdueConsult(id uint64, overdueBy time.Duration, tier int, assignedTo *uint64) entities.Consult {
	return entities.Consult{
		ID:             id,
		Status:         constants.StatusSubmitted,
		DueAt:          time.Now().Add(-overdueBy),
		EscalationTier: tier,
		AssignedToID:   assignedTo,
	}
}

func TestSweep(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	t.Run("просроченная консультация эскалируется до ожидаемого яруса", func(t *testing.T) {
		actions := newFakeActions()
		source := &fakeOverdueSource{consults: []entities.Consult{
			overdueConsult(1, 90*time.Minute, 0, nil),
		}}
		svc := NewEscalationService(source, actions, schedulerCfg(), logger)

		require.NoError(t, svc.Sweep(ctx))
		// 90 минут сверх срока при шаге в час — второй ярус.
		assert.Equal(t, 2, actions.escalated[1])
	})

	t.Run("уже достигнутый ярус не продвигается", func(t *testing.T) {
		actions := newFakeActions()
		source := &fakeOverdueSource{consults: []entities.Consult{
			overdueConsult(1, 90*time.Minute, 2, nil),
		}}
		svc := NewEscalationService(source, actions, schedulerCfg(), logger)

		require.NoError(t, svc.Sweep(ctx))
		assert.Empty(t, actions.escalated)
	})

	t.Run("неназначенная после льготного периода назначается автоматически", func(t *testing.T) {
		actions := newFakeActions()
		assignee := uint64(50)
		source := &fakeOverdueSource{consults: []entities.Consult{
			overdueConsult(1, time.Hour, 1, nil),
			overdueConsult(2, time.Hour, 1, &assignee),
			overdueConsult(3, 10*time.Minute, 0, nil),
		}}
		svc := NewEscalationService(source, actions, schedulerCfg(), logger)

		require.NoError(t, svc.Sweep(ctx))
		// 2 назначена, 3 ещё в льготном периоде.
		assert.Equal(t, []uint64{1}, actions.autoAssign)
	})

	t.Run("конфликт блокировки не прерывает проход", func(t *testing.T) {
		actions := newFakeActions()
		actions.escalateErr = apperrors.ErrConcurrencyConflict
		source := &fakeOverdueSource{consults: []entities.Consult{
			overdueConsult(1, 90*time.Minute, 0, nil),
			overdueConsult(2, time.Hour, 0, nil),
		}}
		svc := NewEscalationService(source, actions, schedulerCfg(), logger)

		require.NoError(t, svc.Sweep(ctx))
		// Эскалации не прошли, но автоназначения выполнились.
		assert.Equal(t, []uint64{1, 2}, actions.autoAssign)
	})
}
