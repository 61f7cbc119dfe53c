package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"consult-system/internal/entities"
	"consult-system/internal/workflow"
	"consult-system/pkg/config"
	apperrors "consult-system/pkg/errors"
)

// Узкие зависимости планировщика: выборка просроченных и два системных
// действия координатора.
type overdueSource interface {
	GetOverdueConsults(ctx context.Context, now time.Time) ([]entities.Consult, error)
}

type escalationActions interface {
	EscalateConsult(ctx context.Context, id uint64, expectedTier int) error
	AutoAssignConsult(ctx context.Context, id uint64) error
}

// EscalationServiceInterface — фоновый процесс SLA. Каждый проход (sweep)
// выбирает открытые просроченные консультации и продвигает их ярусы
// эскалации; неназначенные после льготного периода назначаются
// автоматически. Проход идемпотентен: корректность держится на переходах
// Escalate/AutoAssign, а не на интервале запуска.
type EscalationServiceInterface interface {
	Run(ctx context.Context)
	Sweep(ctx context.Context) error
}

type EscalationService struct {
	consultRepo    overdueSource
	consultService escalationActions
	cfg            config.SchedulerConfig
	logger         *zap.Logger
}

func NewEscalationService(
	consultRepo overdueSource,
	consultService escalationActions,
	cfg config.SchedulerConfig,
	logger *zap.Logger,
) EscalationServiceInterface {
	return &EscalationService{
		consultRepo:    consultRepo,
		consultService: consultService,
		cfg:            cfg,
		logger:         logger,
	}
}

// Run крутит проходы до отмены контекста. Первый проход выполняется сразу:
// после рестарта сервиса просроченные консультации не должны ждать интервал.
func (s *EscalationService) Run(ctx context.Context) {
	s.logger.Info("планировщик эскалации запущен",
		zap.Duration("sweep_interval", s.cfg.SweepInterval),
		zap.Duration("escalation_step", s.cfg.EscalationStep),
		zap.Int("max_tier", s.cfg.MaxTier),
	)

	if err := s.Sweep(ctx); err != nil {
		s.logger.Error("ошибка прохода эскалации", zap.Error(err))
	}

	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("планировщик эскалации остановлен")
			return
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				s.logger.Error("ошибка прохода эскалации", zap.Error(err))
			}
		}
	}
}

// Sweep обрабатывает каждую просроченную консультацию независимо: сбой
// одной не прерывает проход. Конфликты блокировок и уже выполненные
// переходы — штатная конкуренция с ручными действиями, логируются на
// уровне debug и повторятся на следующем проходе.
func (s *EscalationService) Sweep(ctx context.Context) error {
	now := time.Now()
	overdue, err := s.consultRepo.GetOverdueConsults(ctx, now)
	if err != nil {
		return err
	}

	for i := range overdue {
		c := &overdue[i]

		expected := workflow.ExpectedTier(c.DueAt, now, s.cfg.EscalationStep, s.cfg.MaxTier)
		if expected > c.EscalationTier {
			if err := s.consultService.EscalateConsult(ctx, c.ID, expected); err != nil {
				s.logSweepError(c.ID, "эскалация", err)
			}
		}

		// Автоназначение — только после льготного периода сверх срока:
		// даём департаменту шанс принять консультацию вручную.
		if c.AssignedToID == nil && now.After(c.DueAt.Add(s.cfg.AutoAssignGrace)) {
			if err := s.consultService.AutoAssignConsult(ctx, c.ID); err != nil {
				s.logSweepError(c.ID, "автоназначение", err)
			}
		}
	}
	return nil
}

func (s *EscalationService) logSweepError(consultID uint64, action string, err error) {
	if errors.Is(err, apperrors.ErrConcurrencyConflict) || errors.Is(err, apperrors.ErrInvalidStateTransition) {
		s.logger.Debug("проход эскалации: переход уже выполнен или строка занята",
			zap.Uint64("consult_id", consultID),
			zap.String("action", action),
			zap.Error(err),
		)
		return
	}
	s.logger.Error("проход эскалации: действие не выполнено",
		zap.Uint64("consult_id", consultID),
		zap.String("action", action),
		zap.Error(err),
	)
}
