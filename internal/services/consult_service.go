package services

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"consult-system/internal/dto"
	"consult-system/internal/entities"
	"consult-system/internal/events"
	"consult-system/internal/repositories"
	"consult-system/internal/workflow"
	"consult-system/pkg/config"
	"consult-system/pkg/constants"
	apperrors "consult-system/pkg/errors"
	"consult-system/pkg/eventbus"
	"consult-system/pkg/types"
	"consult-system/pkg/utils"
)

// ConsultServiceInterface — координатор рабочего процесса. Каждое
// мутирующее действие выполняется по одной схеме: транзакция, чтение
// консультации под блокировкой строки, загрузка актора и департамента,
// чистый переход из internal/workflow, запись патча и одной записи
// аудита, и только после коммита — публикация события на шину.
type ConsultServiceInterface interface {
	CreateConsult(ctx context.Context, d dto.CreateConsultDTO) (*dto.ConsultResponseDTO, error)
	GetConsults(ctx context.Context, filter types.Filter) ([]dto.ConsultResponseDTO, uint64, error)
	FindConsult(ctx context.Context, id uint64) (*dto.ConsultResponseDTO, error)
	GetAuditTrail(ctx context.Context, id uint64) ([]dto.AuditEntryDTO, error)
	GetNotes(ctx context.Context, id uint64) ([]dto.ConsultNoteDTO, error)

	AcknowledgeAndAssign(ctx context.Context, id uint64, d dto.AcknowledgeAndAssignDTO) (*dto.ConsultResponseDTO, error)
	Reassign(ctx context.Context, id uint64, d dto.ReassignDTO) (*dto.ConsultResponseDTO, error)
	RequestMoreInfo(ctx context.Context, id uint64, d dto.RequestMoreInfoDTO) (*dto.ConsultResponseDTO, error)
	Resume(ctx context.Context, id uint64) (*dto.ConsultResponseDTO, error)
	AddNote(ctx context.Context, id uint64, d dto.AddNoteDTO) (*dto.ConsultResponseDTO, error)
	Complete(ctx context.Context, id uint64, d dto.CompleteConsultDTO) (*dto.ConsultResponseDTO, error)
	Close(ctx context.Context, id uint64) (*dto.ConsultResponseDTO, error)
	StartFollowUp(ctx context.Context, id uint64, d dto.StartFollowUpDTO) (*dto.ConsultResponseDTO, error)

	// Системные действия планировщика. Актор в аудите — nil (system).
	EscalateConsult(ctx context.Context, id uint64, expectedTier int) error
	AutoAssignConsult(ctx context.Context, id uint64) error
}

type ConsultService struct {
	txManager   repositories.TxManagerInterface
	consultRepo repositories.ConsultRepositoryInterface
	userRepo    repositories.UserRepositoryInterface
	deptRepo    repositories.DepartmentRepositoryInterface
	auditRepo   repositories.AuditRepositoryInterface
	routing     *RoutingRegistry
	bus         *eventbus.Bus
	cfg         *config.Config
	logger      *zap.Logger
}

func NewConsultService(
	txManager repositories.TxManagerInterface,
	consultRepo repositories.ConsultRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	deptRepo repositories.DepartmentRepositoryInterface,
	auditRepo repositories.AuditRepositoryInterface,
	routing *RoutingRegistry,
	bus *eventbus.Bus,
	cfg *config.Config,
	logger *zap.Logger,
) ConsultServiceInterface {
	return &ConsultService{
		txManager:   txManager,
		consultRepo: consultRepo,
		userRepo:    userRepo,
		deptRepo:    deptRepo,
		auditRepo:   auditRepo,
		routing:     routing,
		bus:         bus,
		cfg:         cfg,
		logger:      logger,
	}
}

func (s *ConsultService) slaDefaults() workflow.SLADefaults {
	return workflow.SLADefaults{
		Emergency: s.cfg.SLA.Emergency,
		Urgent:    s.cfg.SLA.Urgent,
		Routine:   s.cfg.SLA.Routine,
	}
}

// loadActor читает актора текущего запроса в рамках транзакции перехода,
// чтобы авторизация видела то же состояние, что и сам переход.
func (s *ConsultService) loadActor(ctx context.Context, tx pgx.Tx) (*entities.User, error) {
	actorID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	return s.userRepo.FindUser(ctx, tx, actorID)
}

// applyTransition — общий хвост каждого перехода: патч в БД, патч в память,
// одна запись аудита. Вызывается только под блокировкой строки.
func (s *ConsultService) applyTransition(ctx context.Context, tx pgx.Tx, c *entities.Consult, actorID *uint64, action string, patch *workflow.Patch, summary string) error {
	oldStatus := c.Status
	if err := s.consultRepo.ApplyPatchInTx(ctx, tx, c.ID, patch); err != nil {
		return err
	}
	patch.Apply(c)
	entry := &entities.AuditEntry{
		ConsultID: c.ID,
		ActorID:   actorID,
		Action:    action,
		OldStatus: oldStatus,
		NewStatus: c.Status,
		Summary:   summary,
	}
	return s.auditRepo.CreateInTx(ctx, tx, entry)
}

func (s *ConsultService) publish(ctx context.Context, event events.ConsultTransitionEvent) {
	s.bus.Publish(ctx, event)
}

func recipientsExcluding(exclude uint64, ids ...*uint64) []uint64 {
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if id == nil || *id == exclude || *id == constants.SystemActorID {
			continue
		}
		out = append(out, *id)
	}
	return out
}

// CreateConsult регистрирует новую консультацию. Срок (due_at) вычисляется
// здесь один раз и больше не меняется. Если у целевого департамента включена
// автоматическая маршрутизация, назначение выполняется сразу после коммита
// как отдельное системное действие: его сбой не откатывает создание.
func (s *ConsultService) CreateConsult(ctx context.Context, d dto.CreateConsultDTO) (*dto.ConsultResponseDTO, error) {
	var consult *entities.Consult
	var dept *entities.Department

	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		actor, err := s.loadActor(ctx, tx)
		if err != nil {
			return err
		}
		if !actor.IsActive {
			return apperrors.ErrPermissionDenied
		}
		if actor.DepartmentID == nil {
			return apperrors.NewInvalidInputError("у автора запроса не указан департамент")
		}

		dept, err = s.deptRepo.FindDepartment(ctx, tx, d.TargetDepartmentID)
		if err != nil {
			return fmt.Errorf("целевой департамент: %w", err)
		}

		now := time.Now()
		consult = &entities.Consult{
			RequesterID:            actor.ID,
			RequestingDepartmentID: *actor.DepartmentID,
			TargetDepartmentID:     dept.ID,
			Status:                 constants.StatusSubmitted,
			Urgency:                d.Urgency,
			Question:               d.Question,
			DueAt:                  workflow.DueAt(dept, d.Urgency, now, s.slaDefaults()),
			EscalationTier:         constants.EscalationTierNone,
		}

		newID, err := s.consultRepo.CreateConsultInTx(ctx, tx, consult)
		if err != nil {
			return err
		}
		consult.ID = newID

		entry := &entities.AuditEntry{
			ConsultID: newID,
			ActorID:   &actor.ID,
			Action:    workflow.ActionCreate,
			OldStatus: "",
			NewStatus: constants.StatusSubmitted,
			Summary:   fmt.Sprintf("Создана консультация со срочностью %s", d.Urgency),
		}
		return s.auditRepo.CreateInTx(ctx, tx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewConsultTransitionEvent(
		consult.ID, workflow.ActionCreate, &consult.RequesterID,
		recipientsExcluding(consult.RequesterID, dept.HeadUserID, dept.DelegatedReceiverID),
		"", consult.Status, consult.Question,
	))

	if dept.AutoRouteOnCreate {
		if err := s.AutoAssignConsult(ctx, consult.ID); err != nil {
			s.logger.Warn("автомаршрутизация при создании не удалась",
				zap.Uint64("consult_id", consult.ID), zap.Error(err))
		} else {
			return s.FindConsult(ctx, consult.ID)
		}
	}
	return s.toResponseDTO(ctx, consult), nil
}

func (s *ConsultService) AcknowledgeAndAssign(ctx context.Context, id uint64, d dto.AcknowledgeAndAssignDTO) (*dto.ConsultResponseDTO, error) {
	var consult *entities.Consult
	var event events.ConsultTransitionEvent

	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		consult, err = s.consultRepo.FindConsultForUpdateInTx(ctx, tx, id)
		if err != nil {
			return err
		}
		actor, err := s.loadActor(ctx, tx)
		if err != nil {
			return err
		}
		dept, err := s.deptRepo.FindDepartment(ctx, tx, consult.TargetDepartmentID)
		if err != nil {
			return err
		}
		target, err := s.userRepo.FindUser(ctx, tx, d.TargetUserID)
		if err != nil {
			return fmt.Errorf("исполнитель: %w", err)
		}
		if !target.IsActive {
			return fmt.Errorf("%w: исполнитель не активен", apperrors.ErrDepartmentMismatch)
		}

		now := time.Now()
		patch, err := workflow.AcknowledgeAndAssign(consult, actor, dept, target, now)
		if err != nil {
			return err
		}
		oldStatus := consult.Status
		if err := s.applyTransition(ctx, tx, consult, &actor.ID, workflow.ActionAcknowledgeAndAssign, patch,
			fmt.Sprintf("Принята и назначена: %s", target.Fio)); err != nil {
			return err
		}
		event = events.NewConsultTransitionEvent(
			id, workflow.ActionAcknowledgeAndAssign, &actor.ID,
			recipientsExcluding(actor.ID, &target.ID, &consult.RequesterID),
			oldStatus, consult.Status, "",
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, event)
	return s.toResponseDTO(ctx, consult), nil
}

func (s *ConsultService) Reassign(ctx context.Context, id uint64, d dto.ReassignDTO) (*dto.ConsultResponseDTO, error) {
	var consult *entities.Consult
	var event events.ConsultTransitionEvent

	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		consult, err = s.consultRepo.FindConsultForUpdateInTx(ctx, tx, id)
		if err != nil {
			return err
		}
		actor, err := s.loadActor(ctx, tx)
		if err != nil {
			return err
		}
		dept, err := s.deptRepo.FindDepartment(ctx, tx, consult.TargetDepartmentID)
		if err != nil {
			return err
		}
		target, err := s.userRepo.FindUser(ctx, tx, d.TargetUserID)
		if err != nil {
			return fmt.Errorf("исполнитель: %w", err)
		}
		if !target.IsActive {
			return fmt.Errorf("%w: исполнитель не активен", apperrors.ErrDepartmentMismatch)
		}

		previousAssignee := consult.AssignedToID
		patch, err := workflow.Reassign(consult, actor, dept, target, time.Now())
		if err != nil {
			return err
		}
		oldStatus := consult.Status
		if err := s.applyTransition(ctx, tx, consult, &actor.ID, workflow.ActionReassign, patch,
			fmt.Sprintf("Переназначена: %s", target.Fio)); err != nil {
			return err
		}
		event = events.NewConsultTransitionEvent(
			id, workflow.ActionReassign, &actor.ID,
			recipientsExcluding(actor.ID, &target.ID, previousAssignee, &consult.RequesterID),
			oldStatus, consult.Status, "",
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, event)
	return s.toResponseDTO(ctx, consult), nil
}

// RequestMoreInfo переводит консультацию в ожидание уточнения и сохраняет
// текст запроса как заметку в той же транзакции.
func (s *ConsultService) RequestMoreInfo(ctx context.Context, id uint64, d dto.RequestMoreInfoDTO) (*dto.ConsultResponseDTO, error) {
	var consult *entities.Consult
	var event events.ConsultTransitionEvent

	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		consult, err = s.consultRepo.FindConsultForUpdateInTx(ctx, tx, id)
		if err != nil {
			return err
		}
		actor, err := s.loadActor(ctx, tx)
		if err != nil {
			return err
		}
		dept, err := s.deptRepo.FindDepartment(ctx, tx, consult.TargetDepartmentID)
		if err != nil {
			return err
		}

		patch, err := workflow.RequestMoreInfo(consult, actor, dept, time.Now())
		if err != nil {
			return err
		}
		oldStatus := consult.Status
		if err := s.applyTransition(ctx, tx, consult, &actor.ID, workflow.ActionRequestMoreInfo, patch, d.Message); err != nil {
			return err
		}
		note := &entities.ConsultNote{ConsultID: id, AuthorID: actor.ID, Message: d.Message}
		if err := s.consultRepo.CreateNoteInTx(ctx, tx, note); err != nil {
			return err
		}
		event = events.NewConsultTransitionEvent(
			id, workflow.ActionRequestMoreInfo, &actor.ID,
			recipientsExcluding(actor.ID, &consult.RequesterID),
			oldStatus, consult.Status, d.Message,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, event)
	return s.toResponseDTO(ctx, consult), nil
}

func (s *ConsultService) Resume(ctx context.Context, id uint64) (*dto.ConsultResponseDTO, error) {
	var consult *entities.Consult
	var event events.ConsultTransitionEvent

	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		consult, err = s.consultRepo.FindConsultForUpdateInTx(ctx, tx, id)
		if err != nil {
			return err
		}
		actor, err := s.loadActor(ctx, tx)
		if err != nil {
			return err
		}
		dept, err := s.deptRepo.FindDepartment(ctx, tx, consult.TargetDepartmentID)
		if err != nil {
			return err
		}

		patch, err := workflow.Resume(consult, actor, dept)
		if err != nil {
			return err
		}
		oldStatus := consult.Status
		if err := s.applyTransition(ctx, tx, consult, &actor.ID, workflow.ActionResume, patch, "Работа возобновлена"); err != nil {
			return err
		}
		event = events.NewConsultTransitionEvent(
			id, workflow.ActionResume, &actor.ID,
			recipientsExcluding(actor.ID, &consult.RequesterID, consult.AssignedToID),
			oldStatus, consult.Status, "",
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, event)
	return s.toResponseDTO(ctx, consult), nil
}

// AddNote — заметка участника. Статус не меняется, но действие проходит
// через тот же транзакционный конвейер: заметка, отметка первого ответа
// и запись аудита коммитятся атомарно.
func (s *ConsultService) AddNote(ctx context.Context, id uint64, d dto.AddNoteDTO) (*dto.ConsultResponseDTO, error) {
	var consult *entities.Consult
	var event events.ConsultTransitionEvent

	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		consult, err = s.consultRepo.FindConsultForUpdateInTx(ctx, tx, id)
		if err != nil {
			return err
		}
		actor, err := s.loadActor(ctx, tx)
		if err != nil {
			return err
		}
		dept, err := s.deptRepo.FindDepartment(ctx, tx, consult.TargetDepartmentID)
		if err != nil {
			return err
		}

		patch, err := workflow.AddNote(consult, actor, dept, time.Now())
		if err != nil {
			return err
		}
		oldStatus := consult.Status
		if err := s.applyTransition(ctx, tx, consult, &actor.ID, workflow.ActionAddNote, patch, d.Message); err != nil {
			return err
		}
		note := &entities.ConsultNote{ConsultID: id, AuthorID: actor.ID, Message: d.Message}
		if err := s.consultRepo.CreateNoteInTx(ctx, tx, note); err != nil {
			return err
		}
		event = events.NewConsultTransitionEvent(
			id, workflow.ActionAddNote, &actor.ID,
			recipientsExcluding(actor.ID, &consult.RequesterID, consult.AssignedToID),
			oldStatus, consult.Status, d.Message,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, event)
	return s.toResponseDTO(ctx, consult), nil
}

func (s *ConsultService) Complete(ctx context.Context, id uint64, d dto.CompleteConsultDTO) (*dto.ConsultResponseDTO, error) {
	var consult *entities.Consult
	var event events.ConsultTransitionEvent

	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		consult, err = s.consultRepo.FindConsultForUpdateInTx(ctx, tx, id)
		if err != nil {
			return err
		}
		actor, err := s.loadActor(ctx, tx)
		if err != nil {
			return err
		}
		dept, err := s.deptRepo.FindDepartment(ctx, tx, consult.TargetDepartmentID)
		if err != nil {
			return err
		}

		patch, err := workflow.Complete(consult, actor, dept, time.Now())
		if err != nil {
			return err
		}
		oldStatus := consult.Status
		if err := s.applyTransition(ctx, tx, consult, &actor.ID, workflow.ActionComplete, patch, d.Summary); err != nil {
			return err
		}
		note := &entities.ConsultNote{ConsultID: id, AuthorID: actor.ID, Message: d.Summary}
		if err := s.consultRepo.CreateNoteInTx(ctx, tx, note); err != nil {
			return err
		}
		event = events.NewConsultTransitionEvent(
			id, workflow.ActionComplete, &actor.ID,
			recipientsExcluding(actor.ID, &consult.RequesterID),
			oldStatus, consult.Status, d.Summary,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, event)
	return s.toResponseDTO(ctx, consult), nil
}

func (s *ConsultService) Close(ctx context.Context, id uint64) (*dto.ConsultResponseDTO, error) {
	var consult *entities.Consult
	var event events.ConsultTransitionEvent

	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		consult, err = s.consultRepo.FindConsultForUpdateInTx(ctx, tx, id)
		if err != nil {
			return err
		}
		actor, err := s.loadActor(ctx, tx)
		if err != nil {
			return err
		}
		dept, err := s.deptRepo.FindDepartment(ctx, tx, consult.TargetDepartmentID)
		if err != nil {
			return err
		}

		patch, err := workflow.Close(consult, actor, dept)
		if err != nil {
			return err
		}
		oldStatus := consult.Status
		if err := s.applyTransition(ctx, tx, consult, &actor.ID, workflow.ActionClose, patch, "Консультация закрыта"); err != nil {
			return err
		}
		event = events.NewConsultTransitionEvent(
			id, workflow.ActionClose, &actor.ID,
			recipientsExcluding(actor.ID, &consult.RequesterID, consult.AssignedToID),
			oldStatus, consult.Status, "",
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, event)
	return s.toResponseDTO(ctx, consult), nil
}

func (s *ConsultService) StartFollowUp(ctx context.Context, id uint64, d dto.StartFollowUpDTO) (*dto.ConsultResponseDTO, error) {
	var consult *entities.Consult
	var event events.ConsultTransitionEvent

	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		consult, err = s.consultRepo.FindConsultForUpdateInTx(ctx, tx, id)
		if err != nil {
			return err
		}
		actor, err := s.loadActor(ctx, tx)
		if err != nil {
			return err
		}
		dept, err := s.deptRepo.FindDepartment(ctx, tx, consult.TargetDepartmentID)
		if err != nil {
			return err
		}

		patch, err := workflow.StartFollowUp(consult, actor, dept, d.Kind)
		if err != nil {
			return err
		}
		oldStatus := consult.Status
		if err := s.applyTransition(ctx, tx, consult, &actor.ID, workflow.ActionStartFollowUp, patch,
			fmt.Sprintf("Начато наблюдение (%s)", d.Kind)); err != nil {
			return err
		}
		event = events.NewConsultTransitionEvent(
			id, workflow.ActionStartFollowUp, &actor.ID,
			recipientsExcluding(actor.ID, &consult.RequesterID),
			oldStatus, consult.Status, "",
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, event)
	return s.toResponseDTO(ctx, consult), nil
}

// EscalateConsult — системное продвижение яруса эскалации. Конфликт
// блокировки или уже достигнутый ярус не считаются сбоем планировщика:
// вызывающий просто попробует на следующем проходе.
func (s *ConsultService) EscalateConsult(ctx context.Context, id uint64, expectedTier int) error {
	var event events.ConsultTransitionEvent

	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		consult, err := s.consultRepo.FindConsultForUpdateInTx(ctx, tx, id)
		if err != nil {
			return err
		}
		dept, err := s.deptRepo.FindDepartment(ctx, tx, consult.TargetDepartmentID)
		if err != nil {
			return err
		}

		patch, err := workflow.Escalate(consult, expectedTier, time.Now())
		if err != nil {
			return err
		}
		oldStatus := consult.Status
		if err := s.applyTransition(ctx, tx, consult, nil, workflow.ActionEscalate, patch,
			fmt.Sprintf("Эскалация до яруса %d", expectedTier)); err != nil {
			return err
		}
		event = events.NewConsultTransitionEvent(
			id, workflow.ActionEscalate, nil,
			recipientsExcluding(0, dept.HeadUserID, dept.DelegatedReceiverID, consult.AssignedToID),
			oldStatus, consult.Status, "",
		)
		event.Tier = expectedTier
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, event)
	return nil
}

// AutoAssignConsult — системное назначение по политике маршрутизации
// целевого департамента. Кандидаты читаются пулом (вне блокировки),
// но принадлежность выбранного исполнителя департаменту повторно
// проверяется самим переходом.
func (s *ConsultService) AutoAssignConsult(ctx context.Context, id uint64) error {
	var event events.ConsultTransitionEvent

	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		consult, err := s.consultRepo.FindConsultForUpdateInTx(ctx, tx, id)
		if err != nil {
			return err
		}
		dept, err := s.deptRepo.FindDepartment(ctx, tx, consult.TargetDepartmentID)
		if err != nil {
			return err
		}
		candidates, err := s.userRepo.GetAssignableUsers(ctx, dept.ID)
		if err != nil {
			return err
		}

		policy := s.routing.Resolve(dept.RoutingPolicy)
		target, err := policy.Pick(ctx, dept, candidates)
		if err != nil {
			return err
		}

		patch, err := workflow.AutoAssign(consult, target, time.Now())
		if err != nil {
			return err
		}
		oldStatus := consult.Status
		if err := s.applyTransition(ctx, tx, consult, nil, workflow.ActionAutoAssign, patch,
			fmt.Sprintf("Автоназначение (%s): %s", policy.Name(), target.Fio)); err != nil {
			return err
		}
		event = events.NewConsultTransitionEvent(
			id, workflow.ActionAutoAssign, nil,
			recipientsExcluding(0, &target.ID, &consult.RequesterID),
			oldStatus, consult.Status, "",
		)
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, event)
	return nil
}

func (s *ConsultService) GetConsults(ctx context.Context, filter types.Filter) ([]dto.ConsultResponseDTO, uint64, error) {
	consults, total, err := s.consultRepo.GetConsults(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	names := map[uint64]string{}
	result := make([]dto.ConsultResponseDTO, 0, len(consults))
	for i := range consults {
		result = append(result, *s.toResponseDTOCached(ctx, &consults[i], names))
	}
	return result, total, nil
}

func (s *ConsultService) FindConsult(ctx context.Context, id uint64) (*dto.ConsultResponseDTO, error) {
	consult, err := s.consultRepo.FindConsult(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toResponseDTO(ctx, consult), nil
}

func (s *ConsultService) GetAuditTrail(ctx context.Context, id uint64) ([]dto.AuditEntryDTO, error) {
	if _, err := s.consultRepo.FindConsult(ctx, id); err != nil {
		return nil, err
	}
	entries, err := s.auditRepo.GetByConsult(ctx, id)
	if err != nil {
		return nil, err
	}

	names := map[uint64]string{}
	result := make([]dto.AuditEntryDTO, 0, len(entries))
	for _, e := range entries {
		actorName := constants.SystemActorName
		if e.ActorID != nil {
			actorName = s.userName(ctx, names, *e.ActorID)
		}
		result = append(result, dto.AuditEntryDTO{
			ID:        e.ID,
			ConsultID: e.ConsultID,
			ActorID:   e.ActorID,
			ActorName: actorName,
			Action:    e.Action,
			OldStatus: e.OldStatus,
			NewStatus: e.NewStatus,
			Summary:   e.Summary,
			CreatedAt: e.CreatedAt.Format(time.RFC3339),
		})
	}
	return result, nil
}

func (s *ConsultService) GetNotes(ctx context.Context, id uint64) ([]dto.ConsultNoteDTO, error) {
	if _, err := s.consultRepo.FindConsult(ctx, id); err != nil {
		return nil, err
	}
	notes, err := s.consultRepo.GetNotes(ctx, id)
	if err != nil {
		return nil, err
	}

	result := make([]dto.ConsultNoteDTO, 0, len(notes))
	for _, n := range notes {
		result = append(result, dto.ConsultNoteDTO{
			ID:        n.ID,
			ConsultID: n.ConsultID,
			AuthorID:  n.AuthorID,
			Message:   n.Message,
			CreatedAt: n.CreatedAt.Format(time.RFC3339),
		})
	}
	return result, nil
}

func (s *ConsultService) userName(ctx context.Context, cache map[uint64]string, id uint64) string {
	if name, ok := cache[id]; ok {
		return name
	}
	u, err := s.userRepo.FindUser(ctx, nil, id)
	if err != nil {
		s.logger.Warn("не удалось загрузить пользователя для ответа",
			zap.Uint64("user_id", id), zap.Error(err))
		cache[id] = ""
		return ""
	}
	cache[id] = u.Fio
	return u.Fio
}

func (s *ConsultService) shortUser(ctx context.Context, cache map[uint64]string, id *uint64) *dto.ShortUserDTO {
	if id == nil {
		return nil
	}
	return &dto.ShortUserDTO{ID: *id, Fio: s.userName(ctx, cache, *id)}
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	v := t.Format(time.RFC3339)
	return &v
}

func (s *ConsultService) toResponseDTO(ctx context.Context, c *entities.Consult) *dto.ConsultResponseDTO {
	return s.toResponseDTOCached(ctx, c, map[uint64]string{})
}

func (s *ConsultService) toResponseDTOCached(ctx context.Context, c *entities.Consult, names map[uint64]string) *dto.ConsultResponseDTO {
	createdAt := ""
	if c.CreatedAt != nil {
		createdAt = c.CreatedAt.Format(time.RFC3339)
	}
	return &dto.ConsultResponseDTO{
		ID:                     c.ID,
		Requester:              dto.ShortUserDTO{ID: c.RequesterID, Fio: s.userName(ctx, names, c.RequesterID)},
		RequestingDepartmentID: c.RequestingDepartmentID,
		TargetDepartmentID:     c.TargetDepartmentID,
		AssignedTo:             s.shortUser(ctx, names, c.AssignedToID),
		AssignedBy:             s.shortUser(ctx, names, c.AssignedByID),
		ReceivedBy:             s.shortUser(ctx, names, c.ReceivedByID),
		Status:                 c.Status,
		Urgency:                c.Urgency,
		AssignmentType:         c.AssignmentType,
		Question:               c.Question,
		DueAt:                  c.DueAt.Format(time.RFC3339),
		ReceivedAt:             formatTimePtr(c.ReceivedAt),
		AssignedAt:             formatTimePtr(c.AssignedAt),
		FirstResponseAt:        formatTimePtr(c.FirstResponseAt),
		CompletedAt:            formatTimePtr(c.CompletedAt),
		EscalationTier:         c.EscalationTier,
		EscalatedAt:            formatTimePtr(c.EscalatedAt),
		FollowUpKind:           c.FollowUpKind,
		CreatedAt:              createdAt,
	}
}
