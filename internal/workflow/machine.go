package workflow

import (
	"fmt"
	"time"

	"consult-system/internal/authz"
	"consult-system/internal/entities"
	"consult-system/pkg/constants"
	apperrors "consult-system/pkg/errors"
)

// Действия рабочего процесса. Коды попадают в аудит как есть.
const (
	ActionCreate               = "create"
	ActionAcknowledgeAndAssign = "acknowledge_and_assign"
	ActionReassign             = "reassign"
	ActionAutoAssign           = "auto_assign"
	ActionEscalate             = "escalate"
	ActionRequestMoreInfo      = "request_more_info"
	ActionResume               = "resume"
	ActionAddNote              = "add_note"
	ActionComplete             = "complete"
	ActionClose                = "close"
	ActionStartFollowUp        = "start_follow_up"
)

// Чистая логика переходов: (текущее состояние, действие, актор, цель) ->
// (Patch) или типизированный отказ. Никакого I/O — все сущности уже
// загружены координатором под блокировкой строки.

// guardNotTerminal — попытка действия над завершённой консультацией всегда
// завершается ErrInvalidStateTransition, никогда тихим no-op: вызывающий
// должен отличать "уже сделано" от "действие неприменимо".
func guardNotTerminal(c *entities.Consult) error {
	if constants.IsTerminalStatus(c.Status) {
		return fmt.Errorf("%w: консультация в финальном статусе %s", apperrors.ErrInvalidStateTransition, c.Status)
	}
	return nil
}

// AcknowledgeAndAssign — приём и назначение одним действием.
// Разделение на два шага создало бы наблюдаемое промежуточное состояние
// "принята, но никому не принадлежит", у которого нет клинического смысла.
func AcknowledgeAndAssign(c *entities.Consult, actor *entities.User, dept *entities.Department, target *entities.User, now time.Time) (*Patch, error) {
	if err := guardNotTerminal(c); err != nil {
		return nil, err
	}
	if c.Status != constants.StatusSubmitted && c.Status != constants.StatusAcknowledged {
		return nil, fmt.Errorf("%w: приём и назначение возможны только из SUBMITTED или ACKNOWLEDGED, текущий статус %s",
			apperrors.ErrInvalidStateTransition, c.Status)
	}
	if c.AssignedToID != nil {
		return nil, fmt.Errorf("%w: консультация уже назначена, используйте reassign", apperrors.ErrInvalidStateTransition)
	}
	if !authz.CanManage(actor, dept) {
		return nil, apperrors.ErrPermissionDenied
	}
	if !authz.BelongsTo(target, c.TargetDepartmentID) {
		return nil, apperrors.ErrDepartmentMismatch
	}

	status := constants.StatusInProgress
	assignmentType := constants.AssignmentManual
	return &Patch{
		Status:         &status,
		AssignedToID:   &target.ID,
		AssignedByID:   &actor.ID,
		ReceivedByID:   &actor.ID,
		AssignmentType: &assignmentType,
		ReceivedAt:     &now,
		AssignedAt:     &now,
	}, nil
}

// Reassign — смена владельца, не смена жизненного цикла: статус не трогаем.
// Самоназначение (actor == target) явно разрешено.
func Reassign(c *entities.Consult, actor *entities.User, dept *entities.Department, target *entities.User, now time.Time) (*Patch, error) {
	if err := guardNotTerminal(c); err != nil {
		return nil, err
	}
	if c.AssignedToID == nil {
		return nil, fmt.Errorf("%w: консультация ещё не назначена, используйте acknowledge_and_assign", apperrors.ErrInvalidStateTransition)
	}
	if !authz.CanManage(actor, dept) {
		return nil, apperrors.ErrPermissionDenied
	}
	if !authz.BelongsTo(target, c.TargetDepartmentID) {
		return nil, apperrors.ErrDepartmentMismatch
	}

	assignmentType := constants.AssignmentManual
	return &Patch{
		AssignedToID:   &target.ID,
		AssignedByID:   &actor.ID,
		AssignmentType: &assignmentType,
		AssignedAt:     &now,
	}, nil
}

// AutoAssign — назначение планировщиком от имени системного актора.
// Статус становится ACKNOWLEDGED, а не IN_PROGRESS: автоматическое
// назначение подтверждает получение, но не утверждает, что человек
// начал работу.
func AutoAssign(c *entities.Consult, target *entities.User, now time.Time) (*Patch, error) {
	if err := guardNotTerminal(c); err != nil {
		return nil, err
	}
	if c.AssignedToID != nil {
		return nil, fmt.Errorf("%w: консультация уже назначена", apperrors.ErrInvalidStateTransition)
	}
	if !authz.BelongsTo(target, c.TargetDepartmentID) {
		return nil, apperrors.ErrDepartmentMismatch
	}

	status := constants.StatusAcknowledged
	assignmentType := constants.AssignmentAuto
	systemID := constants.SystemActorID
	return &Patch{
		Status:         &status,
		AssignedToID:   &target.ID,
		AssignedByID:   &systemID,
		ReceivedByID:   &systemID,
		AssignmentType: &assignmentType,
		ReceivedAt:     &now,
		AssignedAt:     &now,
	}, nil
}

// Escalate — продвижение яруса эскалации. Статус не меняется: эскалация —
// аннотация, а не состояние. Ярус строго растёт; повторный вызов для уже
// достигнутого яруса отклоняется, поэтому дублирующиеся проходы
// планировщика безвредны.
func Escalate(c *entities.Consult, expectedTier int, now time.Time) (*Patch, error) {
	if err := guardNotTerminal(c); err != nil {
		return nil, err
	}
	if expectedTier <= c.EscalationTier {
		return nil, fmt.Errorf("%w: ярус %d уже достигнут (текущий %d)",
			apperrors.ErrInvalidStateTransition, expectedTier, c.EscalationTier)
	}

	tier := expectedTier
	return &Patch{
		EscalationTier: &tier,
		EscalatedAt:    &now,
	}, nil
}

// RequestMoreInfo — исполнитель запрашивает уточнение у автора.
func RequestMoreInfo(c *entities.Consult, actor *entities.User, dept *entities.Department, now time.Time) (*Patch, error) {
	if err := guardNotTerminal(c); err != nil {
		return nil, err
	}
	if c.Status != constants.StatusInProgress {
		return nil, fmt.Errorf("%w: запрос уточнения возможен только из IN_PROGRESS, текущий статус %s",
			apperrors.ErrInvalidStateTransition, c.Status)
	}
	if !isAssignee(c, actor) && !authz.CanManage(actor, dept) {
		return nil, apperrors.ErrPermissionDenied
	}

	status := constants.StatusMoreInfoRequired
	patch := &Patch{Status: &status}
	if isAssignee(c, actor) && c.FirstResponseAt == nil {
		patch.FirstResponseAt = &now
	}
	return patch, nil
}

// Resume — возврат из MORE_INFO_REQUIRED в работу.
func Resume(c *entities.Consult, actor *entities.User, dept *entities.Department) (*Patch, error) {
	if err := guardNotTerminal(c); err != nil {
		return nil, err
	}
	if c.Status != constants.StatusMoreInfoRequired {
		return nil, fmt.Errorf("%w: возобновление возможно только из MORE_INFO_REQUIRED, текущий статус %s",
			apperrors.ErrInvalidStateTransition, c.Status)
	}
	if !isAssignee(c, actor) && !authz.CanManage(actor, dept) {
		return nil, apperrors.ErrPermissionDenied
	}

	status := constants.StatusInProgress
	return &Patch{Status: &status}, nil
}

// AddNote — заметка без смены статуса, но с аудитом.
func AddNote(c *entities.Consult, actor *entities.User, dept *entities.Department, now time.Time) (*Patch, error) {
	if err := guardNotTerminal(c); err != nil {
		return nil, err
	}
	if !authz.IsParticipant(actor, c.RequesterID, c.AssignedToID) && !authz.CanManage(actor, dept) {
		return nil, apperrors.ErrPermissionDenied
	}

	patch := &Patch{}
	if isAssignee(c, actor) && c.FirstResponseAt == nil {
		patch.FirstResponseAt = &now
	}
	return patch, nil
}

// Complete — завершение консультации исполнителем.
func Complete(c *entities.Consult, actor *entities.User, dept *entities.Department, now time.Time) (*Patch, error) {
	if err := guardNotTerminal(c); err != nil {
		return nil, err
	}
	if c.Status != constants.StatusInProgress && c.Status != constants.StatusMoreInfoRequired {
		return nil, fmt.Errorf("%w: завершение возможно только из IN_PROGRESS или MORE_INFO_REQUIRED, текущий статус %s",
			apperrors.ErrInvalidStateTransition, c.Status)
	}
	if !isAssignee(c, actor) && !authz.CanManage(actor, dept) {
		return nil, apperrors.ErrPermissionDenied
	}

	status := constants.StatusCompleted
	patch := &Patch{
		Status:      &status,
		CompletedAt: &now,
	}
	if c.FirstResponseAt == nil {
		patch.FirstResponseAt = &now
	}
	return patch, nil
}

// Close — закрытие после завершения или наблюдения. COMPLETED формально
// финален, поэтому здесь терминальный guard не используется: close и
// start_follow_up — единственные разрешённые действия из COMPLETED.
func Close(c *entities.Consult, actor *entities.User, dept *entities.Department) (*Patch, error) {
	if c.Status != constants.StatusCompleted && c.Status != constants.StatusFollowUp {
		return nil, fmt.Errorf("%w: закрытие возможно только из COMPLETED или FOLLOW_UP, текущий статус %s",
			apperrors.ErrInvalidStateTransition, c.Status)
	}
	if actor.ID != c.RequesterID && !authz.CanManage(actor, dept) {
		return nil, apperrors.ErrPermissionDenied
	}

	status := constants.StatusClosed
	return &Patch{Status: &status}, nil
}

// StartFollowUp — перевод завершённой консультации в режим наблюдения
// (регулярного или по условию).
func StartFollowUp(c *entities.Consult, actor *entities.User, dept *entities.Department, kind string) (*Patch, error) {
	if c.Status != constants.StatusCompleted {
		return nil, fmt.Errorf("%w: наблюдение возможно только из COMPLETED, текущий статус %s",
			apperrors.ErrInvalidStateTransition, c.Status)
	}
	if kind != constants.FollowUpRegular && kind != constants.FollowUpConditional {
		return nil, apperrors.NewInvalidInputError("неизвестный вид наблюдения: %s", kind)
	}
	if !isAssignee(c, actor) && !authz.CanManage(actor, dept) {
		return nil, apperrors.ErrPermissionDenied
	}

	status := constants.StatusFollowUp
	return &Patch{
		Status:       &status,
		FollowUpKind: &kind,
	}, nil
}

func isAssignee(c *entities.Consult, actor *entities.User) bool {
	return actor != nil && c.AssignedToID != nil && *c.AssignedToID == actor.ID
}
