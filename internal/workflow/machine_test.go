package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"consult-system/internal/entities"
	"consult-system/pkg/constants"
	apperrors "consult-system/pkg/errors"
)

const (
	deptCardiologyID = uint64(10)
	deptSurgeryID    = uint64(20)
)

func ptrU64(v uint64) *uint64 { return &v }
func ptrBool(v bool) *bool    { return &v }

func makeConsult(status string) *entities.Consult {
	return &entities.Consult{
		ID:                     1,
		RequesterID:            100,
		RequestingDepartmentID: deptSurgeryID,
		TargetDepartmentID:     deptCardiologyID,
		Status:                 status,
		Urgency:                constants.UrgencyUrgent,
		Question:               "Пациент с болью в груди, нужна консультация кардиолога",
		DueAt:                  time.Now().Add(4 * time.Hour),
	}
}

func makeHead() *entities.User {
	return &entities.User{
		ID:           200,
		Fio:          "Руководитель департамента",
		DepartmentID: ptrU64(deptCardiologyID),
		IsHead:       ptrBool(true),
		IsActive:     true,
	}
}

func makeMember(id uint64) *entities.User {
	return &entities.User{
		ID:           id,
		Fio:          "Член департамента",
		DepartmentID: ptrU64(deptCardiologyID),
		IsActive:     true,
	}
}

func makeDept() *entities.Department {
	head := makeHead()
	return &entities.Department{
		ID:         deptCardiologyID,
		Name:       "Кардиология",
		HeadUserID: &head.ID,
	}
}

func TestAcknowledgeAndAssign(t *testing.T) {
	now := time.Now()

	t.Run("руководитель принимает и назначает из SUBMITTED", func(t *testing.T) {
		c := makeConsult(constants.StatusSubmitted)
		target := makeMember(201)

		patch, err := AcknowledgeAndAssign(c, makeHead(), makeDept(), target, now)
		require.NoError(t, err)

		patch.Apply(c)
		assert.Equal(t, constants.StatusInProgress, c.Status)
		assert.Equal(t, target.ID, *c.AssignedToID)
		assert.Equal(t, uint64(200), *c.AssignedByID)
		assert.Equal(t, uint64(200), *c.ReceivedByID)
		assert.Equal(t, constants.AssignmentManual, *c.AssignmentType)
		require.NotNil(t, c.ReceivedAt)
		require.NotNil(t, c.AssignedAt)
	})

	t.Run("делегат департамента может назначать", func(t *testing.T) {
		c := makeConsult(constants.StatusSubmitted)
		delegate := makeMember(202)
		dept := makeDept()
		dept.DelegatedReceiverID = &delegate.ID

		_, err := AcknowledgeAndAssign(c, delegate, dept, makeMember(201), now)
		assert.NoError(t, err)
	})

	t.Run("рядовой член без прав получает отказ", func(t *testing.T) {
		c := makeConsult(constants.StatusSubmitted)
		_, err := AcknowledgeAndAssign(c, makeMember(203), makeDept(), makeMember(201), now)
		assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	})

	t.Run("исполнитель из чужого департамента отклоняется", func(t *testing.T) {
		c := makeConsult(constants.StatusSubmitted)
		outsider := makeMember(204)
		outsider.DepartmentID = ptrU64(deptSurgeryID)

		_, err := AcknowledgeAndAssign(c, makeHead(), makeDept(), outsider, now)
		assert.ErrorIs(t, err, apperrors.ErrDepartmentMismatch)
	})

	t.Run("уже назначенная консультация отклоняется", func(t *testing.T) {
		c := makeConsult(constants.StatusInProgress)
		c.AssignedToID = ptrU64(201)

		_, err := AcknowledgeAndAssign(c, makeHead(), makeDept(), makeMember(205), now)
		assert.ErrorIs(t, err, apperrors.ErrInvalidStateTransition)
	})

	t.Run("неактивный актор получает отказ", func(t *testing.T) {
		c := makeConsult(constants.StatusSubmitted)
		head := makeHead()
		head.IsActive = false

		_, err := AcknowledgeAndAssign(c, head, makeDept(), makeMember(201), now)
		assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	})
}

func TestReassign(t *testing.T) {
	now := time.Now()

	t.Run("статус не меняется при переназначении", func(t *testing.T) {
		c := makeConsult(constants.StatusMoreInfoRequired)
		c.AssignedToID = ptrU64(201)

		patch, err := Reassign(c, makeHead(), makeDept(), makeMember(202), now)
		require.NoError(t, err)

		patch.Apply(c)
		assert.Equal(t, constants.StatusMoreInfoRequired, c.Status)
		assert.Equal(t, uint64(202), *c.AssignedToID)
	})

	t.Run("самоназначение разрешено", func(t *testing.T) {
		c := makeConsult(constants.StatusInProgress)
		c.AssignedToID = ptrU64(201)
		head := makeHead()

		patch, err := Reassign(c, head, makeDept(), head, now)
		require.NoError(t, err)
		assert.Equal(t, head.ID, *patch.AssignedToID)
	})

	t.Run("неназначенная консультация отклоняется", func(t *testing.T) {
		c := makeConsult(constants.StatusSubmitted)
		_, err := Reassign(c, makeHead(), makeDept(), makeMember(202), now)
		assert.ErrorIs(t, err, apperrors.ErrInvalidStateTransition)
	})
}

func TestAutoAssign(t *testing.T) {
	now := time.Now()

	t.Run("автоназначение подтверждает получение, но не начало работы", func(t *testing.T) {
		c := makeConsult(constants.StatusSubmitted)
		target := makeMember(201)

		patch, err := AutoAssign(c, target, now)
		require.NoError(t, err)

		patch.Apply(c)
		assert.Equal(t, constants.StatusAcknowledged, c.Status)
		assert.Equal(t, constants.AssignmentAuto, *c.AssignmentType)
		assert.Equal(t, constants.SystemActorID, *c.AssignedByID)
		assert.Equal(t, constants.SystemActorID, *c.ReceivedByID)
	})

	t.Run("уже назначенная отклоняется", func(t *testing.T) {
		c := makeConsult(constants.StatusInProgress)
		c.AssignedToID = ptrU64(201)

		_, err := AutoAssign(c, makeMember(202), now)
		assert.ErrorIs(t, err, apperrors.ErrInvalidStateTransition)
	})
}

func TestEscalate(t *testing.T) {
	now := time.Now()

	t.Run("ярус растёт, статус не меняется", func(t *testing.T) {
		c := makeConsult(constants.StatusInProgress)
		c.AssignedToID = ptrU64(201)

		patch, err := Escalate(c, 1, now)
		require.NoError(t, err)

		patch.Apply(c)
		assert.Equal(t, constants.StatusInProgress, c.Status)
		assert.Equal(t, 1, c.EscalationTier)
		require.NotNil(t, c.EscalatedAt)
	})

	t.Run("повторная эскалация того же яруса отклоняется", func(t *testing.T) {
		c := makeConsult(constants.StatusInProgress)
		c.EscalationTier = 2

		_, err := Escalate(c, 2, now)
		assert.ErrorIs(t, err, apperrors.ErrInvalidStateTransition)

		_, err = Escalate(c, 1, now)
		assert.ErrorIs(t, err, apperrors.ErrInvalidStateTransition)
	})

	t.Run("завершённая консультация не эскалируется", func(t *testing.T) {
		c := makeConsult(constants.StatusCompleted)
		_, err := Escalate(c, 1, now)
		assert.ErrorIs(t, err, apperrors.ErrInvalidStateTransition)
	})
}

func TestMoreInfoLoop(t *testing.T) {
	now := time.Now()

	t.Run("исполнитель запрашивает уточнение и возобновляет", func(t *testing.T) {
		c := makeConsult(constants.StatusInProgress)
		assignee := makeMember(201)
		c.AssignedToID = &assignee.ID

		patch, err := RequestMoreInfo(c, assignee, makeDept(), now)
		require.NoError(t, err)
		patch.Apply(c)
		assert.Equal(t, constants.StatusMoreInfoRequired, c.Status)
		require.NotNil(t, c.FirstResponseAt)

		patch, err = Resume(c, assignee, makeDept())
		require.NoError(t, err)
		patch.Apply(c)
		assert.Equal(t, constants.StatusInProgress, c.Status)
	})

	t.Run("запрос уточнения не из IN_PROGRESS отклоняется", func(t *testing.T) {
		c := makeConsult(constants.StatusSubmitted)
		_, err := RequestMoreInfo(c, makeMember(201), makeDept(), now)
		assert.ErrorIs(t, err, apperrors.ErrInvalidStateTransition)
	})

	t.Run("автор запроса не может запросить уточнение", func(t *testing.T) {
		c := makeConsult(constants.StatusInProgress)
		c.AssignedToID = ptrU64(201)
		requester := makeMember(100)
		requester.DepartmentID = ptrU64(deptSurgeryID)

		_, err := RequestMoreInfo(c, requester, makeDept(), now)
		assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	})
}

func TestAddNote(t *testing.T) {
	now := time.Now()

	t.Run("первая заметка исполнителя фиксирует первый ответ", func(t *testing.T) {
		c := makeConsult(constants.StatusInProgress)
		assignee := makeMember(201)
		c.AssignedToID = &assignee.ID

		patch, err := AddNote(c, assignee, makeDept(), now)
		require.NoError(t, err)
		require.NotNil(t, patch.FirstResponseAt)

		patch.Apply(c)
		patch, err = AddNote(c, assignee, makeDept(), now.Add(time.Minute))
		require.NoError(t, err)
		assert.Nil(t, patch.FirstResponseAt)
	})

	t.Run("заметка автора запроса не трогает первый ответ", func(t *testing.T) {
		c := makeConsult(constants.StatusInProgress)
		c.AssignedToID = ptrU64(201)
		requester := makeMember(100)
		requester.DepartmentID = ptrU64(deptSurgeryID)

		patch, err := AddNote(c, requester, makeDept(), now)
		require.NoError(t, err)
		assert.Nil(t, patch.FirstResponseAt)
	})

	t.Run("посторонний не может оставить заметку", func(t *testing.T) {
		c := makeConsult(constants.StatusInProgress)
		c.AssignedToID = ptrU64(201)

		_, err := AddNote(c, makeMember(999), makeDept(), now)
		assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	})
}

func TestCompleteCloseFollowUp(t *testing.T) {
	now := time.Now()

	t.Run("исполнитель завершает из IN_PROGRESS", func(t *testing.T) {
		c := makeConsult(constants.StatusInProgress)
		assignee := makeMember(201)
		c.AssignedToID = &assignee.ID

		patch, err := Complete(c, assignee, makeDept(), now)
		require.NoError(t, err)

		patch.Apply(c)
		assert.Equal(t, constants.StatusCompleted, c.Status)
		require.NotNil(t, c.CompletedAt)
		require.NotNil(t, c.FirstResponseAt)
	})

	t.Run("завершение возможно и из MORE_INFO_REQUIRED", func(t *testing.T) {
		c := makeConsult(constants.StatusMoreInfoRequired)
		assignee := makeMember(201)
		c.AssignedToID = &assignee.ID

		_, err := Complete(c, assignee, makeDept(), now)
		assert.NoError(t, err)
	})

	t.Run("автор запроса закрывает завершённую", func(t *testing.T) {
		c := makeConsult(constants.StatusCompleted)
		requester := makeMember(100)
		requester.DepartmentID = ptrU64(deptSurgeryID)

		patch, err := Close(c, requester, makeDept())
		require.NoError(t, err)
		patch.Apply(c)
		assert.Equal(t, constants.StatusClosed, c.Status)
	})

	t.Run("наблюдение начинается только из COMPLETED", func(t *testing.T) {
		c := makeConsult(constants.StatusCompleted)
		assignee := makeMember(201)
		c.AssignedToID = &assignee.ID

		patch, err := StartFollowUp(c, assignee, makeDept(), constants.FollowUpRegular)
		require.NoError(t, err)
		patch.Apply(c)
		assert.Equal(t, constants.StatusFollowUp, c.Status)
		assert.Equal(t, constants.FollowUpRegular, *c.FollowUpKind)

		patch, err = Close(c, assignee, makeDept())
		require.NoError(t, err)
		patch.Apply(c)
		assert.Equal(t, constants.StatusClosed, c.Status)
	})

	t.Run("неизвестный вид наблюдения отклоняется", func(t *testing.T) {
		c := makeConsult(constants.StatusCompleted)
		assignee := makeMember(201)
		c.AssignedToID = &assignee.ID

		_, err := StartFollowUp(c, assignee, makeDept(), "WEEKLY")
		require.Error(t, err)
		var inputErr *apperrors.InvalidInputError
		assert.ErrorAs(t, err, &inputErr)
	})

	t.Run("действия над закрытой консультацией отклоняются", func(t *testing.T) {
		c := makeConsult(constants.StatusClosed)
		c.AssignedToID = ptrU64(201)

		_, err := AddNote(c, makeMember(201), makeDept(), now)
		assert.ErrorIs(t, err, apperrors.ErrInvalidStateTransition)

		_, err = Close(c, makeHead(), makeDept())
		assert.ErrorIs(t, err, apperrors.ErrInvalidStateTransition)

		_, err = Reassign(c, makeHead(), makeDept(), makeMember(202), now)
		assert.ErrorIs(t, err, apperrors.ErrInvalidStateTransition)
	})
}
