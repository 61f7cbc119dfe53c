package controllers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"consult-system/internal/dto"
	"consult-system/internal/services"
	apperrors "consult-system/pkg/errors"
	"consult-system/pkg/utils"
)

type ConsultController struct {
	service services.ConsultServiceInterface
	logger  *zap.Logger
}

func NewConsultController(service services.ConsultServiceInterface, logger *zap.Logger) *ConsultController {
	return &ConsultController{service: service, logger: logger}
}

func (c *ConsultController) consultID(ctx echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return 0, apperrors.NewInvalidInputError("неверный идентификатор консультации")
	}
	return id, nil
}

func (c *ConsultController) CreateConsult(ctx echo.Context) error {
	var payload dto.CreateConsultDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err)
	}

	result, err := c.service.CreateConsult(ctx.Request().Context(), payload)
	if err != nil {
		c.logger.Error("не удалось создать консультацию", zap.Error(err))
		return utils.ErrorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, result, "Консультация создана", http.StatusCreated)
}

func (c *ConsultController) GetConsults(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())
	consults, total, err := c.service.GetConsults(ctx.Request().Context(), filter)
	if err != nil {
		c.logger.Error("не удалось получить список консультаций", zap.Error(err))
		return utils.ErrorResponse(ctx, err)
	}
	body := map[string]interface{}{
		"list":  consults,
		"total": total,
	}
	return utils.SuccessResponse(ctx, body, "Список консультаций получен", http.StatusOK)
}

func (c *ConsultController) FindConsult(ctx echo.Context) error {
	id, err := c.consultID(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	result, err := c.service.FindConsult(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, result, "Консультация получена", http.StatusOK)
}

func (c *ConsultController) GetAuditTrail(ctx echo.Context) error {
	id, err := c.consultID(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	result, err := c.service.GetAuditTrail(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, result, "Журнал аудита получен", http.StatusOK)
}

func (c *ConsultController) GetNotes(ctx echo.Context) error {
	id, err := c.consultID(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	result, err := c.service.GetNotes(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, result, "Заметки получены", http.StatusOK)
}

func (c *ConsultController) AcknowledgeAndAssign(ctx echo.Context) error {
	id, err := c.consultID(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	var payload dto.AcknowledgeAndAssignDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err)
	}

	result, err := c.service.AcknowledgeAndAssign(ctx.Request().Context(), id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, result, "Консультация принята и назначена", http.StatusOK)
}

func (c *ConsultController) Reassign(ctx echo.Context) error {
	id, err := c.consultID(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	var payload dto.ReassignDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err)
	}

	result, err := c.service.Reassign(ctx.Request().Context(), id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, result, "Консультация переназначена", http.StatusOK)
}

func (c *ConsultController) RequestMoreInfo(ctx echo.Context) error {
	id, err := c.consultID(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	var payload dto.RequestMoreInfoDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err)
	}

	result, err := c.service.RequestMoreInfo(ctx.Request().Context(), id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, result, "Запрошено уточнение", http.StatusOK)
}

func (c *ConsultController) Resume(ctx echo.Context) error {
	id, err := c.consultID(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	result, err := c.service.Resume(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, result, "Работа возобновлена", http.StatusOK)
}

func (c *ConsultController) AddNote(ctx echo.Context) error {
	id, err := c.consultID(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	var payload dto.AddNoteDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err)
	}

	result, err := c.service.AddNote(ctx.Request().Context(), id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, result, "Заметка добавлена", http.StatusOK)
}

func (c *ConsultController) Complete(ctx echo.Context) error {
	id, err := c.consultID(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	var payload dto.CompleteConsultDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err)
	}

	result, err := c.service.Complete(ctx.Request().Context(), id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, result, "Консультация завершена", http.StatusOK)
}

func (c *ConsultController) Close(ctx echo.Context) error {
	id, err := c.consultID(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	result, err := c.service.Close(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, result, "Консультация закрыта", http.StatusOK)
}

func (c *ConsultController) StartFollowUp(ctx echo.Context) error {
	id, err := c.consultID(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	var payload dto.StartFollowUpDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err)
	}

	result, err := c.service.StartFollowUp(ctx.Request().Context(), id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, result, "Начато наблюдение", http.StatusOK)
}
