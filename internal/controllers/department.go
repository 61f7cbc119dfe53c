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

type DepartmentController struct {
	service services.DepartmentServiceInterface
	logger  *zap.Logger
}

func NewDepartmentController(service services.DepartmentServiceInterface, logger *zap.Logger) *DepartmentController {
	return &DepartmentController{service: service, logger: logger}
}

func (c *DepartmentController) GetDepartments(ctx echo.Context) error {
	result, err := c.service.GetDepartments(ctx.Request().Context())
	if err != nil {
		c.logger.Error("не удалось получить департаменты", zap.Error(err))
		return utils.ErrorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, result, "Департаменты получены", http.StatusOK)
}

func (c *DepartmentController) UpdateDelegation(ctx echo.Context) error {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return utils.ErrorResponse(ctx, apperrors.NewInvalidInputError("неверный идентификатор департамента"))
	}

	var payload dto.UpdateDelegationDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err)
	}

	result, err := c.service.UpdateDelegation(ctx.Request().Context(), id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, result, "Делегирование обновлено", http.StatusOK)
}
