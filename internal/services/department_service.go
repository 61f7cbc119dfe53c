package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"consult-system/internal/dto"
	"consult-system/internal/entities"
	"consult-system/internal/repositories"
	apperrors "consult-system/pkg/errors"
	"consult-system/pkg/utils"
)

type DepartmentServiceInterface interface {
	GetDepartments(ctx context.Context) ([]dto.DepartmentResponseDTO, error)
	UpdateDelegation(ctx context.Context, departmentID uint64, d dto.UpdateDelegationDTO) (*dto.DepartmentResponseDTO, error)
}

type DepartmentService struct {
	deptRepo repositories.DepartmentRepositoryInterface
	userRepo repositories.UserRepositoryInterface
	logger   *zap.Logger
}

func NewDepartmentService(
	deptRepo repositories.DepartmentRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	logger *zap.Logger,
) DepartmentServiceInterface {
	return &DepartmentService{deptRepo: deptRepo, userRepo: userRepo, logger: logger}
}

func (s *DepartmentService) GetDepartments(ctx context.Context) ([]dto.DepartmentResponseDTO, error) {
	departments, err := s.deptRepo.GetDepartments(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]dto.DepartmentResponseDTO, 0, len(departments))
	for i := range departments {
		result = append(result, toDepartmentDTO(&departments[i]))
	}
	return result, nil
}

// UpdateDelegation — настройка делегирования и политики маршрутизации.
// Менять её может только руководитель самого департамента: делегирование —
// передача его собственных полномочий, а не полномочий делегата.
func (s *DepartmentService) UpdateDelegation(ctx context.Context, departmentID uint64, d dto.UpdateDelegationDTO) (*dto.DepartmentResponseDTO, error) {
	actorID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	actor, err := s.userRepo.FindUser(ctx, nil, actorID)
	if err != nil {
		return nil, err
	}

	dept, err := s.deptRepo.FindDepartment(ctx, nil, departmentID)
	if err != nil {
		return nil, err
	}

	isHead := dept.HeadUserID != nil && *dept.HeadUserID == actor.ID
	if !isHead && actor.IsHead != nil && *actor.IsHead &&
		actor.DepartmentID != nil && *actor.DepartmentID == dept.ID {
		isHead = true
	}
	if !actor.IsActive || !isHead {
		return nil, apperrors.ErrPermissionDenied
	}

	if d.DelegatedReceiverID != nil {
		delegate, err := s.userRepo.FindUser(ctx, nil, *d.DelegatedReceiverID)
		if err != nil {
			return nil, fmt.Errorf("делегат: %w", err)
		}
		if !delegate.IsActive || delegate.DepartmentID == nil || *delegate.DepartmentID != dept.ID {
			return nil, fmt.Errorf("%w: делегат должен быть действующим членом департамента", apperrors.ErrDepartmentMismatch)
		}
	}

	updated, err := s.deptRepo.UpdateDelegation(ctx, departmentID, d)
	if err != nil {
		return nil, err
	}

	s.logger.Info("делегирование департамента обновлено",
		zap.Uint64("department_id", departmentID),
		zap.Uint64("actor_id", actor.ID),
	)
	result := toDepartmentDTO(updated)
	return &result, nil
}

func toDepartmentDTO(d *entities.Department) dto.DepartmentResponseDTO {
	return dto.DepartmentResponseDTO{
		ID:                  d.ID,
		Name:                d.Name,
		HeadUserID:          d.HeadUserID,
		DelegatedReceiverID: d.DelegatedReceiverID,
		RoutingPolicy:       d.RoutingPolicy,
		AutoRouteOnCreate:   d.AutoRouteOnCreate,
	}
}
