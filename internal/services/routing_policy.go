package services

import (
	"context"
	"fmt"

	"consult-system/internal/entities"
	"consult-system/internal/repositories"
	"consult-system/pkg/constants"
	apperrors "consult-system/pkg/errors"
)

// RoutingPolicyInterface выбирает исполнителя из кандидатов департамента
// при автоматическом назначении. Политика задаётся в настройках
// департамента (departments.routing_policy).
type RoutingPolicyInterface interface {
	Name() string
	Pick(ctx context.Context, dept *entities.Department, candidates []entities.User) (*entities.User, error)
}

// RoutingRegistry сопоставляет код политики с реализацией; неизвестный код
// деградирует к иерархической политике.
type RoutingRegistry struct {
	policies map[string]RoutingPolicyInterface
	fallback RoutingPolicyInterface
}

func NewRoutingRegistry(policies ...RoutingPolicyInterface) *RoutingRegistry {
	r := &RoutingRegistry{policies: make(map[string]RoutingPolicyInterface, len(policies))}
	for _, p := range policies {
		r.policies[p.Name()] = p
		if p.Name() == constants.RoutingHierarchy {
			r.fallback = p
		}
	}
	if r.fallback == nil && len(policies) > 0 {
		r.fallback = policies[0]
	}
	return r
}

func (r *RoutingRegistry) Resolve(code string) RoutingPolicyInterface {
	if p, ok := r.policies[code]; ok {
		return p
	}
	return r.fallback
}

// HierarchyPolicy — назначение по иерархии: руководитель, затем делегат,
// затем любой с правом управления, затем первый кандидат.
type HierarchyPolicy struct{}

func NewHierarchyPolicy() RoutingPolicyInterface {
	return &HierarchyPolicy{}
}

func (p *HierarchyPolicy) Name() string {
	return constants.RoutingHierarchy
}

func (p *HierarchyPolicy) Pick(ctx context.Context, dept *entities.Department, candidates []entities.User) (*entities.User, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: в департаменте %d нет действующих кандидатов", apperrors.ErrNotFound, dept.ID)
	}

	byID := make(map[uint64]*entities.User, len(candidates))
	for i := range candidates {
		byID[candidates[i].ID] = &candidates[i]
	}

	if dept.HeadUserID != nil {
		if u, ok := byID[*dept.HeadUserID]; ok {
			return u, nil
		}
	}
	if dept.DelegatedReceiverID != nil {
		if u, ok := byID[*dept.DelegatedReceiverID]; ok {
			return u, nil
		}
	}
	for i := range candidates {
		if candidates[i].CanManageConsults {
			return &candidates[i], nil
		}
	}
	return &candidates[0], nil
}

// RoundRobinPolicy — циклический выбор. Счётчик живёт в Redis (INCR),
// поэтому распределение корректно и при нескольких экземплярах сервиса.
type RoundRobinPolicy struct {
	cache repositories.CacheRepositoryInterface
}

func NewRoundRobinPolicy(cache repositories.CacheRepositoryInterface) RoutingPolicyInterface {
	return &RoundRobinPolicy{cache: cache}
}

func (p *RoundRobinPolicy) Name() string {
	return constants.RoutingRoundRobin
}

func (p *RoundRobinPolicy) Pick(ctx context.Context, dept *entities.Department, candidates []entities.User) (*entities.User, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: в департаменте %d нет действующих кандидатов", apperrors.ErrNotFound, dept.ID)
	}

	counter, err := p.cache.Incr(ctx, fmt.Sprintf("consults:rr:department:%d", dept.ID))
	if err != nil {
		return nil, fmt.Errorf("ошибка счётчика round-robin: %w", err)
	}
	idx := int((counter - 1) % int64(len(candidates)))
	if idx < 0 {
		idx = 0
	}
	return &candidates[idx], nil
}
