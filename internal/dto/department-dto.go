package dto

type UpdateDelegationDTO struct {
	DelegatedReceiverID *uint64 `json:"delegated_receiver_id,omitempty" validate:"omitempty,gt=0"`
	ClearDelegation     bool    `json:"clear_delegation,omitempty"`
	RoutingPolicy       *string `json:"routing_policy,omitempty" validate:"omitempty,oneof=HIERARCHY ROUND_ROBIN"`
}

type DepartmentResponseDTO struct {
	ID                  uint64  `json:"id"`
	Name                string  `json:"name"`
	HeadUserID          *uint64 `json:"head_user_id,omitempty"`
	DelegatedReceiverID *uint64 `json:"delegated_receiver_id,omitempty"`
	RoutingPolicy       string  `json:"routing_policy"`
	AutoRouteOnCreate   bool    `json:"auto_route_on_create"`
}
