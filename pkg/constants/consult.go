package constants

// --- СРОЧНОСТЬ ---
const (
	UrgencyEmergency = "EMERGENCY"
	UrgencyUrgent    = "URGENT"
	UrgencyRoutine   = "ROUTINE"
)

var Urgencies = []string{UrgencyEmergency, UrgencyUrgent, UrgencyRoutine}

// --- ТИП НАЗНАЧЕНИЯ ---
const (
	AssignmentManual = "MANUAL"
	AssignmentAuto   = "AUTO"
)

// --- ВИДЫ НАБЛЮДЕНИЯ ПОСЛЕ ЗАВЕРШЕНИЯ ---
const (
	FollowUpRegular     = "REGULAR"
	FollowUpConditional = "CONDITIONAL"
)

// SystemActorID — зарезервированный идентификатор системного актора.
// Последовательности users начинаются с 1, поэтому 0 никогда не
// совпадёт с реальной учётной записью.
const SystemActorID uint64 = 0

const SystemActorName = "system"

// --- ПОЛИТИКИ АВТОМАТИЧЕСКОЙ МАРШРУТИЗАЦИИ ---
const (
	RoutingHierarchy  = "HIERARCHY"
	RoutingRoundRobin = "ROUND_ROBIN"
)

// Эскалация: ярус 0 означает "ещё не эскалировалась".
const EscalationTierNone = 0
