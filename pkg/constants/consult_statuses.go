package constants

// --- СТАТУСЫ КОНСУЛЬТАЦИЙ (Совпадает с кодами в БД) ---
const (
	StatusSubmitted        = "SUBMITTED"
	StatusAcknowledged     = "ACKNOWLEDGED"
	StatusInProgress       = "IN_PROGRESS"
	StatusMoreInfoRequired = "MORE_INFO_REQUIRED"
	StatusCompleted        = "COMPLETED"
	StatusFollowUp         = "FOLLOW_UP"
	StatusClosed           = "CLOSED"
)

// Финальные статусы: никакое действие над ними больше невозможно.
// COMPLETED финален для рабочего процесса, но из него ещё разрешены
// close и start_follow_up (см. workflow).
var TerminalStatuses = []string{
	StatusCompleted,
	StatusClosed,
}

func IsTerminalStatus(code string) bool {
	for _, s := range TerminalStatuses {
		if s == code {
			return true
		}
	}
	return false
}

// Открытые статусы — участвуют в выборке планировщика эскалаций.
var OpenStatuses = []string{
	StatusSubmitted,
	StatusAcknowledged,
	StatusInProgress,
	StatusMoreInfoRequired,
}
