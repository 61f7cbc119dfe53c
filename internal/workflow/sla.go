package workflow

import (
	"time"

	"consult-system/internal/entities"
	"consult-system/pkg/constants"
)

// SLADefaults — глобальные сроки по уровням срочности, применяются когда
// у департамента не настроены собственные пороги.
type SLADefaults struct {
	Emergency time.Duration
	Urgent    time.Duration
	Routine   time.Duration
}

// DueAt вычисляет срок консультации из срочности и порогов целевого
// департамента. Вызывается ровно один раз — при создании; результат
// неизменяем (см. Consult.DueAt).
func DueAt(dept *entities.Department, urgency string, createdAt time.Time, defaults SLADefaults) time.Time {
	var deptMins int
	var fallback time.Duration

	switch urgency {
	case constants.UrgencyEmergency:
		deptMins, fallback = dept.SlaEmergencyMins, defaults.Emergency
	case constants.UrgencyUrgent:
		deptMins, fallback = dept.SlaUrgentMins, defaults.Urgent
	default:
		deptMins, fallback = dept.SlaRoutineMins, defaults.Routine
	}

	if deptMins > 0 {
		return createdAt.Add(time.Duration(deptMins) * time.Minute)
	}
	return createdAt.Add(fallback)
}

// ExpectedTier — какой ярус эскалации должен быть достигнут к моменту now.
// 0 до срока; после срока ярус растёт на единицу за каждый пройденный
// шаг step, но не выше maxTier. Чистая функция: повторные вызовы на одном
// и том же входе безопасны, продвижение яруса отдельно защищено переходом
// Escalate.
func ExpectedTier(dueAt, now time.Time, step time.Duration, maxTier int) int {
	if !now.After(dueAt) {
		return constants.EscalationTierNone
	}
	if step <= 0 {
		return 1
	}
	tier := 1 + int(now.Sub(dueAt)/step)
	if tier > maxTier {
		return maxTier
	}
	return tier
}
