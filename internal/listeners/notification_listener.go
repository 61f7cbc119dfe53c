package listeners

import (
	"context"
	"fmt"

	"consult-system/internal/events"
	"consult-system/internal/services"
	"consult-system/pkg/eventbus"
)

// NotificationListener связывает шину событий с сервисом уведомлений.
// Слушатель вызывается шиной в отдельной горутине уже после коммита
// транзакции перехода, поэтому сбой доставки никогда не откатывает переход.
type NotificationListener struct {
	notifications services.NotificationServiceInterface
}

func NewNotificationListener(notifications services.NotificationServiceInterface) *NotificationListener {
	return &NotificationListener{notifications: notifications}
}

// Register подписывает слушателя на переходы консультаций.
func (l *NotificationListener) Register(bus *eventbus.Bus) {
	bus.Subscribe(events.ConsultTransitionEventName, l.handle)
}

func (l *NotificationListener) handle(ctx context.Context, event eventbus.Event) error {
	e, ok := event.(events.ConsultTransitionEvent)
	if !ok {
		return fmt.Errorf("неожиданный тип события: %T", event)
	}
	return l.notifications.Notify(ctx, e)
}
