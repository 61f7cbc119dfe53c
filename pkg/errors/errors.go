package errors

import "fmt"

var (
	// JWT и токены
	ErrInvalidSigningMethod = fmt.Errorf("неверный метод подписи токена")
	ErrInvalidToken         = fmt.Errorf("недопустимый токен")
	ErrTokenExpired         = fmt.Errorf("срок действия токена истёк")
	ErrTokenIsNotAccess     = fmt.Errorf("токен не является access-токеном")

	// Авторизация
	ErrEmptyAuthHeader   = fmt.Errorf("заголовок авторизации отсутствует")
	ErrInvalidAuthHeader = fmt.Errorf("неверный формат заголовка авторизации")
	ErrUserNotFound      = fmt.Errorf("пользователь не найден в контексте запроса")
	ErrInvalidCredentials = fmt.Errorf("неверный логин или пароль")

	// Рабочий процесс консультаций
	ErrPermissionDenied       = fmt.Errorf("недостаточно прав для управления консультациями департамента")
	ErrInvalidStateTransition = fmt.Errorf("действие неприменимо к текущему статусу консультации")
	ErrDepartmentMismatch     = fmt.Errorf("пользователь не принадлежит целевому департаменту")
	ErrConcurrencyConflict    = fmt.Errorf("консультация заблокирована другой операцией, повторите попытку")

	// Общие
	ErrNotFound   = fmt.Errorf("запись не найдена")
	ErrBadRequest = fmt.Errorf("неверный запрос")
)

// HttpError несёт код ответа и сообщение для пользователя отдельно
// от технической причины.
type HttpError struct {
	Code    int
	Message string
	Err     error
}

func (e *HttpError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *HttpError) Unwrap() error { return e.Err }

func NewHttpError(code int, message string, err error) *HttpError {
	return &HttpError{Code: code, Message: message, Err: err}
}

// Кастомные типы ошибок
type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string { return e.Message }

func NewInvalidInputError(format string, args ...interface{}) error {
	return &InvalidInputError{Message: fmt.Sprintf(format, args...)}
}
