package utils

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "consult-system/pkg/errors"
)

type HttpResponse struct {
	Status  bool        `json:"status"`
	Body    interface{} `json:"body,omitempty"`
	Message string      `json:"message"`
}

// errorStatusCodes — соответствие доменных ошибок HTTP-кодам.
// ErrConcurrencyConflict отдаём как 409: клиенту безопасно повторить запрос.
var errorStatusCodes = []struct {
	err  error
	code int
}{
	{apperrors.ErrNotFound, http.StatusNotFound},
	{apperrors.ErrPermissionDenied, http.StatusForbidden},
	{apperrors.ErrInvalidStateTransition, http.StatusConflict},
	{apperrors.ErrDepartmentMismatch, http.StatusUnprocessableEntity},
	{apperrors.ErrConcurrencyConflict, http.StatusConflict},
	{apperrors.ErrEmptyAuthHeader, http.StatusUnauthorized},
	{apperrors.ErrInvalidAuthHeader, http.StatusUnauthorized},
	{apperrors.ErrInvalidToken, http.StatusUnauthorized},
	{apperrors.ErrTokenExpired, http.StatusUnauthorized},
	{apperrors.ErrTokenIsNotAccess, http.StatusUnauthorized},
	{apperrors.ErrUserNotFound, http.StatusUnauthorized},
	{apperrors.ErrInvalidCredentials, http.StatusUnauthorized},
	{apperrors.ErrBadRequest, http.StatusBadRequest},
}

func SuccessResponse(ctx echo.Context, body interface{}, message string, code int) error {
	return ctx.JSON(code, &HttpResponse{
		Status:  true,
		Body:    body,
		Message: message,
	})
}

func ErrorResponse(ctx echo.Context, err error) error {
	message := err.Error()
	code := http.StatusInternalServerError

	var httpErr *apperrors.HttpError
	var inputErr *apperrors.InvalidInputError

	switch {
	case errors.As(err, &httpErr):
		code = httpErr.Code
		message = httpErr.Message
	case errors.As(err, &inputErr):
		code = http.StatusBadRequest
		message = inputErr.Message
	default:
		for _, m := range errorStatusCodes {
			if errors.Is(err, m.err) {
				code = m.code
				message = m.err.Error()
				break
			}
		}
	}

	return ctx.JSON(code, &HttpResponse{
		Status:  false,
		Body:    struct{}{},
		Message: message,
	})
}
