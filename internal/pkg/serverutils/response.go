package serverutils

import (
	"errors"

	"sales-forecast-client/internal/apperror"

	"github.com/gofiber/fiber/v2"
)

type Response[T any] struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

func SuccessResponse[T any](message string, data T) Response[T] {
	return Response[T]{
		Success: true,
		Code:    fiber.StatusOK,
		Message: message,
		Data:    data,
	}
}

func ErrorResponse(code int, message string) Response[any] {
	return Response[any]{
		Success: false,
		Code:    code,
		Message: message,
	}
}

// StatusFor maps an error kind to the bridge status code. Upstream 4xx
// rejections keep their status; everything else from upstream is a 502.
func StatusFor(err error) int {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		return fiber.StatusInternalServerError
	}

	switch appErr.Kind {
	case apperror.KindValidation:
		return fiber.StatusBadRequest
	case apperror.KindAuthExpired:
		return fiber.StatusUnauthorized
	case apperror.KindNetworkUnreachable:
		return fiber.StatusBadGateway
	default:
		if appErr.Status >= 400 && appErr.Status < 500 {
			return appErr.Status
		}
		return fiber.StatusBadGateway
	}
}

// Fail writes err as an error envelope. Only the user-safe message is sent.
func Fail(ctx *fiber.Ctx, err error) error {
	status := StatusFor(err)
	return ctx.Status(status).JSON(ErrorResponse(status, apperror.Message(err)))
}

// ErrorHandlerMiddleware turns errors returned by handlers into the JSON
// envelope.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Code, fiberErr.Message))
		}
		return Fail(ctx, err)
	}
}
