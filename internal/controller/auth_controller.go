package controller

import (
	"context"

	"sales-forecast-client/internal/apperror"
	"sales-forecast-client/internal/dto"
	"sales-forecast-client/internal/pkg/serverutils"
	"sales-forecast-client/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SessionStarter is notified after a successful login or registration.
type SessionStarter interface {
	Start(ctx context.Context)
}

type IAuthController interface {
	RegisterRoutes(r fiber.Router)
	Register(ctx *fiber.Ctx) error
	Login(ctx *fiber.Ctx) error
	Logout(ctx *fiber.Ctx) error
	Me(ctx *fiber.Ctx) error
	UpdateMe(ctx *fiber.Ctx) error
}

type authController struct {
	service service.IAuthService
	session SessionStarter
}

func NewAuthController(service service.IAuthService, session SessionStarter) IAuthController {
	return &authController{service: service, session: session}
}

func (c *authController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/auth")
	h.Post("/register", c.Register)
	h.Post("/login", c.Login)
	h.Post("/logout", c.Logout)
	h.Get("/me", c.Me)
	h.Put("/me", c.UpdateMe)
}

func (c *authController) Register(ctx *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.Fail(ctx, apperror.Validation("invalid request body"))
	}

	user, err := c.service.Register(ctx.UserContext(), &req)
	if err != nil {
		return serverutils.Fail(ctx, err)
	}
	c.session.Start(ctx.UserContext())
	return ctx.JSON(serverutils.SuccessResponse("Registration successful", user))
}

func (c *authController) Login(ctx *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.Fail(ctx, apperror.Validation("invalid request body"))
	}

	user, err := c.service.Login(ctx.UserContext(), &req)
	if err != nil {
		return serverutils.Fail(ctx, err)
	}
	c.session.Start(ctx.UserContext())
	return ctx.JSON(serverutils.SuccessResponse("Login successful", user))
}

func (c *authController) Logout(ctx *fiber.Ctx) error {
	if err := c.service.Logout(ctx.UserContext()); err != nil {
		return serverutils.Fail(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Logged out", nil))
}

func (c *authController) Me(ctx *fiber.Ctx) error {
	user, err := c.service.CurrentUser(ctx.UserContext())
	if err != nil {
		return serverutils.Fail(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("User profile", user))
}

func (c *authController) UpdateMe(ctx *fiber.Ctx) error {
	var req dto.UserUpdateRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.Fail(ctx, apperror.Validation("invalid request body"))
	}

	user, err := c.service.UpdateUser(ctx.UserContext(), &req)
	if err != nil {
		return serverutils.Fail(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Profile updated", user))
}
