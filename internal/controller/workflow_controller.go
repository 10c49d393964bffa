package controller

import (
	"context"
	"io"

	"sales-forecast-client/internal/apperror"
	"sales-forecast-client/internal/dto"
	"sales-forecast-client/internal/mapper"
	"sales-forecast-client/internal/pkg/serverutils"
	"sales-forecast-client/internal/pkg/validation"
	"sales-forecast-client/internal/service"
	"sales-forecast-client/internal/workflow"

	"github.com/gofiber/fiber/v2"
)

// WorkflowEngine is the part of *workflow.State the bridge drives.
type WorkflowEngine interface {
	Snapshot() workflow.Snapshot
	RefreshStatus(ctx context.Context)
	Upload(ctx context.Context, fileName string, content []byte) (*dto.UploadResult, error)
	Train(ctx context.Context) (*dto.TrainResult, error)
	Predict(ctx context.Context, date, postalCode string) (*dto.PredictionResult, error)
	DeleteData(ctx context.Context) error
	Navigate(tab workflow.Tab) error
	LoadDashboard(ctx context.Context) (*workflow.Dashboard, error)
}

type IWorkflowController interface {
	RegisterRoutes(r fiber.Router)
	Health(ctx *fiber.Ctx) error
	Snapshot(ctx *fiber.Ctx) error
	Refresh(ctx *fiber.Ctx) error
	Upload(ctx *fiber.Ctx) error
	Train(ctx *fiber.Ctx) error
	Predict(ctx *fiber.Ctx) error
	DeleteData(ctx *fiber.Ctx) error
	Navigate(ctx *fiber.Ctx) error
	Dashboard(ctx *fiber.Ctx) error
}

type workflowController struct {
	engine   WorkflowEngine
	pipeline service.IPipelineService
	mapper   *mapper.WorkflowMapper
}

func NewWorkflowController(engine WorkflowEngine, pipeline service.IPipelineService) IWorkflowController {
	return &workflowController{
		engine:   engine,
		pipeline: pipeline,
		mapper:   mapper.NewWorkflowMapper(),
	}
}

func (c *workflowController) RegisterRoutes(r fiber.Router) {
	r.Get("/health", c.Health)

	h := r.Group("/workflow")
	h.Get("/", c.Snapshot)
	h.Post("/refresh", c.Refresh)
	h.Post("/upload", c.Upload)
	h.Post("/train", c.Train)
	h.Post("/predict", c.Predict)
	h.Delete("/data", c.DeleteData)
	h.Put("/tab", c.Navigate)
	h.Get("/dashboard", c.Dashboard)
}

// Health reports the bridge as up even when the backend is not.
func (c *workflowController) Health(ctx *fiber.Ctx) error {
	res := dto.HealthResponse{Bridge: "ok", Backend: "ok"}
	if _, err := c.pipeline.Health(ctx.UserContext()); err != nil {
		res.Backend = apperror.Message(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Health", res))
}

func (c *workflowController) Snapshot(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Workflow state", c.mapper.ToSnapshotResponse(c.engine.Snapshot())))
}

func (c *workflowController) Refresh(ctx *fiber.Ctx) error {
	c.engine.RefreshStatus(ctx.UserContext())
	return ctx.JSON(serverutils.SuccessResponse("Status refreshed", c.mapper.ToSnapshotResponse(c.engine.Snapshot())))
}

func (c *workflowController) Upload(ctx *fiber.Ctx) error {
	header, err := ctx.FormFile("file")
	if err != nil {
		return serverutils.Fail(ctx, apperror.Validation("please select a CSV file"))
	}
	file, err := header.Open()
	if err != nil {
		return serverutils.Fail(ctx, apperror.Validation("the uploaded file could not be read"))
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return serverutils.Fail(ctx, apperror.Validation("the uploaded file could not be read"))
	}

	res, err := c.engine.Upload(ctx.UserContext(), header.Filename, content)
	if err != nil {
		return serverutils.Fail(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse(res.Message, fiber.Map{
		"upload":   res,
		"workflow": c.mapper.ToSnapshotResponse(c.engine.Snapshot()),
	}))
}

func (c *workflowController) Train(ctx *fiber.Ctx) error {
	res, err := c.engine.Train(ctx.UserContext())
	if err != nil {
		return serverutils.Fail(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse(res.Message, fiber.Map{
		"training": res,
		"workflow": c.mapper.ToSnapshotResponse(c.engine.Snapshot()),
	}))
}

func (c *workflowController) Predict(ctx *fiber.Ctx) error {
	var req dto.PredictRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.Fail(ctx, apperror.Validation("invalid request body"))
	}

	res, err := c.engine.Predict(ctx.UserContext(), req.Date, req.PostalCode)
	if err != nil {
		return serverutils.Fail(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Prediction complete", fiber.Map{
		"prediction": res,
		"workflow":   c.mapper.ToSnapshotResponse(c.engine.Snapshot()),
	}))
}

func (c *workflowController) DeleteData(ctx *fiber.Ctx) error {
	if err := c.engine.DeleteData(ctx.UserContext()); err != nil {
		return serverutils.Fail(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Data deleted", c.mapper.ToSnapshotResponse(c.engine.Snapshot())))
}

func (c *workflowController) Navigate(ctx *fiber.Ctx) error {
	var req dto.NavigateRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.Fail(ctx, apperror.Validation("invalid request body"))
	}
	if err := validation.Struct(&req); err != nil {
		return serverutils.Fail(ctx, err)
	}

	tab, ok := workflow.ParseTab(req.Tab)
	if !ok {
		return serverutils.Fail(ctx, apperror.Validation("unknown tab %q", req.Tab))
	}
	if err := c.engine.Navigate(tab); err != nil {
		return serverutils.Fail(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Tab changed", c.mapper.ToSnapshotResponse(c.engine.Snapshot())))
}

func (c *workflowController) Dashboard(ctx *fiber.Ctx) error {
	res, err := c.engine.LoadDashboard(ctx.UserContext())
	if err != nil {
		return serverutils.Fail(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Dashboard", c.mapper.ToDashboardResponse(res)))
}
