package bootstrap

import (
	"context"
	"time"

	"sales-forecast-client/internal/config"
	"sales-forecast-client/internal/controller"
	"sales-forecast-client/internal/gateway"
	"sales-forecast-client/internal/pkg/logger"
	"sales-forecast-client/internal/service"
	"sales-forecast-client/internal/workflow"
	"sales-forecast-client/pkg/events"

	pktNats "sales-forecast-client/pkg/nats"

	"github.com/redis/go-redis/v9"
)

type Container struct {
	Logger logger.ILogger

	Gateway  *gateway.Gateway
	Auth     service.IAuthService
	Pipeline service.IPipelineService
	Workflow *workflow.State

	// Controllers
	AuthController     controller.IAuthController
	WorkflowController controller.IWorkflowController

	// Background Services (Exposed for main.go to run)
	RelayService service.IRelayService

	bus     *events.Bus
	natsPub *pktNats.Publisher
	rdb     *redis.Client
}

// Options tweak the container for the hosting binary.
type Options struct {
	// FileOnlyLogs keeps log output off the terminal, for interactive use.
	FileOnlyLogs bool
}

func NewContainer(cfg *config.Config, opts Options) *Container {
	// 1. Core Facades
	var sysLogger *logger.ZapLogger
	if opts.FileOnlyLogs {
		sysLogger = logger.NewFileOnlyLogger(cfg.App.LogFilePath)
	} else {
		sysLogger = logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	}

	// 2. Credential store
	var (
		store gateway.CredentialStore
		rdb   *redis.Client
	)
	if cfg.Credential.Store == "redis" {
		rdb = newRedisClient(cfg.App.RedisURL, sysLogger)
		store = gateway.NewRedisCredentialStore(rdb, cfg.Credential.Profile)
		sysLogger.Info("bootstrap", "Using Credential Store: REDIS", map[string]interface{}{"profile": cfg.Credential.Profile})
	} else {
		store = gateway.NewMemoryCredentialStore()
		sysLogger.Info("bootstrap", "Using Credential Store: MEMORY", nil)
	}

	// 3. Event Bus
	bus := events.NewBus(nil)

	var sinks []service.EventSink
	var natsPub *pktNats.Publisher
	if cfg.App.NatsEnabled {
		pub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			sysLogger.Warn("bootstrap", "Failed to connect to NATS Publisher", map[string]interface{}{"error": err.Error()})
		} else {
			natsPub = pub
			sinks = append(sinks, natsPub)
		}
	}

	// 4. Services
	gw := gateway.New(cfg.Backend.BaseURL, cfg.Backend.Timeout, store, sysLogger)
	pipelineService := service.NewPipelineService(gw)
	authService := service.NewAuthService(gw, sysLogger)
	relayService := service.NewRelayService(bus, sysLogger, sinks...)

	state := workflow.New(pipelineService, sysLogger, bus, workflow.Options{
		ReassertDelay:         cfg.Workflow.ResetReassertDelay,
		PredictionHorizonDays: cfg.Workflow.PredictionHorizonDays,
		HistoryLimit:          cfg.Workflow.HistoryLimit,
	})
	// Logout and forced logout after a 401 both drop the projection.
	authService.OnLogout(state.Reset)

	return &Container{
		Logger:   sysLogger,
		Gateway:  gw,
		Auth:     authService,
		Pipeline: pipelineService,
		Workflow: state,

		AuthController:     controller.NewAuthController(authService, state),
		WorkflowController: controller.NewWorkflowController(state, pipelineService),

		RelayService: relayService,

		bus:     bus,
		natsPub: natsPub,
		rdb:     rdb,
	}
}

// Close waits for background reconciliation and releases connections.
func (c *Container) Close() {
	done := make(chan struct{})
	go func() {
		c.Workflow.WaitIdle()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		c.Logger.Warn("bootstrap", "Background reconciliation still running at shutdown", nil)
	}

	if err := c.bus.Close(); err != nil {
		c.Logger.Warn("bootstrap", "Failed to close event bus", map[string]interface{}{"error": err.Error()})
	}
	if c.natsPub != nil {
		c.natsPub.Close()
	}
	if c.rdb != nil {
		_ = c.rdb.Close()
	}
	_ = c.Logger.Sync()
}

func newRedisClient(url string, log logger.ILogger) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Warn("bootstrap", "Failed to parse Redis URL, using direct Addr", map[string]interface{}{"error": err.Error()})
		opt = &redis.Options{
			Addr: url,
		}
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Warn("bootstrap", "Failed to connect to Redis", map[string]interface{}{"error": err.Error()})
	}
	return rdb
}
