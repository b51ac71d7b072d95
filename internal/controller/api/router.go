package api

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/shortfactory/shortfactory/internal/controller/api/handlers"
	"github.com/shortfactory/shortfactory/internal/core/event"
	"github.com/shortfactory/shortfactory/internal/core/service"
	"github.com/shortfactory/shortfactory/internal/database"
)

type RouterConfig struct {
	Svc   *service.WorkflowService
	Store database.Store
	Bus   event.Bus
}

func SetupRouter(e *echo.Echo, cfg RouterConfig) {
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	v1 := e.Group("/api/v1")
	config := huma.DefaultConfig("ShortFactory API", "1.0.0")
	config.Servers = []*huma.Server{{URL: "/api/v1"}}
	config.Info.Description = "Automated short-form video generation pipeline"

	api := humaecho.NewWithGroup(e, v1, config)

	workflowsHandler := handlers.NewWorkflowsHandler(cfg.Svc, cfg.Store)
	huma.Register(api, huma.Operation{
		OperationID:   "workflows-execute",
		Method:        http.MethodPost,
		Path:          "/workflows",
		Summary:       "Run a full topic-to-video workflow",
		Tags:          []string{"Workflows"},
		DefaultStatus: http.StatusCreated,
	}, workflowsHandler.Execute)

	huma.Register(api, huma.Operation{
		OperationID: "workflows-list",
		Method:      http.MethodGet,
		Path:        "/workflows",
		Summary:     "List workflow jobs",
		Tags:        []string{"Workflows"},
	}, workflowsHandler.List)

	huma.Register(api, huma.Operation{
		OperationID: "workflows-stats",
		Method:      http.MethodGet,
		Path:        "/workflows/stats",
		Summary:     "Aggregate job counts by status",
		Tags:        []string{"Workflows"},
	}, workflowsHandler.Stats)

	healthHandler := handlers.NewHealthHandler(cfg.Svc)
	huma.Register(api, huma.Operation{
		OperationID: "workflows-health",
		Method:      http.MethodGet,
		Path:        "/workflows/health",
		Summary:     "Probe collaborating services",
		Tags:        []string{"Workflows"},
	}, healthHandler.Check)

	huma.Register(api, huma.Operation{
		OperationID: "workflows-get",
		Method:      http.MethodGet,
		Path:        "/workflows/{id}",
		Summary:     "Get a workflow job",
		Tags:        []string{"Workflows"},
	}, workflowsHandler.Get)

	huma.Register(api, huma.Operation{
		OperationID:   "workflows-retry",
		Method:        http.MethodPost,
		Path:          "/workflows/{id}/retry",
		Summary:       "Restart a failed workflow as a new run",
		Tags:          []string{"Workflows"},
		DefaultStatus: http.StatusCreated,
	}, workflowsHandler.Retry)

	huma.Register(api, huma.Operation{
		OperationID:   "steps-script",
		Method:        http.MethodPost,
		Path:          "/workflows/steps/script",
		Summary:       "Run only the script-generation stage",
		Tags:          []string{"Steps"},
		DefaultStatus: http.StatusCreated,
	}, workflowsHandler.StepScript)

	huma.Register(api, huma.Operation{
		OperationID: "steps-video",
		Method:      http.MethodPost,
		Path:        "/workflows/{id}/steps/video",
		Summary:     "Run only the video-assembly stage",
		Tags:        []string{"Steps"},
	}, workflowsHandler.StepVideo)

	huma.Register(api, huma.Operation{
		OperationID: "steps-finalize",
		Method:      http.MethodPost,
		Path:        "/workflows/{id}/steps/finalize",
		Summary:     "Run only the finalization stage",
		Tags:        []string{"Steps"},
	}, workflowsHandler.StepFinalize)

	scriptsHandler := handlers.NewScriptsHandler(cfg.Store)
	huma.Register(api, huma.Operation{
		OperationID: "scripts-list",
		Method:      http.MethodGet,
		Path:        "/scripts",
		Summary:     "List generated scripts",
		Tags:        []string{"Scripts"},
	}, scriptsHandler.List)

	huma.Register(api, huma.Operation{
		OperationID: "scripts-get",
		Method:      http.MethodGet,
		Path:        "/scripts/{id}",
		Summary:     "Get a generated script",
		Tags:        []string{"Scripts"},
	}, scriptsHandler.Get)

	// SSE stream for live dashboards, outside the OpenAPI surface.
	e.GET("/api/v1/events", handlers.Events(cfg.Bus))
}
