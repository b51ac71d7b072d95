package handlers

import (
	"context"

	"github.com/shortfactory/shortfactory/internal/core/service"
)

type HealthHandler struct {
	svc *service.WorkflowService
}

func NewHealthHandler(svc *service.WorkflowService) *HealthHandler {
	return &HealthHandler{svc: svc}
}

type ServiceHealthOutput struct {
	Body service.HealthStatus
}

// Check probes the collaborating services. It always answers 200; callers
// inspect the per-service booleans.
func (h *HealthHandler) Check(ctx context.Context, _ *struct{}) (*ServiceHealthOutput, error) {
	status := h.svc.HealthCheck(ctx)
	return &ServiceHealthOutput{Body: status}, nil
}
