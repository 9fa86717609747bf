package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

type HealthController struct {
	service string
	checks  map[string]HealthCheck
}

func NewHealthController(service string, checks map[string]HealthCheck) *HealthController {
	return &HealthController{service: service, checks: checks}
}

// Health handles GET /health. Any failing check turns the response into a 503.
func (hc *HealthController) Health(ctx *gin.Context) {
	reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(hc.checks))
	for name, check := range hc.checks {
		if err := check(reqCtx); err != nil {
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	body := gin.H{"status": "ok", "service": hc.service, "dependencies": deps}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	ctx.JSON(status, body)
}
