// Package health contiene el service para health checks.
package health

import (
	"context"
	"os"
	"time"

	"github.com/dropDatabas3/memberbridge/internal/observability/logger"
)

// Estados agregados de /readyz.
const (
	StatusReady       = "ready"
	StatusDegraded    = "degraded"
	StatusUnavailable = "unavailable"
)

// ComponentStatus es el estado de una dependencia.
type ComponentStatus struct {
	Status  string `json:"status"` // ok | error
	Message string `json:"message,omitempty"`
}

// HealthResponse es el cuerpo de /readyz.
type HealthResponse struct {
	Status     string                     `json:"status"` // ready | degraded | unavailable
	Components map[string]ComponentStatus `json:"components"`
	Timestamp  time.Time                  `json:"timestamp"`
	Version    string                     `json:"version,omitempty"`
}

// HealthService define las operaciones de health check.
type HealthService interface {
	Check(ctx context.Context) HealthResponse
}

// Checker es una dependencia a verificar. Critical = su fallo deja el servicio unavailable.
type Checker struct {
	Name     string
	Critical bool
	Check    func(ctx context.Context) error
}

// Deps contiene las dependencias inyectables para el health service.
type Deps struct {
	Checkers []Checker
	Timeout  time.Duration // por checker; default 2s
}

type healthService struct {
	checkers []Checker
	timeout  time.Duration
}

// NewHealthService crea un nuevo service de health check.
func NewHealthService(deps Deps) HealthService {
	t := deps.Timeout
	if t <= 0 {
		t = 2 * time.Second
	}
	return &healthService{checkers: deps.Checkers, timeout: t}
}

func (s *healthService) Check(ctx context.Context) HealthResponse {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("health"),
		logger.Op("Check"),
	)

	resp := HealthResponse{
		Status:     StatusReady,
		Components: make(map[string]ComponentStatus, len(s.checkers)),
		Timestamp:  time.Now().UTC(),
		Version:    os.Getenv("SERVICE_VERSION"),
	}

	for _, c := range s.checkers {
		cctx, cancel := context.WithTimeout(ctx, s.timeout)
		err := c.Check(cctx)
		cancel()

		if err == nil {
			resp.Components[c.Name] = ComponentStatus{Status: "ok"}
			continue
		}
		// El detalle queda en logs; la respuesta no expone errores internos.
		resp.Components[c.Name] = ComponentStatus{Status: "error", Message: "unavailable"}
		log.Warn("component unhealthy", logger.String("component", c.Name), logger.Err(err))
		switch {
		case c.Critical:
			resp.Status = StatusUnavailable
		case resp.Status == StatusReady:
			resp.Status = StatusDegraded
		}
	}
	return resp
}
