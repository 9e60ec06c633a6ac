package services

import (
	"context"

	"gorm.io/gorm"

	"portfolio/internal/database"
	"portfolio/internal/metrics"
)

// HealthResult is the body of GET /health
type HealthResult struct {
	Status   string `json:"status"`
	Service  string `json:"service"`
	Version  string `json:"version"`
	Database string `json:"database"`
	Mail     string `json:"mail,omitempty"`
}

// HealthService implements the health service
type HealthService struct {
	db      *gorm.DB
	breaker *BreakerTransport
	name    string
	version string
}

// NewHealthService creates a new health service. breaker may be nil.
func NewHealthService(db *gorm.DB, breaker *BreakerTransport, name, version string) *HealthService {
	return &HealthService{db: db, breaker: breaker, name: name, version: version}
}

// Check pings the database and reports the mail breaker state. The service
// is unhealthy only when the database is unreachable.
func (s *HealthService) Check(ctx context.Context) *HealthResult {
	res := &HealthResult{Status: "healthy", Service: s.name, Version: s.version, Database: "ok"}

	if err := database.HealthCheck(s.db); err != nil {
		res.Status = "unhealthy"
		res.Database = err.Error()
	} else if stats, err := database.GetStats(s.db); err == nil {
		metrics.UpdateDBConnections(stats.InUse, stats.Idle)
	}
	if s.breaker != nil {
		res.Mail = s.breaker.State()
	}
	return res
}
