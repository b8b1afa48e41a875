package monitoring

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/conneroisu/knygynas/internal/logging"
	"github.com/conneroisu/knygynas/internal/store"
)

// HealthStatus represents the health status of a component
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
	HealthStatusDegraded  HealthStatus = "degraded"
)

// HealthCheck is the result of a single check.
type HealthCheck struct {
	Name     string                 `json:"name"`
	Status   HealthStatus           `json:"status"`
	Message  string                 `json:"message,omitempty"`
	Duration time.Duration          `json:"duration"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	Critical bool                   `json:"critical"`
}

// HealthChecker defines the interface for health check functions
type HealthChecker interface {
	Check(ctx context.Context) HealthCheck
	Name() string
	IsCritical() bool
}

// HealthCheckFunc is a function that implements HealthChecker
type HealthCheckFunc struct {
	name     string
	checkFn  func(ctx context.Context) HealthCheck
	critical bool
}

// Check executes the health check function
func (h *HealthCheckFunc) Check(ctx context.Context) HealthCheck {
	return h.checkFn(ctx)
}

// Name returns the health check name
func (h *HealthCheckFunc) Name() string {
	return h.name
}

// IsCritical returns whether this check is critical
func (h *HealthCheckFunc) IsCritical() bool {
	return h.critical
}

// NewHealthCheckFunc creates a new health check function
func NewHealthCheckFunc(
	name string,
	critical bool,
	checkFn func(ctx context.Context) HealthCheck,
) *HealthCheckFunc {
	return &HealthCheckFunc{
		name:     name,
		checkFn:  checkFn,
		critical: critical,
	}
}

// HealthMonitor runs the registered checks on demand.
type HealthMonitor struct {
	checks  []HealthChecker
	mutex   sync.RWMutex
	logger  logging.Logger
	timeout time.Duration
	version string
	started time.Time
}

// HealthResponse represents the overall health response
type HealthResponse struct {
	Status    HealthStatus           `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version,omitempty"`
	Uptime    string                 `json:"uptime"`
	Checks    map[string]HealthCheck `json:"checks"`
	GoVersion string                 `json:"go_version"`
}

// NewHealthMonitor creates a new health monitor
func NewHealthMonitor(version string, logger logging.Logger) *HealthMonitor {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &HealthMonitor{
		logger:  logger.WithComponent("health_monitor"),
		timeout: 5 * time.Second,
		version: version,
		started: time.Now(),
	}
}

// RegisterCheck registers a health check
func (hm *HealthMonitor) RegisterCheck(checker HealthChecker) {
	hm.mutex.Lock()
	defer hm.mutex.Unlock()
	hm.checks = append(hm.checks, checker)
}

// Check runs every check concurrently and aggregates the results.
func (hm *HealthMonitor) Check(ctx context.Context) HealthResponse {
	hm.mutex.RLock()
	checks := make([]HealthChecker, len(hm.checks))
	copy(checks, hm.checks)
	hm.mutex.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, hm.timeout)
	defer cancel()

	results := make([]HealthCheck, len(checks))
	var wg sync.WaitGroup
	for i, checker := range checks {
		wg.Add(1)
		go func(i int, checker HealthChecker) {
			defer wg.Done()

			start := time.Now()
			result := checker.Check(ctx)
			result.Name = checker.Name()
			result.Critical = checker.IsCritical()
			result.Duration = time.Since(start)
			results[i] = result
		}(i, checker)
	}
	wg.Wait()

	byName := make(map[string]HealthCheck, len(results))
	for _, result := range results {
		byName[result.Name] = result
		if result.Status != HealthStatusHealthy {
			hm.logger.Warn(ctx, nil, "Health check failed",
				"name", result.Name,
				"status", string(result.Status),
				"message", result.Message)
		}
	}

	return HealthResponse{
		Status:    overallStatus(results),
		Timestamp: time.Now(),
		Version:   hm.version,
		Uptime:    time.Since(hm.started).Round(time.Second).String(),
		Checks:    byName,
		GoVersion: runtime.Version(),
	}
}

// overallStatus is unhealthy when a critical check fails and degraded when
// any other check is not healthy.
func overallStatus(results []HealthCheck) HealthStatus {
	status := HealthStatusHealthy
	for _, check := range results {
		switch {
		case check.Critical && check.Status == HealthStatusUnhealthy:
			return HealthStatusUnhealthy
		case check.Status != HealthStatusHealthy:
			status = HealthStatusDegraded
		}
	}
	return status
}

// HTTPHandler returns an HTTP handler for health checks
func (hm *HealthMonitor) HTTPHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		health := hm.Check(r.Context())

		w.Header().Set("Content-Type", "application/json")
		if health.Status == HealthStatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}

		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(health); err != nil {
			hm.logger.Error(r.Context(), err, "Failed to encode health response")
		}
	}
}

// StorageHealthChecker verifies the book collection can be loaded.
func StorageHealthChecker(repo store.BookRepository) HealthChecker {
	return NewHealthCheckFunc("storage", true, func(ctx context.Context) HealthCheck {
		books, err := repo.LoadBooks(ctx)
		if err != nil {
			return HealthCheck{
				Status:  HealthStatusUnhealthy,
				Message: fmt.Sprintf("Cannot load books: %v", err),
			}
		}
		return HealthCheck{
			Status:   HealthStatusHealthy,
			Message:  "Book collection is readable",
			Metadata: map[string]interface{}{"books": len(books)},
		}
	})
}

// TemplatesHealthChecker verifies the named fragments exist in dir.
func TemplatesHealthChecker(dir string, names ...string) HealthChecker {
	return NewHealthCheckFunc("templates", true, func(ctx context.Context) HealthCheck {
		var missing []string
		for _, name := range names {
			if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			return HealthCheck{
				Status:   HealthStatusUnhealthy,
				Message:  "Missing template fragments",
				Metadata: map[string]interface{}{"missing": missing},
			}
		}
		return HealthCheck{
			Status:  HealthStatusHealthy,
			Message: "All template fragments present",
		}
	})
}

// GoroutineHealthChecker flags runaway goroutine counts.
func GoroutineHealthChecker() HealthChecker {
	return NewHealthCheckFunc("goroutines", false, func(ctx context.Context) HealthCheck {
		goroutines := runtime.NumGoroutine()

		status := HealthStatusHealthy
		message := "Goroutine count is normal"
		if goroutines > 10000 {
			status = HealthStatusDegraded
			message = fmt.Sprintf("High goroutine count: %d", goroutines)
		}

		return HealthCheck{
			Status:   status,
			Message:  message,
			Metadata: map[string]interface{}{"count": goroutines},
		}
	})
}
