package handler // declare the package name; contains HTTP handlers

import (
	"context"
	"database/sql"
	"net/http"
	"runtime"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// HealthHandler reports service liveness and readiness.  Readiness pings
// the real dependencies; liveness never touches them so a broken database
// does not get the process restarted.
type HealthHandler struct {
	DB      *sql.DB
	Redis   *redis.Client
	Version string
	started time.Time
}

func NewHealthHandler(db *sql.DB, rdb *redis.Client, version string) *HealthHandler {
	return &HealthHandler{DB: db, Redis: rdb, Version: version, started: time.Now().UTC()}
}

// Health returns a plain text "ok" for load balancers.
func (h *HealthHandler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Simple returns a tiny JSON status without touching dependencies.
func (h *HealthHandler) Simple(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "version": h.Version})
}

// Live reports process liveness.
func (h *HealthHandler) Live(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "alive", "uptime": time.Since(h.started).String()})
}

// Ready pings MySQL and Redis; any failure yields 503 so orchestrators
// stop routing traffic here.
func (h *HealthHandler) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	checks := h.check(ctx)
	status := http.StatusOK
	overall := "ready"
	for _, v := range checks {
		if v != "up" {
			status = http.StatusServiceUnavailable
			overall = "not ready"
			break
		}
	}
	return c.JSON(status, echo.Map{"status": overall, "checks": checks})
}

// Detailed reports per-component status plus uptime and version.
func (h *HealthHandler) Detailed(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	return c.JSON(http.StatusOK, echo.Map{
		"status":     "ok",
		"version":    h.Version,
		"uptime":     time.Since(h.started).String(),
		"components": h.check(ctx),
		"checkedAt":  time.Now().UTC().Format(time.RFC3339),
	})
}

// System exposes Go runtime statistics for debugging memory issues.
func (h *HealthHandler) System(c echo.Context) error {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return c.JSON(http.StatusOK, echo.Map{
		"goVersion":   runtime.Version(),
		"goroutines":  runtime.NumGoroutine(),
		"cpus":        runtime.NumCPU(),
		"heapAllocMB": ms.HeapAlloc / 1024 / 1024,
		"heapSysMB":   ms.HeapSys / 1024 / 1024,
		"numGC":       ms.NumGC,
		"lastGCPause": time.Duration(ms.PauseNs[(ms.NumGC+255)%256]).String(),
		"uptime":      time.Since(h.started).String(),
	})
}

func (h *HealthHandler) check(ctx context.Context) map[string]string {
	checks := map[string]string{"database": "up", "redis": "up"}
	if h.DB == nil {
		checks["database"] = "not configured"
	} else if err := h.DB.PingContext(ctx); err != nil {
		checks["database"] = "down: " + err.Error()
	}
	if h.Redis == nil {
		checks["redis"] = "not configured"
	} else if err := h.Redis.Ping(ctx).Err(); err != nil {
		checks["redis"] = "down: " + err.Error()
	}
	return checks
}
