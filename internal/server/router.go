// Package server exposes the run-mode status API. The exec-handoff path
// never uses it: after handoff the worker owns its own health endpoint.
package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/deskboot/deskboot/internal/boot"
	"github.com/deskboot/deskboot/internal/metrics"
)

// Router provides embeddable HTTP handlers over a resident bootstrap.
// Endpoints:
//
//	GET /healthz   liveness of the bootstrap itself
//	GET /status    current state, transition trace, subordinate statuses
//	GET /metrics   prometheus metrics
type Router struct {
	b *boot.Bootstrap
}

func NewRouter(b *boot.Bootstrap) *Router { return &Router{b: b} }

// Handler returns an http.Handler powered by gin.
func (r *Router) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	g := gin.New()
	g.Use(gin.Recovery())
	g.GET("/healthz", r.handleHealthz)
	g.GET("/status", r.handleStatus)
	g.GET("/metrics", gin.WrapH(metrics.Handler()))
	return g
}

// NewServer starts a standalone HTTP server on addr using this router.
func NewServer(addr string, b *boot.Bootstrap) *http.Server {
	r := NewRouter(b)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}

type statusResp struct {
	State       string      `json:"state"`
	StartedAt   time.Time   `json:"started_at"`
	Uptime      string      `json:"uptime"`
	Trace       interface{} `json:"trace"`
	Subordinate interface{} `json:"subordinates"`
}

func (r *Router) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (r *Router) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, statusResp{
		State:       string(r.b.State()),
		StartedAt:   r.b.StartedAt(),
		Uptime:      time.Since(r.b.StartedAt()).Round(time.Millisecond).String(),
		Trace:       r.b.Trace(),
		Subordinate: r.b.Statuses(),
	})
}
