package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// PingFunc reports whether the backing store answers.
type PingFunc func(ctx context.Context) error

type HealthHandler struct {
	ping PingFunc
}

// create a new instance of the health handler
func NewHealthHandler(ping PingFunc) *HealthHandler {
	return &HealthHandler{ping: ping}
}

func (h *HealthHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HealthHandler) Readyz(ctx *gin.Context) {
	if h.ping == nil {
		ctx.JSON(http.StatusOK, gin.H{"status": "ready"})
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), time.Second)
	defer cancel()

	if err := h.ping(cctx); err != nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "reason": "store"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// Status is the legacy liveness check used by the browser client.
func (h *HealthHandler) Status(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, http.StatusOK)
}
