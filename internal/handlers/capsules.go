package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"hitcapsule/internal/handlers/render"
	"hitcapsule/internal/models"
	"hitcapsule/internal/services"

	"github.com/gin-gonic/gin"
)

// capsuleTimeout bounds one playlist build; a full chart takes a few
// hundred catalog searches
const capsuleTimeout = 10 * time.Minute

// CapsuleWorkflow is the part of the capsule service the API needs
type CapsuleWorkflow interface {
	Chart(ctx context.Context, date string) (*models.Chart, error)
	Create(ctx context.Context, req services.CapsuleRequest, progress services.ProgressFunc) (*services.CapsuleResult, error)
}

// CapsuleHandler serves charts and builds playlists
type CapsuleHandler struct {
	workflow CapsuleWorkflow
	logger   *slog.Logger
}

// NewCapsuleHandler creates a new capsule handler
func NewCapsuleHandler(workflow CapsuleWorkflow) *CapsuleHandler {
	return &CapsuleHandler{
		workflow: workflow,
		logger:   slog.Default().With("component", "capsule_handler"),
	}
}

// GetChart handles GET /api/v1/charts/:date and GET /charts/:date
func (h *CapsuleHandler) GetChart(c *gin.Context) {
	date := c.Param("date")

	chart, err := h.workflow.Chart(c.Request.Context(), date)
	if err != nil {
		h.logger.Warn("Failed to get chart", "date", date, "error", err)
		render.RenderError(c, statusFor(err), "Failed to get chart", err)
		return
	}

	if render.WantsHTML(c) {
		render.RenderChartPage(c, chart)
		return
	}
	render.RenderChartJSON(c, chart)
}

// CreateCapsule handles POST /api/v1/capsules
func (h *CapsuleHandler) CreateCapsule(c *gin.Context) {
	var req services.CapsuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		render.RenderError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), capsuleTimeout)
	defer cancel()

	result, err := h.workflow.Create(ctx, req, func(done, total int) {
		if done%25 == 0 || done == total {
			h.logger.Debug("Matching progress", "date", req.Date, "done", done, "total", total)
		}
	})
	if err != nil {
		h.logger.Error("Failed to create capsule", "date", req.Date, "second_date", req.SecondDate, "error", err)
		render.RenderError(c, statusFor(err), "Failed to create playlist", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// statusFor maps workflow errors to HTTP status codes. Anything not caused
// by the request itself is an upstream failure.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidDate):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}
