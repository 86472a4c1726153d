package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/justsurfingit/Application-Tracker/internal/dtos"
	"github.com/justsurfingit/Application-Tracker/internal/models"
	"github.com/justsurfingit/Application-Tracker/internal/services"
)

// Tracker is what the handlers need from services.TrackerService.
type Tracker interface {
	Extract(ctx context.Context, text string) (*models.Candidate, error)
	Submit(ctx context.Context, source, text string) (*models.Candidate, *models.Outcome, error)
	List(ctx context.Context) (*models.Sheet, error)
	Recent(ctx context.Context, limit int) ([]models.ApplicationEvent, error)
}

type ApplicationHandler struct {
	Tracker Tracker
	Timeout time.Duration
	Logger  *zap.Logger
}

func NewApplicationHandler(t Tracker, timeout time.Duration, logger *zap.Logger) *ApplicationHandler {
	return &ApplicationHandler{Tracker: t, Timeout: timeout, Logger: logger}
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListApplications is GET /applications.
func (h *ApplicationHandler) ListApplications(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.Timeout)
	defer cancel()

	sheet, err := h.Tracker.List(ctx)
	if err != nil {
		h.fail(c, fmt.Errorf("could not fetch data from the sheet: %w", err))
		return
	}
	c.JSON(http.StatusOK, dtos.SheetResponse{Headers: sheet.Headers, Rows: sheet.Rows})
}

// ExtractApplication is POST /applications/extract. It never touches the sheet.
func (h *ApplicationHandler) ExtractApplication(c *gin.Context) {
	var req dtos.SubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format: " + err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.Timeout)
	defer cancel()

	candidate, err := h.Tracker.Extract(ctx, req.Text)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    dtos.NewCandidateResponse(candidate),
	})
}

// SubmitApplication is POST /applications.
func (h *ApplicationHandler) SubmitApplication(c *gin.Context) {
	var req dtos.SubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format: " + err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.Timeout)
	defer cancel()

	candidate, outcome, err := h.Tracker.Submit(ctx, services.SourceAPI, req.Text)
	if err != nil {
		h.fail(c, err)
		return
	}

	code := http.StatusOK
	if outcome.Kind == models.OutcomeCreated {
		code = http.StatusCreated
	}
	c.JSON(code, dtos.SubmissionResponse{
		Candidate: dtos.NewCandidateResponse(candidate),
		Outcome:   outcome,
		Message:   OutcomeMessage(outcome),
	})
}

// ListEvents is GET /events.
func (h *ApplicationHandler) ListEvents(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}
	events, err := h.Tracker.Recent(c.Request.Context(), limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	if events == nil {
		events = []models.ApplicationEvent{}
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (h *ApplicationHandler) fail(c *gin.Context, err error) {
	code := StatusFor(err)
	if code >= http.StatusInternalServerError {
		h.Logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(code, gin.H{"error": err.Error()})
}

// StatusFor maps tracker errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrEmptyPrompt):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNoCompany):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrNoHeaderRow), errors.Is(err, services.ErrNoCompanyColumn):
		return http.StatusInternalServerError
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

// OutcomeMessage is the status line shown to the user after a submission.
func OutcomeMessage(o *models.Outcome) string {
	switch o.Kind {
	case models.OutcomeCreated:
		return fmt.Sprintf("Successfully added %s to your sheet!", o.Company)
	case models.OutcomeUpdated:
		return fmt.Sprintf("Successfully updated %s in your sheet!", o.Company)
	default:
		return "No new information was found to update."
	}
}
