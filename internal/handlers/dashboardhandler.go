package handlers

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/justsurfingit/Application-Tracker/internal/models"
	"github.com/justsurfingit/Application-Tracker/internal/services"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Templates parses the embedded dashboard templates.
func Templates() *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))
}

type dashboardView struct {
	Prompt     string
	Message    string
	Level      string
	Headers    []string
	Rows       [][]string
	SheetError string
}

// DashboardHandler serves the single page form and table.
type DashboardHandler struct {
	Tracker Tracker
	Timeout time.Duration
	Logger  *zap.Logger
}

func NewDashboardHandler(t Tracker, timeout time.Duration, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{Tracker: t, Timeout: timeout, Logger: logger}
}

func (h *DashboardHandler) Show(c *gin.Context) {
	h.render(c, http.StatusOK, dashboardView{})
}

func (h *DashboardHandler) Submit(c *gin.Context) {
	prompt := c.PostForm("prompt")

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.Timeout)
	defer cancel()

	view := dashboardView{Prompt: prompt}
	code := http.StatusOK

	_, outcome, err := h.Tracker.Submit(ctx, services.SourceDashboard, prompt)
	switch {
	case errors.Is(err, services.ErrEmptyPrompt):
		view.Message, view.Level = "Please enter a description of your application.", "warning"
		code = http.StatusBadRequest
	case errors.Is(err, services.ErrNoCompany):
		view.Message, view.Level = "I couldn't determine the company name. Please be more specific.", "warning"
		code = http.StatusUnprocessableEntity
	case err != nil:
		h.Logger.Error("dashboard submission failed", zap.Error(err))
		view.Message, view.Level = "An error occurred: "+err.Error(), "error"
		code = StatusFor(err)
	case outcome.Kind == models.OutcomeUnchanged:
		view.Message, view.Level = OutcomeMessage(outcome), "info"
		view.Prompt = ""
	default:
		view.Message, view.Level = OutcomeMessage(outcome), "success"
		view.Prompt = ""
	}
	h.render(c, code, view)
}

func (h *DashboardHandler) render(c *gin.Context, code int, view dashboardView) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.Timeout)
	defer cancel()

	sheet, err := h.Tracker.List(ctx)
	if err != nil {
		h.Logger.Error("could not fetch data from the sheet", zap.Error(err))
		view.SheetError = "Could not fetch data from the sheet: " + err.Error()
	} else {
		view.Headers, view.Rows = sheet.Headers, sheet.Rows
	}
	c.HTML(code, "dashboard.tmpl", view)
}
