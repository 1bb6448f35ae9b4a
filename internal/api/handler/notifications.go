package handler

import (
	"context"
	"net/http"

	"github.com/crewmanager/shift-notifier/internal/api/respond"
	"github.com/crewmanager/shift-notifier/internal/notifications"
)

// RunNotifications executes one notification pass synchronously.
// @Summary Run shift notifications
// @Description Scans event and warehouse assignments, dispatches due reminders and returns the counters.
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} notifications.Summary
// @Failure 401 {object} respond.ErrorResponse
// @Failure 500 {object} respond.FailureResponse
// @Router /functions/shift-notifications [post]
// @Router /api/v1/notifications/run [post]
func (h *Handler) RunNotifications(w http.ResponseWriter, r *http.Request) {
	// A started run is not tied to the caller's connection.
	ctx := context.WithoutCancel(r.Context())
	if h.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.jobTimeout)
		defer cancel()
	}

	summary, err := h.runner.Run(ctx)
	if err != nil {
		h.logger.Error("notification run failed", "error", err)
		respond.WriteFailure(w, "Shift notification run failed", err)
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, summary)
}

// GetTemplates lists the reminder windows and their message templates.
// @Summary Notification templates
// @Description Returns the title/body template of every reminder window.
// @Tags notifications
// @Produce json
// @Success 200 {array} notifications.Template
// @Router /api/v1/notifications/templates [get]
func (h *Handler) GetTemplates(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, notifications.Templates())
}

// GetLastRun returns the most recent run executed by this process.
// @Summary Last notification run
// @Description Returns the run id, timing and counters of the latest run in this process.
// @Tags notifications
// @Produce json
// @Success 200 {object} notifications.RunReport
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/v1/notifications/last-run [get]
func (h *Handler) GetLastRun(w http.ResponseWriter, r *http.Request) {
	report, ok := h.runner.LastRun()
	if !ok {
		respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", "No notification run yet")
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, report)
}
