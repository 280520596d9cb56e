package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/liaowuw/webweek8mvc/workers"
)

// writeNotFound renders the not-found page with a 404 status.
func (ph *PersonHandler) writeNotFound(w http.ResponseWriter, message string) {
	ph.Views.Render(w, http.StatusNotFound, pageNotFound, notFoundPage{Message: message})
}

// writeServerError logs err and renders a generic error page. Timeouts and a
// stopped executor are retryable and answer 503, everything else 500.
func (ph *PersonHandler) writeServerError(w http.ResponseWriter, r *http.Request, action string, err error) {
	status := http.StatusInternalServerError
	message := "Something went wrong while processing your request."
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, workers.ErrExecutorStopped) {
		status = http.StatusServiceUnavailable
		message = "The database is busy right now, please try again."
	}

	ph.Log.Errorw("request failed",
		"action", action,
		"status", status,
		"request_id", middleware.GetReqID(r.Context()),
		"error", err,
	)
	ph.Views.Render(w, status, pageError, errorPage{Status: status, Message: message})
}
