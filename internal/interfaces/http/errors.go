package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainwf "github.com/for4for/dealer-workflow/internal/domain/workflow"
)

// ErrorDetails carries the context of a refused transition
type ErrorDetails struct {
	Kind      string `json:"kind,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	Role      string `json:"role,omitempty"`
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// statusFor maps workflow errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, domainwf.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domainwf.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domainwf.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domainwf.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domainwf.ErrInvalidTransition),
		errors.Is(err, domainwf.ErrTerminalState),
		errors.Is(err, domainwf.ErrMissingRequiredNote),
		errors.Is(err, domainwf.ErrMissingDeliverables),
		errors.Is(err, domainwf.ErrInsufficientBudget):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as a failed Response. Internal errors are logged and hidden.
func (h *Handlers) respondError(c *gin.Context, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", "op", op, "path", c.Request.URL.Path, "error", err)
		c.JSON(status, Response{Success: false, Error: "internal error"})
		return
	}

	resp := Response{Success: false, Error: err.Error()}
	var te *domainwf.TransitionError
	if errors.As(err, &te) {
		resp.Details = &ErrorDetails{
			Kind:      te.Kind.String(),
			RequestID: te.RequestID,
			Role:      te.Role,
			From:      te.From.String(),
			To:        te.To.String(),
			Reason:    string(te.Reason),
		}
	}
	c.JSON(status, resp)
}
