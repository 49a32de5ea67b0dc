package httputil

import (
	"context"
	"errors"
	"net/http"

	"github.com/bissquit/reliability-reporter/internal/pkg/ctxlog"
)

// ErrorMapping defines how a domain error maps to an HTTP response.
type ErrorMapping struct {
	Error   error
	Status  int
	Message string // if empty, uses err.Error()
}

// HandleError maps err to an HTTP response using mappings. A cancelled
// request is only logged at Debug. Anything else unmapped is logged and
// answered with 500.
func HandleError(ctx context.Context, w http.ResponseWriter, err error, mappings []ErrorMapping) {
	for _, m := range mappings {
		if errors.Is(err, m.Error) {
			msg := m.Message
			if msg == "" {
				msg = err.Error()
			}
			Error(w, m.Status, msg)
			return
		}
	}

	if errors.Is(err, context.Canceled) {
		ctxlog.FromContext(ctx).Debug("request cancelled", "error", err)
		return
	}

	ctxlog.FromContext(ctx).Error("internal error", "error", err)
	Error(w, http.StatusInternalServerError, "internal error")
}
