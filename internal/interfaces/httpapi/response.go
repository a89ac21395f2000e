package httpapi

import (
	"context"
	"errors"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/football-dashboard/external/footballdata"
	"github.com/riskibarqy/football-dashboard/internal/platform/resilience"
	"github.com/riskibarqy/football-dashboard/internal/usecase"
)

const (
	googleAPIVersion = "2.0"
	errorDomain      = "football-dashboard"
)

type googleResponseEnvelope struct {
	APIVersion string           `json:"apiVersion"`
	Data       any              `json:"data,omitempty"`
	Error      *googleErrorBody `json:"error,omitempty"`
}

type googleErrorBody struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Status  string            `json:"status"`
	Errors  []googleErrorItem `json:"errors,omitempty"`
}

type googleErrorItem struct {
	Domain  string `json:"domain"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type mappedError struct {
	HTTPStatus int
	Reason     string
	Status     string
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(payload)
}

func writeSuccess(ctx context.Context, w http.ResponseWriter, status int, data any) {
	_, span := startSpan(ctx, "httpapi.writeSuccess")
	defer span.End()

	writeJSON(w, status, googleResponseEnvelope{
		APIVersion: googleAPIVersion,
		Data:       data,
	})
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	ctx, span := startSpan(ctx, "httpapi.writeError")
	defer span.End()

	mapped := mapError(ctx, err)
	if mapped.HTTPStatus == http.StatusTooManyRequests {
		w.Header().Set("Retry-After", "60")
	}
	writeJSON(w, mapped.HTTPStatus, googleResponseEnvelope{
		APIVersion: googleAPIVersion,
		Error: &googleErrorBody{
			Code:    mapped.HTTPStatus,
			Message: err.Error(),
			Status:  mapped.Status,
			Errors: []googleErrorItem{
				{
					Domain:  errorDomain,
					Reason:  mapped.Reason,
					Message: err.Error(),
				},
			},
		},
	})
}

func writeInternalError(ctx context.Context, w http.ResponseWriter) {
	_, span := startSpan(ctx, "httpapi.writeInternalError")
	defer span.End()

	const msg = "internal server error"

	writeJSON(w, http.StatusInternalServerError, googleResponseEnvelope{
		APIVersion: googleAPIVersion,
		Error: &googleErrorBody{
			Code:    http.StatusInternalServerError,
			Message: msg,
			Status:  "INTERNAL",
			Errors:  []googleErrorItem{{Domain: errorDomain, Reason: "internalError", Message: msg}},
		},
	})
}

// mapError translates usecase and upstream failures into HTTP semantics.
// Upstream kinds keep their display message; only the status changes.
func mapError(ctx context.Context, err error) mappedError {
	_, span := startSpan(ctx, "httpapi.mapError")
	defer span.End()

	switch {
	case errors.Is(err, usecase.ErrInvalidInput):
		return mappedError{HTTPStatus: http.StatusBadRequest, Reason: "invalidInput", Status: "INVALID_ARGUMENT"}
	case errors.Is(err, usecase.ErrUnknownFeed):
		return mappedError{HTTPStatus: http.StatusNotFound, Reason: "unknownFeed", Status: "NOT_FOUND"}
	case errors.Is(err, usecase.ErrSessionClosed):
		return mappedError{HTTPStatus: http.StatusServiceUnavailable, Reason: "shuttingDown", Status: "UNAVAILABLE"}
	case errors.Is(err, resilience.ErrCircuitOpen):
		return mappedError{HTTPStatus: http.StatusServiceUnavailable, Reason: "circuitOpen", Status: "UNAVAILABLE"}
	case errors.Is(err, footballdata.ErrRateLimited):
		return mappedError{HTTPStatus: http.StatusTooManyRequests, Reason: "rateLimited", Status: "RESOURCE_EXHAUSTED"}
	case errors.Is(err, footballdata.ErrUnauthorized):
		return mappedError{HTTPStatus: http.StatusForbidden, Reason: "upstreamUnauthorized", Status: "PERMISSION_DENIED"}
	case errors.Is(err, footballdata.ErrNotFound):
		return mappedError{HTTPStatus: http.StatusNotFound, Reason: "notFound", Status: "NOT_FOUND"}
	case errors.Is(err, footballdata.ErrRequestFailed):
		return mappedError{HTTPStatus: http.StatusBadGateway, Reason: "upstreamRequestFailed", Status: "UNAVAILABLE"}
	case errors.Is(err, footballdata.ErrMalformedResponse):
		return mappedError{HTTPStatus: http.StatusBadGateway, Reason: "malformedUpstreamResponse", Status: "DATA_LOSS"}
	case errors.Is(err, footballdata.ErrNetwork):
		return mappedError{HTTPStatus: http.StatusServiceUnavailable, Reason: "upstreamUnreachable", Status: "UNAVAILABLE"}
	case errors.Is(err, footballdata.ErrTimeout):
		return mappedError{HTTPStatus: http.StatusGatewayTimeout, Reason: "upstreamTimeout", Status: "DEADLINE_EXCEEDED"}
	default:
		return mappedError{HTTPStatus: http.StatusInternalServerError, Reason: "internalError", Status: "INTERNAL"}
	}
}
