package httpapi

import (
	"net/http"

	"github.com/riskibarqy/football-dashboard/internal/platform/id"
	"github.com/riskibarqy/football-dashboard/internal/platform/logging"
)

func NewRouter(
	handler *Handler,
	relay RelayHandler,
	logger *logging.Logger,
	corsAllowedOrigins []string,
) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}

	mux := http.NewServeMux()
	registerSystemRoutes(mux, handler)
	registerStatusRoutes(mux, handler)
	registerFeedRoutes(mux, handler)
	registerCatalogRoutes(mux, handler)
	registerRelayRoutes(mux, relay)

	requestIDs := id.NewRandomGenerator("req_", 12)
	return RequestTracing(RequestID(requestIDs, RequestLogging(logger, CORS(corsAllowedOrigins, recoverPanic(logger, mux)))))
}

func recoverPanic(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "httpapi.recoverPanic")
		defer span.End()

		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(ctx, "panic recovered", "panic", rec, "path", r.URL.Path)
				writeInternalError(ctx, w)
			}
		}()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
