package database

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/mnemonic-no/grafeo-sub002/pkg/logging"
)

// ScopeProvider hands out request-scoped connections. *DB implements it.
type ScopeProvider interface {
	ReadOnlyScope(ctx context.Context) (*Scope, error)
}

// WithScope creates middleware that sets up a read-only DB connection for the request.
// The connection is automatically released after the handler returns.
func WithScope(db ScopeProvider, logger *zap.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			scope, err := db.ReadOnlyScope(r.Context())
			if err != nil {
				logger.Error("Failed to acquire database connection",
					zap.String("error", logging.SanitizeError(err)))
				writeError(w, http.StatusInternalServerError, "database_error", "Database connection error")
				return
			}
			defer scope.Close()

			ctx := SetScope(r.Context(), scope)
			next(w, r.WithContext(ctx))
		}
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, errorCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}
