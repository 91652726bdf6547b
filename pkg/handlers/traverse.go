package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mnemonic-no/grafeo-sub002/pkg/apperrors"
	"github.com/mnemonic-no/grafeo-sub002/pkg/auth"
	"github.com/mnemonic-no/grafeo-sub002/pkg/graph"
	"github.com/mnemonic-no/grafeo-sub002/pkg/logging"
	"github.com/mnemonic-no/grafeo-sub002/pkg/models"
	"github.com/mnemonic-no/grafeo-sub002/pkg/services"
)

// maxRequestBytes bounds the size of a traversal request body.
const maxRequestBytes = 1 << 20

// TraverseStepRequest is one hop of a traversal. Direction is matched case-insensitively.
type TraverseStepRequest struct {
	Direction string   `json:"direction" validate:"required"`
	Labels    []string `json:"labels,omitempty" validate:"dive,required"`
}

// TraverseRequest for POST /api/v1/traverse/objects
type TraverseRequest struct {
	Objects           []string              `json:"objects" validate:"required,min=1,max=100,dive,uuid"`
	Steps             []TraverseStepRequest `json:"steps" validate:"dive"`
	After             *time.Time            `json:"after,omitempty"`
	Before            *time.Time            `json:"before,omitempty"`
	TimeFieldStrategy []string              `json:"timeFieldStrategy,omitempty" validate:"dive,oneof=timestamp lastSeenTimestamp all"`
	TimeMatchStrategy string                `json:"timeMatchStrategy,omitempty" validate:"omitempty,oneof=any all"`
	IncludeRetracted  bool                  `json:"includeRetracted"`
	Limit             int                   `json:"limit" validate:"gte=0"`
}

// RequestObserver records the outcome of traversal requests. *metrics.Recorder implements it.
type RequestObserver interface {
	ObserveRequest(status string, d time.Duration)
}

// TraverseHandler handles traversal HTTP requests.
type TraverseHandler struct {
	service  services.TraverseService
	observer RequestObserver
	validate *validator.Validate
	logger   *zap.Logger
}

// NewTraverseHandler creates a TraverseHandler. observer may be nil.
func NewTraverseHandler(service services.TraverseService, observer RequestObserver, logger *zap.Logger) *TraverseHandler {
	return &TraverseHandler{
		service:  service,
		observer: observer,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger.Named("traverse-handler"),
	}
}

// RegisterRoutes registers the traversal routes. scope acquires the request's database
// connection and runs after authentication.
func (h *TraverseHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, scope func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("POST /api/v1/traverse/objects", authMiddleware.RequireAuth(scope(h.TraverseByObjects)))
}

// TraverseByObjects handles POST /api/v1/traverse/objects
func (h *TraverseHandler) TraverseByObjects(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "ok"
	defer func() {
		if h.observer != nil {
			h.observer.ObserveRequest(status, time.Since(start))
		}
	}()

	var body TraverseRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		status = "invalid"
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	req, err := h.toServiceRequest(&body)
	if err != nil {
		status = "invalid"
		if err := ErrorResponse(w, http.StatusBadRequest, "validation_error", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	result, err := h.service.TraverseByObjects(r.Context(), req)
	if err != nil {
		code, errorCode := errorStatus(err)
		status = statusLabel(code)
		if code >= http.StatusInternalServerError {
			h.logger.Error("Traversal failed",
				zap.Strings("objects", body.Objects),
				zap.String("error", logging.SanitizeError(err)))
		}
		if err := ErrorResponse(w, code, errorCode, err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: result}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// toServiceRequest validates body and converts it into a service request.
func (h *TraverseHandler) toServiceRequest(body *TraverseRequest) (*services.TraverseRequest, error) {
	if err := h.validate.Struct(body); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrInvalidArgument, describe(verrs))
		}
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err)
	}

	req := &services.TraverseRequest{
		Objects:           body.Objects,
		Steps:             make([]services.TraverseStep, 0, len(body.Steps)),
		After:             body.After,
		Before:            body.Before,
		TimeMatchStrategy: models.MatchStrategy(body.TimeMatchStrategy),
		IncludeRetracted:  body.IncludeRetracted,
		Limit:             body.Limit,
	}
	for _, s := range body.Steps {
		direction, err := graph.ParseDirection(s.Direction)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err)
		}
		req.Steps = append(req.Steps, services.TraverseStep{Direction: direction, Labels: s.Labels})
	}
	for _, f := range body.TimeFieldStrategy {
		strategy, ok := models.ParseTimeFieldStrategy(f)
		if !ok {
			return nil, fmt.Errorf("%w: unknown time field strategy %q", apperrors.ErrInvalidArgument, f)
		}
		req.TimeFieldStrategy = append(req.TimeFieldStrategy, strategy)
	}
	return req, nil
}

func describe(verrs validator.ValidationErrors) string {
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(msgs, "; ")
}

func statusLabel(code int) string {
	switch code {
	case http.StatusBadRequest:
		return "invalid"
	case http.StatusUnauthorized:
		return "unauthenticated"
	case http.StatusNotFound:
		return "not_found"
	default:
		return "error"
	}
}
