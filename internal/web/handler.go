// Package web exposes the encounter engine over HTTP with a JSON API.
package web

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/hearthvale/initiative/internal/encounter/domain"
	"github.com/hearthvale/initiative/internal/encounter/op"
	apperrors "github.com/hearthvale/initiative/internal/platform/errors"
	"github.com/hearthvale/initiative/internal/platform/requestctx"
	"github.com/hearthvale/initiative/internal/platform/token"
)

// maxBodyBytes caps request payload size for combat operations.
const maxBodyBytes = 64 << 10

// Handler serves the encounter JSON API.
type Handler struct {
	executor *op.Executor
	tokens   token.Config
}

// NewHandler builds the HTTP handler with auth and tracing middleware applied.
func NewHandler(executor *op.Executor, tokens token.Config) http.Handler {
	h := &Handler{executor: executor, tokens: tokens}

	mux := http.NewServeMux()
	mux.HandleFunc(http.MethodGet+" /healthz", h.handleHealth)
	mux.HandleFunc(http.MethodPost+" /api/encounters", h.handleCreateEncounter)
	mux.HandleFunc(http.MethodGet+" /api/encounters", h.handleListEncounters)
	mux.HandleFunc(http.MethodGet+" /api/encounters/{encounterID}", h.handleGetEncounter)
	mux.HandleFunc(http.MethodPost+" /api/encounters/{encounterID}/combat/{op}", h.handleCombatOp)

	return otelhttp.NewHandler(h.authenticate(mux), "initiative.web")
}

// authenticate resolves a bearer token into request identity.
//
// A missing or invalid token passes through without identity; operations that
// need a caller reject unauthenticated requests themselves, so public routes
// like health stay reachable.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw != "" {
			userID, err := token.Verify(raw, h.tokens)
			if err == nil {
				r = r.WithContext(requestctx.WithUserID(r.Context(), userID))
			}
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleCreateEncounter(w http.ResponseWriter, r *http.Request) {
	var input domain.CreateInput
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, apperrors.New(apperrors.CodeOperationRejected, "unable to read request body"))
		return
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &input); err != nil {
			writeError(w, apperrors.New(apperrors.CodeOperationRejected, "request body is not valid JSON"))
			return
		}
	}

	enc, createErr := h.executor.CreateEncounter(r.Context(), input)
	if createErr != nil {
		writeOperationError(w, createErr)
		return
	}
	writeJSON(w, http.StatusCreated, encounterResponse{Success: true, Encounter: enc})
}

func (h *Handler) handleListEncounters(w http.ResponseWriter, r *http.Request) {
	encounters, err := h.executor.ListEncounters(r.Context())
	if err != nil {
		writeOperationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Success: true, Encounters: encounters})
}

func (h *Handler) handleGetEncounter(w http.ResponseWriter, r *http.Request) {
	encounterID := strings.TrimSpace(r.PathValue("encounterID"))
	enc, err := h.executor.GetEncounter(r.Context(), encounterID)
	if err != nil {
		writeOperationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, encounterResponse{Success: true, Encounter: enc})
}

func (h *Handler) handleCombatOp(w http.ResponseWriter, r *http.Request) {
	encounterID := strings.TrimSpace(r.PathValue("encounterID"))
	opName := strings.TrimSpace(r.PathValue("op"))

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, apperrors.New(apperrors.CodeOperationRejected, "unable to read request body"))
		return
	}

	outcome, execErr := h.executor.Execute(r.Context(), opName, op.Request{
		EncounterID: encounterID,
		Body:        body,
	})
	if execErr != nil {
		writeOperationError(w, execErr)
		return
	}
	if outcome.Encounter == nil {
		writeJSON(w, http.StatusOK, payloadResponse{Success: true, Payload: outcome.Payload})
		return
	}
	writeJSON(w, http.StatusOK, encounterResponse{Success: true, Encounter: outcome.Encounter})
}

type encounterResponse struct {
	Success   bool              `json:"success"`
	Encounter *domain.Encounter `json:"encounter"`
}

type listResponse struct {
	Success    bool               `json:"success"`
	Encounters []domain.Encounter `json:"encounters"`
}

type payloadResponse struct {
	Success bool `json:"success"`
	Payload any  `json:"payload,omitempty"`
}

type errorResponse struct {
	Success  bool              `json:"success"`
	Code     string            `json:"code"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// writeOperationError maps a domain error onto the HTTP error envelope.
// Anything that is not a domain error is masked as internal.
func writeOperationError(w http.ResponseWriter, err error) {
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		log.Printf("unclassified handler error: %v", err)
		appErr = apperrors.New(apperrors.CodeInternal, "an unexpected error occurred")
	}
	writeError(w, appErr)
}

func writeError(w http.ResponseWriter, appErr *apperrors.Error) {
	writeJSON(w, appErr.Code.HTTPStatus(), errorResponse{
		Code:     string(appErr.Code),
		Message:  appErr.Message,
		Metadata: appErr.Metadata,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode response: %v", err)
	}
}
