package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/airwaves/internal/models"
	"github.com/desertthunder/airwaves/internal/shared"
	"github.com/desertthunder/airwaves/internal/store"
)

const maxPatchBytes = 1 << 20

// RecordHandler serves user records. Implements the Handler interface for registration with a Router.
type RecordHandler struct {
	records RecordService
	logger  *log.Logger
}

// NewRecordHandler creates a new [RecordHandler] over records.
func NewRecordHandler(records RecordService, logger *log.Logger) *RecordHandler {
	return &RecordHandler{records: records, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *RecordHandler) Routes() []string {
	return []string{"/api/users", "/api/users/{username}"}
}

func (h *RecordHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	username := shared.NormalizeUsername(r.PathValue("username"))

	switch {
	case username == "" && r.Method == http.MethodGet:
		h.list(w, r)
	case username != "" && r.Method == http.MethodGet:
		h.get(w, r, username)
	case username != "" && r.Method == http.MethodPatch:
		h.patch(w, r, username)
	case username != "" && r.Method == http.MethodDelete:
		h.delete(w, r, username)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *RecordHandler) list(w http.ResponseWriter, _ *http.Request) {
	keys, err := h.records.Keys()
	if errors.Is(err, store.ErrUnsupported) {
		http.Error(w, "Listing not supported by this store", http.StatusNotImplemented)
		return
	}
	if err != nil {
		h.logger.Error("failed to list records", "error", err)
		http.Error(w, "Failed to list users", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"users": keys})
}

func (h *RecordHandler) get(w http.ResponseWriter, r *http.Request, username string) {
	record, err := h.records.FetchOrCreate(r.Context(), username)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

func (h *RecordHandler) patch(w http.ResponseWriter, r *http.Request, username string) {
	var patch store.Patch
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPatchBytes))
	if err := dec.Decode(&patch); err != nil || patch == nil {
		http.Error(w, "Body must be a JSON object", http.StatusBadRequest)
		return
	}
	if len(patch) == 0 {
		http.Error(w, "Patch must set at least one field", http.StatusBadRequest)
		return
	}

	if role, ok := patch["role"]; ok {
		name, _ := role.(string)
		if err := models.ValidateRole(name); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	if err := h.records.Update(r.Context(), username, patch); err != nil {
		h.logger.Warn("patch wait abandoned", "user", username, "error", err)
		http.Error(w, "Update still pending", http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *RecordHandler) delete(w http.ResponseWriter, r *http.Request, username string) {
	err := h.records.Delete(r.Context(), username)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, store.ErrUnsupported):
		http.Error(w, "Deletion not supported by this store", http.StatusNotImplemented)
	default:
		h.logger.Error("failed to delete record", "user", username, "error", err)
		http.Error(w, "Failed to delete user", http.StatusInternalServerError)
	}
}

// HealthHandler reports liveness and the depth of the update queue.
type HealthHandler struct {
	records RecordService
}

func NewHealthHandler(records RecordService) *HealthHandler {
	return &HealthHandler{records: records}
}

func (h *HealthHandler) Routes() []string {
	return []string{"/health"}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "pending_updates": h.records.Pending()})
}

// NewAPI wires the record and health handlers behind logging and recovery middleware.
func NewAPI(records RecordService, logger *log.Logger) *BasicRouter {
	router := NewBasicRouter()
	router.Use(Recoverer(logger), RequestLogger(logger))
	router.Handler(NewRecordHandler(records, logger))
	router.Handler(NewHealthHandler(records))
	return router
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
