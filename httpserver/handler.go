package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ruteri/storage-provisioning-backend/interfaces"
)

const (
	// groupsPrefix is the fixed namespace segment under which group storage
	// lives, keeping group names from colliding with user names.
	groupsPrefix = "groups"

	// maxBodySize is the maximum allowed request body size.
	maxBodySize = 64 * 1024
)

// TenantInfo is the API representation of a user or group storage
// allocation.
type TenantInfo struct {
	Name      string `json:"name"`
	Quota     int64  `json:"quota"`
	DiskUsage int64  `json:"disk_usage"`
}

// CreateRequest is the body of user and group creation requests.
type CreateRequest struct {
	Name  string `json:"name"`
	Quota int64  `json:"quota"`
}

// Handler processes API requests for the storage provisioning service. All
// storage decisions are delegated to the configured backend; the handler
// only translates between HTTP and the storage contract.
type Handler struct {
	storage interfaces.Storage
	log     *slog.Logger
}

// NewHandler creates an API handler backed by the given storage.
func NewHandler(storage interfaces.Storage, log *slog.Logger) *Handler {
	return &Handler{storage: storage, log: log}
}

// HandleGetUser reports quota and usage for one user.
//
// URL format: GET /api/v1/users/{name}
func (h *Handler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	stat, err := h.storage.GetDir(r.Context(), name)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, TenantInfo{Name: name, Quota: stat.Quota, DiskUsage: stat.Used})
}

// HandleCreateUser provisions storage for a new user. Creating an already
// provisioned user is not an error.
//
// URL format: POST /api/v1/users
// Request body: {"name": "...", "quota": bytes}
func (h *Handler) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	req, err := h.decodeCreateRequest(w, r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.storage.CreateDir(r.Context(), req.Quota, req.Name); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDeleteUser removes a user's storage and everything in it.
//
// URL format: DELETE /api/v1/users/{name}
func (h *Handler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if err := h.storage.DeleteDir(r.Context(), name); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleGetGroup reports quota and usage for one group. Group storage lives
// under the fixed "groups" namespace.
//
// URL format: GET /api/v1/groups/{name}
func (h *Handler) HandleGetGroup(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	stat, err := h.storage.GetDir(r.Context(), groupsPrefix, name)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, TenantInfo{Name: name, Quota: stat.Quota, DiskUsage: stat.Used})
}

// HandleCreateGroup provisions storage for a new group under the "groups"
// namespace.
//
// URL format: POST /api/v1/groups
// Request body: {"name": "...", "quota": bytes}
func (h *Handler) HandleCreateGroup(w http.ResponseWriter, r *http.Request) {
	req, err := h.decodeCreateRequest(w, r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.storage.CreateDir(r.Context(), req.Quota, groupsPrefix, req.Name); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDeleteGroup removes a group's storage.
//
// URL format: DELETE /api/v1/groups/{name}
func (h *Handler) HandleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if err := h.storage.DeleteDir(r.Context(), groupsPrefix, name); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleListStorages lists every provisioned storage with its quota and
// usage. The listing is a point-in-time snapshot.
//
// URL format: GET /api/v1/storages
func (h *Handler) HandleListStorages(w http.ResponseWriter, r *http.Request) {
	entries, err := h.storage.ListDir(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, entries)
}

func (h *Handler) decodeCreateRequest(w http.ResponseWriter, r *http.Request) (CreateRequest, error) {
	var req CreateRequest
	body := http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return CreateRequest{}, fmt.Errorf("%w: invalid request body: %v", interfaces.ErrInvalidPath, err)
	}
	if req.Name == "" {
		return CreateRequest{}, fmt.Errorf("%w: name must not be empty", interfaces.ErrInvalidPath)
	}
	if req.Quota < 0 {
		return CreateRequest{}, fmt.Errorf("%w: quota must not be negative", interfaces.ErrInvalidPath)
	}
	return req, nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}

// writeError translates storage errors into HTTP outcomes. Backend failures
// were already logged with full context where they occurred; the response
// body stays opaque for anything but caller errors.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, interfaces.ErrInvalidPath):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, interfaces.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, interfaces.ErrPermissionDenied):
		http.Error(w, "forbidden", http.StatusForbidden)
	default:
		h.log.Error("Request failed", "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
