package group

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/melkamu26/CodeCrafters-ExpenseSplitter/internal/group"
	"github.com/melkamu26/CodeCrafters-ExpenseSplitter/internal/http/middleware"
)

type Handler struct {
	svc *group.Service
}

func NewHandler(svc *group.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Post("/{id}/members", h.addMember)
}

type groupResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Owner     string    `json:"owner"`
	Members   []string  `json:"members"`
	CreatedAt time.Time `json:"created_at"`
}

func toResponse(g *group.Group) groupResponse {
	return groupResponse{
		ID:        g.ID,
		Name:      g.Name,
		Owner:     g.CreatedBy,
		Members:   g.Members,
		CreatedAt: g.CreatedAt,
	}
}

type createGroupRequest struct {
	Name string `json:"name"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.Name == "" {
		http.Error(w, "group name required", http.StatusBadRequest)
		return
	}

	g, err := h.svc.Create(r.Context(), req.Name, middleware.Username(r.Context()))
	if err != nil {
		if errors.Is(err, group.ErrUserNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}

		slog.Error("create group failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(toResponse(g)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	groups, err := h.svc.ListForUser(r.Context(), middleware.Username(r.Context()))
	if err != nil {
		slog.Error("list groups failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	resp := make([]groupResponse, len(groups))
	for i, g := range groups {
		resp[i] = toResponse(g)
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type addMemberRequest struct {
	Username string `json:"username"`
}

func (h *Handler) addMember(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid group id", http.StatusBadRequest)
		return
	}

	var req addMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.Username == "" {
		http.Error(w, "username required", http.StatusBadRequest)
		return
	}

	if err := h.svc.AddMember(r.Context(), id, req.Username); err != nil {
		switch {
		case errors.Is(err, group.ErrNotFound), errors.Is(err, group.ErrUserNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, group.ErrAlreadyMember):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			slog.Error("add member failed", "group_id", id, "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}

		return
	}

	w.WriteHeader(http.StatusCreated)
}
