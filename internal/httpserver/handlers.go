package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"apptrack/internal/model"
	"apptrack/internal/repository"
	"apptrack/internal/service"
)

// userHeader carries the authenticated identity. Authentication itself
// happens upstream; the header only selects which per-user store to
// open.
const userHeader = "X-Apptrack-User"

// session carries the per-request state the original kept as global UI
// state: who is asking and which cycle they are looking at.
type session struct {
	User  string
	Cycle string
}

func newSession(r *http.Request) session {
	user := strings.TrimSpace(r.Header.Get(userHeader))
	if user == "" {
		user = "default"
	}
	cycle := chi.URLParam(r, "cycle")
	if dec, err := url.PathUnescape(cycle); err == nil {
		cycle = dec
	}
	return session{User: user, Cycle: cycle}
}

// Handler exposes the record store and metrics engine as JSON routes.
type Handler struct {
	manager *repository.Manager
	metrics *service.MetricsService
	vocab   model.Vocabulary
	log     *zap.Logger
}

func NewHandler(manager *repository.Manager, metrics *service.MetricsService, vocab model.Vocabulary, log *zap.Logger) *Handler {
	return &Handler{manager: manager, metrics: metrics, vocab: vocab, log: log}
}

// Register mounts all routes onto the router group.
func (h *Handler) Register(r chi.Router) {
	r.Get("/vocabulary", h.getVocabulary)

	r.Route("/cycles", func(r chi.Router) {
		r.Get("/", h.listCycles)
		r.Post("/", h.addCycle)
		r.Get("/active", h.getActiveCycles)
		r.Put("/active", h.putActiveCycles)
		r.Route("/{cycle}", func(r chi.Router) {
			r.Delete("/", h.deleteCycle)
			r.Get("/entries", h.listEntries)
			r.Post("/entries", h.addEntry)
			r.Patch("/entries", h.patchEntries)
			r.Get("/metrics", h.cycleMetrics)
		})
	})

	r.Get("/settings/{key}", h.getSetting)
	r.Put("/settings/{key}", h.putSetting)

	r.Get("/resources", h.listResources)
	r.Post("/resources", h.addResource)
}

func (h *Handler) getVocabulary(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]any{
		"statuses": h.vocab.StatusLabels(),
		"tags":     h.vocab.Tags,
	})
}

func (h *Handler) listCycles(w http.ResponseWriter, r *http.Request) {
	sess := newSession(r)
	full := r.URL.Query().Get("full") == "1"

	var cycles []string
	err := h.manager.With(r.Context(), sess.User, func(st *repository.Store) error {
		var err error
		cycles, err = st.ListCycles(r.Context(), full)
		return err
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"cycles": cycles})
}

func (h *Handler) addCycle(w http.ResponseWriter, r *http.Request) {
	sess := newSession(r)
	var req struct {
		Name string `json:"name"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	err := h.manager.With(r.Context(), sess.User, func(st *repository.Store) error {
		return st.AddCycle(r.Context(), req.Name)
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusCreated, map[string]any{"cycle": repository.NormalizeCycle(req.Name)})
}

func (h *Handler) deleteCycle(w http.ResponseWriter, r *http.Request) {
	sess := newSession(r)
	err := h.manager.With(r.Context(), sess.User, func(st *repository.Store) error {
		return st.DeleteCycle(r.Context(), sess.Cycle)
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getActiveCycles(w http.ResponseWriter, r *http.Request) {
	sess := newSession(r)
	var active []string
	err := h.manager.With(r.Context(), sess.User, func(st *repository.Store) error {
		var err error
		active, err = st.ActiveCycles(r.Context())
		return err
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"active": active})
}

func (h *Handler) putActiveCycles(w http.ResponseWriter, r *http.Request) {
	sess := newSession(r)
	var req struct {
		Active []string `json:"active"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	err := h.manager.With(r.Context(), sess.User, func(st *repository.Store) error {
		return st.UpdateStatuses(r.Context(), req.Active)
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listEntries(w http.ResponseWriter, r *http.Request) {
	sess := newSession(r)
	var entries []model.Entry
	err := h.manager.With(r.Context(), sess.User, func(st *repository.Store) error {
		var err error
		entries, err = st.CycleEntries(r.Context(), sess.Cycle)
		return err
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"cycle": sess.Cycle, "entries": entries})
}

type entryRequest struct {
	Date        string   `json:"date"`
	Position    string   `json:"position"`
	Company     string   `json:"company"`
	Description string   `json:"description"`
	Link        string   `json:"link"`
	Tags        []string `json:"tags"`
	Status      string   `json:"status"`
}

func (h *Handler) addEntry(w http.ResponseWriter, r *http.Request) {
	sess := newSession(r)
	var req entryRequest
	if !h.decode(w, r, &req) {
		return
	}

	date, err := time.Parse(time.DateOnly, req.Date)
	if err != nil {
		h.fail(w, r, fmt.Errorf("date %q: %w", req.Date, repository.ErrValidation))
		return
	}

	entry := model.Entry{
		Date:        date,
		Position:    req.Position,
		Company:     req.Company,
		Description: req.Description,
		Link:        req.Link,
		Tags:        model.JoinTags(req.Tags),
		Status:      req.Status,
	}

	err = h.manager.With(r.Context(), sess.User, func(st *repository.Store) error {
		return st.AddEntry(r.Context(), sess.Cycle, &entry)
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusCreated, entry)
}

type cellEditRequest struct {
	// RowIDs is the id column of the table as the client displayed it,
	// in display order. Edits are keyed by display row index.
	RowIDs []uint                       `json:"row_ids"`
	Edits  map[string]map[string]string `json:"edits"`
}

func (h *Handler) patchEntries(w http.ResponseWriter, r *http.Request) {
	sess := newSession(r)
	var req cellEditRequest
	if !h.decode(w, r, &req) {
		return
	}

	edits := make(map[int]map[string]string, len(req.Edits))
	for key, cells := range req.Edits {
		idx, err := strconv.Atoi(key)
		if err != nil {
			h.fail(w, r, fmt.Errorf("row key %q: %w", key, repository.ErrIntegrity))
			return
		}
		edits[idx] = cells
	}

	err := h.manager.With(r.Context(), sess.User, func(st *repository.Store) error {
		return st.UpdateEntryCells(r.Context(), sess.Cycle, req.RowIDs, edits)
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) cycleMetrics(w http.ResponseWriter, r *http.Request) {
	sess := newSession(r)
	m, err := h.metrics.Overview(r.Context(), sess.User, sess.Cycle)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, m)
}

func (h *Handler) getSetting(w http.ResponseWriter, r *http.Request) {
	sess := newSession(r)
	key := chi.URLParam(r, "key")

	var value string
	err := h.manager.With(r.Context(), sess.User, func(st *repository.Store) error {
		var err error
		value, err = st.GetSetting(r.Context(), key)
		return err
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"key": key, "value": value})
}

func (h *Handler) putSetting(w http.ResponseWriter, r *http.Request) {
	sess := newSession(r)
	key := chi.URLParam(r, "key")
	var req struct {
		Value string `json:"value"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	err := h.manager.With(r.Context(), sess.User, func(st *repository.Store) error {
		return st.UpdateSetting(r.Context(), key, req.Value)
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listResources(w http.ResponseWriter, r *http.Request) {
	sess := newSession(r)
	var resources []model.Resource
	err := h.manager.With(r.Context(), sess.User, func(st *repository.Store) error {
		var err error
		resources, err = st.Resources(r.Context())
		return err
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"resources": resources})
}

func (h *Handler) addResource(w http.ResponseWriter, r *http.Request) {
	sess := newSession(r)
	var req struct {
		Name string `json:"name"`
		Link string `json:"link"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	err := h.manager.With(r.Context(), sess.User, func(st *repository.Store) error {
		return st.AddResource(r.Context(), req.Name, req.Link)
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.fail(w, r, fmt.Errorf("bad request body: %w", repository.ErrValidation))
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := errStatus(err)
	if code == http.StatusInternalServerError {
		h.log.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	respond(w, code, map[string]any{"error": err.Error()})
}

func errStatus(err error) int {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, repository.ErrIntegrity):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respond(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
