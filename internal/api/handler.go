// internal/api/handler.go
package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"

	"github.com/davidwang456/github-commit-query-system/internal/model"
	"github.com/davidwang456/github-commit-query-system/internal/token"
)

// SyncService triggers provider synchronization runs.
type SyncService interface {
	SyncLastYear(ctx context.Context, accessToken string) (map[string]int, error)
	SyncRecent(ctx context.Context, accessToken, rng string) (map[string]int, error)
}

// QueryService serves read-only views over synced data.
type QueryService interface {
	HasData(ctx context.Context, accessToken string) (bool, error)
	DailyCounts(ctx context.Context, start, end time.Time, accessToken string) ([]model.DailyCount, error)
	CommitPage(ctx context.Context, project, branch string, page, size int, accessToken string) (model.CommitPage, error)
	Projects(ctx context.Context, accessToken string) ([]string, error)
	Branches(ctx context.Context, project, accessToken string) ([]string, error)
}

// Handler is the container for API dependencies.
type Handler struct {
	sync        SyncService
	query       QueryService
	tokenHeader string
	logger      *slog.Logger
}

// NewRouter creates and configures a new chi router with all API routes.
// tokenHeader is the provider-specific header carrying the access token;
// a `token` query parameter works as fallback.
func NewRouter(sync SyncService, query QueryService, tokenHeader string, logger *slog.Logger) http.Handler {
	h := &Handler{
		sync:        sync,
		query:       query,
		tokenHeader: tokenHeader,
		logger:      logger,
	}

	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger) // Chi's default logger
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Minute)) // a cold full-year sync is slow

	// API Routes
	r.Get("/health", h.healthCheck)
	r.Route("/api", func(r chi.Router) {
		r.Get("/fetch", h.fetch)
		r.Get("/sync", h.syncRecent)
		r.Get("/heatmap", h.heatmap)
		r.Get("/commits", h.getCommits)
		r.Get("/projects", h.getProjects)
		r.Get("/branches", h.getBranches)
	})

	return r
}

// healthCheck is a simple health endpoint.
func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// fetch serves the trailing-year heatmap, syncing it first when the token
// has no cached data yet.
// GET /api/fetch
func (h *Handler) fetch(w http.ResponseWriter, r *http.Request) {
	accessToken := h.resolveToken(r)
	start, end := trailingYear()
	h.logger.Info("Fetch request", "token", token.Mask(accessToken))

	cached, err := h.query.HasData(r.Context(), accessToken)
	if err != nil {
		h.logger.Error("Failed to check cached data", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	status := "cached"
	if !cached {
		if _, err := h.sync.SyncLastYear(r.Context(), accessToken); err != nil {
			h.logger.Error("Sync failed", "token", token.Mask(accessToken), "error", err)
			respondWithError(w, http.StatusBadGateway, "Failed to sync from provider")
			return
		}
		status = "synced"
	}

	h.respondHeatmap(w, r, accessToken, start, end, status)
}

// syncRecent re-syncs a short trailing window and returns the refreshed
// trailing-year heatmap.
// GET /api/sync?range=today|week|month
func (h *Handler) syncRecent(w http.ResponseWriter, r *http.Request) {
	accessToken := h.resolveToken(r)
	rng := r.URL.Query().Get("range")
	if rng == "" {
		rng = "week"
	}
	h.logger.Info("Sync request", "token", token.Mask(accessToken), "range", rng)

	if _, err := h.sync.SyncRecent(r.Context(), accessToken, rng); err != nil {
		h.logger.Error("Sync failed", "token", token.Mask(accessToken), "error", err)
		respondWithError(w, http.StatusBadGateway, "Failed to sync from provider")
		return
	}

	start, end := trailingYear()
	h.respondHeatmap(w, r, accessToken, start, end, "synced")
}

// heatmap serves the trailing-year day/count list without syncing.
// GET /api/heatmap
func (h *Handler) heatmap(w http.ResponseWriter, r *http.Request) {
	accessToken := h.resolveToken(r)
	start, end := trailingYear()

	counts, err := h.query.DailyCounts(r.Context(), start, end, accessToken)
	if err != nil {
		h.logger.Error("Failed to get daily counts", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondWithJSON(w, http.StatusOK, counts)
}

// getCommits serves the filtered, paginated commit history.
// GET /api/commits?project=&branch=&page=&size=
func (h *Handler) getCommits(w http.ResponseWriter, r *http.Request) {
	accessToken := h.resolveToken(r)
	q := r.URL.Query()

	page := parseIntDefault(q.Get("page"), 1)
	size := parseIntDefault(q.Get("size"), 20)

	result, err := h.query.CommitPage(r.Context(), q.Get("project"), q.Get("branch"), page, size, accessToken)
	if err != nil {
		h.logger.Error("Failed to query commits", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// getProjects serves the distinct repository list for the token.
// GET /api/projects
func (h *Handler) getProjects(w http.ResponseWriter, r *http.Request) {
	accessToken := h.resolveToken(r)

	projects, err := h.query.Projects(r.Context(), accessToken)
	if err != nil {
		h.logger.Error("Failed to get project list", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondWithJSON(w, http.StatusOK, projects)
}

// getBranches serves the distinct branch list of one repository.
// GET /api/branches?project=
func (h *Handler) getBranches(w http.ResponseWriter, r *http.Request) {
	accessToken := h.resolveToken(r)
	project := r.URL.Query().Get("project")
	if strings.TrimSpace(project) == "" {
		respondWithError(w, http.StatusBadRequest, "Missing 'project' parameter")
		return
	}

	branches, err := h.query.Branches(r.Context(), project, accessToken)
	if err != nil {
		h.logger.Error("Failed to get branch list", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondWithJSON(w, http.StatusOK, branches)
}

func (h *Handler) respondHeatmap(w http.ResponseWriter, r *http.Request, accessToken string, start, end time.Time, status string) {
	counts, err := h.query.DailyCounts(r.Context(), start, end, accessToken)
	if err != nil {
		h.logger.Error("Failed to get daily counts", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{
		"status": status,
		"days":   len(counts),
		"data":   counts,
	})
}

// resolveToken reads the access token from the configured header, falling
// back to the `token` query parameter. Header wins when both are set.
func (h *Handler) resolveToken(r *http.Request) string {
	if v := r.Header.Get(h.tokenHeader); strings.TrimSpace(v) != "" {
		return v
	}
	return r.URL.Query().Get("token")
}

// trailingYear is the 365-day window ending today in local time.
func trailingYear() (start, end time.Time) {
	end = time.Now()
	start = end.AddDate(-1, 0, 1)
	return start, end
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(body)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}
