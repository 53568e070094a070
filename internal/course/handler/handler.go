// Package handler exposes the decorated course endpoints the mobile apps
// consume.
package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"log/slog"

	"mobile-gateway/internal/course"
	"mobile-gateway/internal/course/metrics"
	"mobile-gateway/internal/platform/lms"
	dErrors "mobile-gateway/pkg/domain-errors"
	"mobile-gateway/pkg/platform/httputil"
	"mobile-gateway/pkg/requestcontext"
)

const defaultPageSize = 10

// UsernameResolver maps an authenticated user ID to the platform username.
type UsernameResolver func(ctx context.Context, userID uuid.UUID) (string, error)

// Handler carries the course endpoints' dependencies.
type Handler struct {
	svc     *course.Service
	resolve UsernameResolver
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New constructs the course handler.
func New(svc *course.Service, resolve UsernameResolver, m *metrics.Metrics, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, resolve: resolve, metrics: m, logger: logger}
}

// Routes mounts the course endpoints on r. The router applies bearer auth
// before these are reached.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/v1/courses/{courseID}/progress", h.instrument("progress", h.Progress))
	r.Get("/v1/courses/{courseID}/", h.instrument("course_detail", h.CourseDetail))
	r.Get("/{apiVersion}/users/{username}/course_enrollments/", h.instrument("enrollments", h.Enrollments))
	r.Post("/discussion/v1/comments/", h.instrument("create_comment", h.CreateComment))
	r.Get("/v1/blocks/", h.instrument("blocks_v1", h.BlocksV1))
	r.Get("/v2/blocks/", h.instrument("blocks_v2", h.BlocksV2))
	r.Get("/courses/v1/courses/", h.instrument("course_list", h.Courses))
	r.Post("/user/v1/accounts/deactivate_logout/", h.instrument("deactivate", h.Deactivate))
}

// instrument records status and latency per endpoint.
func (h *Handler) instrument(endpoint string, fn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		fn(ww, r)
		h.metrics.Requests.WithLabelValues(endpoint, strconv.Itoa(ww.Status())).Inc()
		h.metrics.Duration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}
}

// requester resolves the authenticated caller's username.
func (h *Handler) requester(r *http.Request) (string, error) {
	userID := requestcontext.UserID(r.Context())
	if userID == uuid.Nil {
		return "", dErrors.New(dErrors.CodeUnauthorized, "Authentication credentials were not provided.")
	}
	return h.resolve(r.Context(), userID)
}

// Progress returns the chapter/section grade summary for a course.
func (h *Handler) Progress(w http.ResponseWriter, r *http.Request) {
	username, err := h.requester(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	progress, err := h.svc.CourseProgress(r.Context(), username, chi.URLParam(r, "courseID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, progress)
}

// Enrollments lists every course enrollment of a user, paginated.
func (h *Handler) Enrollments(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	requester, err := h.requester(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if username != requester {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "You do not have permission to view enrollments for this user."))
		return
	}

	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "page_size", defaultPageSize)
	result, err := h.svc.Enrollments(r.Context(), username, page, pageSize)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// CreateComment posts a discussion comment and returns it with the
// author's profile image metadata appended.
func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	username, err := h.requester(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	body, ok := httputil.DecodeJSON[map[string]any](w, r, h.logger)
	if !ok {
		return
	}
	comment, err := h.svc.CreateComment(r.Context(), username, *body)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, comment)
}

// BlocksV1 returns the block tree with access-denied blocks hidden, the
// behavior older app builds rely on.
func (h *Handler) BlocksV1(w http.ResponseWriter, r *http.Request) {
	h.blocks(w, r, true)
}

// BlocksV2 returns the block tree with access denials visible.
func (h *Handler) BlocksV2(w http.ResponseWriter, r *http.Request) {
	h.blocks(w, r, false)
}

func (h *Handler) blocks(w http.ResponseWriter, r *http.Request, hideAccessDenials bool) {
	username, err := h.requester(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	result, err := h.svc.Blocks(r.Context(), username, r.URL.Query(), hideAccessDenials)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// CourseDetail returns the catalog detail for one course with the caller's
// enrollment state.
func (h *Handler) CourseDetail(w http.ResponseWriter, r *http.Request) {
	username, err := h.requester(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	detail, err := h.svc.CourseDetail(r.Context(), chi.URLParam(r, "courseID"), username)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, detail)
}

// Courses lists the courses visible to the caller, filtered by org and
// search term.
func (h *Handler) Courses(w http.ResponseWriter, r *http.Request) {
	username, err := h.requester(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	q := r.URL.Query()
	filter := lms.CourseFilter{
		Username:    username,
		Org:         q.Get("org"),
		SearchTerm:  q.Get("search_term"),
		Permissions: q["permissions"],
	}
	result, err := h.svc.Courses(r.Context(), filter, queryInt(r, "page", 1), queryInt(r, "page_size", defaultPageSize))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

type deactivateRequest struct {
	Password string `json:"password"`
	Username string `json:"username,omitempty"`
}

// Deactivate retires the caller's account after re-verifying the password.
func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	requester, err := h.requester(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeJSON[deactivateRequest](w, r, h.logger)
	if !ok {
		return
	}
	if err := h.svc.Deactivate(r.Context(), requester, req.Username, req.Password); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
