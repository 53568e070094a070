// Package handler exposes the content endpoints: packaged HTML bundle
// metadata, SCORM package upload, and the SCORM runtime value API.
package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"log/slog"

	"mobile-gateway/internal/content"
	"mobile-gateway/internal/content/scorm"
	dErrors "mobile-gateway/pkg/domain-errors"
	"mobile-gateway/pkg/platform/httputil"
)

// maxUploadSize bounds SCORM package uploads.
const maxUploadSize = 512 << 20

// Handler carries the content endpoints' dependencies.
type Handler struct {
	svc      *content.Service
	packages *scorm.PackageStore
	tracker  *scorm.Tracker
	resolve  func(r *http.Request) (string, error)
	logger   *slog.Logger
}

// New constructs the content handler. resolve maps a request to the
// caller's platform username.
func New(svc *content.Service, packages *scorm.PackageStore, tracker *scorm.Tracker, resolve func(r *http.Request) (string, error), logger *slog.Logger) *Handler {
	return &Handler{svc: svc, packages: packages, tracker: tracker, resolve: resolve, logger: logger}
}

// Routes mounts the content endpoints on r. Bearer auth is applied by the
// router before these are reached.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/content/v1/html_blocks/{blockID}/student_view_data/", h.HTMLStudentViewData)
	r.Post("/content/v1/scorm/{blockID}/package/", h.UploadPackage)
	r.Get("/content/v1/scorm/{blockID}/student_view_data/", h.ScormStudentViewData)
	r.Get("/content/v1/scorm/{blockID}/values/", h.GetValues)
	r.Post("/content/v1/scorm/{blockID}/value/", h.SetValue)
	r.Post("/content/v1/scorm/{blockID}/values/", h.SetValues)
}

// HTMLStudentViewData returns the packaged bundle description for an HTML
// block, packaging on first access.
func (h *Handler) HTMLStudentViewData(w http.ResponseWriter, r *http.Request) {
	courseID := r.URL.Query().Get("course_id")
	if courseID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "course_id is required."))
		return
	}
	data, err := h.svc.StudentViewData(r.Context(), courseID, chi.URLParam(r, "blockID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, data)
}

// blockLocation reads the block address from query parameters.
func blockLocation(r *http.Request) (scorm.BlockLocation, error) {
	q := r.URL.Query()
	loc := scorm.BlockLocation{
		Org:       q.Get("org"),
		Course:    q.Get("course"),
		BlockType: "scorm",
		BlockID:   chi.URLParam(r, "blockID"),
	}
	if loc.Org == "" || loc.Course == "" {
		return scorm.BlockLocation{}, dErrors.New(dErrors.CodeBadRequest, "org and course are required.")
	}
	return loc, nil
}

// UploadPackage accepts a SCORM zip and stores it for the block.
func (h *Handler) UploadPackage(w http.ResponseWriter, r *http.Request) {
	loc, err := blockLocation(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed multipart body"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "file is required."))
		return
	}
	defer file.Close()

	meta, err := h.packages.Save(r.Context(), loc, header.Filename, file)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, meta)
}

// ScormStudentViewData reports the stored package's location and freshness.
func (h *Handler) ScormStudentViewData(w http.ResponseWriter, r *http.Request) {
	loc, err := blockLocation(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	meta, err := h.packages.LoadMeta(r.Context(), loc)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	data, err := h.packages.StudentViewData(r.Context(), loc, *meta)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, data)
}

// blockConfig reads grading settings from query parameters, defaulting to
// a scored block with weight 1.
func blockConfig(r *http.Request) scorm.BlockConfig {
	cfg := scorm.BlockConfig{HasScore: true, Weight: 1}
	q := r.URL.Query()
	if v := q.Get("has_score"); v != "" {
		cfg.HasScore = v == "true" || v == "1"
	}
	if v := q.Get("weight"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Weight = f
		}
	}
	return cfg
}

// GetValues returns the raw runtime data for the caller and block.
func (h *Handler) GetValues(w http.ResponseWriter, r *http.Request) {
	username, err := h.resolve(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	values, err := h.tracker.GetValues(r.Context(), username, chi.URLParam(r, "blockID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, values)
}

// SetValue applies one live runtime write.
func (h *Handler) SetValue(w http.ResponseWriter, r *http.Request) {
	username, err := h.resolve(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeJSON[scorm.SetValueRequest](w, r, h.logger)
	if !ok {
		return
	}
	result, err := h.tracker.SetValue(r.Context(), username, chi.URLParam(r, "blockID"), blockConfig(r), *req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// SetValues applies a batched offline sync.
func (h *Handler) SetValues(w http.ResponseWriter, r *http.Request) {
	username, err := h.resolve(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeJSON[scorm.SetValuesRequest](w, r, h.logger)
	if !ok {
		return
	}
	result, err := h.tracker.SetValues(r.Context(), username, chi.URLParam(r, "blockID"), blockConfig(r), *req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}
