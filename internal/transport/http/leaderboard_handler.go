package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "engageboard/internal/errors"
	"engageboard/internal/middleware"
	"engageboard/internal/services"
	"engageboard/pkg/contracts/domain"
)

const (
	defaultListLimit = 20
	maxListLimit     = 200
	// multipart parts above this size spill to temporary files
	multipartMemory = 8 << 20
)

// detectRequest is the form of POST /columns/detect
type detectRequest struct {
	Kind string `json:"kind" validate:"required,tablekind"`
}

// generateRequest is the non-file part of POST /leaderboards
type generateRequest struct {
	Label    string                       `json:"label" validate:"max=200"`
	PriorRun string                       `json:"prior_run" validate:"omitempty,max=64"`
	Mapping  map[string]map[string]string `json:"mapping" validate:"dive,keys,tablekind,endkeys,dive,keys,field,endkeys"`
}

// LeaderboardHandler handles leaderboard HTTP requests with RFC 7807 errors
type LeaderboardHandler struct {
	service        LeaderboardServiceInterface
	logger         *slog.Logger
	errorHandler   *apierrors.ErrorHandler
	validator      *middleware.Validator
	queryValidator *middleware.QueryParamValidator
}

// NewLeaderboardHandler creates a new leaderboard handler
func NewLeaderboardHandler(service LeaderboardServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *LeaderboardHandler {
	return &LeaderboardHandler{
		service:        service,
		logger:         logger.With(slog.String("component", "leaderboard_handler")),
		errorHandler:   errorHandler,
		validator:      middleware.NewValidator(),
		queryValidator: middleware.NewQueryParamValidator(logger, errorHandler),
	}
}

// Routes returns the /leaderboards routes
func (h *LeaderboardHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(middleware.ContentTypeValidator(h.errorHandler, "multipart/form-data")).Post("/", h.CreateLeaderboard)
	r.Get("/", h.ListLeaderboards)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.GetLeaderboard)
		r.Delete("/", h.DeleteLeaderboard)
		r.Get("/export", h.ExportLeaderboard)
	})
	return r
}

// DetectColumns handles POST /api/columns/detect
func (h *LeaderboardHandler) DetectColumns(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		h.errorHandler.HandleError(w, r, formError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	req := detectRequest{Kind: strings.ToLower(strings.TrimSpace(r.FormValue("kind")))}
	if err := h.validator.ValidateStruct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", "file is required"))
		return
	}
	defer file.Close()

	detection, err := h.service.DetectReader(header.Filename, file, domain.TableKind(req.Kind))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, detection)
}

// CreateLeaderboard handles POST /api/leaderboards
func (h *LeaderboardHandler) CreateLeaderboard(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		h.errorHandler.HandleError(w, r, formError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	form := generateRequest{
		Label:    r.FormValue("label"),
		PriorRun: strings.TrimSpace(r.FormValue("prior_run")),
	}
	if raw := r.FormValue("mapping"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &form.Mapping); err != nil {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("mapping", "mapping must be a JSON object of table kind to field to column"))
			return
		}
	}
	if err := h.validator.ValidateStruct(form); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	sources, err := collectSources(func(field string) (*services.Source, error) {
		return formSource(r, field)
	}, "performance", "previous", "followers")
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	defer closeSources(sources...)

	performance, previous, followers := sources[0], sources[1], sources[2]
	if performance == nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("performance", "performance file is required"))
		return
	}

	req := services.GenerateRequest{
		Performance: *performance,
		Previous:    previous,
		Followers:   followers,
		PriorRunID:  form.PriorRun,
		Mappings:    toMappings(form.Mapping),
		Label:       form.Label,
	}

	run, err := h.service.Generate(r.Context(), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "leaderboard created",
		slog.String("run_id", run.ID),
		slog.Int("pages", len(run.Result.Rows)))

	w.Header().Set("Location", fmt.Sprintf("/api/leaderboards/%s", run.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, run)
}

// ListLeaderboards handles GET /api/leaderboards
func (h *LeaderboardHandler) ListLeaderboards(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.queryValidator.ValidateInt(w, r, "limit", 1, maxListLimit, defaultListLimit)
	if !ok {
		return
	}

	runs, err := h.service.List(r.Context(), limit)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// GetLeaderboard handles GET /api/leaderboards/{id}
func (h *LeaderboardHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	run, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, run)
}

// DeleteLeaderboard handles DELETE /api/leaderboards/{id}
func (h *LeaderboardHandler) DeleteLeaderboard(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportLeaderboard handles GET /api/leaderboards/{id}/export?format=csv|xlsx
func (h *LeaderboardHandler) ExportLeaderboard(w http.ResponseWriter, r *http.Request) {
	format, ok := h.queryValidator.ValidateEnum(w, r, "format",
		[]string{string(services.FormatCSV), string(services.FormatXLSX)}, string(services.FormatCSV))
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	run, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	// buffered so a failed export can still produce a problem response
	var buf bytes.Buffer
	exportFormat := services.ExportFormat(format)
	if err := h.service.Export(r.Context(), run, exportFormat, &buf); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", exportFormat.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="leaderboard-%s.%s"`, id, format))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "export write failed", slog.String("error", err.Error()))
	}
}

// formSource opens an uploaded file part. A missing part yields nil.
func formSource(r *http.Request, field string) (*services.Source, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, apierrors.InvalidRequestWithError(err)
	}
	return &services.Source{Name: header.Filename, Reader: file}, nil
}

// collectSources opens every field in order. When one fails, the files opened
// before it are closed.
func collectSources(open func(field string) (*services.Source, error), fields ...string) ([]*services.Source, error) {
	sources := make([]*services.Source, len(fields))
	for i, field := range fields {
		src, err := open(field)
		if err != nil {
			closeSources(sources[:i]...)
			return nil, err
		}
		sources[i] = src
	}
	return sources, nil
}

func closeSources(sources ...*services.Source) {
	for _, src := range sources {
		if src == nil {
			continue
		}
		if f, ok := src.Reader.(multipart.File); ok {
			f.Close()
		}
	}
}

func toMappings(raw map[string]map[string]string) map[domain.TableKind]domain.Mapping {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[domain.TableKind]domain.Mapping, len(raw))
	for kind, fields := range raw {
		m := make(domain.Mapping, len(fields))
		for field, col := range fields {
			m[domain.Field(field)] = col
		}
		out[domain.TableKind(kind)] = m
	}
	return out
}

// formError keeps size-limit errors intact so they map to 413
func formError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return err
	}
	return apierrors.InvalidRequestWithError(err)
}
