package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zapponejosh/lesson-designer/internal/calendar"
	"github.com/zapponejosh/lesson-designer/internal/config"
	"github.com/zapponejosh/lesson-designer/internal/database"
	"github.com/zapponejosh/lesson-designer/internal/dataset"
	"github.com/zapponejosh/lesson-designer/internal/lesson"
	"github.com/zapponejosh/lesson-designer/internal/logger"
)

// maxBodyBytes bounds lesson request bodies.
const maxBodyBytes = 1 << 20

// Handlers contains all HTTP handlers and their dependencies.
type Handlers struct {
	service *lesson.Service
	store   *dataset.Store
	db      *database.DB
	cfg     *config.Config
	logger  *slog.Logger
	now     func() time.Time
}

// NewHandlers creates a new Handlers instance. db may be nil when the
// dataset is served from a file; health and admin statistics then skip
// the database.
func NewHandlers(service *lesson.Service, store *dataset.Store, db *database.DB, cfg *config.Config, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		service: service,
		store:   store,
		db:      db,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// today is the civil date used when a request omits one.
func (h *Handlers) today() calendar.CivilDate {
	return calendar.CivilOf(h.now())
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := h.db.Health(r.Context()); err != nil {
			logger.Warn(r.Context(), h.logger, "health check failed", slog.Any("error", err))
			WriteError(w, http.StatusServiceUnavailable, "Database unhealthy", CodeUnavailable)
			return
		}
	}

	WriteSuccess(w, map[string]string{
		"status":          "healthy",
		"dataset_version": h.service.DatasetVersion(),
	})
}

// GenerateLesson handles POST /api/v1/lessons
func (h *Handlers) GenerateLesson(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		WriteBadRequest(w, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	raw, err := lesson.DecodeRequest(body)
	if err != nil {
		WriteServiceError(w, r, h.logger, err)
		return
	}

	req, err := lesson.ParseRequest(raw, h.limits())
	if err != nil {
		WriteServiceError(w, r, h.logger, err)
		return
	}

	resp, err := h.service.Generate(r.Context(), req)
	if err != nil {
		WriteServiceError(w, r, h.logger, err)
		return
	}

	logger.Debug(r.Context(), h.logger, "lesson served",
		slog.String("topic", req.TopicOrPassage),
		slog.String("lesson_type", string(req.LessonType)),
		slog.Int("festivals", len(resp.Festivals)),
	)
	WriteSuccess(w, resp)
}

// GetFestivals handles GET /api/v1/festivals?date=YYYY-MM-DD&window=N&first_adar=bool
func (h *Handlers) GetFestivals(w http.ResponseWriter, r *http.Request) {
	date, opts, err := h.calendarQuery(r)
	if err != nil {
		WriteServiceError(w, r, h.logger, err)
		return
	}

	festivals, err := h.service.Festivals(date, opts)
	if err != nil {
		WriteServiceError(w, r, h.logger, err)
		return
	}

	WriteSuccess(w, map[string]any{
		"date":        date,
		"window_days": opts.WindowDays,
		"festivals":   festivals,
	})
}

// GetCongregationContext handles GET /api/v1/congregations/{id}/context
func (h *Handlers) GetCongregationContext(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		WriteBadRequest(w, "Congregation id is required")
		return
	}

	date, opts, err := h.calendarQuery(r)
	if err != nil {
		WriteServiceError(w, r, h.logger, err)
		return
	}

	cc, err := h.service.Congregation(date, id, opts)
	if err != nil {
		WriteServiceError(w, r, h.logger, err)
		return
	}

	WriteSuccess(w, cc)
}

// GetTopics handles GET /api/v1/topics
func (h *Handlers) GetTopics(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, map[string]any{
		"dataset_version": h.service.DatasetVersion(),
		"topics":          h.service.Topics(),
	})
}

// ReloadDataset handles POST /api/v1/admin/reload
func (h *Handlers) ReloadDataset(w http.ResponseWriter, r *http.Request) {
	previous := h.service.DatasetVersion()

	if err := h.store.Reload(r.Context()); err != nil {
		if dataset.IsIntegrity(err) || errors.Is(err, database.ErrEmpty) {
			logger.Warn(r.Context(), h.logger, "dataset reload rejected", slog.Any("error", err))
			WriteError(w, http.StatusUnprocessableEntity, err.Error(), CodeBadRequest)
			return
		}
		WriteServiceError(w, r, h.logger, err)
		return
	}

	logger.Info(r.Context(), h.logger, "dataset reloaded by admin",
		slog.String("previous_version", previous),
		slog.String("version", h.service.DatasetVersion()),
	)
	WriteSuccess(w, map[string]string{
		"previous_version": previous,
		"version":          h.service.DatasetVersion(),
	})
}

// GetDatasetStats handles GET /api/v1/admin/dataset
func (h *Handlers) GetDatasetStats(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		WriteNotFound(w, "Dataset is not backed by a database")
		return
	}

	ctx := r.Context()
	stats, err := h.db.GetStats(ctx)
	if err != nil {
		WriteServiceError(w, r, h.logger, err)
		return
	}

	limit := 10
	if s := r.URL.Query().Get("limit"); s != "" {
		if l, err := strconv.Atoi(s); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}
	imports, err := h.db.GetRecentImports(ctx, limit)
	if err != nil {
		WriteServiceError(w, r, h.logger, err)
		return
	}

	WriteSuccess(w, map[string]any{
		"serving_version": h.service.DatasetVersion(),
		"stored":          stats,
		"imports":         imports,
	})
}

// NotFound answers unknown routes with the standard envelope.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	WriteNotFound(w, fmt.Sprintf("No route for %s %s", r.Method, r.URL.Path))
}

// limits builds the request defaults from configuration.
func (h *Handlers) limits() lesson.Limits {
	return lesson.Limits{
		Today:         h.today(),
		DefaultWindow: h.cfg.WindowDays,
		MaxWindow:     h.cfg.MaxWindowDays,
	}
}

// calendarQuery reads date, window and first_adar query parameters.
func (h *Handlers) calendarQuery(r *http.Request) (calendar.CivilDate, calendar.Options, error) {
	q := r.URL.Query()

	date := h.today()
	if s := q.Get("date"); s != "" {
		parsed, err := calendar.ParseDate(s)
		if err != nil {
			return calendar.CivilDate{}, calendar.Options{}, err
		}
		date = parsed
	}

	opts := calendar.Options{WindowDays: h.cfg.WindowDays}
	if s := q.Get("window"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return calendar.CivilDate{}, calendar.Options{}, &lesson.RequestError{Field: "window", Reason: "must be a whole number"}
		}
		opts.WindowDays = n
	}
	if opts.WindowDays < 0 || opts.WindowDays > h.cfg.MaxWindowDays {
		return calendar.CivilDate{}, calendar.Options{}, &lesson.RequestError{
			Field:  "window",
			Reason: fmt.Sprintf("must be between 0 and %d", h.cfg.MaxWindowDays),
		}
	}

	if s := q.Get("first_adar"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return calendar.CivilDate{}, calendar.Options{}, &lesson.RequestError{Field: "first_adar", Reason: "must be true or false"}
		}
		opts.FirstAdar = b
	}

	return date, opts, nil
}
