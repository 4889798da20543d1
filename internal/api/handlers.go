// Package api exposes HTTP handlers for the logbook service.
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/drjagan/e-logbook/internal/auth"
	"github.com/drjagan/e-logbook/internal/domain"
	"github.com/drjagan/e-logbook/internal/observability"
	"github.com/drjagan/e-logbook/internal/report"
)

const maxBodyBytes = 1 << 20

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service *domain.Service
	logger  *zap.Logger
	now     func() time.Time
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, logger: logger, now: time.Now}
}

// RegisterRoutes wires endpoints to the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", healthz)
	r.Route("/v1/activities", func(r chi.Router) {
		r.Get("/", h.listActivities)
		r.Post("/", h.createActivity)
		r.Get("/stats", h.activityStats)
		r.Get("/{id}", h.getActivity)
		r.Put("/{id}", h.updateActivity)
		r.Patch("/{id}", h.updateActivity)
		r.Delete("/{id}", h.deleteActivity)
	})
	r.Post("/v1/reports", h.createReport)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) listActivities(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.authorize(w, r, auth.ScopeActivitiesRead)
	if !ok {
		return
	}

	query, err := parseListQuery(r)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	page, err := h.service.ListActivities(r.Context(), claims.Subject, query)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	items := make([]ActivityView, 0, len(page.Items))
	for _, a := range page.Items {
		items = append(items, toActivityView(a))
	}
	writeJSON(w, http.StatusOK, ListActivitiesResponse{
		Data:       items,
		Pagination: PaginationView{Page: page.Page, Limit: page.Limit, Total: page.Total},
	})
}

func (h *Handler) getActivity(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.authorize(w, r, auth.ScopeActivitiesRead)
	if !ok {
		return
	}

	activity, err := h.service.GetActivity(r.Context(), claims.Subject, chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataEnvelope{Data: toActivityView(*activity)})
}

func (h *Handler) createActivity(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.authorize(w, r, auth.ScopeActivitiesWrite)
	if !ok {
		return
	}

	var req CreateActivityRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	activity, err := h.service.CreateActivity(r.Context(), claims.Subject, input)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, dataEnvelope{Data: toActivityView(*activity)})
}

func (h *Handler) updateActivity(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.authorize(w, r, auth.ScopeActivitiesWrite)
	if !ok {
		return
	}

	var req UpdateActivityRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	id := chi.URLParam(r, "id")
	input, err := req.toInput()
	if err != nil {
		// an unknown id wins over a malformed date
		if _, getErr := h.service.GetActivity(r.Context(), claims.Subject, id); getErr != nil {
			err = getErr
		}
		h.writeDomainError(w, r, err)
		return
	}

	activity, err := h.service.UpdateActivity(r.Context(), claims.Subject, id, input)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataEnvelope{Data: toActivityView(*activity)})
}

func (h *Handler) deleteActivity(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.authorize(w, r, auth.ScopeActivitiesWrite)
	if !ok {
		return
	}

	if err := h.service.DeleteActivity(r.Context(), claims.Subject, chi.URLParam(r, "id")); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataEnvelope{Data: struct{}{}})
}

func (h *Handler) activityStats(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.authorize(w, r, auth.ScopeActivitiesRead)
	if !ok {
		return
	}

	stats, err := h.service.Stats(r.Context(), claims.Subject)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataEnvelope{Data: toStatsView(stats)})
}

func (h *Handler) createReport(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.authorize(w, r, auth.ScopeActivitiesRead)
	if !ok {
		return
	}

	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "xlsx" {
		writeError(w, http.StatusBadRequest, "invalid_format", "format must be json or xlsx", "format")
		return
	}

	var req CreateReportRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	activities, err := h.service.GetActivities(r.Context(), claims.Subject, req.ActivityIDs)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	doc, err := report.Compose(report.Request{
		Activities:  activities,
		DateRange:   report.DateRange{Start: req.DateRange.Start, End: req.DateRange.End},
		DisplayName: req.DisplayName,
		TypeLabel:   req.Type,
		GeneratedAt: h.now().UTC(),
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	observability.RecordReportComposed(format, doc.PageCount())

	if format == "json" {
		writeJSON(w, http.StatusOK, dataEnvelope{Data: toReportView(doc)})
		return
	}

	var buf bytes.Buffer
	if err := report.WriteWorkbook(doc, &buf); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	filename := fmt.Sprintf("logbook-%s.xlsx", h.now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// authorize resolves the caller and checks scope, writing 401/403 itself.
func (h *Handler) authorize(w http.ResponseWriter, r *http.Request, scope string) (*auth.Claims, bool) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token", "")
		return nil, false
	}
	if !claims.Allows(scope) {
		writeError(w, http.StatusForbidden, "forbidden", "scope "+scope+" required", "")
		return nil, false
	}
	return claims, true
}

func parseListQuery(r *http.Request) (domain.ListQuery, error) {
	values := r.URL.Query()
	var query domain.ListQuery

	if raw := strings.TrimSpace(values.Get("type")); raw != "" && raw != "All" {
		t, err := domain.ParseActivityType(raw)
		if err != nil {
			return query, err
		}
		query.Type = &t
	}

	start, err := domain.ParseOptionalDate("startDate", values.Get("startDate"), false)
	if err != nil {
		return query, err
	}
	end, err := domain.ParseOptionalDate("endDate", values.Get("endDate"), true)
	if err != nil {
		return query, err
	}
	query.StartDate, query.EndDate = start, end

	if query.Page, err = parseInt("page", values.Get("page")); err != nil {
		return query, err
	}
	if query.Limit, err = parseInt("limit", values.Get("limit")); err != nil {
		return query, err
	}
	return query.Normalized(), nil
}

func parseInt(field, raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &domain.FormatError{Field: field, Value: raw, Err: err}
	}
	return n, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &domain.FormatError{Field: "body", Err: err}
	}
	return nil
}

func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *domain.ValidationError
	var formatErr *domain.FormatError
	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, "validation_failed", validationErr.Message, validationErr.Field)
	case errors.As(err, &formatErr):
		writeError(w, http.StatusBadRequest, "invalid_format", formatErr.Error(), formatErr.Field)
	case errors.Is(err, domain.ErrActivityNotFound):
		writeError(w, http.StatusNotFound, "not_found", "activity not found", "")
	default:
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "server_error", "internal server error", "")
	}
}

func writeError(w http.ResponseWriter, status int, code, detail, field string) {
	writeJSON(w, status, ErrorResponse{Type: code, Detail: detail, Field: field})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
