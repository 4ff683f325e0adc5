package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aleister1102/downtime/internal/common"
	"github.com/aleister1102/downtime/internal/common/errorwrapper"
	"github.com/aleister1102/downtime/internal/datastore"
	"github.com/aleister1102/downtime/internal/models"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/hlog"
)

const (
	maxBodyBytes = 1 << 20

	msgAdded        = "Website added for monitoring"
	msgRemoved      = "Website removed from monitoring"
	msgNotFound     = "Website not found"
	msgInvalidBody  = "invalid request body"
	msgURLRequired  = "url is required"
	msgInternal     = "internal server error"
	msgSearchFailed = "search timed out"
	msgScanAborted  = "scan did not complete"

	recentScansLimit = 5
)

// SiteService is what the handlers need from the monitoring service.
type SiteService interface {
	ListSites() []models.MonitoredSite
	AddSite(rawURL string) (models.MonitoredSite, bool, error)
	RemoveSite(rawURL string) error
	Search(ctx context.Context, rawURL string) (models.MonitoredSite, error)
	SiteCount() int
	Uptime() time.Duration
	LastScan() (models.ScanSummary, bool)
	ScanAll(ctx context.Context) (models.ScanSummary, error)
	SchedulerActive() bool
	LastCompletedScan(ctx context.Context) (time.Time, bool)
	RecentScans(ctx context.Context, limit int) ([]datastore.ScanHistoryEntry, error)
}

// ResourceReporter returns process and host statistics for /healthz.
type ResourceReporter func(ctx context.Context) common.ResourceUsage

// Handlers holds dependencies for the API handlers.
type Handlers struct {
	service   SiteService
	validate  *validator.Validate
	resources ResourceReporter
}

// NewHandlers creates a new Handlers struct.
func NewHandlers(service SiteService, resources ResourceReporter) *Handlers {
	if resources == nil {
		resources = common.GetResourceUsage
	}
	return &Handlers{
		service:   service,
		validate:  validator.New(),
		resources: resources,
	}
}

type urlRequest struct {
	URL string `json:"url" validate:"required"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type healthResponse struct {
	Status          string                       `json:"status"`
	Sites           int                          `json:"sites"`
	UptimeSeconds   int64                        `json:"uptime_seconds"`
	SchedulerActive bool                         `json:"scheduler_active"`
	LastScan        *models.ScanSummary          `json:"last_scan,omitempty"`
	LastCompletedAt *time.Time                   `json:"last_completed_scan_at,omitempty"`
	RecentScans     []datastore.ScanHistoryEntry `json:"recent_scans,omitempty"`
	Resources       common.ResourceUsage         `json:"resources"`
}

// ListSites returns every monitored website.
func (h *Handlers) ListSites(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, h.service.ListSites())
}

// Search reports the status of a URL, monitored or not.
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeURLRequest(w, r)
	if !ok {
		return
	}

	site, err := h.service.Search(r.Context(), req.URL)
	switch {
	case err == nil:
		writeJSON(w, r, http.StatusOK, site)
	case errors.Is(err, errorwrapper.ErrInvalidInput):
		writeMessage(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeMessage(w, r, http.StatusGatewayTimeout, msgSearchFailed)
	default:
		hlog.FromRequest(r).Error().Err(err).Str("url", req.URL).Msg("Search failed")
		writeMessage(w, r, http.StatusInternalServerError, msgInternal)
	}
}

// AddSite starts monitoring a URL. Adding an existing URL succeeds without changes.
func (h *Handlers) AddSite(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeURLRequest(w, r)
	if !ok {
		return
	}

	if _, _, err := h.service.AddSite(req.URL); err != nil {
		if errors.Is(err, errorwrapper.ErrInvalidInput) {
			writeMessage(w, r, http.StatusBadRequest, err.Error())
			return
		}
		hlog.FromRequest(r).Error().Err(err).Str("url", req.URL).Msg("Add failed")
		writeMessage(w, r, http.StatusInternalServerError, msgInternal)
		return
	}
	writeMessage(w, r, http.StatusOK, msgAdded)
}

// RemoveSite stops monitoring a URL.
func (h *Handlers) RemoveSite(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeURLRequest(w, r)
	if !ok {
		return
	}

	err := h.service.RemoveSite(req.URL)
	switch {
	case err == nil:
		writeMessage(w, r, http.StatusOK, msgRemoved)
	case errors.Is(err, models.ErrSiteNotFound):
		writeMessage(w, r, http.StatusNotFound, msgNotFound)
	case errors.Is(err, errorwrapper.ErrInvalidInput):
		writeMessage(w, r, http.StatusBadRequest, err.Error())
	default:
		hlog.FromRequest(r).Error().Err(err).Str("url", req.URL).Msg("Remove failed")
		writeMessage(w, r, http.StatusInternalServerError, msgInternal)
	}
}

// ScanNow runs a full pass, or joins the one in flight, and returns its summary.
func (h *Handlers) ScanNow(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.ScanAll(r.Context())
	switch {
	case err == nil:
		writeJSON(w, r, http.StatusOK, summary)
	case r.Context().Err() != nil:
		writeMessage(w, r, http.StatusGatewayTimeout, msgScanAborted)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeMessage(w, r, http.StatusServiceUnavailable, msgScanAborted)
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("Scan failed")
		writeMessage(w, r, http.StatusInternalServerError, msgInternal)
	}
}

// Healthz reports liveness plus a few runtime figures.
func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := healthResponse{
		Status:          "ok",
		Sites:           h.service.SiteCount(),
		UptimeSeconds:   int64(h.service.Uptime().Seconds()),
		SchedulerActive: h.service.SchedulerActive(),
		Resources:       h.resources(ctx),
	}
	if last, ok := h.service.LastScan(); ok {
		resp.LastScan = &last
	}
	if at, ok := h.service.LastCompletedScan(ctx); ok {
		resp.LastCompletedAt = &at
	}
	recent, err := h.service.RecentScans(ctx, recentScansLimit)
	if err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("Failed to read scan history")
	}
	resp.RecentScans = recent
	writeJSON(w, r, http.StatusOK, resp)
}

func (h *Handlers) decodeURLRequest(w http.ResponseWriter, r *http.Request) (urlRequest, bool) {
	var req urlRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, r, http.StatusBadRequest, msgInvalidBody)
		return req, false
	}
	if err := h.validate.Struct(req); err != nil {
		writeMessage(w, r, http.StatusBadRequest, msgURLRequired)
		return req, false
	}
	return req, true
}

func writeMessage(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, r, status, messageResponse{Message: message})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("Failed to write response")
	}
}
