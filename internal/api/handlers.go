package api

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

	"github.com/yegors/weekend-fares/internal/flights"
	"github.com/yegors/weekend-fares/internal/storage/sqlite"
	"github.com/yegors/weekend-fares/pkg/logger"
)

// ScanReader is the read side of the scan journal
type ScanReader interface {
	GetRecentRuns(limit int) ([]*sqlite.ScanRun, error)
	GetRunWindows(runID int64) ([]*sqlite.ScanWindow, error)
}

// Handler serves the flights API
type Handler struct {
	flights *flights.Service
	scans   ScanReader
	logger  *logger.Logger
}

// NewHandler creates a new handler
func NewHandler(flightService *flights.Service, scans ScanReader, log *logger.Logger) *Handler {
	return &Handler{
		flights: flightService,
		scans:   scans,
		logger:  log.Named("api-handler"),
	}
}

// GetFlights returns one filtered, sorted page of the flights table
func (h *Handler) GetFlights(w http.ResponseWriter, r *http.Request) {
	query, err := parseFlightsQuery(r.URL.Query())
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	page, err := h.flights.Search(r.Context(), query)
	if errors.Is(err, flights.ErrNotFound) {
		writeDetail(w, http.StatusNotFound, notFoundDetail(h.flights.Path()))
		return
	}
	if err != nil {
		h.logger.Error("Failed to query flights", logger.Error(err))
		writeDetail(w, http.StatusInternalServerError, "failed to load flights")
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// DownloadFlights streams the raw table as a file download
func (h *Handler) DownloadFlights(w http.ResponseWriter, r *http.Request) {
	f, err := h.flights.Open()
	if errors.Is(err, flights.ErrNotFound) {
		writeDetail(w, http.StatusNotFound, notFoundDetail(h.flights.Path()))
		return
	}
	if err != nil {
		h.logger.Error("Failed to open flights table", logger.Error(err))
		writeDetail(w, http.StatusInternalServerError, "failed to open flights table")
		return
	}
	defer f.Close()

	modTime := time.Time{}
	if info, err := f.Stat(); err == nil {
		modTime = info.ModTime()
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="flights.csv"`)
	http.ServeContent(w, r, "flights.csv", modTime, f)
}

// GetScans lists recent scan runs from the journal
func (h *Handler) GetScans(w http.ResponseWriter, r *http.Request) {
	if h.scans == nil {
		writeDetail(w, http.StatusNotFound, "scan journal is disabled")
		return
	}

	limit := 20
	if value := r.URL.Query().Get("limit"); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed <= 0 {
			writeDetail(w, http.StatusUnprocessableEntity, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	runs, err := h.scans.GetRecentRuns(limit)
	if err != nil {
		h.logger.Error("Failed to list scan runs", logger.Error(err))
		writeDetail(w, http.StatusInternalServerError, "failed to list scan runs")
		return
	}
	if runs == nil {
		runs = []*sqlite.ScanRun{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(runs),
		"runs":  runs,
	})
}

// GetScanWindows lists the window outcomes of one run
func (h *Handler) GetScanWindows(w http.ResponseWriter, r *http.Request) {
	if h.scans == nil {
		writeDetail(w, http.StatusNotFound, "scan journal is disabled")
		return
	}

	runID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid scan id")
		return
	}

	windows, err := h.scans.GetRunWindows(runID)
	if err != nil {
		h.logger.Error("Failed to list scan windows", logger.Int64("run_id", runID), logger.Error(err))
		writeDetail(w, http.StatusInternalServerError, "failed to list scan windows")
		return
	}
	if len(windows) == 0 {
		writeDetail(w, http.StatusNotFound, fmt.Sprintf("scan %d not found", runID))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":  runID,
		"windows": windows,
	})
}

// GetHealth reports liveness
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func parseFlightsQuery(values url.Values) (flights.Query, error) {
	q := flights.DefaultQuery()
	q.Origin = strings.TrimSpace(values.Get("origin"))
	q.Destination = strings.TrimSpace(values.Get("destination"))
	q.StartDate = strings.TrimSpace(values.Get("start_date"))
	q.EndDate = strings.TrimSpace(values.Get("end_date"))

	if value := values.Get("sort_by"); value != "" {
		q.SortBy = value
	}
	if value := values.Get("order"); value != "" {
		q.Order = value
	}

	var err error
	if q.MinPrice, err = parseOptionalFloat(values, "min_price"); err != nil {
		return q, err
	}
	if q.MaxPrice, err = parseOptionalFloat(values, "max_price"); err != nil {
		return q, err
	}
	if q.Offset, err = parseInt(values, "offset", 0); err != nil {
		return q, err
	}
	if q.Limit, err = parseInt(values, "limit", flights.DefaultLimit); err != nil {
		return q, err
	}

	return q, q.Validate()
}

func parseOptionalFloat(values url.Values, key string) (*float64, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number", key)
	}
	return &parsed, nil
}

func parseInt(values url.Values, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return parsed, nil
}

func notFoundDetail(path string) string {
	return fmt.Sprintf("CSV not found at %s", path)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
