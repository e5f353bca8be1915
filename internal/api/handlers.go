package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/maltedev/laptop-listing-extractor/internal/analysis"
	"github.com/maltedev/laptop-listing-extractor/internal/models"
	"github.com/maltedev/laptop-listing-extractor/internal/storage"
)

// Handlers serve read-only views of the snapshot. Every request reloads the
// file, so a run finishing in another process shows up immediately.
type Handlers struct {
	snapshot *storage.Snapshot
	maxAge   time.Duration
	scorer   analysis.Scorer
	logger   *slog.Logger
	now      func() time.Time
}

func NewHandlers(snapshot *storage.Snapshot, maxAge time.Duration, scorer analysis.Scorer, logger *slog.Logger) *Handlers {
	if scorer == nil {
		scorer = analysis.NewLexiconScorer()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		snapshot: snapshot,
		maxAge:   maxAge,
		scorer:   scorer,
		logger:   logger.With("component", "api"),
		now:      time.Now,
	}
}

// HealthResponse reports the snapshot state
type HealthResponse struct {
	Status     string  `json:"status"`
	Snapshot   string  `json:"snapshot"`
	Exists     bool    `json:"exists"`
	Fresh      bool    `json:"fresh"`
	AgeSeconds float64 `json:"age_seconds,omitempty"`
}

// ProductsResponse wraps the snapshot records
type ProductsResponse struct {
	Count    int                    `json:"count"`
	Products []models.ProductRecord `json:"products"`
}

// SummaryResponse carries the analysis tables
type SummaryResponse struct {
	Summary   analysis.Summary         `json:"summary"`
	Sentiment analysis.SentimentReport `json:"sentiment"`
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	resp := HealthResponse{Status: "no_data", Snapshot: h.snapshot.Path()}
	if age, ok := h.snapshot.Age(now); ok {
		resp.Exists = true
		resp.AgeSeconds = age.Seconds()
		resp.Fresh = h.snapshot.IsFresh(now, h.maxAge)
		resp.Status = "stale"
		if resp.Fresh {
			resp.Status = "ok"
		}
	}
	h.respondJSON(w, http.StatusOK, resp)
}

// GetProducts returns the snapshot, optionally narrowed by ?brand=.
func (h *Handlers) GetProducts(w http.ResponseWriter, r *http.Request) {
	records, ok := h.load(w)
	if !ok {
		return
	}

	if brand := strings.TrimSpace(r.URL.Query().Get("brand")); brand != "" {
		filtered := make([]models.ProductRecord, 0, len(records))
		for _, rec := range records {
			if strings.EqualFold(rec.Spec("brand", ""), brand) {
				filtered = append(filtered, rec)
			}
		}
		records = filtered
	}

	h.respondJSON(w, http.StatusOK, ProductsResponse{Count: len(records), Products: records})
}

func (h *Handlers) GetSummary(w http.ResponseWriter, r *http.Request) {
	records, ok := h.load(w)
	if !ok {
		return
	}
	h.respondJSON(w, http.StatusOK, SummaryResponse{
		Summary:   analysis.Summarize(records),
		Sentiment: analysis.AnalyzeReviews(records, h.scorer),
	})
}

func (h *Handlers) GetDashboard(w http.ResponseWriter, r *http.Request) {
	records, ok := h.load(w)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := analysis.RenderDashboard(w, analysis.Dashboard{
		GeneratedAt: h.now(),
		Summary:     analysis.Summarize(records),
		Sentiment:   analysis.AnalyzeReviews(records, h.scorer),
	})
	if err != nil {
		h.logger.Error("failed to render dashboard", "error", err)
	}
}

// load reads the snapshot and writes the error response itself when it
// cannot be used.
func (h *Handlers) load(w http.ResponseWriter) ([]models.ProductRecord, bool) {
	records, err := h.snapshot.Load()
	switch {
	case err == nil:
		return records, true
	case errors.Is(err, storage.ErrSnapshotNotFound):
		h.respondError(w, http.StatusNotFound, "no snapshot available, run an extraction first")
	case errors.Is(err, storage.ErrSnapshotMalformed):
		h.logger.Error("snapshot is malformed", "error", err)
		h.respondError(w, http.StatusUnprocessableEntity, "snapshot is malformed")
	case errors.Is(err, storage.ErrSnapshotEmpty):
		w.WriteHeader(http.StatusNoContent)
	default:
		h.logger.Error("failed to load snapshot", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to load snapshot")
	}
	return nil, false
}

// Helper methods
func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
