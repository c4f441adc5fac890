// internal/infra/httpapi/server.go
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"export_stats_bot/internal/app"
	"export_stats_bot/internal/domain/chat"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

const ackText = "_OK, will go ahead and record it. This won't take long!_ :wink:"

// StatsReader serves /stats, /heatmap and the streak behind /meme.
type StatsReader interface {
	ComputeStats(ctx context.Context, windows []app.Window, asOfYear int) (map[string]app.WindowStats, error)
	BuildHeatmap(ctx context.Context) (map[int][]app.HeatmapCell, error)
}

// MemeReader serves /meme.
type MemeReader interface {
	Meme(ctx context.Context) (app.MemeResult, error)
}

// CallbackHandler processes an acknowledged interactive callback body.
type CallbackHandler interface {
	HandleCallback(ctx context.Context, body []byte) error
}

// Options configure the API handler.
type Options struct {
	Windows         []app.Window
	MaxBodyBytes    int64
	FollowUpTimeout time.Duration
	Now             func() time.Time
}

type Handler struct {
	stats        StatsReader
	memes        MemeReader
	interactions CallbackHandler
	opts         Options
	logger       *logrus.Entry
	inflight     sync.WaitGroup
}

func NewHandler(stats StatsReader, memes MemeReader, interactions CallbackHandler, opts Options, logger *logrus.Entry) *Handler {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.FollowUpTimeout <= 0 {
		opts.FollowUpTimeout = 30 * time.Second
	}
	return &Handler{
		stats:        stats,
		memes:        memes,
		interactions: interactions,
		opts:         opts,
		logger:       logger,
	}
}

// Routes builds the router wrapped in recovery, logging and CORS middleware.
func (h *Handler) Routes() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/", h.handleIndex).Methods(http.MethodGet)
	router.HandleFunc("/", h.handleInteraction).Methods(http.MethodPost)
	router.HandleFunc("/health", h.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/stats", h.handleStats).Methods(http.MethodGet)
	router.HandleFunc("/heatmap", h.handleHeatmap).Methods(http.MethodGet)
	router.HandleFunc("/meme", h.handleMeme).Methods(http.MethodGet)
	router.HandleFunc("/aio", h.handleAllInOne).Methods(http.MethodGet)

	return Recovery(h.logger)(Logging(h.logger)(CORS(router)))
}

// Wait blocks until every follow-up started by POST / has finished.
func (h *Handler) Wait() {
	h.inflight.Wait()
}

// handleIndex answers uptime monitors; anyone else gets a 404.
func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	ua := r.UserAgent()
	if strings.Contains(ua, "UptimeRobot/2.0") {
		h.logger.Debug("Uptime monitor says hello")
		w.WriteHeader(http.StatusOK)
		return
	}
	h.logger.WithField("user_agent", ua).Info("Someone else is visiting the index")
	http.NotFound(w, r)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.computeStats(r.Context())
	if err != nil {
		h.fail(w, "stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	heatmap, err := h.stats.BuildHeatmap(r.Context())
	if err != nil {
		h.fail(w, "heatmap", err)
		return
	}
	writeJSON(w, http.StatusOK, heatmap)
}

func (h *Handler) handleMeme(w http.ResponseWriter, r *http.Request) {
	meme, err := h.memes.Meme(r.Context())
	if err != nil {
		h.fail(w, "meme", err)
		return
	}
	writeJSON(w, http.StatusOK, meme)
}

type allInOne struct {
	Stats   map[string]app.WindowStats `json:"stats"`
	Heatmap map[int][]app.HeatmapCell  `json:"heatmap"`
	Meme    app.MemeResult             `json:"meme"`
}

// handleAllInOne fails as a whole if any part fails.
func (h *Handler) handleAllInOne(w http.ResponseWriter, r *http.Request) {
	var out allInOne
	var err error
	if out.Heatmap, err = h.stats.BuildHeatmap(r.Context()); err != nil {
		h.fail(w, "aio", err)
		return
	}
	if out.Stats, err = h.computeStats(r.Context()); err != nil {
		h.fail(w, "aio", err)
		return
	}
	if out.Meme, err = h.memes.Meme(r.Context()); err != nil {
		h.fail(w, "aio", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) computeStats(ctx context.Context) (map[string]app.WindowStats, error) {
	return h.stats.ComputeStats(ctx, h.opts.Windows, h.opts.Now().UTC().Year())
}

// handleInteraction acknowledges the callback at once and records it in the background.
func (h *Handler) handleInteraction(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.opts.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.logger.WithField("limit", tooLarge.Limit).Warn("Interaction body too large")
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		h.logger.WithError(err).Warn("Failed to read interaction body")
		writeError(w, http.StatusBadRequest, "could not read request body")
		return
	}

	writeJSON(w, http.StatusOK, chat.Message{
		Text:            ackText,
		ResponseType:    chat.ResponseEphemeral,
		ReplaceOriginal: false,
	})

	h.inflight.Add(1)
	go func() {
		defer h.inflight.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), h.opts.FollowUpTimeout)
		defer cancel()
		// HandleCallback logs its own failures.
		_ = h.interactions.HandleCallback(ctx, body)
	}()
}

func (h *Handler) fail(w http.ResponseWriter, endpoint string, err error) {
	h.logger.WithError(err).WithField("endpoint", endpoint).Error("Request failed")
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
