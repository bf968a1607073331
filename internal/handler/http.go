package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/MikhailRaia/golinks/internal/logger"
	"github.com/MikhailRaia/golinks/internal/metrics"
	"github.com/MikhailRaia/golinks/internal/middleware"
	"github.com/MikhailRaia/golinks/internal/service"
	"github.com/MikhailRaia/golinks/internal/storage"
)

const (
	greeting      = "Hello World!"
	shortenPrefix = "/shorten/"
)

type URLService interface {
	Shorten(ctx context.Context, targetURL string) (string, error)
	Resolve(ctx context.Context, code string) (string, error)
	Ping(ctx context.Context) error
}

type Handler struct {
	urlService URLService
	baseURL    string
}

// NewHandler creates the HTTP handler. An empty baseURL means short URLs are
// built from the scheme and host of each incoming request.
func NewHandler(urlService URLService, baseURL string) *Handler {
	return &Handler{
		urlService: urlService,
		baseURL:    baseURL,
	}
}

func (h *Handler) RegisterRoutes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Use(logger.RequestLogger)
	r.Use(metrics.HTTPMiddleware)
	r.Use(middleware.Gzip)

	r.Get("/", h.handleGreeting)
	r.Get(shortenPrefix+"*", h.handleShorten)
	r.Post("/api/shorten", h.HandleShortenJSON)
	r.Get("/go/{code}", h.handleRedirect)
	r.Get("/ping", h.handlePing)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

func (h *Handler) handleGreeting(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(greeting))
}

// handleShorten takes everything after /shorten/, plus the query string, as the
// target URL. The path stays in its escaped form, so %2F or %E9 in the target
// are stored as sent.
func (h *Handler) handleShorten(w http.ResponseWriter, r *http.Request) {
	targetURL := strings.TrimPrefix(r.URL.EscapedPath(), shortenPrefix)
	if r.URL.RawQuery != "" {
		targetURL += "?" + r.URL.RawQuery
	}

	code, err := h.urlService.Shorten(r.Context(), targetURL)
	if err != nil {
		h.writeShortenError(w, targetURL, err)
		return
	}

	response, err := json.Marshal(service.ShortURL(h.baseFor(r), code))
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(response)
}

func (h *Handler) handleRedirect(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	targetURL, err := h.urlService.Resolve(r.Context(), code)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			metrics.RecordRedirect("not_found")
			http.Error(w, "short code not found", http.StatusNotFound)
			return
		}

		metrics.RecordRedirect("error")
		log.Error().Err(err).Str("code", code).Msg("Failed to resolve short code")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	metrics.RecordRedirect("found")
	http.Redirect(w, r, targetURL, http.StatusFound)
}

func (h *Handler) handlePing(w http.ResponseWriter, r *http.Request) {
	if err := h.urlService.Ping(r.Context()); err != nil {
		log.Error().Err(err).Msg("Storage ping failed")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) writeShortenError(w http.ResponseWriter, targetURL string, err error) {
	if errors.Is(err, service.ErrInvalidURL) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	log.Error().Err(err).Str("target", targetURL).Msg("Failed to shorten URL")
	w.WriteHeader(http.StatusInternalServerError)
}

func (h *Handler) baseFor(r *http.Request) string {
	if h.baseURL != "" {
		return h.baseURL
	}

	scheme := "http"
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}

	return scheme + "://" + r.Host
}
