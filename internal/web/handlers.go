package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	apimw "github.com/ricirt/hello-game/internal/api/middleware"
	"github.com/ricirt/hello-game/internal/domain"
	"github.com/ricirt/hello-game/internal/stats"
)

//go:embed templates/*.html
var templateFS embed.FS

// Each page is parsed together with the shared layout.
var pages = map[string]*template.Template{
	"index": template.Must(template.ParseFS(templateFS, "templates/base.html", "templates/index.html")),
	"stats": template.Must(template.ParseFS(templateFS, "templates/base.html", "templates/stats.html")),
}

const rateLimitedMessage = "Too many players right now, please try again in a moment"

// Submitter accepts a raw name for asynchronous publishing and returns the
// normalized name.
type Submitter interface {
	Submit(raw string) (string, error)
}

// StatsFetcher returns the backend's current snapshot.
type StatsFetcher interface {
	Stats(ctx context.Context) (*domain.StatsSnapshot, error)
}

// Limiter admits or rejects a /play request.
type Limiter interface {
	Allow() bool
}

// Handler serves the frontend pages.
type Handler struct {
	pub        Submitter
	stats      StatsFetcher
	limiter    Limiter
	logger     *zap.Logger
	onFallback func()
}

// NewHandler wires the page handlers. onFallback is optional (nil = no-op).
func NewHandler(pub Submitter, sf StatsFetcher, limiter Limiter, logger *zap.Logger, onFallback func()) *Handler {
	if onFallback == nil {
		onFallback = func() {}
	}
	return &Handler{pub: pub, stats: sf, limiter: limiter, logger: logger, onFallback: onFallback}
}

type indexView struct {
	Greeting string
	Error    string
}

// Index handles GET /
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.render(w, "index", indexView{Greeting: q.Get("greeting"), Error: q.Get("error")})
}

// Play handles POST /play. It always redirects back to the index page,
// carrying either the greeting or the reason nothing was published.
func (h *Handler) Play(w http.ResponseWriter, r *http.Request) {
	log := h.logger.With(zap.String("correlation_id", apimw.GetCorrelationID(r.Context())))

	if !h.limiter.Allow() {
		log.Warn("play rate limited")
		redirectIndex(w, r, "error", rateLimitedMessage)
		return
	}

	raw := r.PostFormValue("name")
	log.Info("received name submission", zap.String("name", raw))

	name, err := h.pub.Submit(raw)
	if err != nil {
		log.Info("name rejected", zap.Error(err))
		redirectIndex(w, r, "error", validationMessage(err))
		return
	}

	log.Info("message publishing initiated", zap.String("name", name))
	redirectIndex(w, r, "greeting", name)
}

// Stats handles GET /stats. Any backend failure renders the fallback view.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	view := stats.FallbackPageView()

	snap, err := h.stats.Stats(r.Context())
	if err != nil {
		h.logger.Error("error fetching stats from backend",
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		h.onFallback()
	} else {
		view = stats.NewPageView(snap)
	}

	h.render(w, "stats", view)
}

func (h *Handler) render(w http.ResponseWriter, page string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages[page].ExecuteTemplate(w, "base", data); err != nil {
		h.logger.Error("render template", zap.String("page", page), zap.Error(err))
	}
}

func redirectIndex(w http.ResponseWriter, r *http.Request, key, value string) {
	http.Redirect(w, r, "/?"+url.Values{key: {value}}.Encode(), http.StatusSeeOther)
}

func validationMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmptyName):
		return "Please enter your name"
	case errors.Is(err, domain.ErrNameTooLong):
		return "Name must be at most 100 characters"
	default:
		return "Your name could not be accepted"
	}
}
