package web_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ricirt/hello-game/internal/domain"
	"github.com/ricirt/hello-game/internal/web"
)

type fakeSubmitter struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeSubmitter) Submit(raw string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, raw)
	return domain.ValidateName(raw)
}

type fakeStats struct {
	snap *domain.StatsSnapshot
	err  error
}

func (f fakeStats) Stats(context.Context) (*domain.StatsSnapshot, error) { return f.snap, f.err }

type fixedLimiter bool

func (l fixedLimiter) Allow() bool { return bool(l) }

func newRouter(sub web.Submitter, sf web.StatsFetcher, allow bool, fallbacks *int) http.Handler {
	h := web.NewHandler(sub, sf, fixedLimiter(allow), zap.NewNop(), func() { *fallbacks++ })
	return web.NewRouter(h, prometheus.NewRegistry(), zap.NewNop())
}

func postPlay(h http.Handler, name string) *httptest.ResponseRecorder {
	form := url.Values{"name": {name}}
	req := httptest.NewRequest(http.MethodPost, "/play", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestPlay_RedirectsWithGreeting(t *testing.T) {
	sub := &fakeSubmitter{}
	var fallbacks int
	h := newRouter(sub, fakeStats{}, true, &fallbacks)

	rec := postPlay(h, "  mary jane ")

	require.Equal(t, http.StatusSeeOther, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/", loc.Path)
	assert.Equal(t, "Mary Jane", loc.Query().Get("greeting"))
	assert.Equal(t, []string{"  mary jane "}, sub.calls)
}

func TestPlay_EmptyNameStillRedirects(t *testing.T) {
	sub := &fakeSubmitter{}
	var fallbacks int
	h := newRouter(sub, fakeStats{}, true, &fallbacks)

	rec := postPlay(h, "   ")

	require.Equal(t, http.StatusSeeOther, rec.Code)
	loc, _ := url.Parse(rec.Header().Get("Location"))
	assert.Empty(t, loc.Query().Get("greeting"))
	assert.Equal(t, "Please enter your name", loc.Query().Get("error"))
}

func TestPlay_RateLimitedSkipsSubmit(t *testing.T) {
	sub := &fakeSubmitter{}
	var fallbacks int
	h := newRouter(sub, fakeStats{}, false, &fallbacks)

	rec := postPlay(h, "alice")

	require.Equal(t, http.StatusSeeOther, rec.Code)
	loc, _ := url.Parse(rec.Header().Get("Location"))
	assert.NotEmpty(t, loc.Query().Get("error"))
	assert.Empty(t, sub.calls)
}

func TestIndex_RendersGreetingEscaped(t *testing.T) {
	var fallbacks int
	h := newRouter(&fakeSubmitter{}, fakeStats{}, true, &fallbacks)

	req := httptest.NewRequest(http.MethodGet, "/?greeting="+url.QueryEscape("<b>Alice</b>"), nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Welcome to the game!")
	assert.Contains(t, body, "&lt;b&gt;Alice&lt;/b&gt;")
	assert.NotContains(t, body, "<b>Alice</b>")
}

func TestStatsPage_Live(t *testing.T) {
	top := "Alice"
	sf := fakeStats{snap: &domain.StatsSnapshot{
		TotalPlayers: 3,
		UniqueNames:  2,
		MostPopular:  &top,
		NameData:     []domain.NameCount{{Name: "Alice", Count: 2}, {Name: "Bob", Count: 1}},
	}}
	var fallbacks int
	h := newRouter(&fakeSubmitter{}, sf, true, &fallbacks)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<td>Bob</td>")
	assert.NotContains(t, body, "Backend service unavailable")
	assert.Zero(t, fallbacks)
}

func TestStatsPage_FallbackWhenBackendDown(t *testing.T) {
	var fallbacks int
	h := newRouter(&fakeSubmitter{}, fakeStats{err: errors.New("connection refused")}, true, &fallbacks)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Backend service unavailable - showing mock data")
	assert.Contains(t, body, "<strong>15</strong>")
	assert.Contains(t, body, "<td>Lisa</td>")
	assert.Equal(t, 1, fallbacks)
}
