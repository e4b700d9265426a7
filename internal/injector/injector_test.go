package injector_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/ricirt/hello-game/internal/injector"
)

func TestRun_PostsFormAndCountsRedirects(t *testing.T) {
	var mu sync.Mutex
	var names []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/play" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		mu.Lock()
		names = append(names, r.PostFormValue("name"))
		mu.Unlock()
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}))
	defer srv.Close()

	res := injector.New(srv.URL, time.Second, zap.NewNop()).
		WithPicker(func() string { return "Alice" }).
		Run(context.Background(), 3, time.Millisecond)

	assert.Equal(t, injector.Result{Posted: 3}, res)
	assert.Equal(t, []string{"Alice", "Alice", "Alice"}, names)
}

func TestRun_CountsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	res := injector.New(srv.URL, time.Second, zap.NewNop()).Run(context.Background(), 2, time.Millisecond)

	assert.Equal(t, injector.Result{Failed: 2}, res)
}

func TestRun_StopsOnCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := injector.New(srv.URL, time.Second, zap.NewNop()).Run(ctx, 10, time.Hour)

	assert.Equal(t, injector.Result{}, res)
}

func TestRun_InterruptedPostIsNotAFailure(t *testing.T) {
	arrived := make(chan struct{}, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		arrived <- struct{}{}
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-arrived
		cancel()
	}()

	res := injector.New(srv.URL, 5*time.Second, zap.NewNop()).Run(ctx, 3, time.Millisecond)

	assert.Equal(t, injector.Result{}, res)
}

func TestNamesPool(t *testing.T) {
	assert.Len(t, injector.Names, 24)
}
