// Package injector drives load against the frontend by posting random names
// to /play, the way a browser form submission would.
package injector

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Names is the pool random submissions are drawn from.
var Names = []string{
	"Alice", "Bob", "Diana", "Eve", "Grace", "Henry",
	"Ivy", "Jack", "Liam", "Noah", "Olivia", "Paul",
	"Quinn", "Ruby", "Tina", "Uma", "Victor", "Xander",
	"Yara", "Zoe", "Sarah", "Mike", "John", "Lisa",
}

// Result summarises one run.
type Result struct {
	Posted int
	Failed int
}

// Injector posts form submissions to a frontend.
type Injector struct {
	frontendURL string
	client      *http.Client
	pick        func() string
	logger      *zap.Logger
}

// New returns an Injector for frontendURL. Redirects are never followed so
// that the /play redirect itself counts as the response.
func New(frontendURL string, timeout time.Duration, logger *zap.Logger) *Injector {
	return &Injector{
		frontendURL: strings.TrimRight(frontendURL, "/"),
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		pick:   func() string { return Names[rand.IntN(len(Names))] },
		logger: logger,
	}
}

// WithPicker replaces the random name picker, mainly for tests.
func (in *Injector) WithPicker(pick func() string) *Injector {
	in.pick = pick
	return in
}

// Run posts count names, sleeping delay between posts. It stops early when
// ctx is cancelled; a post cut short by the cancellation is not a failure.
func (in *Injector) Run(ctx context.Context, count int, delay time.Duration) Result {
	var res Result
	for i := 0; i < count; i++ {
		if ctx.Err() != nil {
			return res
		}
		name := in.pick()
		if err := in.post(ctx, name); err != nil {
			if ctx.Err() != nil {
				in.logger.Info("post interrupted", zap.String("name", name))
				return res
			}
			res.Failed++
			in.logger.Warn("failed to post name", zap.String("name", name), zap.Error(err))
		} else {
			res.Posted++
			in.logger.Info("posted name", zap.String("name", name))
		}

		if i == count-1 {
			break
		}
		select {
		case <-ctx.Done():
			return res
		case <-time.After(delay):
		}
	}
	return res
}

func (in *Injector) post(ctx context.Context, name string) error {
	form := url.Values{"name": {name}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, in.frontendURL+"/play", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := in.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusFound, http.StatusSeeOther:
		return nil
	default:
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
}
