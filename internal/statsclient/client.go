// Package statsclient fetches player statistics from the backend API.
package statsclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	apimw "github.com/ricirt/hello-game/internal/api/middleware"
	"github.com/ricirt/hello-game/internal/domain"
)

// ErrIncompleteResponse is returned when the backend answers 200 but omits
// one of the required snapshot fields.
var ErrIncompleteResponse = errors.New("incomplete stats response")

// Client calls GET /stats on the backend. The base URL is injected from
// config so tests can point it at an httptest server.
type Client struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
}

// New returns a Client. authToken, when set, is sent as a bearer token.
func New(baseURL string, timeout time.Duration, authToken string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		authToken: authToken,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// wireSnapshot mirrors the backend body with every field optional so that
// missing keys can be told apart from zero values.
type wireSnapshot struct {
	TotalPlayers *int                `json:"total_players"`
	UniqueNames  *int                `json:"unique_names"`
	MostPopular  json.RawMessage     `json:"most_popular"`
	NameData     *[]domain.NameCount `json:"name_data"`
}

// Stats fetches the current snapshot. Transport failures, non-200 statuses,
// undecodable bodies and missing fields are all returned as errors.
func (c *Client) Stats(ctx context.Context) (*domain.StatsSnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/stats", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}
	if id := apimw.GetCorrelationID(ctx); id != "" {
		req.Header.Set(apimw.CorrelationIDHeader, id)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected backend status: %d", resp.StatusCode)
	}

	var wire wireSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if wire.TotalPlayers == nil || wire.UniqueNames == nil || wire.NameData == nil || len(wire.MostPopular) == 0 {
		return nil, ErrIncompleteResponse
	}

	snap := &domain.StatsSnapshot{
		TotalPlayers: *wire.TotalPlayers,
		UniqueNames:  *wire.UniqueNames,
		NameData:     *wire.NameData,
	}
	if err := json.Unmarshal(wire.MostPopular, &snap.MostPopular); err != nil {
		return nil, fmt.Errorf("decode most_popular: %w", err)
	}
	return snap, nil
}
