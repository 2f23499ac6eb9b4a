package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rpggio/spacetracker/internal/domain/space"
)

// HTTPObserver reads the current observation from a page-side endpoint.
// 204 No Content means no space is open.
type HTTPObserver struct {
	url  string
	http *http.Client
}

// NewHTTPObserver creates an observer polling url.
func NewHTTPObserver(url string, httpClient *http.Client) *HTTPObserver {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 2 * time.Second}
	}
	return &HTTPObserver{url: url, http: httpClient}
}

func (o *HTTPObserver) Observe(ctx context.Context) (space.Observation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.url, nil)
	if err != nil {
		return space.Absent, fmt.Errorf("building observe request: %w", err)
	}
	resp, err := o.http.Do(req)
	if err != nil {
		return space.Absent, fmt.Errorf("observing: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNoContent:
		return space.Absent, nil
	case resp.StatusCode != http.StatusOK:
		return space.Absent, fmt.Errorf("observer returned %d", resp.StatusCode)
	}

	var obs space.Observation
	if err := json.NewDecoder(resp.Body).Decode(&obs); err != nil {
		return space.Absent, fmt.Errorf("decoding observation: %w", err)
	}
	return obs, nil
}
