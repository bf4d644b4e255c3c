package session

import (
	"context"
	"fmt"
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"github.com/warp/vacation-planner/calendar"
	"github.com/warp/vacation-planner/policy"
)

// =============================================================================
// HTTP REMOTE - Best-effort cross-device limits source
// =============================================================================

// HTTPRemote fetches published limits from another planner instance over
// its HTTP API. Misses and transport failures both resolve to the local
// fallback; this client never panics.
type HTTPRemote struct {
	BaseURL string
	Client  *http.Client
}

func NewHTTPRemote(baseURL string) *HTTPRemote {
	return &HTTPRemote{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *HTTPRemote) FetchLimits(ctx context.Context, year int, month time.Month) (*policy.Limits, error) {
	url := fmt.Sprintf("%s/api/limits/%s", r.BaseURL, calendar.NewMonthKey(year, month))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := r.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil // no record remotely, caller falls back
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("remote limits fetch: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		State  policy.ResolutionState `json:"state"`
		Limits policy.Limits          `json:"limits"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	if body.State != policy.StatePublished {
		return nil, nil // drafts and defaults are not authoritative remotely
	}
	return &body.Limits, nil
}
