package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/FACorreiaa/go-nearby-guide/internal/types"
)

// Client is the place-suggest capability: given a coordinate and an optional
// free-text category hint, it returns raw candidates with upstream-reported
// distances.
type Client interface {
	Suggest(ctx context.Context, coord types.Coordinate, hint string) ([]types.PlaceCandidate, error)
}

// HTTPClient talks to a Yandex Geosuggest-compatible endpoint.
type HTTPClient struct {
	baseURL     string
	apiKey      string
	spanDegrees float64
	maxResults  int
	language    string
	httpClient  *http.Client
}

var _ Client = (*HTTPClient)(nil)

func NewHTTPClient(baseURL, apiKey string, spanDegrees float64, maxResults int, language string) *HTTPClient {
	return &HTTPClient{
		baseURL:     baseURL,
		apiKey:      apiKey,
		spanDegrees: spanDegrees,
		maxResults:  maxResults,
		language:    language,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

type suggestText struct {
	Text string `json:"text"`
}

type suggestDistance struct {
	Value float64 `json:"value"`
	Text  string  `json:"text"`
}

type suggestItem struct {
	Title    suggestText      `json:"title"`
	Subtitle *suggestText     `json:"subtitle,omitempty"`
	Distance *suggestDistance `json:"distance,omitempty"`
}

type suggestResponse struct {
	Results []suggestItem `json:"results"`
}

func (c *HTTPClient) Suggest(ctx context.Context, coord types.Coordinate, hint string) ([]types.PlaceCandidate, error) {
	params := url.Values{}
	params.Set("apikey", c.apiKey)
	params.Set("text", hint)
	// Suggest wants lon,lat ordering.
	params.Set("ll", fmt.Sprintf("%.6f,%.6f", coord.Longitude, coord.Latitude))
	params.Set("spn", fmt.Sprintf("%.4f,%.4f", c.spanDegrees, c.spanDegrees))
	params.Set("strict_bounds", "1")
	params.Set("results", fmt.Sprintf("%d", c.maxResults))
	params.Set("lang", c.language)
	params.Set("attrs", "uri")

	fullURL := c.baseURL + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build suggest request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call suggest API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("suggest API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result suggestResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse suggest response: %w", err)
	}

	candidates := make([]types.PlaceCandidate, 0, len(result.Results))
	for _, item := range result.Results {
		if item.Title.Text == "" || item.Distance == nil {
			// Items without a reported distance cannot be ranked; skip them.
			continue
		}
		candidate := types.PlaceCandidate{
			Title:          item.Title.Text,
			DistanceMeters: item.Distance.Value,
			DistanceText:   item.Distance.Text,
		}
		if item.Subtitle != nil {
			candidate.Subtitle = item.Subtitle.Text
		}
		candidates = append(candidates, candidate)
	}
	return candidates, nil
}
