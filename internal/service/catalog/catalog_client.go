package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"stays-be/internal/domain"
	"stays-be/internal/service"
	"stays-be/pkg/logger"
)

// Client is a thin read-only client for the external POI catalog. This
// subsystem only resolves ids to display metadata and never writes.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewClient creates a new catalog client
func NewClient(baseURL string, logger *logger.Logger) service.CatalogService {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// GetPOIs resolves poi ids to display metadata
func (c *Client) GetPOIs(ctx context.Context, poiIDs []string) ([]domain.POIMetadata, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("catalog URL is not configured")
	}
	if len(poiIDs) == 0 {
		return nil, nil
	}

	endpoint := fmt.Sprintf("%s/pois?ids=%s", c.baseURL, url.QueryEscape(strings.Join(poiIDs, ",")))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call catalog: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog returned status %d: %s", resp.StatusCode, string(body))
	}

	var payload struct {
		POIs []domain.POIMetadata `json:"pois"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		c.logger.WithFields(map[string]interface{}{
			"status_code": resp.StatusCode,
		}).Error("Failed to parse catalog response")
		return nil, fmt.Errorf("failed to parse catalog response: %w", err)
	}

	return payload.POIs, nil
}
