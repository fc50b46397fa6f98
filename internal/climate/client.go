// Package climate queries the climate-daily API for a station's recent
// observations and renders them into the side panel.
package climate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/you/climatemap/models"
)

// RecentLimit is the number of daily records requested per click
const RecentLimit = 10

// FetchError reports a failed climate request: transport failure, timeout,
// non-success status or an undecodable body.
type FetchError struct {
	ClimateID  string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("climate fetch for %s: status %d", e.ClimateID, e.StatusCode)
	}
	return fmt.Sprintf("climate fetch for %s: %v", e.ClimateID, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Client talks to the climate-daily collection
type Client struct {
	baseURL string
	year    int
	client  *http.Client
}

// NewClient creates a client for the collection at baseURL, querying year
func NewClient(baseURL string, year int, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		year:    year,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Year returns the target year of every query
func (c *Client) Year() int {
	return c.year
}

// QueryURL builds the items query for one climate identifier
func (c *Client) QueryURL(climateID string) string {
	return c.baseURL + "/items?limit=" + strconv.Itoa(RecentLimit) +
		"&sortby=-LOCAL_DATE" +
		"&CLIMATE_IDENTIFIER=" + url.QueryEscape(climateID) +
		"&LOCAL_YEAR=" + strconv.Itoa(c.year)
}

// Recent returns up to RecentLimit daily records for the station, most
// recent first. An empty slice is a valid result.
func (c *Client) Recent(ctx context.Context, climateID string) ([]models.ClimateRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.QueryURL(climateID), nil)
	if err != nil {
		return nil, &FetchError{ClimateID: climateID, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &FetchError{ClimateID: climateID, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{
			ClimateID:  climateID,
			StatusCode: resp.StatusCode,
			Err:        errors.New(resp.Status),
		}
	}

	var body models.ClimateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &FetchError{ClimateID: climateID, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	return body.Records(), nil
}
